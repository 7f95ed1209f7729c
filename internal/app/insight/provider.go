// Package insight turns focus analytics into coaching text. The AI provider
// is best effort: every failure degrades to a fixed fallback payload and
// never fails the request that asked for it.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/logging"
)

const systemPrompt = `You are a focus coach inside a productivity app.
Given a JSON summary of the user's recent focus sessions, reply with ONLY a JSON object:
{"summary": string, "strengths": [string], "suggestions": [string], "recommended_session_minutes": integer}
Keep the summary under 40 words and give at most 3 strengths and 3 suggestions.`

// ProviderOptions tunes the AI provider. Zero values fall back to defaults.
type ProviderOptions struct {
	// Timeout bounds a single completion call.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenDuration is how long the breaker stays open before probing again.
	OpenDuration time.Duration
	Logger       *zerolog.Logger
}

// AIProvider implements domain.InsightProvider on top of a Completer,
// guarded by a circuit breaker.
type AIProvider struct {
	completer Completer
	cb        *gobreaker.CircuitBreaker[string]
	timeout   time.Duration
	log       zerolog.Logger
}

// NewAIProvider wraps c with a timeout and a consecutive-failure breaker.
func NewAIProvider(c Completer, opts ProviderOptions) *AIProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenDuration <= 0 {
		opts.OpenDuration = time.Minute
	}
	log := logging.Component("insight")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	threshold := opts.FailureThreshold
	metrics.InsightBreakerState.Set(0)
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "insight-provider",
		MaxRequests: 1,
		Timeout:     opts.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellation is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.InsightBreakerState.Set(stateValue(to))
		},
	})

	return &AIProvider{completer: c, cb: cb, timeout: opts.Timeout, log: log}
}

// Insights asks the model for coaching on summary. Transport failures and
// an open breaker return domain.ErrInsightUnavailable; unparseable replies
// return domain.ErrInsightMalformed.
func (p *AIProvider) Insights(ctx context.Context, summary domain.FocusSummary) (domain.Insight, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("encode summary: %w", err)
	}

	start := time.Now()
	raw, err := p.cb.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return p.completer.Complete(cctx, systemPrompt, string(payload))
	})
	metrics.InsightLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.log.Debug().Err(err).Msg("insight request rejected by breaker")
		}
		return domain.Insight{}, fmt.Errorf("%w: %w", domain.ErrInsightUnavailable, err)
	}

	return parseInsight(raw)
}

// State reports the breaker state.
func (p *AIProvider) State() gobreaker.State {
	return p.cb.State()
}

type insightReply struct {
	Summary                   string   `json:"summary"`
	Strengths                 []string `json:"strengths"`
	Suggestions               []string `json:"suggestions"`
	RecommendedSessionMinutes int      `json:"recommended_session_minutes"`
}

// parseInsight extracts the first JSON object from raw, tolerating markdown
// code fences and surrounding prose.
func parseInsight(raw string) (domain.Insight, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return domain.Insight{}, fmt.Errorf("no JSON object in reply: %w", domain.ErrInsightMalformed)
	}

	var r insightReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil {
		return domain.Insight{}, fmt.Errorf("%w: %v", domain.ErrInsightMalformed, err)
	}
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Summary == "" {
		return domain.Insight{}, fmt.Errorf("empty summary: %w", domain.ErrInsightMalformed)
	}

	mins := r.RecommendedSessionMinutes
	switch {
	case mins <= 0:
		mins = 25
	case mins < 5:
		mins = 5
	case mins > 180:
		mins = 180
	}

	return domain.Insight{
		Summary:                   r.Summary,
		Strengths:                 nonEmpty(r.Strengths, 3),
		Suggestions:               nonEmpty(r.Suggestions, 3),
		RecommendedSessionMinutes: mins,
		Source:                    "ai",
	}, nil
}

func nonEmpty(items []string, limit int) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
