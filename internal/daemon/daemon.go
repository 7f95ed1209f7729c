package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/api"
	"github.com/focusforge/focusforge/internal/app/engagement"
	"github.com/focusforge/focusforge/internal/app/insight"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/health"
	"github.com/focusforge/focusforge/internal/infra/janitor"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
	"github.com/focusforge/focusforge/internal/logging"
)

// Daemon is the FocusForge runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Engage   *engagement.Service
	Insights *insight.Service
	Janitor  *janitor.Janitor
	Health   *health.Checker
	Server   *api.Server

	log    zerolog.Logger
	cancel context.CancelFunc
}

// New loads the config file and creates a Daemon.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.Component("daemon")

	dir := cfg.Storage.Dir
	if dir == "" {
		dir = focusforgeHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	engage := engagement.NewService(db, engagement.Options{
		Policy: domain.NotificationPolicy{
			MaxPerDay:  cfg.Notifications.MaxPerDay,
			QuietStart: cfg.Notifications.QuietStart,
			QuietEnd:   cfg.Notifications.QuietEnd,
		},
	})

	provider, err := newInsightProvider(cfg.Insight, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	insights := insight.NewService(db, provider, insight.ServiceOptions{})

	checker := health.NewChecker(db, dir)

	srv := api.NewServer(engage, insights, checker, api.Config{
		CORSOrigins:        cfg.API.CORSOrigins,
		RateLimitPerMinute: cfg.API.RateLimitPerMinute,
	})
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Engage:   engage,
		Insights: insights,
		Janitor:  janitor.New(db, janitor.Options{Schedule: cfg.Janitor.Schedule}),
		Health:   checker,
		Server:   srv,
		log:      log,
	}, nil
}

// newInsightProvider builds the configured provider. "openai" without an
// API key degrades to the rule-based provider with a warning.
func newInsightProvider(cfg InsightConfig, log zerolog.Logger) (domain.InsightProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "rules":
		return insight.RuleProvider{}, nil
	case "openai":
		if cfg.APIKey == "" {
			log.Warn().Msg("insight provider is openai but no API key is set, using rules")
			return insight.RuleProvider{}, nil
		}
		completer, err := insight.NewOpenAICompleter(insight.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("openai completer: %w", err)
		}
		return insight.NewAIProvider(completer, insight.ProviderOptions{
			Timeout: parseDuration(cfg.Timeout, 10*time.Second),
		}), nil
	default:
		return nil, fmt.Errorf("unknown insight provider %q", cfg.Provider)
	}
}

// Serve starts the HTTP server and background jobs, blocking until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	go d.Health.Run(ctx)
	if err := d.Janitor.Start(ctx); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-sigCh:
			d.log.Info().Msg("shutting down")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		d.Janitor.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.log.Error().Err(err).Msg("http shutdown")
		}
	}()

	fmt.Printf("FocusForge serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}
	d.log.Info().Str("addr", addr).Msg("api listening")

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		d.DB.Close()
		return err
	}
	<-done
	return d.DB.Close()
}

// Close releases daemon resources. Used by one-shot CLI commands that
// never call Serve.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
