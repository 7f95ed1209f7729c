package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/focusforge/focusforge/internal/app/gamification"
)

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.checker.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.checker.Statuses(),
	})
}

// ─── Catalog & Pure Computations ────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"power_ups": gamification.ListPowerUps(),
	})
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	xp, err := strconv.ParseInt(r.URL.Query().Get("xp"), 10, 64)
	if err != nil || xp < 0 {
		writeError(w, http.StatusBadRequest, "xp must be a non-negative integer")
		return
	}
	writeJSON(w, http.StatusOK, gamification.ComputeLevelInfo(xp))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 10, 100)
	if !ok {
		return
	}
	entries, err := s.engage.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ─── Users ──────────────────────────────────────────────────────────────────

type createUserRequest struct {
	ID   string `json:"id" validate:"required,max=64,printascii"`
	Name string `json:"name" validate:"max=128"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := s.engage.CreateUser(r.Context(), req.ID, req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.engage.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─── Sessions ───────────────────────────────────────────────────────────────

// Pointers distinguish a missing field from an explicit zero.
type completeSessionRequest struct {
	FocusScore      *float64 `json:"focus_score" validate:"required,gte=0,lte=100"`
	DurationSeconds *int     `json:"duration_seconds" validate:"required,gte=0,lte=86400"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engage.CompleteSession(r.Context(), chi.URLParam(r, "id"), *req.FocusScore, *req.DurationSeconds)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 20, 200)
	if !ok {
		return
	}
	sessions, err := s.engage.Sessions(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

type teamChallengeRequest struct {
	Team string `json:"team" validate:"required,max=64"`
}

func (s *Server) handleTeamChallenge(w http.ResponseWriter, r *http.Request) {
	var req teamChallengeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	update, err := s.engage.RecordTeamChallenge(r.Context(), chi.URLParam(r, "id"), req.Team)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, update)
}

// ─── Quests & Achievements ──────────────────────────────────────────────────

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := s.engage.Quests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quests": quests})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.engage.Achievements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}

// ─── Power-Ups & Wallet ─────────────────────────────────────────────────────

func (s *Server) handleActivePowerUps(w http.ResponseWriter, r *http.Request) {
	active, err := s.engage.ActivePowerUps(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": active})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	p, err := s.engage.PurchasePowerUp(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUse(w http.ResponseWriter, r *http.Request) {
	a, err := s.engage.UsePowerUp(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pid"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	limit, ok := queryLimit(w, r, 20, 200)
	if !ok {
		return
	}
	u, err := s.engage.User(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	history, err := s.engage.Wallet().History(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance": u.Coins,
		"history": history,
	})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	limit, ok := queryLimit(w, r, 20, 100)
	if !ok {
		return
	}
	if _, err := s.engage.User(r.Context(), userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	notifs, err := s.engage.Notifications().Pending(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifs})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "nid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.engage.Notifications().MarkShown(r.Context(), chi.URLParam(r, "id"), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Insights ───────────────────────────────────────────────────────────────

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insights are disabled")
		return
	}
	report, err := s.insights.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// queryLimit parses ?limit=N, applying def when absent and rejecting values
// outside 1..upper.
func queryLimit(w http.ResponseWriter, r *http.Request, def, upper int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > upper {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(upper))
		return 0, false
	}
	return n, true
}
