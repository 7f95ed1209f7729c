package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure; no infrastructure dependency.

var (
	// Quest errors
	ErrQuestNotActive = errors.New("quest is not active")
	ErrQuestMalformed = errors.New("quest has no conditions")
	ErrQuestNotFound  = errors.New("quest not found")

	// Power-up errors
	ErrPowerUpNotFound   = errors.New("power-up not found")
	ErrPowerUpNotOwned   = errors.New("power-up not in inventory")
	ErrInsufficientFunds = errors.New("insufficient coins")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrUserIDEmpty  = errors.New("user id must not be empty")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Insight errors
	ErrInsightUnavailable = errors.New("insight provider unavailable")
	ErrInsightMalformed   = errors.New("insight response is not valid JSON")
)
