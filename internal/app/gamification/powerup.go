package gamification

import (
	"time"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Power-Up Catalog ───────────────────────────────────────────────────────
// Read-only after init. Accessors hand out copies.

var powerUpCatalog = []domain.PowerUp{
	newPowerUp("xp_boost_small", "XP Boost", domain.PowerUpXPBoost, 1.5, 30*time.Minute, 100),
	newPowerUp("xp_boost_large", "Mega XP Boost", domain.PowerUpXPBoost, 2.0, 60*time.Minute, 250),
	newPowerUp("coin_boost_small", "Coin Boost", domain.PowerUpCoinBoost, 1.5, 30*time.Minute, 100),
	newPowerUp("coin_boost_large", "Mega Coin Boost", domain.PowerUpCoinBoost, 2.0, 60*time.Minute, 250),
	newPowerUp("all_boost", "Super Boost", domain.PowerUpAllBoost, 1.5, 60*time.Minute, 400),
}

var powerUpIndex = func() map[string]int {
	idx := make(map[string]int, len(powerUpCatalog))
	for i, p := range powerUpCatalog {
		idx[p.ID] = i
	}
	return idx
}()

func newPowerUp(id, name string, kind domain.PowerUpKind, mult float64, d time.Duration, cost int64) domain.PowerUp {
	return domain.PowerUp{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Multiplier: mult,
		Duration:   d,
		DurationMs: d.Milliseconds(),
		Cost:       cost,
	}
}

// GetPowerUp looks up a catalog entry. ok is false for unknown ids.
func GetPowerUp(id string) (domain.PowerUp, bool) {
	i, ok := powerUpIndex[id]
	if !ok {
		return domain.PowerUp{}, false
	}
	return powerUpCatalog[i], true
}

// ListPowerUps returns the catalog in display order.
func ListPowerUps() []domain.PowerUp {
	out := make([]domain.PowerUp, len(powerUpCatalog))
	copy(out, powerUpCatalog)
	return out
}

// Activate creates a new active instance expiring Duration after now.
func Activate(p domain.PowerUp, now time.Time) domain.ActivePowerUp {
	return domain.ActivePowerUp{
		PowerUp:   p,
		ExpiresAt: now.Add(p.Duration),
	}
}

// PruneExpired returns the instances still active at now, preserving order.
// Lazy expiry: call before every read that matters.
func PruneExpired(active []domain.ActivePowerUp, now time.Time) []domain.ActivePowerUp {
	out := make([]domain.ActivePowerUp, 0, len(active))
	for _, a := range active {
		if !a.Expired(now) {
			out = append(out, a)
		}
	}
	return out
}
