package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
	"github.com/focusforge/focusforge/internal/infra/metrics"
	"github.com/focusforge/focusforge/internal/infra/sqlite"
)

// ─── Power-Ups ──────────────────────────────────────────────────────────────
// Purchase adds a copy to the inventory; use consumes one copy and starts
// a timed instance. Separately purchased copies may stack.

// Purchase is the outcome of buying a power-up.
type Purchase struct {
	PowerUp domain.PowerUp `json:"power_up"`
	Owned   int            `json:"owned"`
	Balance int64          `json:"balance"`
}

// PurchasePowerUp buys one copy of a catalog power-up with coins.
func (s *Service) PurchasePowerUp(ctx context.Context, userID, powerUpID string) (Purchase, error) {
	p, ok := gamification.GetPowerUp(powerUpID)
	if !ok {
		return Purchase{}, fmt.Errorf("power-up %s: %w", powerUpID, domain.ErrPowerUpNotFound)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	var out Purchase
	err := s.db.InTx(ctx, func(tx *sqlite.DB) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		w := s.wallet.With(tx)
		if p.Cost > 0 {
			if err := w.Spend(ctx, userID, p.Cost, p.ID, "buy "+p.Name); err != nil {
				return err
			}
		}
		if err := tx.AddInventory(ctx, userID, domain.InventoryPowerUp, p.ID, 1); err != nil {
			return fmt.Errorf("add to inventory: %w", err)
		}

		owned, err := ownedCopies(ctx, tx, userID, p.ID)
		if err != nil {
			return err
		}
		bal, err := w.Balance(ctx, userID)
		if err != nil {
			return err
		}
		out = Purchase{PowerUp: p, Owned: owned, Balance: bal}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}

	metrics.PowerUpsPurchased.WithLabelValues(p.ID).Inc()
	s.log.Info().Str("user", userID).Str("powerup", p.ID).Int64("cost", p.Cost).Msg("power-up purchased")
	return out, nil
}

// UsePowerUp consumes one owned copy and activates it.
func (s *Service) UsePowerUp(ctx context.Context, userID, powerUpID string) (domain.ActivePowerUp, error) {
	p, ok := gamification.GetPowerUp(powerUpID)
	if !ok {
		return domain.ActivePowerUp{}, fmt.Errorf("power-up %s: %w", powerUpID, domain.ErrPowerUpNotFound)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.now()
	var active domain.ActivePowerUp
	err := s.db.InTx(ctx, func(tx *sqlite.DB) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		consumed, err := tx.ConsumeInventory(ctx, userID, domain.InventoryPowerUp, p.ID)
		if err != nil {
			return fmt.Errorf("consume inventory: %w", err)
		}
		if !consumed {
			return fmt.Errorf("power-up %s: %w", p.ID, domain.ErrPowerUpNotOwned)
		}

		active = gamification.Activate(p, now)
		id, err := tx.InsertActivePowerUp(ctx, userID, active, now)
		if err != nil {
			return fmt.Errorf("activate: %w", err)
		}
		active.InstanceID = id

		_, err = s.notifier.With(tx).Create(ctx, powerUpNotification(userID, active, now))
		return err
	})
	if err != nil {
		return domain.ActivePowerUp{}, err
	}

	metrics.PowerUpsActivated.WithLabelValues(p.ID).Inc()
	s.log.Info().Str("user", userID).Str("powerup", p.ID).Time("expires", active.ExpiresAt).Msg("power-up activated")
	return active, nil
}

// ActivePowerUps returns the user's unexpired power-ups in activation order.
func (s *Service) ActivePowerUps(ctx context.Context, userID string) ([]domain.ActivePowerUp, error) {
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.activePowerUps(ctx, s.db, userID, s.now())
}

// activePowerUps joins stored instances with the catalog and prunes
// anything expired at now.
func (s *Service) activePowerUps(ctx context.Context, db *sqlite.DB, userID string, now time.Time) ([]domain.ActivePowerUp, error) {
	rows, err := db.ActivePowerUps(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("load active power-ups: %w", err)
	}
	active := make([]domain.ActivePowerUp, 0, len(rows))
	for _, r := range rows {
		p, ok := gamification.GetPowerUp(r.PowerUpID)
		if !ok {
			s.log.Warn().Str("user", userID).Str("powerup", r.PowerUpID).Msg("unknown power-up instance ignored")
			continue
		}
		active = append(active, domain.ActivePowerUp{PowerUp: p, InstanceID: r.ID, ExpiresAt: r.ExpiresAt})
	}
	return gamification.PruneExpired(active, now), nil
}

func ownedCopies(ctx context.Context, db *sqlite.DB, userID, powerUpID string) (int, error) {
	items, err := db.Inventory(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("inventory: %w", err)
	}
	for _, it := range items {
		if it.Kind == domain.InventoryPowerUp && it.ItemID == powerUpID {
			return it.Quantity, nil
		}
	}
	return 0, nil
}
