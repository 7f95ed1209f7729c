package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
)

func init() {
	rewardCmd.Flags().Float64Var(&rewardScore, "score", 0, "Focus score 0-100")
	rewardCmd.Flags().IntVar(&rewardDuration, "duration", 0, "Session duration in seconds")
	rewardCmd.Flags().IntVar(&rewardStreak, "streak", 0, "Current streak in days")
	rewardCmd.Flags().StringSliceVar(&rewardPowerUps, "powerup", nil, "Active power-up id (repeatable)")
	rootCmd.AddCommand(rewardCmd)
}

var (
	rewardScore    float64
	rewardDuration int
	rewardStreak   int
	rewardPowerUps []string
)

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Compute the XP and coins a session would earn",
	Example: `  focusforge reward --score 90 --duration 1500 --streak 3
  focusforge reward --score 80 --duration 3600 --powerup xp_boost_small --powerup all_boost`,
	Args: cobra.NoArgs,
	RunE: runReward,
}

func runReward(cmd *cobra.Command, args []string) error {
	now := time.Now()
	active := make([]domain.ActivePowerUp, 0, len(rewardPowerUps))
	for _, id := range rewardPowerUps {
		p, ok := gamification.GetPowerUp(id)
		if !ok {
			return fmt.Errorf("power-up %s: %w", id, domain.ErrPowerUpNotFound)
		}
		active = append(active, gamification.Activate(p, now))
	}

	r := gamification.ComputeReward(rewardScore, rewardDuration, rewardStreak, active)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "XP:           %d\n", r.XP)
	fmt.Fprintf(out, "Coins:        %d\n", r.Coins)
	fmt.Fprintf(out, "Streak bonus: +%.0f%%\n", gamification.StreakBonus(rewardStreak)*100)
	for _, a := range active {
		fmt.Fprintf(out, "Power-up:     %s (%s x%.1f)\n", a.Name, a.Kind, a.Multiplier)
	}
	return nil
}
