package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/focusforge/focusforge/internal/app/gamification"
)

func init() {
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level XP",
	Short: "Show the level and progress for a lifetime XP total",
	Args:  cobra.ExactArgs(1),
	RunE:  runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	xp, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || xp < 0 {
		return fmt.Errorf("xp must be a non-negative integer, got %q", args[0])
	}

	info := gamification.ComputeLevelInfo(xp)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Level %d\n", info.Level)
	fmt.Fprintf(out, "  %s\n", levelProgress(info))
	fmt.Fprintf(out, "  %d XP to level %d", info.XPToNextLevel(), info.Level+1)
	next := info.NextLevelReward
	if next.PowerUpID != "" {
		fmt.Fprintf(out, " (reward: %d coins + %s)\n", next.Coins, next.PowerUpID)
	} else {
		fmt.Fprintf(out, " (reward: %d coins)\n", next.Coins)
	}
	return nil
}
