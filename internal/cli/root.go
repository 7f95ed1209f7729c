// Package cli implements the FocusForge command-line interface using Cobra.
// Pure calculator commands run offline; profile and leaderboard read the
// local database; serve starts the API daemon.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "focusforge",
	Short: "FocusForge: rewards and levels for focused work",
	Long: `FocusForge turns focus sessions into XP, coins, levels, quests,
power-ups and achievements.

Run 'focusforge serve' for the HTTP API, or use the calculator commands
(reward, level, quests, powerups) offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
