package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 10, "Number of users to show")
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardLimit int

var profileCmd = &cobra.Command{
	Use:   "profile USER",
	Short: "Show a user's level, streak, coins and unlocks",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Engage.Profile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:     %s (%s)\n", p.User.Name, p.User.ID)
	fmt.Fprintf(out, "Level:    %d  %s\n", p.Level.Level, levelProgress(p.Level))
	fmt.Fprintf(out, "Total XP: %d\n", p.User.TotalXP)
	fmt.Fprintf(out, "Coins:    %d\n", p.User.Coins)
	fmt.Fprintf(out, "Streak:   %d days (longest %d)\n", p.Streak, p.User.Streak.LongestDays)

	if len(p.Achievements) > 0 {
		fmt.Fprintln(out, "\nAchievements:")
		for _, a := range p.Achievements {
			fmt.Fprintf(out, "  %s %s  %s\n", a.Icon, a.Name, a.UnlockedAt.Format("2006-01-02"))
		}
	}
	if len(p.Inventory) > 0 {
		fmt.Fprintln(out, "\nInventory:")
		w := newTable(out)
		for _, item := range p.Inventory {
			fmt.Fprintf(w, "  %s\t%s\tx%d\n", item.Kind, item.ItemID, item.Quantity)
		}
		w.Flush()
	}
	for _, a := range p.ActivePowerUps {
		fmt.Fprintf(out, "Active:   %s until %s\n", a.Name, a.ExpiresAt.Format("15:04"))
	}
	return nil
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Rank users by lifetime XP",
	Args:    cobra.NoArgs,
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.Engage.Leaderboard(cmd.Context(), leaderboardLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users yet. Create one with POST /api/users.")
		return nil
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "RANK\tUSER\tLEVEL\tXP\tSTREAK")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", e.Rank, e.Name, e.Level, e.TotalXP, e.Streak)
	}
	return w.Flush()
}
