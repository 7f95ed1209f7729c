package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusforge/focusforge/internal/app/gamification"
	"github.com/focusforge/focusforge/internal/domain"
)

func init() {
	questsCmd.Flags().IntVar(&questsStreak, "weekly-streak", 0, "Weekly streak used to pick daily difficulty")
	rootCmd.AddCommand(questsCmd)
}

var questsStreak int

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Preview the daily and weekly quests generated for today",
	Args:  cobra.NoArgs,
	RunE:  runQuests,
}

func runQuests(cmd *cobra.Command, args []string) error {
	now := time.Now()
	quests := append(gamification.GenerateDaily(now, questsStreak), gamification.GenerateWeekly(now)...)

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tDIFFICULTY\tGOAL\tREWARD\tENDS")
	for _, q := range quests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d XP / %d coins\t%s\n",
			q.ID,
			q.Name,
			q.Difficulty,
			questGoal(q),
			q.Rewards.XP, q.Rewards.Coins,
			q.EndDate.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func questGoal(q domain.Quest) string {
	if len(q.Conditions) == 0 {
		return "-"
	}
	c := q.Conditions[0]
	if c.MinScore > 0 {
		return fmt.Sprintf("%s %.0f (score >= %.0f)", c.Type, c.Target, c.MinScore)
	}
	return fmt.Sprintf("%s %.0f", c.Type, c.Target)
}
