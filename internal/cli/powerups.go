package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focusforge/focusforge/internal/app/gamification"
)

func init() {
	rootCmd.AddCommand(powerupsCmd)
}

var powerupsCmd = &cobra.Command{
	Use:     "powerups",
	Aliases: []string{"shop"},
	Short:   "List the power-up catalog",
	Args:    cobra.NoArgs,
	RunE:    runPowerUps,
}

func runPowerUps(cmd *cobra.Command, args []string) error {
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tKIND\tMULTIPLIER\tDURATION\tCOST")
	for _, p := range gamification.ListPowerUps() {
		fmt.Fprintf(w, "%s\t%s\t%s\tx%.1f\t%s\t%d\n",
			p.ID, p.Name, p.Kind, p.Multiplier, p.Duration, p.Cost)
	}
	return w.Flush()
}
