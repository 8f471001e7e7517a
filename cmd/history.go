// File: cmd/history.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AMCarbonaro/llatria/internal/journal"
	"github.com/AMCarbonaro/llatria/internal/observability"
)

var (
	historyTarget string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent posting attempts from the journal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Journal.Enabled {
			return fmt.Errorf("the attempt journal is disabled in configuration")
		}
		j, err := journal.Open(cfg.Journal.Path, observability.GetLogger())
		if err != nil {
			return err
		}
		defer j.Close()

		attempts, err := j.Recent(cmd.Context(), historyTarget, historyLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No posting attempts recorded yet.")
			return nil
		}

		for _, a := range attempts {
			status := "ok"
			switch {
			case a.RequiresLogin:
				status = "login required"
			case !a.Success:
				status = "failed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s  %-30q  %s\n",
				a.StartedAt.Local().Format("2006-01-02 15:04"), a.Target, a.Title, status)
			if a.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", a.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyTarget, "target", "t", "", "filter by target name")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum attempts to show")
	rootCmd.AddCommand(historyCmd)
}
