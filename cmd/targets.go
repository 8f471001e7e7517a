// File: cmd/targets.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the configured marketplace targets.",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range cfg.Targets {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  form:  %s\n", t.Name, t.FormURL)
			if t.LoginURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  login: %s\n", t.LoginURL)
			}
			if len(t.LoginIndicators) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  login indicators: %s\n", strings.Join(t.LoginIndicators, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
