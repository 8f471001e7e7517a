// File: cmd/login.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AMCarbonaro/llatria/internal/authwin"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/observability"
)

var loginTarget string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a marketplace login window and wait for sign-in.",
	Long: `Opens a browser window on the target marketplace's login page and waits
until the page navigates away from the login wall. Closing the window before
signing in cancels the login; that is not treated as an error.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginTarget, "target", "t", "", "configured marketplace target name (defaults to the first)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	target, err := resolveTarget(loginTarget)
	if err != nil {
		return err
	}

	factory := func(ctx context.Context) (browser.Surface, error) {
		return browser.NewChromeSurface(ctx, cfg.Browser, logger)
	}
	window := authwin.New(target, cfg.Posting, factory, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ok, err := window.Login(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Login cancelled.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s.\n", target.Name)
	return nil
}
