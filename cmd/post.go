// File: cmd/post.go
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/config"
	"github.com/AMCarbonaro/llatria/internal/journal"
	"github.com/AMCarbonaro/llatria/internal/observability"
	"github.com/AMCarbonaro/llatria/internal/poster"
)

var (
	postTarget  string
	listingPath string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Run one posting attempt against a marketplace form.",
	Long: `Reads a listing from a JSON file (or stdin with "-"), opens a browser
window on the target marketplace's listing form, fills the fields it can
find, stages the photos, and leaves the window open for you to review and
submit. Fields the heuristics cannot locate are reported for manual entry.`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVarP(&postTarget, "target", "t", "", "configured marketplace target name (defaults to the first)")
	postCmd.Flags().StringVarP(&listingPath, "listing", "l", "", "path to the listing JSON, or - for stdin (required)")
	_ = postCmd.MarkFlagRequired("listing")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	target, err := resolveTarget(postTarget)
	if err != nil {
		return err
	}

	listing, err := readListing(listingPath)
	if err != nil {
		return err
	}

	opts := []poster.Option{}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, poster.WithRecorder(j))
	}

	factory := func(ctx context.Context) (browser.Surface, error) {
		return browser.NewChromeSurface(ctx, cfg.Browser, logger)
	}
	ctrl := poster.New(target, cfg.Posting, cfg.Browser.Humanoid, factory, logger, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := ctrl.Post(ctx, listing)
	printResult(cmd.OutOrStdout(), result)

	if result.Success && result.RequiresManualSubmit {
		logger.Info("Waiting for you to submit the form; close the browser window when done.")
		waitForWindowClose(ctx, ctrl)
	}
	ctrl.CloseWindow()

	if !result.Success {
		return fmt.Errorf("posting failed: %s", result.Error)
	}
	return nil
}

// waitForWindowClose polls the controller until its window is gone or the
// command is interrupted.
func waitForWindowClose(ctx context.Context, ctrl *poster.Controller) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !ctrl.Status().HasWindow {
				return
			}
		}
	}
}

func resolveTarget(name string) (t config.TargetConfig, err error) {
	if name == "" {
		return cfg.Targets[0], nil
	}
	target, ok := cfg.Target(name)
	if !ok {
		return t, fmt.Errorf("unknown target %q; run 'llatria targets' to list them", name)
	}
	return target, nil
}

func readListing(path string) (schemas.Listing, error) {
	var listing schemas.Listing

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return listing, fmt.Errorf("failed to read listing: %w", err)
	}

	if err := json.Unmarshal(data, &listing); err != nil {
		return listing, fmt.Errorf("failed to parse listing JSON: %w", err)
	}
	if err := listing.Validate(); err != nil {
		return listing, err
	}

	observability.GetLogger().Debug("Listing loaded.",
		zap.String("title", listing.Title), zap.Int("images", len(listing.Images)))
	return listing, nil
}

func printResult(w io.Writer, result schemas.PostResult) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
