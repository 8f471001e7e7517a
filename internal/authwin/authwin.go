// File: internal/authwin/authwin.go

// Package authwin opens a login window for one marketplace and resolves when
// the user has signed in. It is invoked from the settings flow, outside any
// posting attempt. A login the user abandons by closing the window is an
// expected outcome, not an error.
package authwin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/config"
)

// SurfaceFactory opens the login surface.
type SurfaceFactory func(ctx context.Context) (browser.Surface, error)

// Window is the reduced login-only state machine.
type Window struct {
	target     config.TargetConfig
	posting    config.PostingConfig
	newSurface SurfaceFactory
	sleep      browser.Sleeper
	logger     *zap.Logger
}

// New builds a login window for one target.
func New(target config.TargetConfig, posting config.PostingConfig, factory SurfaceFactory, logger *zap.Logger) *Window {
	return &Window{
		target:     target,
		posting:    posting,
		newSurface: factory,
		sleep:      browser.DefaultSleeper,
		logger:     logger.Named("authwin").With(zap.String("target", target.Name)),
	}
}

// WithSleeper replaces the sleeper. For tests.
func (w *Window) WithSleeper(s browser.Sleeper) *Window {
	w.sleep = s
	return w
}

// Login opens the target's login page and polls the URL until it stops
// indicating a login or checkpoint wall. Returns true once the session looks
// signed in; false with a nil error when the user closes the window first.
func (w *Window) Login(ctx context.Context) (bool, error) {
	url := w.target.LoginURL
	if url == "" {
		url = w.target.FormURL
	}

	surface, err := w.newSurface(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to open login window: %w", err)
	}
	defer surface.Close()

	if err := surface.Navigate(ctx, url); err != nil {
		if !surface.Alive() {
			w.logger.Info("Login window closed by the user.")
			return false, nil
		}
		return false, fmt.Errorf("failed to open login page: %w", err)
	}

	w.logger.Info("Login window open; waiting for sign-in.", zap.String("url", url))
	for {
		if err := w.sleep(ctx, w.posting.LoginPollInterval); err != nil {
			return false, err
		}
		if !surface.Alive() {
			w.logger.Info("Login window closed by the user.")
			return false, nil
		}

		current, err := surface.Location(ctx)
		if err != nil {
			if !surface.Alive() {
				w.logger.Info("Login window closed by the user.")
				return false, nil
			}
			return false, fmt.Errorf("failed to read login window location: %w", err)
		}
		if !w.target.IsLoginURL(current) {
			w.logger.Info("Sign-in detected.", zap.String("url", current))
			return true, nil
		}
	}
}
