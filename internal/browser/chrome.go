// File: internal/browser/chrome.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/internal/config"
)

// ChromeSurface drives a real, headful Chrome window over CDP.
type ChromeSurface struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel tears down the exec allocator after the browser context.
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	logger      *zap.Logger
	closeOnce   sync.Once
}

var _ Surface = (*ChromeSurface)(nil)

// NewChromeSurface launches a browser window. The window is always visible
// unless the config explicitly says otherwise; the user has to be able to log
// in and press submit themselves.
func NewChromeSurface(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*ChromeSurface, error) {
	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", cfg.Headless),
		// Keeps navigator.webdriver and friends from advertising automation.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	id := uuid.NewString()
	s := &ChromeSurface{
		id:          id,
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		navTimeout:  cfg.NavigationTimeout,
		logger:      logger.Named("surface").With(zap.String("surface_id", id)),
	}

	// Force the browser process to start now so launch failures surface here
	// rather than on the first navigation.
	startCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.logger.Debug("Browser surface launched.")
	return s, nil
}

// ID returns the surface's unique identifier.
func (s *ChromeSurface) ID() string { return s.id }

// run executes chromedp actions against the surface, honoring cancellation of
// both the surface's own context and the caller's.
func (s *ChromeSurface) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSurfaceClosed
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if s.ctx.Err() != nil {
		return ErrSurfaceClosed
	}
	return err
}

// Navigate implements Surface.
func (s *ChromeSurface) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating surface.", zap.String("url", url))
	if s.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navTimeout)
		defer cancel()
	}
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Location implements Surface.
func (s *ChromeSurface) Location(ctx context.Context) (string, error) {
	var url string
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.run(opCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read surface location: %w", err)
	}
	return url, nil
}

// Evaluate implements Surface. The page is a separate, less-trusted execution
// context: scripts run silently, promises are awaited, and results come back
// by value for the caller to validate.
func (s *ChromeSurface) Evaluate(ctx context.Context, script string, out any) error {
	var raw json.RawMessage
	opCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	err := s.run(opCtx,
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal script result: %w (payload: %s)", err, string(raw))
	}
	return nil
}

// DispatchMouse implements Surface.
func (s *ChromeSurface) DispatchMouse(ctx context.Context, ev MouseEvent) error {
	p := input.DispatchMouseEvent(input.MouseType(ev.Type), ev.X, ev.Y)
	if ev.Button != "" {
		p = p.WithButton(input.MouseButton(ev.Button)).
			WithClickCount(int64(ev.ClickCount))
	}

	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.run(opCtx, p); err != nil {
		return fmt.Errorf("failed to dispatch %s event: %w", ev.Type, err)
	}
	return nil
}

// DispatchKey implements Surface, sending a KeyDown/KeyUp pair with the
// requested modifier bitmask.
func (s *ChromeSurface) DispatchKey(ctx context.Context, ev KeyEvent) error {
	var mods input.Modifier
	if ev.Modifiers&ModAlt != 0 {
		mods |= input.ModifierAlt
	}
	if ev.Modifiers&ModCtrl != 0 {
		mods |= input.ModifierCtrl
	}
	if ev.Modifiers&ModMeta != 0 {
		mods |= input.ModifierMeta
	}
	if ev.Modifiers&ModShift != 0 {
		mods |= input.ModifierShift
	}

	keyDown := input.DispatchKeyEvent(input.KeyDown).
		WithModifiers(mods).
		WithKey(ev.Key)
	keyUp := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(mods).
		WithKey(ev.Key)

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.run(opCtx, keyDown); err != nil {
		return fmt.Errorf("failed to dispatch key %q: %w", ev.Key, err)
	}
	// Hold between the down and up halves, like a pressed key has.
	select {
	case <-time.After(keyHold()):
	case <-opCtx.Done():
		return opCtx.Err()
	}
	if err := s.run(opCtx, keyUp); err != nil {
		return fmt.Errorf("failed to dispatch key %q: %w", ev.Key, err)
	}
	return nil
}

// keyHold samples the pause between the down and up halves of a structured
// key press.
func keyHold() time.Duration {
	return time.Duration(15+rand.Intn(35)) * time.Millisecond
}

// SendText implements Surface.
func (s *ChromeSurface) SendText(ctx context.Context, text string) error {
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.run(opCtx, chromedp.KeyEvent(text)); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

// Alive implements Surface. The browser context is cancelled when the user
// closes the window, so a live context means a live window.
func (s *ChromeSurface) Alive() bool {
	return s.ctx.Err() == nil
}

// Done implements Surface.
func (s *ChromeSurface) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Close implements Surface. Idempotent; later calls are no-ops.
func (s *ChromeSurface) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser surface.")
		// chromedp.Cancel asks the browser to shut down gracefully before the
		// contexts are torn down.
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.logger.Debug("Graceful browser shutdown reported an error.", zap.Error(err))
		}
		s.cancel()
		s.allocCancel()
	})
	return nil
}
