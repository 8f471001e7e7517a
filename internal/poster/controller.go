// File: internal/poster/controller.go

// Package poster owns the lifecycle of one posting attempt against one
// marketplace target: open surface, navigate, wait out the login wall, fill
// fields, upload photos, render the summary, and wait for the user to submit.
// A Controller is an explicitly constructed, injected instance; there is one
// per target and at most one attempt in flight on it at a time.
package poster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/assets"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/config"
	"github.com/AMCarbonaro/llatria/internal/filler"
	"github.com/AMCarbonaro/llatria/internal/journal"
	"github.com/AMCarbonaro/llatria/internal/locator"
	"github.com/AMCarbonaro/llatria/internal/uploader"
)

// ErrPostingInProgress rejects a second attempt while one is in flight.
var ErrPostingInProgress = errors.New("posting already in progress")

// Field label variants. Titles and descriptions carry a colloquial alternate
// because marketplace copy varies across A/B-tested form revisions; the
// alternate is tried only after the primary misses.
var (
	titleLabels       = []string{"title", "what are you selling"}
	priceLabels       = []string{"price"}
	descriptionLabels = []string{"description", "describe"}
)

// SurfaceFactory opens a fresh browser surface for one attempt. Tests inject
// a factory returning a fake.
type SurfaceFactory func(ctx context.Context) (browser.Surface, error)

// Recorder persists finished attempts. Satisfied by *journal.Journal.
type Recorder interface {
	Record(ctx context.Context, a journal.Attempt) error
}

// Controller is the per-target session controller.
type Controller struct {
	target     config.TargetConfig
	posting    config.PostingConfig
	humanoid   config.HumanoidConfig
	newSurface SurfaceFactory
	sleep      browser.Sleeper
	recorder   Recorder
	logger     *zap.Logger

	mu           sync.Mutex
	state        schemas.SessionState
	isProcessing bool
	surface      browser.Surface
	store        *assets.Store
	teardownOnce *sync.Once
	// cancelAttempt aborts the in-flight attempt. Installed before any work
	// starts so CloseWindow has a handle on the attempt even while the
	// browser is still launching.
	cancelAttempt context.CancelFunc
	// watcherDone is closed when the post-attempt watcher goroutine exits,
	// so teardown can be awaited deterministically.
	watcherDone chan struct{}
}

// Option adjusts a Controller at construction.
type Option func(*Controller)

// WithSleeper replaces the cooperative sleeper used for settle delays and
// login polling. For tests.
func WithSleeper(s browser.Sleeper) Option {
	return func(c *Controller) { c.sleep = s }
}

// WithRecorder attaches an attempt journal.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New builds a Controller for one target.
func New(target config.TargetConfig, posting config.PostingConfig, humanoid config.HumanoidConfig,
	factory SurfaceFactory, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		target:     target,
		posting:    posting,
		humanoid:   humanoid,
		newSurface: factory,
		sleep:      browser.DefaultSleeper,
		logger:     logger.Named("poster").With(zap.String("target", target.Name)),
		state:      schemas.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current session state.
func (c *Controller) State() schemas.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status answers UI polling.
func (c *Controller) Status() schemas.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schemas.Status{
		IsProcessing: c.isProcessing,
		HasWindow:    c.surface != nil && c.surface.Alive(),
	}
}

// Post runs one posting attempt end to end. It never panics across this
// boundary and never returns an error value: every outcome, including
// re-entrancy rejection and login timeout, is a structured PostResult.
func (c *Controller) Post(ctx context.Context, listing schemas.Listing) (result schemas.PostResult) {
	attemptCtx, cancelAttempt := context.WithCancel(ctx)
	defer cancelAttempt()

	c.mu.Lock()
	if c.isProcessing {
		c.mu.Unlock()
		c.logger.Warn("Posting attempt rejected; one is already in flight.")
		return schemas.PostResult{Success: false, Error: ErrPostingInProgress.Error()}
	}
	c.isProcessing = true
	c.state = schemas.StateNavigating
	c.teardownOnce = &sync.Once{}
	c.watcherDone = nil
	c.cancelAttempt = cancelAttempt
	c.mu.Unlock()

	sessionID := uuid.NewString()
	startedAt := time.Now()
	log := c.logger.With(zap.String("session_id", sessionID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Posting attempt panicked.", zap.Any("panic", r))
			c.teardown(log, schemas.StateFailed)
			result = schemas.PostResult{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		}
		c.record(sessionID, listing, startedAt, result)
	}()

	if err := listing.Validate(); err != nil {
		c.teardown(log, schemas.StateFailed)
		return schemas.PostResult{Success: false, Error: err.Error()}
	}

	result = c.run(attemptCtx, cancelAttempt, log, listing)
	return result
}

// run drives the state machine. Any failure tears the attempt down before
// returning; the success path leaves the surface open in
// AwaitingManualSubmit and hands teardown to the watcher.
func (c *Controller) run(ctx context.Context, cancelAttempt context.CancelFunc, log *zap.Logger, listing schemas.Listing) schemas.PostResult {
	store, err := assets.Stage(listing.Images, log)
	if err != nil {
		c.teardown(log, schemas.StateFailed)
		return schemas.PostResult{Success: false, Error: fmt.Sprintf("failed to stage images: %v", err)}
	}
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()

	surface, err := c.newSurface(ctx)
	if err != nil {
		c.teardown(log, terminalState(ctx))
		return schemas.PostResult{Success: false, Error: fmt.Sprintf("failed to open browser: %v", err)}
	}
	c.mu.Lock()
	c.surface = surface
	c.mu.Unlock()

	// CloseWindow may have aborted the attempt while the browser was still
	// launching; unwind before touching the page.
	if ctx.Err() != nil {
		c.teardown(log, schemas.StateClosed)
		return c.failResult(ctx, "attempt interrupted", ctx.Err())
	}

	// The user closing the window at any point is an immediate terminal
	// transition; cancel the attempt context so every pending step unwinds.
	watchStop := make(chan struct{})
	defer close(watchStop)
	go func() {
		select {
		case <-surface.Done():
			cancelAttempt()
		case <-watchStop:
		}
	}()

	log.Info("Posting attempt started.", zap.String("form_url", c.target.FormURL))

	if err := surface.Navigate(ctx, c.target.FormURL); err != nil {
		c.teardown(log, terminalState(ctx))
		return c.failResult(ctx, "navigation failed", err)
	}

	if ok, res := c.awaitLogin(ctx, log, surface); !ok {
		c.teardown(log, terminalState(ctx))
		return res
	}

	c.setState(schemas.StateFormReady)
	if err := c.sleep(ctx, c.posting.FormSettleDelay); err != nil {
		c.teardown(log, terminalState(ctx))
		return c.failResult(ctx, "interrupted waiting for form", err)
	}

	c.setState(schemas.StateFilling)
	input := browser.NewInput(surface, c.humanoid, log).WithSleeper(c.sleep)
	loc := locator.New(surface, log)
	fill := filler.New(loc, input, c.posting.FieldSettleDelay, log).WithSleeper(c.sleep)

	summary := schemas.FillSummary{
		Title:       fill.FillAny(ctx, titleLabels, listing.Title, schemas.FieldText),
		Price:       fill.FillAny(ctx, priceLabels, listing.Price, schemas.FieldNumber),
		Description: fill.FillAny(ctx, descriptionLabels, listing.Description, schemas.FieldTextarea),
		Photos:      true,
	}

	var uploadRes schemas.UploadResult
	if len(listing.Images) > 0 {
		c.setState(schemas.StateUploadingPhotos)
		up := uploader.New(surface, loc, input, c.posting.FallbackDir, log)
		uploadRes = up.Upload(ctx, store)
		summary.Photos = uploadRes.Success
	}

	if ctx.Err() != nil {
		c.teardown(log, schemas.StateClosed)
		return c.failResult(ctx, "attempt interrupted", ctx.Err())
	}

	c.setState(schemas.StateAwaitingManualSubmit)
	if err := surface.Evaluate(ctx, summaryOverlayScript(summary, uploadRes), nil); err != nil {
		// The overlay is informational; a failure to render it does not sink
		// the attempt.
		log.Debug("Failed to render summary overlay.", zap.Error(err))
	}

	c.watchForClose(log, surface)

	url, _ := surface.Location(ctx)
	log.Info("Attempt ready for manual submission.",
		zap.Bool("title", summary.Title),
		zap.Bool("price", summary.Price),
		zap.Bool("description", summary.Description),
		zap.Bool("photos", summary.Photos))

	return schemas.PostResult{
		Success:              true,
		FillResults:          &summary,
		URL:                  url,
		Message:              "Listing prepared. Review the form and submit it yourself.",
		RequiresManualSubmit: true,
	}
}

// awaitLogin polls the surface URL until it stops indicating a login or
// checkpoint wall. Polling is deliberate: a third party's page offers no
// reliable navigation callback, so the controller watches coarse, idempotent
// signals instead.
func (c *Controller) awaitLogin(ctx context.Context, log *zap.Logger, surface browser.Surface) (bool, schemas.PostResult) {
	url, err := surface.Location(ctx)
	if err != nil {
		return false, c.failResult(ctx, "failed to read page location", err)
	}
	if !c.target.IsLoginURL(url) {
		return true, schemas.PostResult{}
	}

	c.setState(schemas.StateAwaitingLogin)
	log.Info("Login wall detected; waiting for the user to sign in.",
		zap.Duration("timeout", c.posting.LoginTimeout))

	var elapsed time.Duration
	for elapsed < c.posting.LoginTimeout {
		if err := c.sleep(ctx, c.posting.LoginPollInterval); err != nil {
			return false, c.failResult(ctx, "interrupted waiting for login", err)
		}
		elapsed += c.posting.LoginPollInterval

		url, err = surface.Location(ctx)
		if err != nil {
			return false, c.failResult(ctx, "failed to read page location", err)
		}
		if !c.target.IsLoginURL(url) {
			log.Info("Login completed.", zap.Duration("waited", elapsed))
			return true, schemas.PostResult{}
		}
	}

	log.Warn("Login timeout.", zap.Duration("timeout", c.posting.LoginTimeout))
	return false, schemas.PostResult{
		Success:       false,
		Error:         fmt.Sprintf("login timeout after %s; sign in and try again", c.posting.LoginTimeout),
		RequiresLogin: true,
	}
}

// watchForClose hands teardown of a successful attempt to a goroutine that
// fires when the user closes the window (or CloseWindow is called). The
// session stays in AwaitingManualSubmit until then.
func (c *Controller) watchForClose(log *zap.Logger, surface browser.Surface) {
	done := make(chan struct{})
	c.mu.Lock()
	c.watcherDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		<-surface.Done()
		log.Info("Surface closed; finishing attempt.")
		c.teardown(log, schemas.StateClosed)
	}()
}

// CloseWindow forces teardown from outside the state machine, for when the
// user abandons the flow. Safe to call at any time, including with no attempt
// in flight.
func (c *Controller) CloseWindow() {
	c.mu.Lock()
	surface := c.surface
	watcher := c.watcherDone
	cancel := c.cancelAttempt
	processing := c.isProcessing
	c.mu.Unlock()

	if surface != nil {
		_ = surface.Close()
	}
	if watcher != nil {
		<-watcher
		return
	}
	if processing {
		// The attempt is still mid-flight with no watcher registered yet.
		// Signal it to abort and let it run its own teardown; releasing the
		// processing guard from here would let a second attempt start while
		// this one is still unwinding.
		if cancel != nil {
			cancel()
		}
		return
	}
	c.teardown(c.logger, schemas.StateClosed)
	// A failed attempt parks in Failed; closing moves it to rest.
	c.mu.Lock()
	if c.state == schemas.StateFailed {
		c.state = schemas.StateClosed
	}
	c.mu.Unlock()
}

// setState records a state transition.
func (c *Controller) setState(s schemas.SessionState) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("Session state changed.",
		zap.String("from", string(prev)), zap.String("to", string(s)))
}

// teardown closes the surface, removes temp assets, and releases the
// processing guard, leaving the session in the given terminal state. Exactly
// one teardown runs per attempt no matter how many exit paths race to it.
func (c *Controller) teardown(log *zap.Logger, final schemas.SessionState) {
	c.mu.Lock()
	once := c.teardownOnce
	surface := c.surface
	store := c.store
	c.mu.Unlock()

	if once == nil {
		return
	}
	once.Do(func() {
		if surface != nil {
			_ = surface.Close()
		}
		if store != nil {
			store.Cleanup()
		}
		c.mu.Lock()
		c.surface = nil
		c.store = nil
		c.cancelAttempt = nil
		c.state = final
		c.isProcessing = false
		c.mu.Unlock()
		log.Debug("Session torn down.", zap.String("state", string(final)))
	})
}

// terminalState picks the terminal state for a failing attempt: a cancelled
// context means the window went away, anything else is a failure in its own
// right.
func terminalState(ctx context.Context) schemas.SessionState {
	if ctx.Err() != nil {
		return schemas.StateClosed
	}
	return schemas.StateFailed
}

// failResult shapes an unexpected failure. A dead surface supersedes whatever
// error the failing step reported.
func (c *Controller) failResult(ctx context.Context, msg string, err error) schemas.PostResult {
	if ctx.Err() != nil {
		return schemas.PostResult{Success: false, Error: "browser window was closed before the attempt finished"}
	}
	return schemas.PostResult{Success: false, Error: fmt.Sprintf("%s: %v", msg, err)}
}

// record journals the finished attempt. Best effort; a journal failure never
// alters the result.
func (c *Controller) record(sessionID string, listing schemas.Listing, startedAt time.Time, result schemas.PostResult) {
	if c.recorder == nil {
		return
	}
	a := journal.Attempt{
		ID:            sessionID,
		Target:        c.target.Name,
		Title:         listing.Title,
		Success:       result.Success,
		RequiresLogin: result.RequiresLogin,
		Error:         result.Error,
		StartedAt:     startedAt,
		FinishedAt:    time.Now(),
	}
	if result.FillResults != nil {
		a.FilledTitle = result.FillResults.Title
		a.FilledPrice = result.FillResults.Price
		a.FilledDesc = result.FillResults.Description
		a.FilledPhotos = result.FillResults.Photos
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.recorder.Record(ctx, a); err != nil {
		c.logger.Warn("Failed to journal attempt.", zap.Error(err))
	}
}
