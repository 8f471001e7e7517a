// File: internal/browser/input.go
package browser

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/internal/config"
)

// Sleeper pauses for the given duration, honoring context cancellation. Tests
// inject a no-op sleeper so humanized timing does not slow them down.
type Sleeper func(ctx context.Context, d time.Duration) error

// DefaultSleeper is the production sleeper.
func DefaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Input provides the humanized interaction primitives: click, shortcut, and
// typed text. Every primitive is a silent no-op when the surface is absent or
// already gone; "nothing to act on" is an expected condition here, not an
// error.
type Input struct {
	surface Surface
	cfg     config.HumanoidConfig
	logger  *zap.Logger
	sleep   Sleeper

	mu    sync.Mutex
	rng   *rand.Rand
	noise *perlin.Perlin
	// lastX, lastY track the pointer so approach paths start from where the
	// previous movement ended.
	lastX, lastY float64
}

// NewInput builds the primitive set over a surface. surface may be nil.
func NewInput(surface Surface, cfg config.HumanoidConfig, logger *zap.Logger) *Input {
	seed := time.Now().UnixNano()
	return &Input{
		surface: surface,
		cfg:     cfg,
		logger:  logger.Named("input"),
		sleep:   DefaultSleeper,
		rng:     rand.New(rand.NewSource(seed)),
		noise:   perlin.NewPerlin(2, 2, 3, seed),
	}
}

// WithSleeper replaces the sleeper. For tests.
func (in *Input) WithSleeper(s Sleeper) *Input {
	in.sleep = s
	return in
}

// usable reports whether there is a live surface to act on.
func (in *Input) usable() bool {
	return in.surface != nil && in.surface.Alive()
}

// Click moves the pointer to (x, y) along a noised approach path, presses,
// holds briefly, and releases. Instant teleport-and-click is a classic
// automation tell.
func (in *Input) Click(ctx context.Context, x, y float64) error {
	if !in.usable() {
		in.logger.Debug("Click skipped; no live surface.")
		return nil
	}

	if err := in.approach(ctx, x, y); err != nil {
		return err
	}

	press := MouseEvent{Type: MousePressed, X: x, Y: y, Button: "left", ClickCount: 1}
	if err := in.surface.DispatchMouse(ctx, press); err != nil {
		return err
	}
	if err := in.sleep(ctx, in.clickHold()); err != nil {
		return err
	}
	release := MouseEvent{Type: MouseReleased, X: x, Y: y, Button: "left", ClickCount: 1}
	if err := in.surface.DispatchMouse(ctx, release); err != nil {
		return err
	}

	in.mu.Lock()
	in.lastX, in.lastY = x, y
	in.mu.Unlock()
	return nil
}

// approach dispatches intermediate mouseMoved events from the last pointer
// position toward the target, with perlin noise perpendicular to the path.
func (in *Input) approach(ctx context.Context, x, y float64) error {
	in.mu.Lock()
	startX, startY := in.lastX, in.lastY
	if startX == 0 && startY == 0 {
		// First movement of the session starts from a random nearby spot.
		startX = x + (in.rng.Float64()-0.5)*220
		startY = y + (in.rng.Float64()-0.5)*160
	}
	phase := in.rng.Float64() * 100
	in.mu.Unlock()

	steps := in.cfg.MoveSteps
	if steps <= 0 {
		steps = 1
	}
	dx, dy := x-startX, y-startY
	dist := math.Hypot(dx, dy)
	// Unit normal to the path, for offsetting intermediate points sideways.
	nx, ny := 0.0, 0.0
	if dist > 0 {
		nx, ny = -dy/dist, dx/dist
	}

	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		// Ease in/out so the pointer accelerates and decelerates.
		eased := t * t * (3 - 2*t)
		offset := in.noise.Noise1D(phase+t*3) * in.cfg.PerlinAmplitude * math.Sin(t*math.Pi)
		mx := startX + dx*eased + nx*offset
		my := startY + dy*eased + ny*offset
		if i == steps {
			mx, my = x, y
		}
		if err := in.surface.DispatchMouse(ctx, MouseEvent{Type: MouseMoved, X: mx, Y: my}); err != nil {
			return err
		}
		if err := in.sleep(ctx, in.moveStepDelay()); err != nil {
			return err
		}
	}
	return nil
}

// SelectAll issues the platform select-all shortcut into the focused element.
func (in *Input) SelectAll(ctx context.Context) error {
	if !in.usable() {
		in.logger.Debug("SelectAll skipped; no live surface.")
		return nil
	}
	mod := ModCtrl
	if runtime.GOOS == "darwin" {
		mod = ModMeta
	}
	return in.surface.DispatchKey(ctx, KeyEvent{Key: "a", Modifiers: mod})
}

// TypeText types the text rune by rune with jittered inter-key delays drawn
// from a normal distribution.
func (in *Input) TypeText(ctx context.Context, text string) error {
	if !in.usable() {
		in.logger.Debug("TypeText skipped; no live surface.")
		return nil
	}
	for _, r := range text {
		if err := in.surface.SendText(ctx, string(r)); err != nil {
			return err
		}
		if err := in.sleep(ctx, in.keyDelay()); err != nil {
			return err
		}
	}
	return nil
}

// keyDelay samples the inter-key delay, clamped at the configured minimum.
func (in *Input) keyDelay() time.Duration {
	in.mu.Lock()
	norm := in.rng.NormFloat64()
	in.mu.Unlock()

	delay := norm*in.cfg.KeyDelayStdDevMs + in.cfg.KeyDelayMeanMs
	delay = math.Max(in.cfg.KeyDelayMinMs, delay)
	return time.Duration(delay) * time.Millisecond
}

// clickHold samples the press-to-release hold window.
func (in *Input) clickHold() time.Duration {
	lo, hi := in.cfg.ClickHoldMinMs, in.cfg.ClickHoldMaxMs
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	in.mu.Lock()
	hold := lo + in.rng.Intn(hi-lo)
	in.mu.Unlock()
	return time.Duration(hold) * time.Millisecond
}

func (in *Input) moveStepDelay() time.Duration {
	in.mu.Lock()
	ms := 8 + in.rng.Intn(10)
	in.mu.Unlock()
	return time.Duration(ms) * time.Millisecond
}
