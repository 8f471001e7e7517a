// File: internal/browser/surface.go
package browser

import (
	"context"
	"errors"
)

// ErrSurfaceClosed is returned by surface operations after the underlying
// browser window has gone away.
var ErrSurfaceClosed = errors.New("browser surface is closed")

// MouseType names a pointer event phase.
type MouseType string

const (
	MouseMoved    MouseType = "mouseMoved"
	MousePressed  MouseType = "mousePressed"
	MouseReleased MouseType = "mouseReleased"
)

// Modifier is a bitmask of held modifier keys for structured key events.
type Modifier int

const (
	ModAlt Modifier = 1 << iota
	ModCtrl
	ModMeta
	ModShift
)

// MouseEvent is a single pointer event in viewport coordinates.
type MouseEvent struct {
	Type       MouseType
	X, Y       float64
	Button     string
	ClickCount int
}

// KeyEvent is a structured key press (modifiers + named key), dispatched as a
// down/up pair.
type KeyEvent struct {
	Key       string
	Modifiers Modifier
}

// Surface is one controlled browser window. It is technology-agnostic so the
// locator, filler and controller can be exercised against a fake in tests; the
// chromedp implementation lives in this package.
type Surface interface {
	// Navigate drives the surface to the given URL and waits for the load to
	// settle.
	Navigate(ctx context.Context, url string) error
	// Location reports the surface's current URL.
	Location(ctx context.Context) (string, error)
	// Evaluate runs a script in the page, awaits any promise, and unmarshals
	// the by-value result into out. A nil out discards the result.
	Evaluate(ctx context.Context, script string, out any) error
	// DispatchMouse sends one raw pointer event.
	DispatchMouse(ctx context.Context, ev MouseEvent) error
	// DispatchKey sends one structured key as a down/up pair.
	DispatchKey(ctx context.Context, ev KeyEvent) error
	// SendText types a run of text as raw key events.
	SendText(ctx context.Context, text string) error
	// Alive reports whether the window still exists.
	Alive() bool
	// Done is closed when the window goes away, whether by Close or by the
	// user closing it.
	Done() <-chan struct{}
	// Close tears the window down. Safe to call more than once.
	Close() error
}
