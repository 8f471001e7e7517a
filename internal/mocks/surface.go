// File: internal/mocks/surface.go

// Package mocks holds shared test doubles. The mock surface records every
// primitive dispatched to it and lets tests override individual behaviors
// with function fields.
package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AMCarbonaro/llatria/internal/browser"
)

// MockSurface is an in-memory browser.Surface. Zero-value behaviors: every
// operation succeeds, Location returns the settable URL, and Evaluate yields
// no result.
type MockSurface struct {
	NavigateFunc func(ctx context.Context, url string) error
	LocationFunc func(ctx context.Context) (string, error)
	EvaluateFunc func(ctx context.Context, script string, out any) error

	mu          sync.Mutex
	url         string
	closed      chan struct{}
	closeOnce   sync.Once
	navigations []string
	mouse       []browser.MouseEvent
	keys        []browser.KeyEvent
	typed       []string
	scripts     []string
}

var _ browser.Surface = (*MockSurface)(nil)

// NewMockSurface builds a live mock surface.
func NewMockSurface() *MockSurface {
	return &MockSurface{closed: make(chan struct{})}
}

// SetURL sets the URL Location reports by default.
func (m *MockSurface) SetURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
}

func (m *MockSurface) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	m.navigations = append(m.navigations, url)
	if m.url == "" {
		m.url = url
	}
	m.mu.Unlock()
	if m.NavigateFunc != nil {
		return m.NavigateFunc(ctx, url)
	}
	return nil
}

func (m *MockSurface) Location(ctx context.Context) (string, error) {
	if m.LocationFunc != nil {
		return m.LocationFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *MockSurface) Evaluate(ctx context.Context, script string, out any) error {
	m.mu.Lock()
	m.scripts = append(m.scripts, script)
	m.mu.Unlock()
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, script, out)
	}
	return nil
}

func (m *MockSurface) DispatchMouse(ctx context.Context, ev browser.MouseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouse = append(m.mouse, ev)
	return nil
}

func (m *MockSurface) DispatchKey(ctx context.Context, ev browser.KeyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, ev)
	return nil
}

func (m *MockSurface) SendText(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typed = append(m.typed, text)
	return nil
}

func (m *MockSurface) Alive() bool {
	select {
	case <-m.closed:
		return false
	default:
		return true
	}
}

func (m *MockSurface) Done() <-chan struct{} { return m.closed }

func (m *MockSurface) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

// -- Recordings --

// Navigations returns the URLs navigated to, in order.
func (m *MockSurface) Navigations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.navigations...)
}

// MouseEvents returns every pointer event dispatched.
func (m *MockSurface) MouseEvents() []browser.MouseEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]browser.MouseEvent(nil), m.mouse...)
}

// KeyEvents returns every structured key dispatched.
func (m *MockSurface) KeyEvents() []browser.KeyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]browser.KeyEvent(nil), m.keys...)
}

// TypedText concatenates everything sent through SendText.
func (m *MockSurface) TypedText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out string
	for _, t := range m.typed {
		out += t
	}
	return out
}

// Scripts returns every evaluated script.
func (m *MockSurface) Scripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.scripts...)
}

// RespondJSON is an EvaluateFunc helper: it marshals v and unmarshals it into
// the caller's out value, the way a real by-value evaluation round-trips.
func RespondJSON(v any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// NoSleep is a browser.Sleeper that returns immediately, for deterministic
// tests with no real waiting.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
