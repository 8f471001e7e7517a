// File: internal/uploader/uploader_test.go
package uploader

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/assets"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/config"
	"github.com/AMCarbonaro/llatria/internal/locator"
	"github.com/AMCarbonaro/llatria/internal/mocks"
)

const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const fallbackDir = "Pictures/llatria-uploads"

func stageOne(t *testing.T) *assets.Store {
	t.Helper()
	store, err := assets.Stage([]string{onePixelPNG}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Cleanup)
	return store
}

func newUploader(surface *mocks.MockSurface) *Uploader {
	logger := zap.NewNop()
	input := browser.NewInput(surface, config.Default().Browser.Humanoid, logger).WithSleeper(mocks.NoSleep)
	loc := locator.New(surface, logger)
	return New(surface, loc, input, fallbackDir, logger)
}

func emptyBatch(out any) error {
	return mocks.RespondJSON(schemas.CandidateBatch{Viewport: schemas.Viewport{Width: 1280, Height: 900}}, out)
}

func TestUploadVisibleFileInput(t *testing.T) {
	surface := mocks.NewMockSurface()
	surface.EvaluateFunc = func(_ context.Context, script string, out any) error {
		if strings.Contains(script, `input[type="file"]`) {
			return mocks.RespondJSON(fileInputProbe{Found: true, Visible: true, X: 320, Y: 240}, out)
		}
		return emptyBatch(out)
	}
	store := stageOne(t)

	res := newUploader(surface).Upload(context.Background(), store)

	assert.True(t, res.Success)
	assert.False(t, res.Manual)
	assert.Equal(t, "file-input", res.UploadArea)
	assert.Equal(t, store.Paths(), res.Paths)

	// The visible input gets a real click at its center.
	var pressed bool
	for _, ev := range surface.MouseEvents() {
		if ev.Type == browser.MousePressed && ev.X == 320 && ev.Y == 240 {
			pressed = true
		}
	}
	assert.True(t, pressed)
}

func TestUploadHiddenFileInputClickedInPage(t *testing.T) {
	surface := mocks.NewMockSurface()
	surface.EvaluateFunc = func(_ context.Context, script string, out any) error {
		if strings.Contains(script, `input[type="file"]`) {
			return mocks.RespondJSON(fileInputProbe{Found: true, Visible: false}, out)
		}
		return emptyBatch(out)
	}
	store := stageOne(t)

	res := newUploader(surface).Upload(context.Background(), store)

	assert.True(t, res.Success)
	assert.Equal(t, "file-input", res.UploadArea)
	// The in-page el.click() already fired; no synthetic pointer events.
	assert.Empty(t, surface.MouseEvents())
}

func TestUploadAccessibleLabelFallback(t *testing.T) {
	surface := mocks.NewMockSurface()
	surface.EvaluateFunc = func(_ context.Context, script string, out any) error {
		switch {
		case strings.Contains(script, `input[type="file"]`):
			return mocks.RespondJSON(fileInputProbe{Found: false}, out)
		case strings.Contains(script, `"photo"`):
			return mocks.RespondJSON(schemas.CandidateBatch{
				Viewport:   schemas.Viewport{Width: 1280, Height: 900},
				Candidates: []schemas.Candidate{{X: 100, Y: 100, Width: 120, Height: 48, Visible: true, Tag: "button"}},
			}, out)
		default:
			return emptyBatch(out)
		}
	}
	store := stageOne(t)

	res := newUploader(surface).Upload(context.Background(), store)

	assert.True(t, res.Success)
	assert.False(t, res.Manual)
	assert.Equal(t, "photo-label", res.UploadArea)
}

func TestUploadLargeRegionRequiresMinimumSize(t *testing.T) {
	smallThenLarge := []schemas.Candidate{
		// An icon-sized hit must be passed over.
		{X: 10, Y: 10, Width: 24, Height: 24, Visible: true, Tag: "button"},
		{X: 200, Y: 200, Width: 180, Height: 120, Visible: true, Tag: "div"},
	}
	surface := mocks.NewMockSurface()
	surface.EvaluateFunc = func(_ context.Context, script string, out any) error {
		switch {
		case strings.Contains(script, `input[type="file"]`):
			return mocks.RespondJSON(fileInputProbe{Found: false}, out)
		case strings.Contains(script, `"add photo"`):
			return mocks.RespondJSON(schemas.CandidateBatch{
				Viewport:   schemas.Viewport{Width: 1280, Height: 900},
				Candidates: smallThenLarge,
			}, out)
		default:
			return emptyBatch(out)
		}
	}
	store := stageOne(t)

	res := newUploader(surface).Upload(context.Background(), store)

	require.True(t, res.Success)
	assert.Equal(t, "add-photo-region", res.UploadArea)

	var press *browser.MouseEvent
	events := surface.MouseEvents()
	for i := range events {
		if events[i].Type == browser.MousePressed {
			press = &events[i]
		}
	}
	require.NotNil(t, press)
	assert.Equal(t, 290.0, press.X)
	assert.Equal(t, 260.0, press.Y)
}

func TestUploadManualFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	surface := mocks.NewMockSurface()
	surface.EvaluateFunc = func(_ context.Context, script string, out any) error {
		if strings.Contains(script, `input[type="file"]`) {
			return mocks.RespondJSON(fileInputProbe{Found: false}, out)
		}
		return emptyBatch(out)
	}
	store := stageOne(t)

	res := newUploader(surface).Upload(context.Background(), store)

	assert.True(t, res.Success, "the manual path is a designed degradation, not a failure")
	assert.True(t, res.Manual)
	require.NotEmpty(t, res.SavedTo)

	entries, err := os.ReadDir(res.SavedTo)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// The instructional overlay names the directory.
	var overlaid bool
	for _, script := range surface.Scripts() {
		if strings.Contains(script, "llatria-upload-note") && strings.Contains(script, res.SavedTo) {
			overlaid = true
		}
	}
	assert.True(t, overlaid)
}
