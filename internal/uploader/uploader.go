// File: internal/uploader/uploader.go

// Package uploader finds a photo-upload affordance on a marketplace form and
// triggers it, or falls back to exporting the images for the user to attach
// by hand. The fallback is a designed degradation path, not an error: upload
// detection fails often enough that success-with-manual-follow-up beats
// aborting the attempt.
package uploader

import (
	"context"

	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/assets"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/locator"
)

// minRegionPx is the smallest square side for a clickable region found by the
// loosest text heuristic. Smaller hits are usually icons or stray links.
const minRegionPx = 50.0

// Uploader runs the three-stage affordance detection.
type Uploader struct {
	surface     browser.Surface
	loc         *locator.Locator
	input       *browser.Input
	fallbackDir string
	logger      *zap.Logger
}

// New builds an Uploader. fallbackDir is relative to the user's home
// directory.
func New(surface browser.Surface, loc *locator.Locator, input *browser.Input, fallbackDir string, logger *zap.Logger) *Uploader {
	return &Uploader{
		surface:     surface,
		loc:         loc,
		input:       input,
		fallbackDir: fallbackDir,
		logger:      logger.Named("uploader"),
	}
}

// Upload detects an upload affordance in order of reliability: a file input
// accepting images, then an element whose accessible label or text mentions
// photos, then a large clickable "add photo"/"upload" region. On a hit it
// clicks the affordance and returns the staged paths for the native
// file-pick flow that follows. When nothing is found, the images are
// exported to the fallback directory and an instructional overlay names it.
func (u *Uploader) Upload(ctx context.Context, store *assets.Store) schemas.UploadResult {
	if area, ok := u.clickFileInput(ctx); ok {
		u.logger.Info("Upload affordance found.", zap.String("area", area))
		return schemas.UploadResult{Success: true, Paths: store.Paths(), UploadArea: area}
	}

	for _, st := range []schemas.Strategy{
		{Name: "photo-label", TextContains: "photo"},
		{Name: "image-label", TextContains: "image"},
	} {
		res := u.loc.Locate(ctx, []schemas.Strategy{st})
		if !res.Found {
			continue
		}
		if err := u.input.Click(ctx, res.X, res.Y); err != nil {
			u.logger.Warn("Failed to click upload affordance.", zap.String("area", st.Name), zap.Error(err))
			continue
		}
		u.logger.Info("Upload affordance found.", zap.String("area", st.Name))
		return schemas.UploadResult{Success: true, Paths: store.Paths(), UploadArea: st.Name}
	}

	for _, st := range []schemas.Strategy{
		{Name: "add-photo-region", TextContains: "add photo"},
		{Name: "upload-region", TextContains: "upload"},
	} {
		batch, ok := u.loc.Collect(ctx, st)
		if !ok {
			continue
		}
		cand, ok := largeRegion(batch)
		if !ok {
			continue
		}
		x, y := cand.X+cand.Width/2, cand.Y+cand.Height/2
		if err := u.input.Click(ctx, x, y); err != nil {
			u.logger.Warn("Failed to click upload region.", zap.String("area", st.Name), zap.Error(err))
			continue
		}
		u.logger.Info("Upload affordance found.", zap.String("area", st.Name))
		return schemas.UploadResult{Success: true, Paths: store.Paths(), UploadArea: st.Name}
	}

	return u.manualFallback(ctx, store)
}

// largeRegion filters a batch with the normal acceptance rules plus the
// minimum-size threshold.
func largeRegion(batch schemas.CandidateBatch) (schemas.Candidate, bool) {
	filtered := schemas.CandidateBatch{Viewport: batch.Viewport}
	for _, c := range batch.Candidates {
		if c.Width >= minRegionPx && c.Height >= minRegionPx {
			filtered.Candidates = append(filtered.Candidates, c)
		}
	}
	return locator.Accept(filtered)
}

// fileInputProbe is the result of the file-input detection script.
type fileInputProbe struct {
	Found   bool    `json:"found"`
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// clickFileInput looks for a file input accepting images. Hidden file inputs
// are common; the script clicks those programmatically since there is no
// geometry to aim synthetic pointer events at.
func (u *Uploader) clickFileInput(ctx context.Context) (string, bool) {
	if u.surface == nil || !u.surface.Alive() {
		return "", false
	}
	const script = `(function() {
    for (const el of document.querySelectorAll('input[type="file"]')) {
        const accept = (el.getAttribute('accept') || '').toLowerCase();
        if (accept && !accept.includes('image') && accept !== '*/*') continue;
        const rect = el.getBoundingClientRect();
        const style = window.getComputedStyle(el);
        const visible = rect.width > 0 && rect.height > 0 &&
            style.display !== 'none' && style.visibility !== 'hidden';
        if (visible) {
            return { found: true, visible: true, x: rect.left + rect.width / 2, y: rect.top + rect.height / 2 };
        }
        el.click();
        return { found: true, visible: false };
    }
    return { found: false };
})()`

	var probe fileInputProbe
	if err := u.surface.Evaluate(ctx, script, &probe); err != nil {
		u.logger.Debug("File-input probe failed.", zap.Error(err))
		return "", false
	}
	if !probe.Found {
		return "", false
	}
	if probe.Visible {
		if err := u.input.Click(ctx, probe.X, probe.Y); err != nil {
			u.logger.Warn("Failed to click file input.", zap.Error(err))
			return "", false
		}
	}
	return "file-input", true
}

// manualFallback exports the images to the user-visible directory and puts a
// dismissable overlay on the page naming it.
func (u *Uploader) manualFallback(ctx context.Context, store *assets.Store) schemas.UploadResult {
	dest, err := store.ExportTo(u.fallbackDir)
	if err != nil {
		u.logger.Warn("Manual fallback export failed.", zap.Error(err))
		return schemas.UploadResult{Success: false}
	}

	if u.surface != nil && u.surface.Alive() {
		if err := u.surface.Evaluate(ctx, manualOverlayScript(dest), nil); err != nil {
			// The export already succeeded; the overlay is best-effort.
			u.logger.Debug("Failed to inject manual-upload overlay.", zap.Error(err))
		}
	}

	u.logger.Info("No upload affordance found; images exported for manual upload.",
		zap.String("saved_to", dest))
	return schemas.UploadResult{Success: true, Manual: true, SavedTo: dest}
}
