// File: internal/locator/locator.go

// Package locator finds interactive elements on third-party marketplace forms
// whose DOM structure is undocumented and changes without notice. It is
// deliberately best-effort: a miss is a normal outcome, never an error.
package locator

import (
	"context"

	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/browser"
)

// Locator evaluates an ordered strategy list against the live document.
type Locator struct {
	surface browser.Surface
	logger  *zap.Logger
}

// New builds a Locator over a surface. surface may be nil; Locate then
// reports not-found.
func New(surface browser.Surface, logger *zap.Logger) *Locator {
	return &Locator{surface: surface, logger: logger.Named("locator")}
}

// Locate evaluates the strategies in order; the first one yielding an
// accepted candidate wins. Locating only reads the document, so repeated
// calls against an unchanged page return the same result.
func (l *Locator) Locate(ctx context.Context, strategies []schemas.Strategy) schemas.LocateResult {
	if l.surface == nil || !l.surface.Alive() {
		l.logger.Debug("Locate skipped; no live surface.")
		return schemas.LocateResult{}
	}

	for _, st := range strategies {
		script, ok := collectorScript(st)
		if !ok {
			l.logger.Debug("Strategy has no matcher; skipping.", zap.String("strategy", st.Name))
			continue
		}

		var batch schemas.CandidateBatch
		if err := l.surface.Evaluate(ctx, script, &batch); err != nil {
			// A collector failure on one strategy does not doom the rest.
			l.logger.Debug("Candidate collection failed.",
				zap.String("strategy", st.Name), zap.Error(err))
			continue
		}

		if cand, ok := Accept(batch); ok {
			res := schemas.LocateResult{
				Found:            true,
				X:                cand.X + cand.Width/2,
				Y:                cand.Y + cand.Height/2,
				ElementKind:      cand.Tag,
				IsEditableRegion: cand.Editable,
				Strategy:         st.Name,
			}
			l.logger.Debug("Field located.",
				zap.String("strategy", st.Name),
				zap.String("tag", cand.Tag),
				zap.Float64("x", res.X),
				zap.Float64("y", res.Y))
			return res
		}
		l.logger.Debug("Strategy yielded no accepted candidate.",
			zap.String("strategy", st.Name),
			zap.Int("raw_candidates", len(batch.Candidates)))
	}

	return schemas.LocateResult{}
}

// Collect runs one strategy's collector and returns the raw candidate batch.
// Callers with acceptance rules beyond Accept's (the photo uploader's size
// threshold, for one) filter the batch themselves.
func (l *Locator) Collect(ctx context.Context, st schemas.Strategy) (schemas.CandidateBatch, bool) {
	if l.surface == nil || !l.surface.Alive() {
		return schemas.CandidateBatch{}, false
	}
	script, ok := collectorScript(st)
	if !ok {
		return schemas.CandidateBatch{}, false
	}
	var batch schemas.CandidateBatch
	if err := l.surface.Evaluate(ctx, script, &batch); err != nil {
		l.logger.Debug("Candidate collection failed.",
			zap.String("strategy", st.Name), zap.Error(err))
		return schemas.CandidateBatch{}, false
	}
	return batch, true
}

// Accept picks the first candidate in batch order that is rendered (non-zero
// size), visible, and fully inside the viewport. Partially scrolled-off
// elements are skipped rather than scrolled to, so the automation never
// displaces the user's view.
func Accept(batch schemas.CandidateBatch) (schemas.Candidate, bool) {
	vw, vh := batch.Viewport.Width, batch.Viewport.Height
	for _, c := range batch.Candidates {
		if c.Width <= 0 || c.Height <= 0 {
			continue
		}
		if !c.Visible {
			continue
		}
		if c.X < 0 || c.Y < 0 || c.X+c.Width > vw || c.Y+c.Height > vh {
			continue
		}
		return c, true
	}
	return schemas.Candidate{}, false
}

// FieldStrategies is the standard strategy ladder for finding a form field by
// its human-readable label: the precise accessible-label match first, then
// the generic text match, then the text-walk-to-sibling probe. Strategies are
// data; appending a new heuristic never touches Locate's control flow.
func FieldStrategies(label string) []schemas.Strategy {
	return []schemas.Strategy{
		{Name: "field-label", Label: label},
		{Name: "text-contains", TextContains: label},
		{Name: "near-text", NearText: label},
	}
}
