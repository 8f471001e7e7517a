// File: internal/filler/filler.go

// Package filler populates one named field on a live marketplace form:
// locate, click to focus, clear, type. Its results are booleans; a field the
// heuristics cannot find is reported as "manual entry needed", not raised.
package filler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AMCarbonaro/llatria/api/schemas"
	"github.com/AMCarbonaro/llatria/internal/browser"
	"github.com/AMCarbonaro/llatria/internal/locator"
)

// Filler fills fields through the locator and input primitives.
type Filler struct {
	loc    *locator.Locator
	input  *browser.Input
	settle time.Duration
	sleep  browser.Sleeper
	logger *zap.Logger
}

// New builds a Filler. settle is the short pause between focus, clear, and
// type; the page's own handlers need a beat to react to each.
func New(loc *locator.Locator, input *browser.Input, settle time.Duration, logger *zap.Logger) *Filler {
	return &Filler{
		loc:    loc,
		input:  input,
		settle: settle,
		sleep:  browser.DefaultSleeper,
		logger: logger.Named("filler"),
	}
}

// WithSleeper replaces the sleeper. For tests.
func (f *Filler) WithSleeper(s browser.Sleeper) *Filler {
	f.sleep = s
	return f
}

// FillField locates the field by label and types the value into it. Returns
// false when the field cannot be found or the surface goes away mid-fill;
// there is no retry here.
func (f *Filler) FillField(ctx context.Context, spec schemas.FieldSpec) bool {
	res := f.loc.Locate(ctx, locator.FieldStrategies(spec.Label))
	if !res.Found {
		f.logger.Debug("Field not located; manual entry needed.",
			zap.String("label", spec.Label), zap.String("kind", string(spec.Kind)))
		return false
	}

	steps := []func(context.Context) error{
		func(ctx context.Context) error { return f.input.Click(ctx, res.X, res.Y) },
		func(ctx context.Context) error { return f.sleep(ctx, f.settle) },
		// Select-all before typing so pre-filled content is replaced, not
		// appended to.
		func(ctx context.Context) error { return f.input.SelectAll(ctx) },
		func(ctx context.Context) error { return f.sleep(ctx, f.settle) },
		func(ctx context.Context) error { return f.input.TypeText(ctx, spec.ValueString()) },
		func(ctx context.Context) error { return f.sleep(ctx, f.settle) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			f.logger.Warn("Fill interrupted.",
				zap.String("label", spec.Label), zap.Error(err))
			return false
		}
	}

	f.logger.Debug("Field filled.",
		zap.String("label", spec.Label), zap.String("strategy", res.Strategy))
	return true
}

// FillAny tries the label variants in sequence, stopping at the first
// success. Marketplace copy varies across A/B-tested form revisions, so
// title and description each carry a colloquial alternate label.
func (f *Filler) FillAny(ctx context.Context, labels []string, value any, kind schemas.FieldKind) bool {
	for _, label := range labels {
		if f.FillField(ctx, schemas.FieldSpec{Label: label, Value: value, Kind: kind}) {
			return true
		}
	}
	return false
}
