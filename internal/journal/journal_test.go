// File: internal/journal/journal_test.go
package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func attempt(target, title string, success bool, started time.Time) Attempt {
	return Attempt{
		ID:           uuid.NewString(),
		Target:       target,
		Title:        title,
		FilledTitle:  true,
		FilledPrice:  true,
		FilledDesc:   success,
		FilledPhotos: true,
		Success:      success,
		StartedAt:    started,
		FinishedAt:   started.Add(30 * time.Second),
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, attempt("market-a", "Bike", true, base)))
	require.NoError(t, j.Record(ctx, attempt("market-a", "Lamp", false, base.Add(time.Hour))))
	require.NoError(t, j.Record(ctx, attempt("market-b", "Desk", true, base.Add(2*time.Hour))))

	t.Run("newest first", func(t *testing.T) {
		got, err := j.Recent(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Desk", got[0].Title)
		assert.Equal(t, "Lamp", got[1].Title)
		assert.Equal(t, "Bike", got[2].Title)
	})

	t.Run("filter by target", func(t *testing.T) {
		got, err := j.Recent(ctx, "market-a", 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, a := range got {
			assert.Equal(t, "market-a", a.Target)
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		got, err := j.Recent(ctx, "", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Desk", got[0].Title)
	})

	t.Run("field outcomes round-trip", func(t *testing.T) {
		got, err := j.Recent(ctx, "market-a", 10)
		require.NoError(t, err)
		lamp := got[0]
		assert.False(t, lamp.Success)
		assert.True(t, lamp.FilledTitle)
		assert.False(t, lamp.FilledDesc)
	})
}

func TestRecentEmptyJournal(t *testing.T) {
	j := openTestJournal(t)
	got, err := j.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordPreservesError(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	a := attempt("market-a", "Chair", false, time.Now())
	a.RequiresLogin = true
	a.Error = "login timeout after 2m0s; sign in and try again"
	require.NoError(t, j.Record(ctx, a))

	got, err := j.Recent(ctx, "market-a", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].RequiresLogin)
	assert.Contains(t, got[0].Error, "timeout")
}
