package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func seedFixture(t *testing.T, store *MatchStore, id string) {
	t.Helper()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	_, err := store.UpsertFixture(context.Background(), match.FixtureInput{
		ID:          id,
		Title:       strPtr("IND vs AUS, 1st Test"),
		ScheduledAt: &at,
	})
	require.NoError(t, err)
}

func TestMatchStore_UpsertFixture_CreatesScheduledOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	input := match.FixtureInput{ID: "m-100", Title: strPtr("IND vs AUS"), ScheduledAt: &at}

	created, err := store.UpsertFixture(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertFixture(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)

	got, ok, err := store.GetMatch(ctx, "m-100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, match.StatusScheduled, got.Status)
	assert.Equal(t, "IND vs AUS", got.Title)
	require.NotNil(t, got.ScheduledAt)
	assert.True(t, got.ScheduledAt.Equal(at))
}

func TestMatchStore_UpsertFixture_DoesNotResetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()
	seedFixture(t, store, "m-1")

	moved, err := store.TransitionStatus(ctx, "m-1", match.StatusScheduled, match.StatusLive)
	require.NoError(t, err)
	require.True(t, moved)

	seedFixture(t, store, "m-1")

	got, _, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusLive, got.Status)
}

func TestMatchStore_UpsertFixture_RejectsInvalidID(t *testing.T) {
	t.Parallel()

	_, err := NewMatchStore().UpsertFixture(context.Background(), match.FixtureInput{ID: "  "})
	assert.ErrorIs(t, err, match.ErrInvalidRecord)
}

func TestMatchStore_MergeFields_IsNonDestructive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()

	require.NoError(t, store.MergeFields(ctx, "m-1", match.KindInfo, match.Fields{match.FieldVenue: "Lords"}))
	require.NoError(t, store.MergeFields(ctx, "m-1", match.KindInfo, match.Fields{match.FieldUmpires: []string{"X"}}))

	got, ok, err := store.GetInfo(ctx, "m-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Venue)
	assert.Equal(t, "Lords", *got.Venue)
	assert.Equal(t, []string{"X"}, got.Umpires)
	assert.Nil(t, got.SquadA)
}

func TestMatchStore_MergeFields_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	once := NewMatchStore()
	twice := NewMatchStore()
	fields := match.Fields{
		match.FieldVenue:  "MCG",
		match.FieldSquadA: match.Squad{Name: "India", Players: []string{"Rohit", "Virat"}},
	}

	require.NoError(t, once.MergeFields(ctx, "m-1", match.KindInfo, fields))
	require.NoError(t, twice.MergeFields(ctx, "m-1", match.KindInfo, fields))
	require.NoError(t, twice.MergeFields(ctx, "m-1", match.KindInfo, fields))

	a, _, err := once.GetInfo(ctx, "m-1")
	require.NoError(t, err)
	b, _, err := twice.GetInfo(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMatchStore_MergeFields_MatchKindIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()
	seedFixture(t, store, "m-1")

	fields := match.Fields{match.FieldTitle: "IND vs AUS, 2nd Test"}
	require.NoError(t, store.MergeFields(ctx, "m-1", match.KindMatch, fields))
	first, _, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)

	require.NoError(t, store.MergeFields(ctx, "m-1", match.KindMatch, fields))
	second, _, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "IND vs AUS, 2nd Test", second.Title)
}

func TestMatchStore_MergeFields_RejectsWrongKindAndFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()

	err := store.MergeFields(ctx, "m-1", match.KindLive, match.Fields{"score": "1/0"})
	assert.ErrorIs(t, err, match.ErrKindMismatch)

	err = store.MergeFields(ctx, "m-1", match.KindInfo, match.Fields{"toss": "India"})
	assert.ErrorIs(t, err, match.ErrUnknownField)

	err = store.MergeFields(ctx, "m-1", match.KindInfo, match.Fields{match.FieldVenue: 42})
	assert.ErrorIs(t, err, match.ErrInvalidRecord)

	err = store.MergeFields(ctx, "missing", match.KindMatch, match.Fields{match.FieldTitle: "x"})
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestMatchStore_Replace_OverwritesWholeDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()

	require.NoError(t, store.Replace(ctx, "m-1", match.KindScorecard, match.Scorecard{
		Batting: []string{"Rohit 45", "Gill 12"},
		Bowling: []string{"Cummins 2/30"},
	}))
	require.NoError(t, store.Replace(ctx, "m-1", match.KindScorecard, match.Scorecard{
		Batting: []string{"Rohit 60"},
	}))

	got, ok, err := store.GetScorecard(ctx, "m-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Rohit 60"}, got.Batting)
	assert.Empty(t, got.Bowling)

	err = store.Replace(ctx, "m-1", match.KindInfo, match.Info{})
	assert.ErrorIs(t, err, match.ErrKindMismatch)

	err = store.Replace(ctx, "m-1", match.KindLive, match.Scorecard{})
	assert.ErrorIs(t, err, match.ErrInvalidRecord)
}

func TestMatchStore_TransitionStatus_IsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()
	seedFixture(t, store, "m-1")

	moved, err := store.TransitionStatus(ctx, "m-1", match.StatusScheduled, match.StatusLive)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = store.TransitionStatus(ctx, "m-1", match.StatusScheduled, match.StatusLive)
	require.NoError(t, err)
	assert.False(t, moved, "second promotion must be a no-op")

	moved, err = store.TransitionStatus(ctx, "m-1", match.StatusLive, match.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, moved)

	_, err = store.TransitionStatus(ctx, "m-1", match.StatusCompleted, match.StatusLive)
	assert.ErrorIs(t, err, match.ErrInvalidTransition)

	got, _, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusCompleted, got.Status)
}

func TestMatchStore_ReadByStatus_FiltersAndCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()
	seedFixture(t, store, "m-2")
	seedFixture(t, store, "m-1")
	seedFixture(t, store, "m-3")
	_, err := store.TransitionStatus(ctx, "m-3", match.StatusScheduled, match.StatusLive)
	require.NoError(t, err)

	scheduled, err := store.ReadByStatus(ctx, match.StatusScheduled)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, "m-1", scheduled[0].ID)
	assert.Equal(t, "m-2", scheduled[1].ID)

	*scheduled[0].ScheduledAt = time.Time{}
	again, _, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, again.ScheduledAt.IsZero(), "readers must not alias stored state")
}

func TestMatchStore_ConcurrentMergesAreAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMatchStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.MergeFields(ctx, "m-1", match.KindInfo, match.Fields{
				match.FieldSquadA: match.Squad{Name: "India", Players: []string{"a", "b"}},
			})
		}()
		go func() {
			defer wg.Done()
			info, ok, _ := store.GetInfo(ctx, "m-1")
			if ok && info.SquadA != nil && len(info.SquadA.Players) != 2 {
				t.Errorf("observed partial squad: %+v", info.SquadA)
			}
		}()
	}
	wg.Wait()
}
