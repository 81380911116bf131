package postgres

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRow_ToDomain(t *testing.T) {
	title := "India vs England"
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.FixedZone("IST", 19800))
	row := matchRow{
		ID:          "ind-eng-1",
		Title:       &title,
		ScheduledAt: &at,
		Status:      "LIVE",
	}

	got := row.toDomain()
	assert.Equal(t, "ind-eng-1", got.ID)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, match.StatusLive, got.Status)
	assert.Empty(t, got.RawStartTime)
	require.NotNil(t, got.ScheduledAt)
	assert.Equal(t, time.UTC, got.ScheduledAt.Location())
	assert.True(t, got.ScheduledAt.Equal(at))
}

// Info documents are stored as the merged Fields map and read back as
// match.Info, so the field keys must line up with its json tags.
func TestInfoDocumentShape(t *testing.T) {
	venue := "Lord's"
	fields := match.Info{
		Venue:   &venue,
		Umpires: []string{"X", "Y"},
		SquadA:  &match.Squad{Name: "team_a", Players: []string{"A1"}},
	}.Fields()

	raw, err := sonic.MarshalString(map[string]any(fields))
	require.NoError(t, err)

	var info match.Info
	require.NoError(t, sonic.UnmarshalString(raw, &info))
	require.NotNil(t, info.Venue)
	assert.Equal(t, venue, *info.Venue)
	assert.Equal(t, []string{"X", "Y"}, info.Umpires)
	require.NotNil(t, info.SquadA)
	assert.Equal(t, []string{"A1"}, info.SquadA.Players)
	assert.Nil(t, info.SquadB)
}

func TestSnapshotDocumentRoundTrip(t *testing.T) {
	captured := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	raw, err := sonic.MarshalString(match.Scorecard{MatchID: "m1", Batting: []string{"A"}, CapturedAt: captured})
	require.NoError(t, err)

	var card match.Scorecard
	require.NoError(t, sonic.UnmarshalString(raw, &card))
	assert.Equal(t, "m1", card.MatchID)
	assert.Equal(t, []string{"A"}, card.Batting)
	assert.True(t, card.CapturedAt.Equal(captured))
}
