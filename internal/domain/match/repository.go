package match

import "context"

// Store persists matches and their per-kind records. Every write is
// idempotent and atomic per (match id, kind).
type Store interface {
	UpsertFixture(ctx context.Context, input FixtureInput) (bool, error)
	MergeFields(ctx context.Context, matchID string, kind Kind, fields Fields) error
	Replace(ctx context.Context, matchID string, kind Kind, doc any) error
	TransitionStatus(ctx context.Context, matchID string, from, to Status) (bool, error)
	ReadByStatus(ctx context.Context, status Status) ([]Match, error)
	GetMatch(ctx context.Context, matchID string) (Match, bool, error)
	GetInfo(ctx context.Context, matchID string) (Info, bool, error)
	GetLive(ctx context.Context, matchID string) (LiveSnapshot, bool, error)
	GetScorecard(ctx context.Context, matchID string) (Scorecard, bool, error)
}
