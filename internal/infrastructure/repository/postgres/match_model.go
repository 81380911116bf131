package postgres

import (
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/match"
)

const matchColumns = "match_id, title, scheduled_at, raw_start_time, status, created_at, updated_at"

type matchRow struct {
	ID           string     `db:"match_id"`
	Title        *string    `db:"title"`
	ScheduledAt  *time.Time `db:"scheduled_at"`
	RawStartTime *string    `db:"raw_start_time"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r matchRow) toDomain() match.Match {
	out := match.Match{
		ID:           r.ID,
		Title:        stringValue(r.Title),
		RawStartTime: stringValue(r.RawStartTime),
		Status:       match.NormalizeStatus(r.Status),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.ScheduledAt != nil {
		at := r.ScheduledAt.UTC()
		out.ScheduledAt = &at
	}
	return out
}

// matchInsertModel carries nil for fields the observation did not supply,
// so the ON CONFLICT clause can keep stored values.
type matchInsertModel struct {
	ID           string     `db:"match_id"`
	Title        *string    `db:"title"`
	ScheduledAt  *time.Time `db:"scheduled_at"`
	RawStartTime *string    `db:"raw_start_time"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// infoInsertModel carries a partial info document merged with jsonb ||.
type infoInsertModel struct {
	MatchID   string    `db:"match_id"`
	Doc       string    `db:"doc"`
	UpdatedAt time.Time `db:"updated_at"`
}

// snapshotInsertModel is the row shape of the replace-only tables.
type snapshotInsertModel struct {
	MatchID    string    `db:"match_id"`
	Doc        string    `db:"doc"`
	CapturedAt time.Time `db:"captured_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type documentRow struct {
	Doc []byte `db:"doc"`
}

type taskEventInsertModel struct {
	MatchID      string    `db:"match_id"`
	TaskKind     string    `db:"task_kind"`
	Status       string    `db:"status"`
	Attempts     int       `db:"attempts"`
	ErrorMessage *string   `db:"error_message"`
	TraceID      *string   `db:"trace_id"`
	SpanID       *string   `db:"span_id"`
	OccurredAt   time.Time `db:"occurred_at"`
}
