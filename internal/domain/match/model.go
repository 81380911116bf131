package match

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a match. Values are stored verbatim.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
	StatusUnknown   Status = "unknown"
)

// Kind identifies one of the persisted record collections of a match.
type Kind string

const (
	KindMatch     Kind = "match"
	KindInfo      Kind = "info"
	KindLive      Kind = "live"
	KindScorecard Kind = "scorecard"
)

// Match is one fixture observed on the source site.
type Match struct {
	ID           string     `json:"match_id" validate:"required,max=128,excludesall= \t\n"`
	Title        string     `json:"title"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	RawStartTime string     `json:"raw_start_time,omitempty"`
	Status       Status     `json:"status" validate:"required,oneof=scheduled live completed unknown"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FixtureInput is what one fixture-list observation knows about a match.
type FixtureInput struct {
	ID           string     `validate:"required,max=128,excludesall= \t\n"`
	Title        *string    `validate:"omitempty,max=512"`
	ScheduledAt  *time.Time
	RawStartTime *string
}

// Squad is one named roster.
type Squad struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// Info holds venue, officials and squads. Nil fields are unknown.
type Info struct {
	MatchID string   `json:"match_id"`
	Venue   *string  `json:"venue,omitempty"`
	Umpires []string `json:"umpires,omitempty"`
	SquadA  *Squad   `json:"squad_a,omitempty"`
	SquadB  *Squad   `json:"squad_b,omitempty"`
}

// LiveSnapshot is the latest live state. It is replaced, never merged.
type LiveSnapshot struct {
	MatchID    string    `json:"match_id" validate:"required"`
	Score      string    `json:"current_score"`
	Over       string    `json:"current_over"`
	CapturedAt time.Time `json:"captured_at"`
}

// Scorecard is the latest batting and bowling summary. It is replaced, never merged.
type Scorecard struct {
	MatchID    string    `json:"match_id" validate:"required"`
	Batting    []string  `json:"batsmen"`
	Bowling    []string  `json:"bowlers"`
	CapturedAt time.Time `json:"captured_at"`
}

// Field keys accepted by MergeFields.
const (
	FieldTitle        = "title"
	FieldScheduledAt  = "scheduled_at"
	FieldRawStartTime = "raw_start_time"
	FieldVenue        = "venue"
	FieldUmpires      = "umpires"
	FieldSquadA       = "squad_a"
	FieldSquadB       = "squad_b"
)

// Fields is a partial update. Only present keys are written.
type Fields map[string]any

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Fields returns the supplied (non-nil) info fields as a partial update.
func (i Info) Fields() Fields {
	out := make(Fields, 4)
	if i.Venue != nil {
		out[FieldVenue] = *i.Venue
	}
	if i.Umpires != nil {
		out[FieldUmpires] = append([]string(nil), i.Umpires...)
	}
	if i.SquadA != nil {
		out[FieldSquadA] = cloneSquad(*i.SquadA)
	}
	if i.SquadB != nil {
		out[FieldSquadB] = cloneSquad(*i.SquadB)
	}
	return out
}

// Fields returns the supplied fixture fields as a partial update of the match kind.
func (in FixtureInput) Fields() Fields {
	out := make(Fields, 3)
	if in.Title != nil {
		out[FieldTitle] = *in.Title
	}
	if in.ScheduledAt != nil {
		out[FieldScheduledAt] = in.ScheduledAt.UTC()
	}
	if in.RawStartTime != nil {
		out[FieldRawStartTime] = *in.RawStartTime
	}
	return out
}

func cloneSquad(s Squad) Squad {
	return Squad{Name: s.Name, Players: append([]string(nil), s.Players...)}
}

func NormalizeStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusScheduled, "":
		return StatusScheduled
	case StatusLive:
		return StatusLive
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusUnknown
	}
}

func (s Status) rank() int {
	switch s {
	case StatusScheduled:
		return 1
	case StatusLive:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

// CanTransition reports whether from→to moves forward along
// scheduled → live → completed. Scheduled → completed is allowed only when
// explicit is set, i.e. the completion was signalled rather than inferred.
func CanTransition(from, to Status, explicit bool) bool {
	if from.rank() == 0 || to.rank() == 0 {
		return false
	}
	switch to.rank() - from.rank() {
	case 1:
		return true
	case 2:
		return explicit
	default:
		return false
	}
}

// IsMergeKind reports whether kind uses field-level merge semantics.
func IsMergeKind(kind Kind) bool {
	return kind == KindMatch || kind == KindInfo
}

// IsReplaceKind reports whether kind uses full-document replace semantics.
func IsReplaceKind(kind Kind) bool {
	return kind == KindLive || kind == KindScorecard
}
