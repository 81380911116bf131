package jobscheduler

import (
	"strings"
	"time"
)

// TaskKind names a unit of ingestion work.
type TaskKind string

const (
	TaskFixtures TaskKind = "fixtures"
	TaskDetails  TaskKind = "details"
	TaskLive     TaskKind = "live"
)

// FixturesKey is the match id slot used by the fixture-list task, which is
// not tied to a single match.
const FixturesKey = "*"

// TaskKey deduplicates in-flight work: one running task per key.
type TaskKey struct {
	MatchID string   `json:"match_id"`
	Kind    TaskKind `json:"task_kind"`
}

func (k TaskKey) String() string {
	return string(k.Kind) + ":" + k.MatchID
}

func ParseTaskKind(value string) (TaskKind, bool) {
	switch TaskKind(strings.ToLower(strings.TrimSpace(value))) {
	case TaskFixtures:
		return TaskFixtures, true
	case TaskDetails:
		return TaskDetails, true
	case TaskLive:
		return TaskLive, true
	default:
		return "", false
	}
}

type EventStatus string

const (
	StatusSubmitted EventStatus = "submitted"
	StatusCompleted EventStatus = "completed"
	StatusFailed    EventStatus = "failed"
	StatusDropped   EventStatus = "dropped"
)

// TaskEvent is one sink record for a task run.
type TaskEvent struct {
	TaskKey      TaskKey
	Status       EventStatus
	Attempts     int
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
