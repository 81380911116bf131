package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
)

type FetchOutcome string

const (
	FetchSuccess   FetchOutcome = "success"
	FetchTransient FetchOutcome = "transient"
	FetchPermanent FetchOutcome = "permanent"
)

// FetchResult is the classified outcome of one logical page retrieval,
// retries included.
type FetchResult struct {
	Outcome    FetchOutcome
	Body       []byte
	StatusCode int
	Attempts   int
	Err        error
}

func (r FetchResult) OK() bool {
	return r.Outcome == FetchSuccess
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) FetchResult
}

// PageRouter maps page types to source URLs.
type PageRouter interface {
	FixturesURL() string
	DetailsURL(matchID string) string
	LiveURL(matchID string) string
	ScorecardURL(matchID string) string
}

// ExternalFixture is one fixture card as extracted from the fixture list.
// Nil fields were missing on the page.
type ExternalFixture struct {
	ID        string
	Title     *string
	StartTime *string
}

// PageExtractor turns raw page bodies into partial records. It never fails:
// fields it cannot locate are reported in the returned missing list.
type PageExtractor interface {
	ExtractFixtures(body []byte) ([]ExternalFixture, []string)
	ExtractDetails(body []byte) (match.Info, []string)
	ExtractLive(body []byte) (match.LiveSnapshot, []string)
	ExtractScorecard(body []byte) (match.Scorecard, []string)
}

// TaskQueue accepts task keys for asynchronous execution. Enqueue must not
// block on task execution.
type TaskQueue interface {
	Enqueue(ctx context.Context, key jobscheduler.TaskKey) error
}

// TaskWork is the executable form of a task key.
type TaskWork = func(ctx context.Context) error

// TaskResolver turns a task key into work. Queue consumers call it.
type TaskResolver interface {
	Resolve(key jobscheduler.TaskKey) (TaskWork, error)
}
