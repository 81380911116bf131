package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
)

// SourceTimeLayout is how the fixture list prints start times.
const SourceTimeLayout = "2006-01-02 15:04:05"

type IngestionConfig struct {
	FetchTimeout   time.Duration
	SourceLocation *time.Location
}

// FixtureRefreshResult summarizes one fixture-list refresh.
type FixtureRefreshResult struct {
	Seen     int `json:"seen"`
	Created  int `json:"created"`
	Retried  int `json:"details_retried"`
	Invalid  int `json:"invalid"`
	Failed   int `json:"failed"`
	Unparsed int `json:"unparsed_start_time"`
}

// IngestionService holds the fetch, parse and merge units the dispatcher runs.
type IngestionService struct {
	store     match.Store
	fetcher   PageFetcher
	extractor PageExtractor
	router    PageRouter
	queue     TaskQueue
	monitor   *LifecycleMonitor
	cfg       IngestionConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewIngestionService(
	store match.Store,
	fetcher PageFetcher,
	extractor PageExtractor,
	router PageRouter,
	queue TaskQueue,
	monitor *LifecycleMonitor,
	cfg IngestionConfig,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.SourceLocation == nil {
		cfg.SourceLocation = time.UTC
	}

	return &IngestionService{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
		router:    router,
		queue:     queue,
		monitor:   monitor,
		cfg:       cfg,
		logger:    logger.Named("ingestion"),
		now:       time.Now,
	}
}

// RefreshFixtures fetches the fixture list and upserts every card on it.
// Newly seen matches, and known ones whose details never landed, get a
// details task. A bad card never stops the rest of the list.
func (s *IngestionService) RefreshFixtures(ctx context.Context) (FixtureRefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.RefreshFixtures")
	defer span.End()

	var result FixtureRefreshResult
	pageURL := s.router.FixturesURL()
	res := s.fetcher.Fetch(ctx, pageURL, s.cfg.FetchTimeout)
	if !res.OK() {
		return result, fetchFailure("fixtures", pageURL, res)
	}

	fixtures, missing := s.extractor.ExtractFixtures(res.Body)
	s.noteMissing(ctx, jobscheduler.FixturesKey, "fixtures", missing)

	var errs []error
	for _, item := range fixtures {
		result.Seen++
		input := match.FixtureInput{
			ID:           strings.TrimSpace(item.ID),
			Title:        trimmedPtr(item.Title),
			RawStartTime: trimmedPtr(item.StartTime),
		}
		if input.RawStartTime != nil {
			input.ScheduledAt = s.parseStartTime(*input.RawStartTime)
		}
		if input.ScheduledAt == nil {
			result.Unparsed++
		}
		if err := match.Validate(ctx, input); err != nil {
			result.Invalid++
			s.logger.WarnContext(ctx, "fixture card rejected", "match_id", input.ID, "error", err)
			continue
		}

		created, err := s.store.UpsertFixture(ctx, input)
		if err != nil {
			result.Failed++
			errs = append(errs, persistenceErr(err, "upsert fixture match_id=%s", input.ID))
			continue
		}
		if created {
			result.Created++
		} else {
			needed, err := s.detailsMissing(ctx, input.ID)
			if err != nil {
				result.Failed++
				errs = append(errs, err)
				continue
			}
			if !needed {
				continue
			}
			result.Retried++
		}
		if err := s.enqueueDetails(ctx, input.ID); err != nil {
			errs = append(errs, err)
		}
	}

	span.SetAttributes(
		attribute.Int("fixtures.seen", result.Seen),
		attribute.Int("fixtures.created", result.Created),
		attribute.Int("fixtures.details_retried", result.Retried),
	)
	return result, errors.Join(errs...)
}

// detailsMissing reports whether a known match still has no venue stored,
// which means its earlier details task never landed.
func (s *IngestionService) detailsMissing(ctx context.Context, matchID string) (bool, error) {
	info, exists, err := s.store.GetInfo(ctx, matchID)
	if err != nil {
		return false, persistenceErr(err, "get info match_id=%s", matchID)
	}
	return !exists || info.Venue == nil, nil
}

func (s *IngestionService) enqueueDetails(ctx context.Context, matchID string) error {
	if err := s.queue.Enqueue(ctx, jobscheduler.TaskKey{MatchID: matchID, Kind: jobscheduler.TaskDetails}); err != nil {
		return fmt.Errorf("enqueue details match_id=%s: %w", matchID, err)
	}
	return nil
}

// RefreshDetails merges venue, umpires and squads. Fields the page does not
// show are left as stored.
func (s *IngestionService) RefreshDetails(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.RefreshDetails", attribute.String("match_id", matchID))
	defer span.End()

	if err := match.ValidateID(matchID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pageURL := s.router.DetailsURL(matchID)
	res := s.fetcher.Fetch(ctx, pageURL, s.cfg.FetchTimeout)
	if !res.OK() {
		return fetchFailure("details", pageURL, res)
	}

	info, missing := s.extractor.ExtractDetails(res.Body)
	s.noteMissing(ctx, matchID, "details", missing)

	fields := info.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := s.store.MergeFields(ctx, matchID, match.KindInfo, fields); err != nil {
		return persistenceErr(err, "merge info match_id=%s", matchID)
	}
	return nil
}

// RefreshLive fetches the live and scorecard pages of a match. A due
// scheduled match is promoted to live once its live page loads. Each page
// is persisted independently; failures are joined into the returned error.
func (s *IngestionService) RefreshLive(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.RefreshLive", attribute.String("match_id", matchID))
	defer span.End()

	if err := match.ValidateID(matchID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, exists, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return persistenceErr(err, "get match_id=%s", matchID)
	}
	if !exists {
		return fmt.Errorf("%w: match_id=%s", ErrNotFound, matchID)
	}
	switch item.Status {
	case match.StatusCompleted, match.StatusUnknown:
		s.logger.DebugContext(ctx, "skip live refresh", "match_id", matchID, "status", item.Status)
		return nil
	case match.StatusScheduled:
		if item.ScheduledAt == nil || item.ScheduledAt.After(s.now()) {
			s.logger.DebugContext(ctx, "skip live refresh, match not due", "match_id", matchID)
			return nil
		}
	}

	liveURL := s.router.LiveURL(matchID)
	scorecardURL := s.router.ScorecardURL(matchID)
	var liveRes, scorecardRes FetchResult
	var wg conc.WaitGroup
	wg.Go(func() { liveRes = s.fetcher.Fetch(ctx, liveURL, s.cfg.FetchTimeout) })
	wg.Go(func() { scorecardRes = s.fetcher.Fetch(ctx, scorecardURL, s.cfg.FetchTimeout) })
	wg.Wait()

	capturedAt := s.now().UTC()
	var errs []error

	if liveRes.OK() {
		if s.monitor != nil && item.Status == match.StatusScheduled {
			promoted, err := s.monitor.Promote(ctx, item)
			if err != nil {
				errs = append(errs, err)
			}
			// squads are usually announced close to the start
			if promoted {
				if err := s.enqueueDetails(ctx, matchID); err != nil {
					errs = append(errs, err)
				}
			}
		}
		snapshot, missing := s.extractor.ExtractLive(liveRes.Body)
		s.noteMissing(ctx, matchID, "live", missing)
		if snapshot.Score != "" || snapshot.Over != "" {
			snapshot.MatchID = matchID
			snapshot.CapturedAt = capturedAt
			if err := s.store.Replace(ctx, matchID, match.KindLive, snapshot); err != nil {
				errs = append(errs, persistenceErr(err, "replace live match_id=%s", matchID))
			}
		}
	} else {
		errs = append(errs, fetchFailure("live", liveURL, liveRes))
	}

	if scorecardRes.OK() {
		card, missing := s.extractor.ExtractScorecard(scorecardRes.Body)
		s.noteMissing(ctx, matchID, "scorecard", missing)
		if card.Batting != nil || card.Bowling != nil {
			card.MatchID = matchID
			card.CapturedAt = capturedAt
			if err := s.store.Replace(ctx, matchID, match.KindScorecard, card); err != nil {
				errs = append(errs, persistenceErr(err, "replace scorecard match_id=%s", matchID))
			}
		}
	} else {
		errs = append(errs, fetchFailure("scorecard", scorecardURL, scorecardRes))
	}

	return errors.Join(errs...)
}

func (s *IngestionService) parseStartTime(raw string) *time.Time {
	parsed, err := time.ParseInLocation(SourceTimeLayout, strings.TrimSpace(raw), s.cfg.SourceLocation)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

func (s *IngestionService) noteMissing(ctx context.Context, matchID, page string, missing []string) {
	if len(missing) == 0 {
		return
	}
	s.logger.WarnContext(ctx, "page fields missing",
		"match_id", matchID,
		"page", page,
		"missing", missing,
	)
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
