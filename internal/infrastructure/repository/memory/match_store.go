package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/match"
)

// MatchStore keeps every record kind in process memory. A single lock
// serializes writes so each per-kind update is atomic for readers.
type MatchStore struct {
	mu         sync.RWMutex
	matches    map[string]match.Match
	infos      map[string]match.Info
	lives      map[string]match.LiveSnapshot
	scorecards map[string]match.Scorecard
	now        func() time.Time
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches:    make(map[string]match.Match),
		infos:      make(map[string]match.Info),
		lives:      make(map[string]match.LiveSnapshot),
		scorecards: make(map[string]match.Scorecard),
		now:        time.Now,
	}
}

func (s *MatchStore) UpsertFixture(ctx context.Context, input match.FixtureInput) (bool, error) {
	input.ID = strings.TrimSpace(input.ID)
	if err := match.Validate(ctx, input); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	current, exists := s.matches[input.ID]
	if !exists {
		current = match.Match{
			ID:        input.ID,
			Status:    match.StatusScheduled,
			CreatedAt: now,
		}
	}
	next := match.ApplyMatchFields(current, input.Fields())
	if exists && sameMatch(current, next) {
		return false, nil
	}
	next.UpdatedAt = now
	s.matches[input.ID] = next
	return !exists, nil
}

func (s *MatchStore) MergeFields(ctx context.Context, matchID string, kind match.Kind, fields match.Fields) error {
	if err := match.ValidateID(matchID); err != nil {
		return err
	}
	if !match.IsMergeKind(kind) {
		return fmt.Errorf("%w: merge on kind=%s", match.ErrKindMismatch, kind)
	}
	if err := match.CheckFields(kind, fields); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case match.KindMatch:
		current, ok := s.matches[matchID]
		if !ok {
			return fmt.Errorf("%w: match_id=%s", match.ErrNotFound, matchID)
		}
		next := match.ApplyMatchFields(current, fields)
		if !sameMatch(current, next) {
			next.UpdatedAt = s.now().UTC()
		}
		s.matches[matchID] = next
	case match.KindInfo:
		current := s.infos[matchID]
		current.MatchID = matchID
		s.infos[matchID] = match.ApplyInfoFields(current, fields)
	}
	return nil
}

func (s *MatchStore) Replace(ctx context.Context, matchID string, kind match.Kind, doc any) error {
	if err := match.ValidateID(matchID); err != nil {
		return err
	}

	switch kind {
	case match.KindLive:
		snapshot, ok := doc.(match.LiveSnapshot)
		if !ok {
			return fmt.Errorf("%w: kind=%s got %T", match.ErrInvalidRecord, kind, doc)
		}
		snapshot.MatchID = matchID
		s.mu.Lock()
		s.lives[matchID] = snapshot
		s.mu.Unlock()
	case match.KindScorecard:
		card, ok := doc.(match.Scorecard)
		if !ok {
			return fmt.Errorf("%w: kind=%s got %T", match.ErrInvalidRecord, kind, doc)
		}
		card.MatchID = matchID
		card.Batting = append([]string(nil), card.Batting...)
		card.Bowling = append([]string(nil), card.Bowling...)
		s.mu.Lock()
		s.scorecards[matchID] = card
		s.mu.Unlock()
	default:
		return fmt.Errorf("%w: replace on kind=%s", match.ErrKindMismatch, kind)
	}
	return nil
}

func (s *MatchStore) TransitionStatus(_ context.Context, matchID string, from, to match.Status) (bool, error) {
	if !match.CanTransition(from, to, true) {
		return false, fmt.Errorf("%w: %s -> %s", match.ErrInvalidTransition, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.matches[matchID]
	if !ok {
		return false, fmt.Errorf("%w: match_id=%s", match.ErrNotFound, matchID)
	}
	if current.Status != from {
		return false, nil
	}
	current.Status = to
	current.UpdatedAt = s.now().UTC()
	s.matches[matchID] = current
	return true, nil
}

func (s *MatchStore) ReadByStatus(_ context.Context, status match.Status) ([]match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Match, 0, len(s.matches))
	for _, item := range s.matches {
		if item.Status == status {
			out = append(out, copyMatch(item))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MatchStore) GetMatch(_ context.Context, matchID string) (match.Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.matches[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return copyMatch(item), true, nil
}

func (s *MatchStore) GetInfo(_ context.Context, matchID string) (match.Info, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.infos[matchID]
	if !ok {
		return match.Info{}, false, nil
	}
	return match.ApplyInfoFields(match.Info{MatchID: item.MatchID}, item.Fields()), true, nil
}

func (s *MatchStore) GetLive(_ context.Context, matchID string) (match.LiveSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lives[matchID]
	return item, ok, nil
}

func (s *MatchStore) GetScorecard(_ context.Context, matchID string) (match.Scorecard, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.scorecards[matchID]
	if !ok {
		return match.Scorecard{}, false, nil
	}
	item.Batting = append([]string(nil), item.Batting...)
	item.Bowling = append([]string(nil), item.Bowling...)
	return item, true, nil
}

func copyMatch(m match.Match) match.Match {
	if m.ScheduledAt != nil {
		at := *m.ScheduledAt
		m.ScheduledAt = &at
	}
	return m
}

func sameMatch(a, b match.Match) bool {
	if a.Title != b.Title || a.RawStartTime != b.RawStartTime || a.Status != b.Status {
		return false
	}
	switch {
	case a.ScheduledAt == nil && b.ScheduledAt == nil:
		return true
	case a.ScheduledAt == nil || b.ScheduledAt == nil:
		return false
	default:
		return a.ScheduledAt.Equal(*b.ScheduledAt)
	}
}
