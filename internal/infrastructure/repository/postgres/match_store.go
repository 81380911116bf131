package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	qb "github.com/riskibarqy/cricket-live/internal/platform/querybuilder"
)

const (
	tableMatches    = "matches"
	tableInfos      = "match_infos"
	tableLive       = "live_snapshots"
	tableScorecards = "scorecards"
)

const upsertMatchSuffix = `ON CONFLICT (match_id) DO UPDATE SET
    title = COALESCE(EXCLUDED.title, matches.title),
    scheduled_at = COALESCE(EXCLUDED.scheduled_at, matches.scheduled_at),
    raw_start_time = COALESCE(EXCLUDED.raw_start_time, matches.raw_start_time),
    updated_at = CASE
        WHEN (
            COALESCE(EXCLUDED.title, matches.title),
            COALESCE(EXCLUDED.scheduled_at, matches.scheduled_at),
            COALESCE(EXCLUDED.raw_start_time, matches.raw_start_time)
        ) IS DISTINCT FROM (matches.title, matches.scheduled_at, matches.raw_start_time)
        THEN EXCLUDED.updated_at
        ELSE matches.updated_at
    END
RETURNING (xmax = 0) AS created`

const mergeInfoSuffix = `ON CONFLICT (match_id) DO UPDATE SET
    doc = match_infos.doc || EXCLUDED.doc,
    updated_at = CASE
        WHEN match_infos.doc || EXCLUDED.doc = match_infos.doc THEN match_infos.updated_at
        ELSE EXCLUDED.updated_at
    END`

// replaceSuffix overwrites the whole document; table is substituted.
const replaceSuffix = `ON CONFLICT (match_id) DO UPDATE SET
    doc = EXCLUDED.doc,
    captured_at = EXCLUDED.captured_at,
    updated_at = CASE
        WHEN %[1]s.doc = EXCLUDED.doc THEN %[1]s.updated_at
        ELSE EXCLUDED.updated_at
    END`

// MatchStore persists matches in the matches table and the per-kind
// records as jsonb documents. Every statement is a single-row upsert or a
// compare-and-set update, so writes are atomic per (match id, kind).
type MatchStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db, now: time.Now}
}

func (s *MatchStore) UpsertFixture(ctx context.Context, input match.FixtureInput) (bool, error) {
	input.ID = strings.TrimSpace(input.ID)
	if err := match.Validate(ctx, input); err != nil {
		return false, err
	}

	now := s.now().UTC()
	model := matchInsertModel{
		ID:           input.ID,
		RawStartTime: input.RawStartTime,
		Status:       string(match.StatusScheduled),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		model.Title = &title
	}
	if input.ScheduledAt != nil {
		at := input.ScheduledAt.UTC()
		model.ScheduledAt = &at
	}

	query, args, err := qb.InsertModel(tableMatches, model, upsertMatchSuffix)
	if err != nil {
		return false, fmt.Errorf("build upsert match query: %w", err)
	}

	var created bool
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&created); err != nil {
		return false, fmt.Errorf("upsert match match_id=%s: %w", input.ID, err)
	}
	return created, nil
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

	if kind == match.KindMatch {
		return s.mergeMatch(ctx, matchID, fields)
	}
	return s.mergeInfo(ctx, matchID, fields)
}

// mergeMatch updates only supplied columns, and only when one differs.
func (s *MatchStore) mergeMatch(ctx context.Context, matchID string, fields match.Fields) error {
	if len(fields) == 0 {
		return s.requireMatch(ctx, matchID)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	update := qb.Update(tableMatches)
	changed := make([]string, 0, len(keys))
	changedArgs := make([]any, 0, len(keys))
	for _, key := range keys {
		var value any
		switch key {
		case match.FieldTitle:
			value = strings.TrimSpace(fields[key].(string))
		case match.FieldScheduledAt:
			value = fields[key].(time.Time).UTC()
		case match.FieldRawStartTime:
			value = fields[key].(string)
		}
		update.Set(key, value)
		changed = append(changed, key+" IS DISTINCT FROM ?")
		changedArgs = append(changedArgs, value)
	}
	update.Set("updated_at", s.now().UTC())
	update.Where(
		qb.Eq("match_id", matchID),
		qb.Expr("("+strings.Join(changed, " OR ")+")", changedArgs...),
	)

	query, args, err := update.ToSQL()
	if err != nil {
		return fmt.Errorf("build merge match query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("merge match match_id=%s: %w", matchID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	return s.requireMatch(ctx, matchID)
}

func (s *MatchStore) mergeInfo(ctx context.Context, matchID string, fields match.Fields) error {
	doc, err := sonic.MarshalString(map[string]any(fields))
	if err != nil {
		return fmt.Errorf("marshal info fields match_id=%s: %w", matchID, err)
	}

	query, args, err := qb.InsertModel(tableInfos, infoInsertModel{
		MatchID:   matchID,
		Doc:       doc,
		UpdatedAt: s.now().UTC(),
	}, mergeInfoSuffix)
	if err != nil {
		return fmt.Errorf("build merge info query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("merge info match_id=%s: %w", matchID, err)
	}
	return nil
}

func (s *MatchStore) Replace(ctx context.Context, matchID string, kind match.Kind, doc any) error {
	if err := match.ValidateID(matchID); err != nil {
		return err
	}

	var (
		table      string
		capturedAt time.Time
		record     any
	)
	switch kind {
	case match.KindLive:
		snapshot, ok := doc.(match.LiveSnapshot)
		if !ok {
			return fmt.Errorf("%w: kind=%s got %T", match.ErrInvalidRecord, kind, doc)
		}
		snapshot.MatchID = matchID
		table, capturedAt, record = tableLive, snapshot.CapturedAt, snapshot
	case match.KindScorecard:
		card, ok := doc.(match.Scorecard)
		if !ok {
			return fmt.Errorf("%w: kind=%s got %T", match.ErrInvalidRecord, kind, doc)
		}
		card.MatchID = matchID
		table, capturedAt, record = tableScorecards, card.CapturedAt, card
	default:
		return fmt.Errorf("%w: replace on kind=%s", match.ErrKindMismatch, kind)
	}

	raw, err := sonic.MarshalString(record)
	if err != nil {
		return fmt.Errorf("marshal %s match_id=%s: %w", kind, matchID, err)
	}
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}

	query, args, err := qb.InsertModel(table, snapshotInsertModel{
		MatchID:    matchID,
		Doc:        raw,
		CapturedAt: capturedAt.UTC(),
		UpdatedAt:  s.now().UTC(),
	}, fmt.Sprintf(replaceSuffix, table))
	if err != nil {
		return fmt.Errorf("build replace %s query: %w", kind, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("replace %s match_id=%s: %w", kind, matchID, err)
	}
	return nil
}

func (s *MatchStore) TransitionStatus(ctx context.Context, matchID string, from, to match.Status) (bool, error) {
	if !match.CanTransition(from, to, true) {
		return false, fmt.Errorf("%w: %s -> %s", match.ErrInvalidTransition, from, to)
	}

	query, args, err := qb.Update(tableMatches).
		Set("status", string(to)).
		Set("updated_at", s.now().UTC()).
		Where(qb.Eq("match_id", matchID), qb.Eq("status", string(from))).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build transition query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isCheckViolation(err) {
			return false, fmt.Errorf("%w: %s -> %s: %v", match.ErrInvalidTransition, from, to, err)
		}
		return false, fmt.Errorf("transition match_id=%s %s -> %s: %w", matchID, from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition match_id=%s rows affected: %w", matchID, err)
	}
	if n > 0 {
		return true, nil
	}
	return false, s.requireMatch(ctx, matchID)
}

func (s *MatchStore) ReadByStatus(ctx context.Context, status match.Status) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns).
		From(tableMatches).
		Where(qb.Eq("status", string(status))).
		OrderBy("match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build read by status query: %w", err)
	}

	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("read matches status=%s: %w", status, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *MatchStore) GetMatch(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns).
		From(tableMatches).
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match match_id=%s: %w", matchID, err)
	}
	return row.toDomain(), true, nil
}

func (s *MatchStore) GetInfo(ctx context.Context, matchID string) (match.Info, bool, error) {
	var info match.Info
	ok, err := s.getDocument(ctx, tableInfos, matchID, &info)
	if !ok || err != nil {
		return match.Info{}, false, err
	}
	info.MatchID = matchID
	return info, true, nil
}

func (s *MatchStore) GetLive(ctx context.Context, matchID string) (match.LiveSnapshot, bool, error) {
	var snapshot match.LiveSnapshot
	ok, err := s.getDocument(ctx, tableLive, matchID, &snapshot)
	if !ok || err != nil {
		return match.LiveSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func (s *MatchStore) GetScorecard(ctx context.Context, matchID string) (match.Scorecard, bool, error) {
	var card match.Scorecard
	ok, err := s.getDocument(ctx, tableScorecards, matchID, &card)
	if !ok || err != nil {
		return match.Scorecard{}, false, err
	}
	return card, true, nil
}

func (s *MatchStore) getDocument(ctx context.Context, table, matchID string, dest any) (bool, error) {
	query, args, err := qb.Select("doc").From(table).Where(qb.Eq("match_id", matchID)).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build get %s query: %w", table, err)
	}

	var row documentRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get %s match_id=%s: %w", table, matchID, err)
	}
	if err := sonic.Unmarshal(row.Doc, dest); err != nil {
		return false, fmt.Errorf("decode %s match_id=%s: %w", table, matchID, err)
	}
	return true, nil
}

func (s *MatchStore) requireMatch(ctx context.Context, matchID string) error {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM matches WHERE match_id = $1)", matchID); err != nil {
		return fmt.Errorf("check match match_id=%s: %w", matchID, err)
	}
	if !exists {
		return fmt.Errorf("%w: match_id=%s", match.ErrNotFound, matchID)
	}
	return nil
}
