package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
	"github.com/surgeryos/dailydose/internal/pathway"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// schema is the store's DDL, applied idempotently by EnsureSchema.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL,
	scope TEXT NOT NULL,
	unit_id TEXT,
	card_ids TEXT[] NOT NULL,
	warmup_card_ids TEXT[],
	state TEXT NOT NULL DEFAULT 'open',
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_scope ON sessions (user_id, scope, state);

CREATE TABLE IF NOT EXISTS session_results (
	session_id UUID NOT NULL REFERENCES sessions (id),
	card_id TEXT NOT NULL,
	correct_count INT NOT NULL,
	question_count INT NOT NULL,
	question_ids TEXT[],
	PRIMARY KEY (session_id, card_id)
);

CREATE TABLE IF NOT EXISTS card_states (
	user_id TEXT NOT NULL,
	card_id TEXT NOT NULL,
	box INT NOT NULL,
	due_at TIMESTAMPTZ NOT NULL,
	correct_streak INT NOT NULL DEFAULT 0,
	incorrect_streak INT NOT NULL DEFAULT 0,
	last_reviewed_at TIMESTAMPTZ,
	PRIMARY KEY (user_id, card_id)
);

CREATE TABLE IF NOT EXISTS unit_progress (
	user_id TEXT NOT NULL,
	unit_id TEXT NOT NULL,
	level TEXT NOT NULL,
	ordering INT NOT NULL DEFAULT 0,
	sessions_completed INT NOT NULL DEFAULT 0,
	correct_count INT NOT NULL DEFAULT 0,
	total_questions INT NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, unit_id)
);
`

// EnsureSchema creates the store's tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateSession(sess Session) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if sess.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}

	startedAt := sess.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id, scope, unit_id, card_ids, warmup_card_ids, state, started_at)
		 VALUES ($1, $2, $3, $4, $5, 'open', $6)
		 RETURNING id::text`,
		sess.UserID,
		sess.Scope,
		nullIfEmpty(sess.UnitID),
		sess.CardIDs,
		sess.WarmupCardIDs,
		startedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSession(id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	sess, err := s.getSessionByQuery(ctx,
		`SELECT id::text, user_id, scope, unit_id, card_ids, warmup_card_ids, state, started_at, completed_at
		 FROM sessions
		 WHERE id = $1::uuid`,
		id,
	)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT card_id, correct_count, question_count, question_ids
		 FROM session_results
		 WHERE session_id = $1::uuid
		 ORDER BY card_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r CardResult
		if err := rows.Scan(&r.CardID, &r.CorrectCount, &r.QuestionCount, &r.QuestionIDs); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		sess.Results = append(sess.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) OpenSession(userID, scope string) (*Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	sess, err := s.getSessionByQuery(ctx,
		`SELECT id::text, user_id, scope, unit_id, card_ids, warmup_card_ids, state, started_at, completed_at
		 FROM sessions
		 WHERE user_id = $1 AND scope = $2 AND state = 'open'
		 ORDER BY started_at DESC
		 LIMIT 1`,
		userID,
		scope,
	)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// CompleteSession applies the whole completion batch in one transaction:
// session close, per-card results, review-state upserts, and the pathway
// counter bump. A session that is not open fails the update.
func (s *PostgresStore) CompleteSession(id string, update CompletionUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin completion: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx,
		`UPDATE sessions
		 SET state = 'completed', completed_at = NOW()
		 WHERE id = $1::uuid AND state = 'open'
		 RETURNING user_id`,
		id,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("session not open: %s", id)
	}
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	for _, r := range update.Results {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_results (session_id, card_id, correct_count, question_count, question_ids)
			 VALUES ($1::uuid, $2, $3, $4, $5)`,
			id, r.CardID, r.CorrectCount, r.QuestionCount, r.QuestionIDs,
		); err != nil {
			return fmt.Errorf("insert result for %s: %w", r.CardID, err)
		}
	}

	for _, st := range update.States {
		if _, err := tx.Exec(ctx,
			`INSERT INTO card_states (user_id, card_id, box, due_at, correct_streak, incorrect_streak, last_reviewed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (user_id, card_id) DO UPDATE
			 SET box = EXCLUDED.box,
			     due_at = EXCLUDED.due_at,
			     correct_streak = EXCLUDED.correct_streak,
			     incorrect_streak = EXCLUDED.incorrect_streak,
			     last_reviewed_at = EXCLUDED.last_reviewed_at`,
			userID, st.CardID, st.Box, st.DueAt, st.CorrectStreak, st.IncorrectStreak, st.LastReviewedAt,
		); err != nil {
			return fmt.Errorf("upsert state for %s: %w", st.CardID, err)
		}
	}

	if u := update.Unit; u != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO unit_progress (user_id, unit_id, level, ordering, sessions_completed, correct_count, total_questions)
			 VALUES ($1, $2, $3, $4, 1, $5, $6)
			 ON CONFLICT (user_id, unit_id) DO UPDATE
			 SET sessions_completed = unit_progress.sessions_completed + 1,
			     correct_count = unit_progress.correct_count + EXCLUDED.correct_count,
			     total_questions = unit_progress.total_questions + EXCLUDED.total_questions`,
			userID, u.UnitID, string(u.Level), u.Order, u.CorrectCount, u.TotalCount,
		); err != nil {
			return fmt.Errorf("bump unit progress: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

func (s *PostgresStore) AbandonSession(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET state = 'abandoned'
		 WHERE id = $1::uuid AND state = 'open'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("session not open: %s", id)
	}
	return nil
}

func (s *PostgresStore) RecentCompletedSessions(userID, scope string, n int) ([]Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT s.id::text, s.user_id, s.scope, s.unit_id, s.card_ids, s.warmup_card_ids, s.state, s.started_at, s.completed_at,
		        r.card_id, r.correct_count, r.question_count, r.question_ids
		 FROM (
		   SELECT * FROM sessions
		   WHERE user_id = $1 AND scope = $2 AND state = 'completed'
		   ORDER BY completed_at DESC
		   LIMIT $3
		 ) s
		 LEFT JOIN session_results r ON r.session_id = s.id
		 ORDER BY s.completed_at DESC, r.card_id`,
		userID, scope, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	index := map[string]int{}
	for rows.Next() {
		var sess Session
		var unitID *string
		var cardID *string
		var correct, total *int
		var questionIDs []string
		if err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Scope, &unitID, &sess.CardIDs, &sess.WarmupCardIDs,
			&sess.State, &sess.StartedAt, &sess.CompletedAt,
			&cardID, &correct, &total, &questionIDs,
		); err != nil {
			return nil, fmt.Errorf("scan recent session: %w", err)
		}
		if unitID != nil {
			sess.UnitID = *unitID
		}

		i, seen := index[sess.ID]
		if !seen {
			out = append(out, sess)
			i = len(out) - 1
			index[sess.ID] = i
		}
		if cardID != nil {
			out[i].Results = append(out[i].Results, CardResult{
				CardID:        *cardID,
				CorrectCount:  deref(correct),
				QuestionCount: deref(total),
				QuestionIDs:   questionIDs,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ReviewStates(userID string, cardIDs []string) (map[string]engine.ReviewState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	out := make(map[string]engine.ReviewState)
	if len(cardIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT card_id, box, due_at, correct_streak, incorrect_streak, last_reviewed_at
		 FROM card_states
		 WHERE user_id = $1 AND card_id = ANY($2)`,
		userID, cardIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query card states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st engine.ReviewState
		if err := rows.Scan(&st.CardID, &st.Box, &st.DueAt, &st.CorrectStreak, &st.IncorrectStreak, &st.LastReviewedAt); err != nil {
			return nil, fmt.Errorf("scan card state: %w", err)
		}
		out[st.CardID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card states: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UnitProgress(userID string) ([]pathway.UnitProgress, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT unit_id, level, ordering, sessions_completed, correct_count, total_questions
		 FROM unit_progress
		 WHERE user_id = $1
		 ORDER BY level, ordering`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unit progress: %w", err)
	}
	defer rows.Close()

	var out []pathway.UnitProgress
	for rows.Next() {
		var up pathway.UnitProgress
		var level string
		if err := rows.Scan(&up.UnitID, &level, &up.Order, &up.SessionsCompleted, &up.CorrectCount, &up.TotalQuestions); err != nil {
			return nil, fmt.Errorf("scan unit progress: %w", err)
		}
		up.Level = catalog.PathwayLevel(level)
		out = append(out, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit progress: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) getSessionByQuery(ctx context.Context, query string, args ...any) (*Session, error) {
	sess := &Session{}
	var unitID *string
	if err := s.pool.QueryRow(ctx, query, args...).Scan(
		&sess.ID, &sess.UserID, &sess.Scope, &unitID, &sess.CardIDs, &sess.WarmupCardIDs,
		&sess.State, &sess.StartedAt, &sess.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	if unitID != nil {
		sess.UnitID = *unitID
	}
	return sess, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
