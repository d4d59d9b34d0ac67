package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/rs/zerolog"
)

// GameRepository handles game session, turn, and turn-log data access.
//
// Every logical step (start a game, start a turn, finish a turn, store one
// turn's logs, finish a game) is a single statement or a single transaction;
// there is no cross-step transaction spanning multiple turns.
type GameRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(pool *pgxpool.Pool, log zerolog.Logger) *GameRepository {
	return &GameRepository{pool: pool, log: log}
}

// SubjectHistory returns the subjects this player has used across all
// finished sessions. Unfinished sessions are excluded: an abandoned game
// never revealed its subject, so replaying it is harmless.
func (r *GameRepository) SubjectHistory(ctx context.Context, username string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.subject
		 FROM game_sessions g
		 JOIN users u ON u.id = g.user_id
		 WHERE u.username = $1 AND g.finished_at IS NOT NULL`, username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// StartGame inserts a new session bound to the chosen subject.
func (r *GameRepository) StartGame(ctx context.Context, userID int, subject string) (*model.GameSession, error) {
	s := &model.GameSession{UserID: userID, Subject: subject}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO game_sessions (user_id, subject)
		 VALUES ($1, $2)
		 RETURNING id, started_at`,
		userID, subject,
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FinishGame closes a session with its outcome and aggregated model-usage
// stats in one atomic update. A session can only be finished once: updating
// an already-finished session affects zero rows and returns ErrNotFound.
func (r *GameRepository) FinishGame(ctx context.Context, sessionID uuid.UUID, userWon bool, stats json.RawMessage) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE game_sessions
		 SET finished_at = $1, user_won = $2, llm_stats = $3
		 WHERE id = $4 AND finished_at IS NULL`,
		time.Now(), userWon, stats, sessionID,
	)
	if err != nil {
		return err
	}
	return r.checkUpdated(tag.RowsAffected(), "game_sessions", sessionID.String())
}

// GetSession retrieves a session by id.
func (r *GameRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.GameSession, error) {
	s := &model.GameSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, started_at, finished_at, subject, user_won, llm_stats
		 FROM game_sessions
		 WHERE id = $1`, sessionID,
	).Scan(&s.ID, &s.UserID, &s.StartedAt, &s.FinishedAt, &s.Subject, &s.UserWon, &s.LLMStats)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// StartTurn inserts a new turn carrying the pre-turn counter snapshot.
func (r *GameRepository) StartTurn(ctx context.Context, sessionID uuid.UUID, question string, asked, remaining int) (*model.Turn, error) {
	t := &model.Turn{
		SessionID:          sessionID,
		Question:           question,
		QuestionsAsked:     asked,
		QuestionsRemaining: remaining,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO turns (session_id, question, questions_asked, questions_remaining)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, started_at`,
		sessionID, question, asked, remaining,
	).Scan(&t.ID, &t.StartedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FinishTurn closes a turn with its final answer. A nil answer marks a turn
// whose question was invalid, or one the oracle failed to answer.
func (r *GameRepository) FinishTurn(ctx context.Context, turnID int64, answer *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE turns
		 SET finished_at = $1, answer = $2
		 WHERE id = $3`,
		time.Now(), answer, turnID,
	)
	if err != nil {
		return err
	}
	return r.checkUpdated(tag.RowsAffected(), "turns", "")
}

// StoreTurnLogs bulk-inserts one turn's ordered log entries in a single
// transaction.
func (r *GameRepository) StoreTurnLogs(ctx context.Context, logs []model.TurnLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(
			`INSERT INTO turn_logs (turn_id, timestamp, key, value) VALUES ($1, $2, $3, $4)`,
			l.TurnID, l.Timestamp, l.Key, l.Value,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// checkUpdated enforces the update-count contract: zero rows is ErrNotFound,
// more than one row indicates a correctness bug elsewhere and is logged as a
// warning rather than failing an in-progress game.
func (r *GameRepository) checkUpdated(affected int64, table, id string) error {
	if affected == 0 {
		return ErrNotFound
	}
	if affected > 1 {
		r.log.Warn().
			Str("table", table).
			Str("id", id).
			Int64("rows", affected).
			Msg("update affected more than one row")
	}
	return nil
}
