package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qugame/twentyq-backend/internal/model"
)

// StatsRepository handles read-only aggregates over finished and unfinished
// games, queried by the presentation layer for display.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// outcomeCounts groups sessions by user_won (NULL = unfinished).
func outcomeCounts(rows pgx.Rows) (played, unfinished, wins, losses int, err error) {
	for rows.Next() {
		var won *bool
		var count int
		if err = rows.Scan(&won, &count); err != nil {
			return
		}
		played += count
		switch {
		case won == nil:
			unfinished = count
		case *won:
			wins = count
		default:
			losses = count
		}
	}
	err = rows.Err()
	return
}

// UserStats returns the aggregate game record for one player.
func (r *StatsRepository) UserStats(ctx context.Context, username string) (*model.UserStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.user_won, COUNT(*)
		 FROM game_sessions g
		 JOIN users u ON u.id = g.user_id
		 WHERE u.username = $1
		 GROUP BY g.user_won`, username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	played, unfinished, wins, losses, err := outcomeCounts(rows)
	if err != nil {
		return nil, err
	}

	var avgInvalid, avgToWin *float64

	// Average invalid (unanswered) questions per finished game.
	err = r.pool.QueryRow(ctx,
		`SELECT AVG(cnt) FROM (
		   SELECT COUNT(t.id) AS cnt
		   FROM turns t
		   JOIN game_sessions g ON g.id = t.session_id
		   JOIN users u ON u.id = g.user_id
		   WHERE u.username = $1 AND g.user_won IS NOT NULL AND t.answer IS NULL
		   GROUP BY g.id
		 ) sub`, username,
	).Scan(&avgInvalid)
	if err != nil {
		return nil, err
	}

	// Average answered questions per won game.
	err = r.pool.QueryRow(ctx,
		`SELECT AVG(cnt) FROM (
		   SELECT COUNT(t.id) AS cnt
		   FROM turns t
		   JOIN game_sessions g ON g.id = t.session_id
		   JOIN users u ON u.id = g.user_id
		   WHERE u.username = $1 AND g.user_won IS TRUE AND t.answer IS NOT NULL
		   GROUP BY g.id
		 ) sub`, username,
	).Scan(&avgToWin)
	if err != nil {
		return nil, err
	}

	return &model.UserStats{
		Played:                     played,
		Unfinished:                 unfinished,
		Wins:                       wins,
		Losses:                     losses,
		AvgInvalidQuestionsPerGame: avgInvalid,
		AvgQuestionsToWin:          avgToWin,
	}, nil
}

// ServerStats returns the aggregate game record across all players.
func (r *StatsRepository) ServerStats(ctx context.Context) (*model.ServerStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_won, COUNT(*) FROM game_sessions GROUP BY user_won`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	played, unfinished, wins, losses, err := outcomeCounts(rows)
	if err != nil {
		return nil, err
	}

	var usersCount int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(id) FROM users`).Scan(&usersCount); err != nil {
		return nil, err
	}

	var avgInvalid, avgToWin *float64

	err = r.pool.QueryRow(ctx,
		`SELECT AVG(cnt) FROM (
		   SELECT COUNT(t.id) AS cnt
		   FROM turns t
		   JOIN game_sessions g ON g.id = t.session_id
		   WHERE g.user_won IS NOT NULL AND t.answer IS NULL
		   GROUP BY g.id
		 ) sub`,
	).Scan(&avgInvalid)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT AVG(cnt) FROM (
		   SELECT COUNT(t.id) AS cnt
		   FROM turns t
		   JOIN game_sessions g ON g.id = t.session_id
		   WHERE g.user_won IS TRUE AND t.answer IS NOT NULL
		   GROUP BY g.id
		 ) sub`,
	).Scan(&avgToWin)
	if err != nil {
		return nil, err
	}

	return &model.ServerStats{
		UsersCount:                 usersCount,
		Played:                     played,
		Unfinished:                 unfinished,
		Wins:                       wins,
		Losses:                     losses,
		AvgInvalidQuestionsPerGame: avgInvalid,
		AvgQuestionsToWin:          avgToWin,
	}, nil
}

const turnReviewQuery = `
	SELECT
		g.id AS session_id,
		t.questions_asked AS valid_q_n,
		t.id AS turn_id,
		g.subject,
		t.question,
		(v.value->>'is_valid')::boolean AS is_valid,
		NULLIF(v.value->>'reason', '') AS is_valid_reason,
		a.value->>'answer' AS answer,
		(d.value->>'is_deciding_q')::boolean AS is_deciding_q
	FROM game_sessions g
	JOIN turns t ON t.session_id = g.id
	LEFT JOIN turn_logs v ON v.turn_id = t.id AND v.key = 'VALIDATE_QUESTION'
	LEFT JOIN turn_logs a ON a.turn_id = t.id AND a.key = 'ANSWER_QUESTION'
	LEFT JOIN turn_logs d ON d.turn_id = t.id AND d.key = 'IS_DECIDING_QUESTION'
	WHERE t.finished_at IS NOT NULL`

// ReviewGame returns the flattened turn review rows for one session, in turn
// order.
func (r *StatsRepository) ReviewGame(ctx context.Context, sessionID uuid.UUID) ([]model.TurnReview, error) {
	rows, err := r.pool.Query(ctx, turnReviewQuery+` AND t.session_id = $1 ORDER BY t.id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// ReviewGames returns the flattened turn review rows for all sessions.
func (r *StatsRepository) ReviewGames(ctx context.Context) ([]model.TurnReview, error) {
	rows, err := r.pool.Query(ctx, turnReviewQuery+` ORDER BY t.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func scanReviews(rows pgx.Rows) ([]model.TurnReview, error) {
	var reviews []model.TurnReview
	for rows.Next() {
		var tr model.TurnReview
		if err := rows.Scan(
			&tr.SessionID, &tr.ValidQN, &tr.TurnID, &tr.Subject, &tr.Question,
			&tr.IsValid, &tr.IsValidReason, &tr.Answer, &tr.IsDecidingQ,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, tr)
	}
	return reviews, rows.Err()
}
