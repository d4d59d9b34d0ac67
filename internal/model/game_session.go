package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameSession represents one play-through: created when a subject is bound,
// finished exactly once with outcome and aggregated model-usage stats, then
// never mutated again.
type GameSession struct {
	ID         uuid.UUID       `json:"id"`
	UserID     int             `json:"user_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Subject    string          `json:"subject"`
	UserWon    *bool           `json:"user_won,omitempty"`
	LLMStats   json.RawMessage `json:"llm_stats,omitempty"`
}

// Finished reports whether the session has been closed with an outcome.
func (s *GameSession) Finished() bool {
	return s.FinishedAt != nil
}

// AskQuestionRequest is the payload for submitting a question.
type AskQuestionRequest struct {
	Question string `json:"question" binding:"required,min=1,max=500"`
}
