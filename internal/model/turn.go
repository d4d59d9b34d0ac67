package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LogKey tags one structured fact captured during a turn's evaluation.
type LogKey string

const (
	LogKeyBeginTurn          LogKey = "BEGIN_TURN"
	LogKeyValidateQuestion   LogKey = "VALIDATE_QUESTION"
	LogKeyAnswerQuestion     LogKey = "ANSWER_QUESTION"
	LogKeyIsDecidingQuestion LogKey = "IS_DECIDING_QUESTION"
)

// Turn represents one question/answer exchange within a session. The
// questions_asked/questions_remaining columns snapshot the counters as they
// stood before the turn was evaluated; invalid questions keep a NULL answer.
type Turn struct {
	ID                 int64      `json:"id"`
	SessionID          uuid.UUID  `json:"session_id"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Question           string     `json:"question"`
	Answer             *string    `json:"answer,omitempty"`
	QuestionsAsked     int        `json:"questions_asked"`
	QuestionsRemaining int        `json:"questions_remaining"`
}

// TurnLog is one ordered structured fact about a turn's evaluation.
// A turn has exactly two entries (BEGIN, VALIDATE) when the question was
// invalid and exactly four (BEGIN, VALIDATE, ANSWER, DECIDE) when valid.
type TurnLog struct {
	ID        int64           `json:"id"`
	TurnID    int64           `json:"turn_id"`
	Timestamp time.Time       `json:"timestamp"`
	Key       LogKey          `json:"key"`
	Value     json.RawMessage `json:"value"`
}

// TurnReview is one row of the admin review join: a turn flattened together
// with its validation, answer, and deciding-check log values.
type TurnReview struct {
	SessionID     uuid.UUID `json:"session_id"`
	ValidQN       *int      `json:"valid_q_n"`
	TurnID        int64     `json:"turn_id"`
	Subject       string    `json:"subject"`
	Question      string    `json:"question"`
	IsValid       *bool     `json:"is_valid"`
	IsValidReason *string   `json:"is_valid_reason"`
	Answer        *string   `json:"answer"`
	IsDecidingQ   *bool     `json:"is_deciding_q"`
}
