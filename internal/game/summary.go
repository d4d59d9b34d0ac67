package game

import (
	"time"

	"github.com/qugame/twentyq-backend/internal/model"
)

// TurnResult is the resolved state of one valid turn.
type TurnResult int

const (
	TurnContinue TurnResult = iota
	TurnWin
	TurnLose
)

// TurnBegin snapshots the question and the pre-turn counters.
type TurnBegin struct {
	QuestionsAsked     int       `json:"questions_asked"`
	QuestionsRemaining int       `json:"questions_remaining"`
	Question           string    `json:"question"`
	Timestamp          time.Time `json:"timestamp"`
}

// TurnValidate records the yes/no-question classification.
type TurnValidate struct {
	IsValid   bool      `json:"is_valid"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnAnswer records the oracle's answer to a valid question.
type TurnAnswer struct {
	QuestionsAsked     int       `json:"questions_asked"`
	QuestionsRemaining int       `json:"questions_remaining"`
	Answer             string    `json:"answer"`
	Justification      string    `json:"justification,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// TurnDecide records the deciding-question check.
type TurnDecide struct {
	IsDecidingQ bool      `json:"is_deciding_q"`
	Timestamp   time.Time `json:"timestamp"`
}

// TurnSummary is the full structured record of one turn's evaluation.
// Answer and Decide are nil exactly when the question was invalid.
type TurnSummary struct {
	Result   TurnResult
	Begin    TurnBegin
	Validate TurnValidate
	Answer   *TurnAnswer
	Decide   *TurnDecide
}

// Valid reports whether the question passed classification.
func (s *TurnSummary) Valid() bool {
	return s.Validate.IsValid
}

// LogEntry is one turn-log fact prior to persistence. Value is JSON-shaped.
type LogEntry struct {
	Key       model.LogKey
	Value     any
	Timestamp time.Time
}

// LogEntries returns the ordered log facts for this turn: two entries for an
// invalid question, four for a valid one.
func (s *TurnSummary) LogEntries() []LogEntry {
	entries := []LogEntry{
		{Key: model.LogKeyBeginTurn, Value: s.Begin, Timestamp: s.Begin.Timestamp},
		{Key: model.LogKeyValidateQuestion, Value: s.Validate, Timestamp: s.Validate.Timestamp},
	}
	if s.Valid() {
		entries = append(entries,
			LogEntry{Key: model.LogKeyAnswerQuestion, Value: *s.Answer, Timestamp: s.Answer.Timestamp},
			LogEntry{Key: model.LogKeyIsDecidingQuestion, Value: *s.Decide, Timestamp: s.Decide.Timestamp},
		)
	}
	return entries
}
