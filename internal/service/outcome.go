package service

// GameBegun is the result of starting a game. The subject is deliberately
// absent: it is never shown to the player before the game ends.
type GameBegun struct {
	SessionID    string `json:"session_id"`
	MaxQuestions int    `json:"max_questions"`
}

// GameState reports progress of an in-flight game, for clients that
// reconnect mid-session.
type GameState struct {
	SessionID          string `json:"session_id"`
	MaxQuestions       int    `json:"max_questions"`
	QuestionsAsked     int    `json:"questions_asked"`
	QuestionsRemaining int    `json:"questions_remaining"`
}

// TurnOutcome is the sealed set of results a turn can produce. Exactly one
// of InvalidQuestion, ContinueGame, WonGame, or LostGame.
type TurnOutcome interface {
	turnOutcome()
}

// InvalidQuestion means the question was rejected by classification. The
// question budget is untouched; the player may retry.
type InvalidQuestion struct {
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// ContinueGame means the question was answered and the game goes on.
type ContinueGame struct {
	QuestionsAsked     int    `json:"questions_asked"`
	QuestionsRemaining int    `json:"questions_remaining"`
	Answer             string `json:"answer"`
}

// WonGame means the player asked a deciding question and wins.
type WonGame struct {
	QuestionsAsked     int    `json:"questions_asked"`
	QuestionsRemaining int    `json:"questions_remaining"`
	Answer             string `json:"answer"`
}

// LostGame means the question budget is exhausted. The subject is revealed.
type LostGame struct {
	QuestionsAsked     int    `json:"questions_asked"`
	QuestionsRemaining int    `json:"questions_remaining"`
	Answer             string `json:"answer"`
	Subject            string `json:"subject"`
}

func (InvalidQuestion) turnOutcome() {}
func (ContinueGame) turnOutcome()    {}
func (WonGame) turnOutcome()         {}
func (LostGame) turnOutcome()        {}

// OutcomeKind returns the wire tag for a turn outcome.
func OutcomeKind(o TurnOutcome) string {
	switch o.(type) {
	case InvalidQuestion:
		return "invalid_question"
	case ContinueGame:
		return "continue"
	case WonGame:
		return "won"
	case LostGame:
		return "lost"
	default:
		return "unknown"
	}
}
