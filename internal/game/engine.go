package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/rs/zerolog"
)

// ErrEmptySubjectPool signals that every category query returned zero usable
// candidates. Starting a game must fail loudly rather than proceed with an
// undefined subject.
var ErrEmptySubjectPool = errors.New("subject selection produced no candidates")

// Oracle is the capability set the engine consumes. *oracle.Oracle satisfies
// it; tests substitute fakes.
type Oracle interface {
	PickSubjectCandidates(ctx context.Context, n int, category string, excluded []string) ([]string, error)
	IsYesNoQuestion(ctx context.Context, subject, question string) (bool, string, error)
	AnswerQuestion(ctx context.Context, subject, question, today string) (string, string, error)
	IsDecidingQuestion(ctx context.Context, subject, question string) (bool, error)
}

// Config tunes one engine instance.
type Config struct {
	MaxQuestions  int
	NumCandidates int
	SimplePicker  bool
	// Rand is the randomness source for subject selection. Injectable so
	// selection is deterministic under test. Required.
	Rand *rand.Rand
}

// Engine owns one active game's subject, question counter, and the
// turn-processing algorithm. Not safe for concurrent use; the caller
// serializes turns.
type Engine struct {
	oracle Oracle
	cfg    Config
	log    zerolog.Logger

	subject string
	history []string
	asked   int
}

// NewEngine creates an engine seeded with the player's subject history.
// The history slice is owned by the engine for the game's duration.
func NewEngine(o Oracle, cfg Config, history []string, log zerolog.Logger) *Engine {
	return &Engine{
		oracle:  o,
		cfg:     cfg,
		log:     log,
		history: history,
	}
}

// Subject returns the secret subject of the current game.
func (e *Engine) Subject() string {
	return e.subject
}

// QuestionsAsked returns the count of valid questions asked so far.
func (e *Engine) QuestionsAsked() int {
	return e.asked
}

// QuestionsRemaining returns the remaining question budget.
func (e *Engine) QuestionsRemaining() int {
	return e.cfg.MaxQuestions - e.asked
}

// History returns the subjects used so far, including the current one once
// a subject is picked.
func (e *Engine) History() []string {
	return e.history
}

// themed category groups; one is chosen at random per selection.
var themedGroups = [][]string{
	oracle.ObjectCategories,
	oracle.PeopleCategories,
	oracle.PlaceCategories,
}

// PickSubject chooses a new subject, appends it to the history, and resets
// the question counter. Candidates already present in the history are
// filtered out even if the model ignored the exclusion instruction.
func (e *Engine) PickSubject(ctx context.Context) error {
	var labels []string
	if e.cfg.SimplePicker {
		labels = []string{oracle.SimpleCategory}
	} else {
		labels = themedGroups[e.cfg.Rand.Intn(len(themedGroups))]
	}

	var pool []string
	for _, label := range labels {
		candidates, err := e.oracle.PickSubjectCandidates(ctx, e.cfg.NumCandidates, label, e.history)
		if err != nil {
			return err
		}
		pool = append(pool, candidates...)
	}
	pool = e.filterSeen(pool)
	if len(pool) == 0 {
		return ErrEmptySubjectPool
	}

	e.subject = pool[e.cfg.Rand.Intn(len(pool))]
	e.history = append(e.history, e.subject)
	e.asked = 0

	e.log.Info().Int("pool", len(pool)).Int("history", len(e.history)).Msg("subject picked")
	return nil
}

// filterSeen drops candidates that case-insensitively match a history entry.
func (e *Engine) filterSeen(pool []string) []string {
	if len(e.history) == 0 {
		return pool
	}
	seen := make(map[string]struct{}, len(e.history))
	for _, s := range e.history {
		seen[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	filtered := pool[:0]
	for _, c := range pool {
		if _, ok := seen[strings.ToLower(strings.TrimSpace(c))]; !ok {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// ProcessTurn evaluates one player question against the current subject.
//
// An invalid question yields a two-entry summary and does not touch the
// counter. A valid question increments the counter, is answered, and is
// checked as a deciding question only when the answer is exactly "Yes".
// Win resolves before budget exhaustion: a correct deciding question on the
// last allowed question is a win, not a loss.
func (e *Engine) ProcessTurn(ctx context.Context, question string) (*TurnSummary, error) {
	if e.subject == "" {
		return nil, errors.New("no subject set: game not started")
	}

	summary := &TurnSummary{
		Begin: TurnBegin{
			QuestionsAsked:     e.asked,
			QuestionsRemaining: e.QuestionsRemaining(),
			Question:           question,
			Timestamp:          time.Now(),
		},
	}

	isValid, reason, err := e.oracle.IsYesNoQuestion(ctx, e.subject, question)
	if err != nil {
		return nil, err
	}
	summary.Validate = TurnValidate{IsValid: isValid, Reason: reason, Timestamp: time.Now()}
	if !isValid {
		return summary, nil
	}

	e.asked++

	today := time.Now().Format("02 January 2006")
	answer, justification, err := e.oracle.AnswerQuestion(ctx, e.subject, question, today)
	if err != nil {
		return nil, fmt.Errorf("turn cannot be completed: %w", err)
	}
	summary.Answer = &TurnAnswer{
		QuestionsAsked:     e.asked,
		QuestionsRemaining: e.QuestionsRemaining(),
		Answer:             answer,
		Justification:      justification,
		Timestamp:          time.Now(),
	}

	isDeciding := false
	if answer == oracle.AnswerYes {
		isDeciding, err = e.oracle.IsDecidingQuestion(ctx, e.subject, question)
		if err != nil {
			return nil, err
		}
	}
	summary.Decide = &TurnDecide{IsDecidingQ: isDeciding, Timestamp: time.Now()}

	switch {
	case isDeciding:
		summary.Result = TurnWin
	case e.asked == e.cfg.MaxQuestions:
		summary.Result = TurnLose
	default:
		summary.Result = TurnContinue
	}

	return summary, nil
}
