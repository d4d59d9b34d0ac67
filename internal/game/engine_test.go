package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/rs/zerolog"
)

// fakeOracle scripts the four oracle capabilities and counts calls.
type fakeOracle struct {
	candidates []string
	pickErr    error

	valid  bool
	reason string

	answer    string
	answerErr error

	deciding      bool
	decidingCalls int
}

func (f *fakeOracle) PickSubjectCandidates(_ context.Context, _ int, _ string, _ []string) ([]string, error) {
	return f.candidates, f.pickErr
}

func (f *fakeOracle) IsYesNoQuestion(_ context.Context, _, _ string) (bool, string, error) {
	return f.valid, f.reason, nil
}

func (f *fakeOracle) AnswerQuestion(_ context.Context, _, _, _ string) (string, string, error) {
	if f.answerErr != nil {
		return "", "", f.answerErr
	}
	return f.answer, "because", nil
}

func (f *fakeOracle) IsDecidingQuestion(_ context.Context, _, _ string) (bool, error) {
	f.decidingCalls++
	return f.deciding, nil
}

func newTestEngine(o Oracle, maxQuestions int, history []string) *Engine {
	return NewEngine(o, Config{
		MaxQuestions:  maxQuestions,
		NumCandidates: 10,
		SimplePicker:  true,
		Rand:          rand.New(rand.NewSource(1)),
	}, history, zerolog.Nop())
}

func startedEngine(o Oracle, maxQuestions int) *Engine {
	e := newTestEngine(o, maxQuestions, nil)
	if err := e.PickSubject(context.Background()); err != nil {
		panic(err)
	}
	return e
}

func TestPickSubjectAppendsHistoryAndResetsCounter(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerNo}
	e := newTestEngine(fake, 20, []string{"guitar"})

	if err := e.PickSubject(context.Background()); err != nil {
		t.Fatalf("PickSubject: %v", err)
	}
	if e.Subject() != "piano" {
		t.Errorf("subject = %q", e.Subject())
	}
	if got := e.History(); len(got) != 2 || got[1] != "piano" {
		t.Errorf("history = %v", got)
	}
	if e.QuestionsAsked() != 0 {
		t.Errorf("questions asked = %d, want 0", e.QuestionsAsked())
	}
	if e.QuestionsRemaining() != 20 {
		t.Errorf("questions remaining = %d, want 20", e.QuestionsRemaining())
	}
}

func TestPickSubjectFiltersSeenCaseInsensitive(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"The Moon", " piano "}}
	e := newTestEngine(fake, 20, []string{"the moon"})

	for i := 0; i < 10; i++ {
		e.cfg.Rand = rand.New(rand.NewSource(int64(i)))
		e.subject, e.history = "", []string{"the moon"}
		if err := e.PickSubject(context.Background()); err != nil {
			t.Fatalf("PickSubject: %v", err)
		}
		if e.Subject() == "The Moon" {
			t.Fatal("picked a subject already in the history")
		}
	}
}

func TestPickSubjectEmptyPool(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}}
	e := newTestEngine(fake, 20, []string{"piano"})

	err := e.PickSubject(context.Background())
	if !errors.Is(err, ErrEmptySubjectPool) {
		t.Fatalf("err = %v, want ErrEmptySubjectPool", err)
	}
}

func TestProcessTurnRequiresSubject(t *testing.T) {
	e := newTestEngine(&fakeOracle{}, 20, nil)

	if _, err := e.ProcessTurn(context.Background(), "Is it alive?"); err == nil {
		t.Fatal("expected error before a subject is picked")
	}
}

func TestProcessTurnInvalidQuestionKeepsCounter(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: false, reason: "open-ended"}
	e := startedEngine(fake, 20)

	summary, err := e.ProcessTurn(context.Background(), "What is it?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if summary.Valid() {
		t.Error("expected invalid summary")
	}
	if summary.Validate.Reason != "open-ended" {
		t.Errorf("reason = %q", summary.Validate.Reason)
	}
	if e.QuestionsAsked() != 0 {
		t.Errorf("invalid question consumed budget: asked = %d", e.QuestionsAsked())
	}
	if entries := summary.LogEntries(); len(entries) != 2 {
		t.Errorf("log entries = %d, want 2", len(entries))
	}
	if fake.decidingCalls != 0 {
		t.Errorf("deciding check ran %d times on an invalid question", fake.decidingCalls)
	}
}

func TestProcessTurnValidQuestionIncrements(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerNo}
	e := startedEngine(fake, 20)

	summary, err := e.ProcessTurn(context.Background(), "Is it alive?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if summary.Result != TurnContinue {
		t.Errorf("result = %v, want continue", summary.Result)
	}
	if e.QuestionsAsked() != 1 || e.QuestionsRemaining() != 19 {
		t.Errorf("counters = %d/%d", e.QuestionsAsked(), e.QuestionsRemaining())
	}
	if summary.Answer == nil || summary.Answer.Answer != oracle.AnswerNo {
		t.Errorf("answer = %+v", summary.Answer)
	}
	if entries := summary.LogEntries(); len(entries) != 4 {
		t.Errorf("log entries = %d, want 4", len(entries))
	}
}

func TestDecidingCheckedOnlyOnYes(t *testing.T) {
	for _, answer := range []string{oracle.AnswerNo, oracle.AnswerSometimes, oracle.AnswerDontKnow} {
		fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: answer}
		e := startedEngine(fake, 20)

		if _, err := e.ProcessTurn(context.Background(), "Is it alive?"); err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
		if fake.decidingCalls != 0 {
			t.Errorf("answer %q triggered %d deciding checks", answer, fake.decidingCalls)
		}
	}

	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerYes}
	e := startedEngine(fake, 20)
	if _, err := e.ProcessTurn(context.Background(), "Does it have keys?"); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if fake.decidingCalls != 1 {
		t.Errorf("answer Yes triggered %d deciding checks, want 1", fake.decidingCalls)
	}
}

func TestWinOnLastQuestionBeatsLoss(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerYes, deciding: true}
	e := startedEngine(fake, 1)

	summary, err := e.ProcessTurn(context.Background(), "Is it a piano?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if summary.Result != TurnWin {
		t.Errorf("result = %v, want win on the final question", summary.Result)
	}
}

func TestLoseWhenBudgetExhausted(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerNo}
	e := startedEngine(fake, 1)

	summary, err := e.ProcessTurn(context.Background(), "Is it alive?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if summary.Result != TurnLose {
		t.Errorf("result = %v, want lose", summary.Result)
	}
	if e.QuestionsRemaining() != 0 {
		t.Errorf("questions remaining = %d, want 0", e.QuestionsRemaining())
	}
}

func TestFullGameWinOnFinalQuestion(t *testing.T) {
	fake := &fakeOracle{candidates: []string{"piano"}, valid: true, answer: oracle.AnswerNo}
	e := startedEngine(fake, 20)

	for i := 1; i <= 19; i++ {
		summary, err := e.ProcessTurn(context.Background(), "Is it alive?")
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if summary.Result != TurnContinue {
			t.Fatalf("turn %d result = %v, want continue", i, summary.Result)
		}
		if e.QuestionsAsked() != i {
			t.Fatalf("turn %d: questions asked = %d", i, e.QuestionsAsked())
		}
	}
	if e.QuestionsRemaining() != 1 {
		t.Fatalf("questions remaining = %d before the final turn, want 1", e.QuestionsRemaining())
	}

	fake.answer = oracle.AnswerYes
	fake.deciding = true
	summary, err := e.ProcessTurn(context.Background(), "Is it a piano?")
	if err != nil {
		t.Fatalf("final turn: %v", err)
	}
	if summary.Result != TurnWin {
		t.Errorf("result = %v, want win on the final question", summary.Result)
	}
	if e.QuestionsAsked() != 20 || e.QuestionsRemaining() != 0 {
		t.Errorf("counters = %d/%d, want 20/0", e.QuestionsAsked(), e.QuestionsRemaining())
	}
}

func TestProcessTurnAnswerErrorPropagates(t *testing.T) {
	fake := &fakeOracle{
		candidates: []string{"piano"},
		valid:      true,
		answerErr:  oracle.ErrAnswerParse,
	}
	e := startedEngine(fake, 20)

	_, err := e.ProcessTurn(context.Background(), "Is it alive?")
	if !errors.Is(err, oracle.ErrAnswerParse) {
		t.Fatalf("err = %v, want ErrAnswerParse", err)
	}
	// The counter had already moved: the question itself was fine.
	if e.QuestionsAsked() != 1 {
		t.Errorf("questions asked = %d, want 1", e.QuestionsAsked())
	}
}
