package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qugame/twentyq-backend/internal/config"
	"github.com/qugame/twentyq-backend/internal/game"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/qugame/twentyq-backend/internal/repository"
	"github.com/rs/zerolog"
)

// fakeGameStore records everything the service persists.
type fakeGameStore struct {
	history []string

	startedGames   []string // subjects
	finishedWon    []bool
	finishedStats  []json.RawMessage
	startedTurns   []string // questions
	finishedTurns  []*string
	storedLogRuns  [][]model.TurnLog
	nextTurnID     int64
	finishGameErr  error
	subjectHistErr error
}

func (f *fakeGameStore) SubjectHistory(_ context.Context, _ string) ([]string, error) {
	return f.history, f.subjectHistErr
}

func (f *fakeGameStore) StartGame(_ context.Context, userID int, subject string) (*model.GameSession, error) {
	f.startedGames = append(f.startedGames, subject)
	return &model.GameSession{ID: uuid.New(), UserID: userID, Subject: subject, StartedAt: time.Now()}, nil
}

func (f *fakeGameStore) FinishGame(_ context.Context, _ uuid.UUID, userWon bool, stats json.RawMessage) error {
	if f.finishGameErr != nil {
		return f.finishGameErr
	}
	f.finishedWon = append(f.finishedWon, userWon)
	f.finishedStats = append(f.finishedStats, stats)
	return nil
}

func (f *fakeGameStore) GetSession(_ context.Context, _ uuid.UUID) (*model.GameSession, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeGameStore) StartTurn(_ context.Context, sessionID uuid.UUID, question string, asked, remaining int) (*model.Turn, error) {
	f.startedTurns = append(f.startedTurns, question)
	f.nextTurnID++
	return &model.Turn{ID: f.nextTurnID, SessionID: sessionID, Question: question, QuestionsAsked: asked, QuestionsRemaining: remaining}, nil
}

func (f *fakeGameStore) FinishTurn(_ context.Context, _ int64, answer *string) error {
	f.finishedTurns = append(f.finishedTurns, answer)
	return nil
}

func (f *fakeGameStore) StoreTurnLogs(_ context.Context, logs []model.TurnLog) error {
	f.storedLogRuns = append(f.storedLogRuns, logs)
	return nil
}

// fakeUserStore resolves a single known player.
type fakeUserStore struct {
	known    *model.User
	created  []string
	authErrs bool
}

func (f *fakeUserStore) Authenticate(_ context.Context, username, passcode string) (*model.User, error) {
	if f.authErrs || f.known == nil || f.known.Username != username || f.known.Passcode != passcode {
		return nil, repository.ErrNotFound
	}
	return f.known, nil
}

func (f *fakeUserStore) GetOrCreate(_ context.Context, username string) (*model.User, error) {
	f.created = append(f.created, username)
	return &model.User{ID: 7, Username: username, Name: "Test"}, nil
}

// scriptedOracle implements game.Oracle for lifecycle tests.
type scriptedOracle struct {
	valid    bool
	reason   string
	answer   string
	answerEr error
	deciding bool

	onDeciding func() // runs before the deciding check returns
}

func (s *scriptedOracle) PickSubjectCandidates(_ context.Context, _ int, _ string, _ []string) ([]string, error) {
	return []string{"lighthouse"}, nil
}

func (s *scriptedOracle) IsYesNoQuestion(_ context.Context, _, _ string) (bool, string, error) {
	return s.valid, s.reason, nil
}

func (s *scriptedOracle) AnswerQuestion(_ context.Context, _, _, _ string) (string, string, error) {
	if s.answerEr != nil {
		return "", "", s.answerEr
	}
	return s.answer, "because", nil
}

func (s *scriptedOracle) IsDecidingQuestion(_ context.Context, _, _ string) (bool, error) {
	if s.onDeciding != nil {
		s.onDeciding()
	}
	return s.deciding, nil
}

type fakeInvalidator struct {
	usernames []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, username string) {
	f.usernames = append(f.usernames, username)
}

func newTestGameService(orc game.Oracle, db *fakeGameStore, users *fakeUserStore, inv *fakeInvalidator, maxQuestions int) *GameService {
	cfg := &config.Config{
		MaxQuestions:      maxQuestions,
		SubjectCandidates: 10,
		RequireAuth:       true,
	}
	var stats statsInvalidator
	if inv != nil {
		stats = inv
	}
	return &GameService{
		cfg:       cfg,
		db:        db,
		users:     users,
		newOracle: func(_ *oracle.UsageRecorder) game.Oracle { return orc },
		stats:     stats,
		log:       zerolog.Nop(),
		games:     make(map[int]*activeGame),
	}
}

func TestLoginAuthenticates(t *testing.T) {
	users := &fakeUserStore{known: &model.User{ID: 3, Username: "ada", Passcode: "s3cret"}}
	svc := newTestGameService(&scriptedOracle{}, &fakeGameStore{}, users, nil, 20)

	user, err := svc.Login(context.Background(), "ada", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("user ID = %d", user.ID)
	}

	if _, err := svc.Login(context.Background(), "ada", "wrong"); !errors.Is(err, ErrInvalidLogin) {
		t.Fatalf("err = %v, want ErrInvalidLogin", err)
	}
}

func TestLoginGuestMode(t *testing.T) {
	users := &fakeUserStore{}
	svc := newTestGameService(&scriptedOracle{}, &fakeGameStore{}, users, nil, 20)
	svc.cfg.RequireAuth = false

	user, err := svc.Login(context.Background(), "newcomer", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "newcomer" {
		t.Errorf("username = %q", user.Username)
	}
	if len(users.created) != 1 {
		t.Errorf("GetOrCreate calls = %d, want 1", len(users.created))
	}
}

func TestStartGameRegistersActiveGame(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: true, answer: oracle.AnswerNo}, db, &fakeUserStore{}, nil, 20)
	user := &model.User{ID: 1, Username: "ada"}

	begun, err := svc.StartGame(context.Background(), user)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if begun.MaxQuestions != 20 {
		t.Errorf("max questions = %d", begun.MaxQuestions)
	}
	if len(db.startedGames) != 1 || db.startedGames[0] != "lighthouse" {
		t.Errorf("persisted subjects = %v", db.startedGames)
	}

	state, err := svc.State(user.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.QuestionsAsked != 0 || state.QuestionsRemaining != 20 {
		t.Errorf("state = %+v", state)
	}
}

func TestTakeTurnWithoutGame(t *testing.T) {
	svc := newTestGameService(&scriptedOracle{}, &fakeGameStore{}, &fakeUserStore{}, nil, 20)

	if _, err := svc.TakeTurn(context.Background(), 1, "Is it alive?"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("err = %v, want ErrNoActiveGame", err)
	}
}

func TestTakeTurnContinue(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: true, answer: oracle.AnswerNo}, db, &fakeUserStore{}, nil, 20)
	user := &model.User{ID: 1, Username: "ada"}
	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	outcome, err := svc.TakeTurn(context.Background(), user.ID, "Is it alive?")
	if err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	cont, ok := outcome.(ContinueGame)
	if !ok {
		t.Fatalf("outcome = %T", outcome)
	}
	if cont.QuestionsAsked != 1 || cont.QuestionsRemaining != 19 || cont.Answer != oracle.AnswerNo {
		t.Errorf("outcome = %+v", cont)
	}

	if len(db.finishedTurns) != 1 || db.finishedTurns[0] == nil || *db.finishedTurns[0] != oracle.AnswerNo {
		t.Errorf("persisted turn answers = %v", db.finishedTurns)
	}
	if len(db.storedLogRuns) != 1 || len(db.storedLogRuns[0]) != 4 {
		t.Fatalf("stored log runs = %v", db.storedLogRuns)
	}
	if len(db.finishedWon) != 0 {
		t.Error("game was finished on a continue outcome")
	}
}

func TestTakeTurnInvalidQuestion(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: false, reason: "open-ended"}, db, &fakeUserStore{}, nil, 20)
	user := &model.User{ID: 1, Username: "ada"}
	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	outcome, err := svc.TakeTurn(context.Background(), user.ID, "What is it?")
	if err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	invalid, ok := outcome.(InvalidQuestion)
	if !ok {
		t.Fatalf("outcome = %T", outcome)
	}
	if invalid.Reason != "open-ended" {
		t.Errorf("reason = %q", invalid.Reason)
	}
	if len(db.storedLogRuns) != 1 || len(db.storedLogRuns[0]) != 2 {
		t.Fatalf("stored log runs = %v", db.storedLogRuns)
	}
	if db.finishedTurns[0] != nil {
		t.Error("invalid turn persisted a non-nil answer")
	}
}

func TestTakeTurnWinFinishesGame(t *testing.T) {
	db := &fakeGameStore{}
	inv := &fakeInvalidator{}
	svc := newTestGameService(&scriptedOracle{valid: true, answer: oracle.AnswerYes, deciding: true}, db, &fakeUserStore{}, inv, 20)
	user := &model.User{ID: 1, Username: "ada"}
	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	outcome, err := svc.TakeTurn(context.Background(), user.ID, "Is it a lighthouse?")
	if err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if _, ok := outcome.(WonGame); !ok {
		t.Fatalf("outcome = %T", outcome)
	}

	if len(db.finishedWon) != 1 || !db.finishedWon[0] {
		t.Errorf("finished games = %v", db.finishedWon)
	}
	var stats map[string]any
	if err := json.Unmarshal(db.finishedStats[0], &stats); err != nil {
		t.Fatalf("usage stats are not JSON: %v", err)
	}
	if _, ok := stats["successful_requests"]; !ok {
		t.Errorf("usage stats missing successful_requests: %v", stats)
	}

	if len(inv.usernames) != 1 || inv.usernames[0] != "ada" {
		t.Errorf("invalidated usernames = %v", inv.usernames)
	}

	// The game is gone; another turn needs a fresh start.
	if _, err := svc.TakeTurn(context.Background(), user.ID, "again?"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("err = %v, want ErrNoActiveGame after a win", err)
	}
}

func TestTakeTurnLossRevealsSubject(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: true, answer: oracle.AnswerNo}, db, &fakeUserStore{}, nil, 1)
	user := &model.User{ID: 1, Username: "ada"}
	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	outcome, err := svc.TakeTurn(context.Background(), user.ID, "Is it alive?")
	if err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	lost, ok := outcome.(LostGame)
	if !ok {
		t.Fatalf("outcome = %T", outcome)
	}
	if lost.Subject != "lighthouse" {
		t.Errorf("subject = %q, want it revealed on loss", lost.Subject)
	}
	if len(db.finishedWon) != 1 || db.finishedWon[0] {
		t.Errorf("finished games = %v", db.finishedWon)
	}
}

func TestTakeTurnOracleFailureKeepsGameOpen(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: true, answerEr: oracle.ErrAnswerParse}, db, &fakeUserStore{}, nil, 20)
	user := &model.User{ID: 1, Username: "ada"}
	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	_, err := svc.TakeTurn(context.Background(), user.ID, "Is it alive?")
	if !errors.Is(err, oracle.ErrAnswerParse) {
		t.Fatalf("err = %v, want ErrAnswerParse", err)
	}

	// The aborted turn row was closed without an answer.
	if len(db.finishedTurns) != 1 || db.finishedTurns[0] != nil {
		t.Errorf("persisted turn answers = %v", db.finishedTurns)
	}
	// The game survives for a retry.
	if _, err := svc.State(user.ID); err != nil {
		t.Fatalf("State after oracle failure: %v", err)
	}
}

func TestStartGameReplacesPreviousGame(t *testing.T) {
	db := &fakeGameStore{}
	svc := newTestGameService(&scriptedOracle{valid: true, answer: oracle.AnswerNo}, db, &fakeUserStore{}, nil, 20)
	user := &model.User{ID: 1, Username: "ada"}

	first, err := svc.StartGame(context.Background(), user)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	second, err := svc.StartGame(context.Background(), user)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Error("second game reused the first session")
	}

	state, err := svc.State(user.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.SessionID != second.SessionID {
		t.Errorf("active session = %s, want the newest", state.SessionID)
	}
	// The abandoned session is never finished.
	if len(db.finishedWon) != 0 {
		t.Errorf("finished games = %v", db.finishedWon)
	}
}

func TestFinishGameKeepsGameStartedMidTurn(t *testing.T) {
	db := &fakeGameStore{}
	orc := &scriptedOracle{valid: true, answer: oracle.AnswerYes, deciding: true}
	svc := newTestGameService(orc, db, &fakeUserStore{}, nil, 1)
	user := &model.User{ID: 1, Username: "ada"}

	if _, err := svc.StartGame(context.Background(), user); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// Another request starts a fresh game while this turn is still in
	// flight. Finishing the old game must not drop the new one.
	var replacement *GameBegun
	orc.onDeciding = func() {
		g, err := svc.StartGame(context.Background(), user)
		if err != nil {
			t.Fatalf("mid-turn StartGame: %v", err)
		}
		replacement = g
	}

	outcome, err := svc.TakeTurn(context.Background(), user.ID, "Is it a lighthouse?")
	if err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if _, ok := outcome.(WonGame); !ok {
		t.Fatalf("outcome = %T, want WonGame", outcome)
	}

	state, err := svc.State(user.ID)
	if err != nil {
		t.Fatalf("State after finishing the old game: %v", err)
	}
	if state.SessionID != replacement.SessionID {
		t.Errorf("active session = %s, want the replacement %s", state.SessionID, replacement.SessionID)
	}
}
