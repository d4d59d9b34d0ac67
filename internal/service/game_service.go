package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qugame/twentyq-backend/internal/config"
	"github.com/qugame/twentyq-backend/internal/game"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/qugame/twentyq-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Game lifecycle errors.
var (
	ErrInvalidLogin = errors.New("unknown username or wrong passcode")
	ErrNoActiveGame = errors.New("no active game for user")
)

// GameStore is the persistence surface the game lifecycle needs.
// *repository.GameRepository satisfies it.
type GameStore interface {
	SubjectHistory(ctx context.Context, username string) ([]string, error)
	StartGame(ctx context.Context, userID int, subject string) (*model.GameSession, error)
	FinishGame(ctx context.Context, sessionID uuid.UUID, userWon bool, stats json.RawMessage) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*model.GameSession, error)
	StartTurn(ctx context.Context, sessionID uuid.UUID, question string, asked, remaining int) (*model.Turn, error)
	FinishTurn(ctx context.Context, turnID int64, answer *string) error
	StoreTurnLogs(ctx context.Context, logs []model.TurnLog) error
}

// UserStore resolves players. *repository.UserRepository satisfies it.
type UserStore interface {
	Authenticate(ctx context.Context, username, passcode string) (*model.User, error)
	GetOrCreate(ctx context.Context, username string) (*model.User, error)
}

// statsInvalidator drops cached stats after a game finishes.
// *StatsService satisfies it.
type statsInvalidator interface {
	Invalidate(ctx context.Context, username string)
}

// activeGame bundles the in-memory engine with its persisted session.
// Turns on one game are serialized by mu.
type activeGame struct {
	mu      sync.Mutex
	engine  *game.Engine
	session *model.GameSession
	user    *model.User
	rec     *oracle.UsageRecorder
}

// GameService coordinates the oracle, engine, and persistence for the full
// game lifecycle: login, start, turns, finish. One active game per player;
// starting a new game abandons the previous one (it stays unfinished in the
// database).
type GameService struct {
	cfg       *config.Config
	db        GameStore
	users     UserStore
	newOracle func(rec *oracle.UsageRecorder) game.Oracle
	stats     statsInvalidator
	log       zerolog.Logger

	mu    sync.Mutex
	games map[int]*activeGame // keyed by user ID
}

// NewGameService creates the game lifecycle coordinator.
func NewGameService(cfg *config.Config, db GameStore, users UserStore, orc *oracle.Oracle, stats statsInvalidator, log zerolog.Logger) *GameService {
	return &GameService{
		cfg:       cfg,
		db:        db,
		users:     users,
		newOracle: func(rec *oracle.UsageRecorder) game.Oracle { return orc.WithRecorder(rec) },
		stats:     stats,
		log:       log,
		games:     make(map[int]*activeGame),
	}
}

// Login resolves a player for play. With auth required the passcode must
// match; otherwise unknown usernames are created transparently (guest mode).
func (s *GameService) Login(ctx context.Context, username, passcode string) (*model.User, error) {
	if s.cfg.RequireAuth {
		user, err := s.users.Authenticate(ctx, username, passcode)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		if err != nil {
			return nil, fmt.Errorf("authenticate %q: %w", username, err)
		}
		return user, nil
	}
	user, err := s.users.GetOrCreate(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get or create %q: %w", username, err)
	}
	return user, nil
}

// StartGame picks a fresh subject for the player, persists a new session,
// and registers it as the player's active game.
func (s *GameService) StartGame(ctx context.Context, user *model.User) (*GameBegun, error) {
	history, err := s.db.SubjectHistory(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("load subject history: %w", err)
	}

	rec := oracle.NewUsageRecorder()
	engine := game.NewEngine(s.newOracle(rec), game.Config{
		MaxQuestions:  s.cfg.MaxQuestions,
		NumCandidates: s.cfg.SubjectCandidates,
		SimplePicker:  s.cfg.SimpleSubjectPicker,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, history, s.log.With().Str("username", user.Username).Logger())

	if err := engine.PickSubject(ctx); err != nil {
		return nil, err
	}

	session, err := s.db.StartGame(ctx, user.ID, engine.Subject())
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.games[user.ID] = &activeGame{
		engine:  engine,
		session: session,
		user:    user,
		rec:     rec,
	}
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("user_id", user.ID).
		Msg("game started")

	return &GameBegun{
		SessionID:    session.ID.String(),
		MaxQuestions: s.cfg.MaxQuestions,
	}, nil
}

// active returns the player's in-memory game, or ErrNoActiveGame.
func (s *GameService) active(userID int) (*activeGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[userID]
	if !ok {
		return nil, ErrNoActiveGame
	}
	return g, nil
}

// Session retrieves a persisted session by id, finished or not.
func (s *GameService) Session(ctx context.Context, sessionID uuid.UUID) (*model.GameSession, error) {
	return s.db.GetSession(ctx, sessionID)
}

// State reports the player's current game progress. Used by reconnecting
// clients to resynchronize.
func (s *GameService) State(userID int) (*GameState, error) {
	g, err := s.active(userID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return &GameState{
		SessionID:          g.session.ID.String(),
		MaxQuestions:       s.cfg.MaxQuestions,
		QuestionsAsked:     g.engine.QuestionsAsked(),
		QuestionsRemaining: g.engine.QuestionsRemaining(),
	}, nil
}

// TakeTurn runs one question through the player's active game and persists
// the turn, its event log, and — on win or loss — the finished session.
func (s *GameService) TakeTurn(ctx context.Context, userID int, question string) (TurnOutcome, error) {
	g, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	turn, err := s.db.StartTurn(ctx, g.session.ID, question, g.engine.QuestionsAsked(), g.engine.QuestionsRemaining())
	if err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	summary, err := g.engine.ProcessTurn(ctx, question)
	if err != nil {
		// Close the turn row without an answer so the record is not left
		// dangling; the game itself stays open for a retry.
		if ferr := s.db.FinishTurn(ctx, turn.ID, nil); ferr != nil {
			s.log.Error().Err(ferr).Int64("turn_id", turn.ID).Msg("finish aborted turn")
		}
		return nil, fmt.Errorf("process turn: %w", err)
	}

	if err := s.storeTurnLogs(ctx, turn.ID, summary); err != nil {
		s.log.Error().Err(err).Int64("turn_id", turn.ID).Msg("store turn logs")
	}

	var answer *string
	if summary.Answer != nil {
		answer = &summary.Answer.Answer
	}
	if err := s.db.FinishTurn(ctx, turn.ID, answer); err != nil {
		return nil, fmt.Errorf("finish turn: %w", err)
	}

	asked := g.engine.QuestionsAsked()
	remaining := g.engine.QuestionsRemaining()

	switch summary.Result {
	case game.TurnWin:
		if err := s.finishGame(ctx, g, true); err != nil {
			return nil, err
		}
		return WonGame{QuestionsAsked: asked, QuestionsRemaining: remaining, Answer: summary.Answer.Answer}, nil
	case game.TurnLose:
		if err := s.finishGame(ctx, g, false); err != nil {
			return nil, err
		}
		return LostGame{QuestionsAsked: asked, QuestionsRemaining: remaining, Answer: summary.Answer.Answer, Subject: g.engine.Subject()}, nil
	default:
		if !summary.Valid() {
			return InvalidQuestion{Question: question, Reason: summary.Validate.Reason}, nil
		}
		return ContinueGame{QuestionsAsked: asked, QuestionsRemaining: remaining, Answer: summary.Answer.Answer}, nil
	}
}

// storeTurnLogs converts the turn summary into persisted event rows.
func (s *GameService) storeTurnLogs(ctx context.Context, turnID int64, summary *game.TurnSummary) error {
	entries := summary.LogEntries()
	logs := make([]model.TurnLog, 0, len(entries))
	for _, e := range entries {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", e.Key, err)
		}
		logs = append(logs, model.TurnLog{
			TurnID:    turnID,
			Timestamp: e.Timestamp,
			Key:       e.Key,
			Value:     value,
		})
	}
	return s.db.StoreTurnLogs(ctx, logs)
}

// finishGame persists the outcome with the game's model usage stats, drops
// the in-memory game, and invalidates cached stats for the player.
func (s *GameService) finishGame(ctx context.Context, g *activeGame, won bool) error {
	stats, err := json.Marshal(g.rec.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal usage stats: %w", err)
	}
	if err := s.db.FinishGame(ctx, g.session.ID, won, stats); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}

	s.mu.Lock()
	// A concurrent StartGame may already have replaced this player's entry;
	// only drop the map slot if it still points at the game being finished.
	if s.games[g.user.ID] == g {
		delete(s.games, g.user.ID)
	}
	s.mu.Unlock()

	if s.stats != nil {
		s.stats.Invalidate(ctx, g.user.Username)
	}

	s.log.Info().
		Str("session_id", g.session.ID.String()).
		Bool("user_won", won).
		Msg("game finished")
	return nil
}
