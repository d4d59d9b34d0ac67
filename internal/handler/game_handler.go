package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qugame/twentyq-backend/internal/game"
	"github.com/qugame/twentyq-backend/internal/middleware"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/qugame/twentyq-backend/internal/repository"
	"github.com/qugame/twentyq-backend/internal/response"
	"github.com/qugame/twentyq-backend/internal/service"
	"github.com/qugame/twentyq-backend/internal/validator"
)

// GameHandler handles the player's game lifecycle endpoints.
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// StartGame godoc
// POST /api/v1/game/start
// Picks a fresh subject and starts a new game, abandoning any previous one.
func (h *GameHandler) StartGame(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user := &model.User{ID: claims.UserID, Username: claims.Username}
	begun, err := h.gameService.StartGame(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, game.ErrEmptySubjectPool) {
			response.Fail(c, http.StatusBadGateway, response.ErrEmptySubjectPool)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, begun)
}

// AskQuestion godoc
// POST /api/v1/game/ask
// Runs one question through the active game and returns the turn outcome.
func (h *GameHandler) AskQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AskQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.gameService.TakeTurn(c.Request.Context(), claims.UserID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveGame):
			response.Fail(c, http.StatusNotFound, response.ErrGameNotStarted)
		case errors.Is(err, oracle.ErrAnswerParse):
			// The game stays open; the player may ask again.
			response.Fail(c, http.StatusBadGateway, response.ErrOracleError)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"kind":    service.OutcomeKind(outcome),
		"outcome": outcome,
	})
}

// GetSession godoc
// GET /api/v1/admin/games/:session_id
// Returns one persisted session, including its subject, outcome, and
// model-usage stats. Admin only: the payload reveals the subject.
func (h *GameHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.gameService.Session(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":  session,
		"finished": session.Finished(),
	})
}

// GetState godoc
// GET /api/v1/game/state
// Reports the active game's progress, for reconnecting clients.
func (h *GameHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.gameService.State(claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveGame) {
			response.Fail(c, http.StatusNotFound, response.ErrGameNotStarted)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}
