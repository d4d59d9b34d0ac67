package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qugame/twentyq-backend/internal/middleware"
	"github.com/qugame/twentyq-backend/internal/response"
	"github.com/qugame/twentyq-backend/internal/service"
)

// StatsHandler serves aggregates and per-turn game review data.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetMyStats godoc
// GET /api/v1/game/stats
// Returns the authenticated player's win/loss aggregates.
func (h *StatsHandler) GetMyStats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.statsService.UserStats(c.Request.Context(), claims.Username)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GetUserStats godoc
// GET /api/v1/admin/stats/users/:username
// Returns one player's win/loss aggregates.
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	username := c.Param("username")

	stats, err := h.statsService.UserStats(c.Request.Context(), username)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GetServerStats godoc
// GET /api/v1/admin/stats/server
// Returns aggregates across all players.
func (h *StatsHandler) GetServerStats(c *gin.Context) {
	stats, err := h.statsService.ServerStats(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ReviewGames godoc
// GET /api/v1/admin/games/review
// Returns per-turn review rows for every session, newest first.
func (h *StatsHandler) ReviewGames(c *gin.Context) {
	reviews, err := h.statsService.ReviewGames(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"turns": reviews})
}

// ReviewGame godoc
// GET /api/v1/admin/games/:session_id/review
// Returns per-turn review rows for one session.
func (h *StatsHandler) ReviewGame(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reviews, err := h.statsService.ReviewGame(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"turns": reviews})
}
