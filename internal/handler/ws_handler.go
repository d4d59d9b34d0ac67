package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/qugame/twentyq-backend/internal/game"
	"github.com/qugame/twentyq-backend/internal/middleware"
	"github.com/qugame/twentyq-backend/internal/model"
	"github.com/qugame/twentyq-backend/internal/oracle"
	"github.com/qugame/twentyq-backend/internal/service"
	"github.com/rs/zerolog"

	ws "github.com/qugame/twentyq-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a game session over one WebSocket connection.
type WSHandler struct {
	gameService *service.GameService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(gameService *service.GameService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		gameService: gameService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// PlayStream godoc
// WS /ws/v1/play
// Upgrades to WebSocket for an interactive game: start, ask, state, ping.
func (h *WSHandler) PlayStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	user := &model.User{ID: claims.UserID, Username: claims.Username}

	wsLog := h.log.With().
		Int("user_id", user.ID).
		Str("username", user.Username).
		Logger()

	wsLog.Info().Msg("Player connected")

	for {
		var msg ws.AskRequest
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionStart:
			h.handleStart(conn, wsLog, user)
		case ws.ActionAsk:
			h.handleAsk(conn, wsLog, user, msg.Question)
		case ws.ActionState:
			h.handleState(conn, user)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleStart(conn *websocket.Conn, wsLog zerolog.Logger, user *model.User) {
	begun, err := h.gameService.StartGame(context.Background(), user)
	if err != nil {
		wsLog.Error().Err(err).Msg("Start game error")
		if errors.Is(err, game.ErrEmptySubjectPool) {
			ws.WriteError(conn, "no fresh subject could be picked")
			return
		}
		ws.WriteError(conn, "start failed")
		return
	}

	ws.WriteTyped(conn, ws.GameStartedResponse{Event: ws.EventGameStarted, Game: begun})
}

func (h *WSHandler) handleAsk(conn *websocket.Conn, wsLog zerolog.Logger, user *model.User, question string) {
	if strings.TrimSpace(question) == "" {
		ws.WriteError(conn, "question is required")
		return
	}

	outcome, err := h.gameService.TakeTurn(context.Background(), user.ID, question)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveGame):
			ws.WriteError(conn, "no game in progress")
		case errors.Is(err, oracle.ErrAnswerParse):
			ws.WriteError(conn, "the answer engine gave an unusable reply, ask again")
		default:
			wsLog.Error().Err(err).Msg("Turn error")
			ws.WriteError(conn, "turn failed")
		}
		return
	}

	ws.WriteTyped(conn, ws.TurnResponse{
		Event:   ws.EventTurn,
		Kind:    service.OutcomeKind(outcome),
		Outcome: outcome,
	})
}

func (h *WSHandler) handleState(conn *websocket.Conn, user *model.User) {
	state, err := h.gameService.State(user.ID)
	if err != nil {
		ws.WriteError(conn, "no game in progress")
		return
	}
	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state})
}
