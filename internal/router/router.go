package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qugame/twentyq-backend/internal/config"
	"github.com/qugame/twentyq-backend/internal/handler"
	"github.com/qugame/twentyq-backend/internal/middleware"
	"github.com/qugame/twentyq-backend/internal/response"
	"github.com/qugame/twentyq-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	Game  *handler.GameHandler
	Stats *handler.StatsHandler
	WS    *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP) to slow
	// down passcode guessing.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/player/login", handlers.Auth.PlayerLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.GET("/player/me", middleware.RequirePlayerJWT(authService), handlers.Auth.GetPlayerProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Game Group (Player JWT) ────────────────────────────────────
	gameAPI := router.Group("/api/v1/game")
	gameAPI.Use(middleware.RequirePlayerJWT(authService))
	{
		gameAPI.POST("/start", handlers.Game.StartGame)
		gameAPI.POST("/ask", handlers.Game.AskQuestion)
		gameAPI.GET("/state", handlers.Game.GetState)
		gameAPI.GET("/stats", handlers.Stats.GetMyStats)
	}

	// ─── 3. WebSocket Group (Player WS Auth) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequirePlayerWSAuth(authService))
	{
		ws.GET("/play", handlers.WS.PlayStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/stats/server", handlers.Stats.GetServerStats)
		adminAPI.GET("/stats/users/:username", handlers.Stats.GetUserStats)
		adminAPI.GET("/games/review", handlers.Stats.ReviewGames)
		adminAPI.GET("/games/:session_id", handlers.Game.GetSession)
		adminAPI.GET("/games/:session_id/review", handlers.Stats.ReviewGame)
	}

	return router
}
