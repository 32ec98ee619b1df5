package http

import (
	"strings"
	"time"

	"github.com/ecoboard/backend/internal/config"
	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/http/handlers"
	"github.com/ecoboard/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	User     *handlers.UserHandler
	Proposal *handlers.ProposalHandler
	Vote     *handlers.VoteHandler
	Points   *handlers.PointsHandler
	Insights *handlers.InsightsHandler
	Auth     *handlers.AuthHandler
	Meta     *handlers.MetaHandler
	WS       *handlers.WSHub
}

// SetupRouter mounts every route. rdb may be nil, which disables rate
// limiting.
func SetupRouter(app *fiber.App, cfg *config.Config, log *zap.Logger, rdb *redis.Client, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok"})
	})

	api := app.Group("/api")

	if rdb != nil && cfg.RateLimitPerMinute > 0 {
		api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))
	}

	// Users
	api.Get("/user/:walletAddress", h.User.GetUser)
	api.Get("/user/:walletAddress/tasks", h.User.GetTasks)
	api.Post("/user", h.User.CreateUser)

	// Points
	api.Get("/leaderboard", h.Points.Leaderboard)
	api.Post("/eco-task", h.Points.CompleteTask)

	// Proposals
	api.Get("/proposals", h.Proposal.List)
	api.Post("/proposals", h.Proposal.Create)
	api.Get("/proposals/:id", h.Proposal.Get)
	api.Get("/proposals/:id/votes", h.Proposal.Votes)

	// Votes
	api.Post("/vote", h.Vote.CastVote)
	api.Get("/vote/:proposalId/:walletAddress", h.Vote.GetUserVote)

	// Insights (AI + market)
	api.Get("/eco-tips", h.Insights.EcoTips)
	api.Get("/weekly-challenge", h.Insights.WeeklyChallenge)
	api.Post("/eco-chat", h.Insights.EcoChat)
	api.Get("/solana-tokens", h.Insights.SolanaTokens)

	// Meta
	api.Get("/meta/categories", h.Meta.GetCategories)

	// Wallet sign-in
	api.Post("/auth/nonce", h.Auth.Nonce)
	api.Post("/auth/wallet", h.Auth.WalletSignIn)

	// Protected endpoints
	requireWallet := middleware.AuthMiddleware(cfg, log)
	api.Get("/me", requireWallet, h.User.GetMe)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}

// ErrorHandler renders errors that escape a handler in the API error shape.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		reqID := middleware.GetRequestID(c)
		return c.Status(code).JSON(dto.ErrorResponse{
			Message:   strings.TrimSpace(message),
			RequestID: reqID,
		})
	}
}
