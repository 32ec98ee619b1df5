package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecoboard/backend/internal/config"
	"github.com/ecoboard/backend/internal/db"
	"github.com/ecoboard/backend/internal/events"
	apphttp "github.com/ecoboard/backend/internal/http"
	"github.com/ecoboard/backend/internal/http/handlers"
	"github.com/ecoboard/backend/internal/services"
	"github.com/ecoboard/backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var store storage.Storage
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, db.Migrations(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		store = storage.NewPGStorage(pool)
	default:
		log.Info("using in-memory storage, data is lost on restart")
		store = storage.NewMemStorage()
	}

	// Redis (optional): events, nonces, rate limit
	var (
		rdb        *redis.Client
		publisher  events.Publisher
		subscriber events.Subscriber
		nonces     storage.NonceStore
	)
	if cfg.RedisURL != "" {
		var err error
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
		nonces = storage.NewRedisNonceStore(rdb)
	} else {
		bus := events.NewLocalBus(log)
		publisher, subscriber = bus, bus
		nonces = storage.NewMemNonceStore()
	}

	// Services
	userService := services.NewUserService(store, log)
	proposalService := services.NewProposalService(store, publisher, log)
	voteService := services.NewVoteService(store, publisher, log)
	pointsService := services.NewPointsService(store, publisher, cfg.DefaultLeaderboardLimit, log)
	authService := services.NewWalletAuthService(nonces, userService, services.WalletAuthConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTExpiration:  cfg.JWTExpiration,
		AllowedDomains: cfg.WalletProofAllowedDomains,
		NonceTTL:       cfg.WalletNonceTTL,
	}, log)
	sensay := services.NewSensayClient(services.SensayConfig{
		BaseURL:   cfg.SensayBaseURL,
		APIKey:    cfg.SensayAPIKey,
		ReplicaID: cfg.SensayReplicaID,
		UserID:    cfg.SensayUserID,
		Timeout:   cfg.UpstreamTimeout,
	}, log)
	market := services.NewMarketClient(services.MarketConfig{
		BaseURL: cfg.OKXBaseURL,
		APIKey:  cfg.OKXAPIKey,
		Timeout: cfg.UpstreamTimeout,
	}, log)
	insightsService := services.NewInsightsService(sensay, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apphttp.ErrorHandler(log),
	})

	apphttp.SetupRouter(app, cfg, log, rdb, apphttp.Handlers{
		User:     handlers.NewUserHandler(userService, log),
		Proposal: handlers.NewProposalHandler(proposalService, log),
		Vote:     handlers.NewVoteHandler(voteService, log),
		Points:   handlers.NewPointsHandler(pointsService, log),
		Insights: handlers.NewInsightsHandler(insightsService, market, log),
		Auth:     handlers.NewAuthHandler(authService, log),
		Meta:     handlers.NewMetaHandler(),
		WS:       wsHub,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr), zap.String("storage", cfg.StorageBackend))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
