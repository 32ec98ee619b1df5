package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoboard/backend/internal/config"
	"github.com/ecoboard/backend/internal/db"
	"github.com/ecoboard/backend/internal/services"
	"github.com/ecoboard/backend/internal/storage"
	"go.uber.org/zap"
)

// worker периодически пересчитывает счётчики голосов по всем предложениям.
// Нужен только с Postgres, когда API запущен в нескольких экземплярах.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)
	if cfg.StorageBackend != config.StoragePostgres {
		log.Fatal("worker requires STORAGE_BACKEND=postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	voteService := services.NewVoteService(storage.NewPGStorage(pool), nil, log)

	log.Info("worker started", zap.Duration("interval", cfg.RecountInterval))

	ticker := time.NewTicker(cfg.RecountInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runRecount(ctx, voteService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runRecount(ctx context.Context, voteService *services.VoteService, log *zap.Logger) {
	start := time.Now()
	fixed, err := voteService.RecountAll(ctx)
	if err != nil {
		log.Error("tally recount failed", zap.Error(err))
		return
	}
	log.Info("tally recount done", zap.Int("fixed", fixed), zap.Duration("took", time.Since(start)))
}
