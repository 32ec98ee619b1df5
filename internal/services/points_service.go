package services

import (
	"context"
	"fmt"

	"github.com/ecoboard/backend/internal/events"
	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/storage"
	"go.uber.org/zap"
)

// PointsService is the points ledger. A wallet's ecoPoints always equals
// the sum of pointsAwarded over its recorded tasks.
type PointsService struct {
	store        storage.Storage
	publisher    events.Publisher
	defaultLimit int
	log          *zap.Logger
}

func NewPointsService(store storage.Storage, publisher events.Publisher, defaultLimit int, log *zap.Logger) *PointsService {
	if defaultLimit < 1 {
		defaultLimit = storage.DefaultLeaderboardLimit
	}
	return &PointsService{
		store:        store,
		publisher:    publisher,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

// CompleteTask records the task and credits its points. Repeating the same
// taskId awards points again. A wallet without a User still gets the task
// recorded; the credit is skipped.
func (s *PointsService) CompleteTask(ctx context.Context, in models.NewEcoTask) (*models.EcoTask, error) {
	task, user, err := s.store.RecordEcoTask(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to record task: %w", err)
	}

	payload := map[string]any{
		"walletAddress": task.UserWallet,
		"taskId":        task.TaskID,
		"taskType":      task.TaskType,
		"pointsAwarded": task.PointsAwarded,
	}
	if user == nil {
		s.log.Warn("task recorded for unknown wallet, points not credited",
			zap.String("wallet", task.UserWallet),
			zap.String("task_id", task.TaskID),
			zap.Int("points", task.PointsAwarded),
		)
	} else {
		payload["ecoPoints"] = user.EcoPoints
		s.log.Info("task completed",
			zap.String("wallet", task.UserWallet),
			zap.String("task_id", task.TaskID),
			zap.Int("points", task.PointsAwarded),
			zap.Int("eco_points", user.EcoPoints),
		)
	}

	publish(ctx, s.publisher, s.log, events.Event{Type: events.EventTaskCompleted, Payload: payload})
	return task, nil
}

// Leaderboard returns at most *limit users by descending points. A nil
// limit uses the configured default; a negative one returns nothing.
func (s *PointsService) Leaderboard(ctx context.Context, limit *int) ([]models.User, error) {
	n := s.defaultLimit
	if limit != nil {
		n = max(*limit, 0)
	}
	users, err := s.store.GetLeaderboard(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}
