package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/storage"
	"go.uber.org/zap"
)

type UserService struct {
	store storage.Storage
	locks *keyLocks[string]
	log   *zap.Logger
}

func NewUserService(store storage.Storage, log *zap.Logger) *UserService {
	return &UserService{
		store: store,
		locks: newKeyLocks[string](),
		log:   log,
	}
}

func (s *UserService) Get(ctx context.Context, walletAddress string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, walletAddress)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Register returns the existing user for the wallet, or creates one.
// created reports which of the two happened.
func (s *UserService) Register(ctx context.Context, in models.NewUser) (user *models.User, created bool, err error) {
	unlock := s.locks.Lock(in.WalletAddress)
	defer unlock()

	existing, err := s.store.GetUser(ctx, in.WalletAddress)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	u, err := s.store.CreateUser(ctx, in)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("wallet", u.WalletAddress),
		zap.Int64("user_id", u.ID),
	)
	return u, true, nil
}

// Tasks lists the wallet's completed eco tasks, oldest first.
func (s *UserService) Tasks(ctx context.Context, walletAddress string) ([]models.EcoTask, error) {
	tasks, err := s.store.GetUserTasks(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get user tasks: %w", err)
	}
	return tasks, nil
}
