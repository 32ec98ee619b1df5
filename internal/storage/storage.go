package storage

import (
	"context"
	"errors"

	"github.com/ecoboard/backend/internal/models"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateVote is returned by backends that enforce the
	// (proposal, voter) uniqueness themselves.
	ErrDuplicateVote = errors.New("vote already recorded")
)

const DefaultLeaderboardLimit = 10

// Storage is the entity store shared by the ledgers. Implementations:
// MemStorage (process memory) and PGStorage (Postgres).
type Storage interface {
	GetUser(ctx context.Context, walletAddress string) (*models.User, error)
	// CreateUser does not check for an existing wallet; callers look up first.
	CreateUser(ctx context.Context, u models.NewUser) (*models.User, error)
	UpdateUserEcoPoints(ctx context.Context, walletAddress string, delta int) (*models.User, error)
	UpdateUserStreak(ctx context.Context, walletAddress string, streak int) (*models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.User, error)

	GetProposals(ctx context.Context) ([]models.Proposal, error)
	GetProposal(ctx context.Context, id int64) (*models.Proposal, error)
	CreateProposal(ctx context.Context, p models.NewProposal) (*models.Proposal, error)
	UpdateProposalVotes(ctx context.Context, id int64, yesVotes, noVotes int) (*models.Proposal, error)
	// RecountProposalVotes sets both tallies from the stored votes in one
	// atomic step, so a vote committed concurrently is never lost.
	RecountProposalVotes(ctx context.Context, id int64) (*models.Proposal, error)

	// CreateVote does not check for an existing vote; callers look up first.
	CreateVote(ctx context.Context, v models.NewVote) (*models.Vote, error)
	GetUserVote(ctx context.Context, proposalID int64, voterWallet string) (*models.Vote, error)
	GetProposalVotes(ctx context.Context, proposalID int64) ([]models.Vote, error)

	CreateEcoTask(ctx context.Context, t models.NewEcoTask) (*models.EcoTask, error)
	// RecordEcoTask stores the task and credits its points in one atomic
	// step. user is nil when the wallet has no User; the task is kept anyway.
	RecordEcoTask(ctx context.Context, t models.NewEcoTask) (task *models.EcoTask, user *models.User, err error)
	GetUserTasks(ctx context.Context, userWallet string) ([]models.EcoTask, error)
}

var (
	_ Storage = (*MemStorage)(nil)
	_ Storage = (*PGStorage)(nil)
)
