package dto

import (
	"time"

	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/solana"
)

type CreateUserRequest struct {
	WalletAddress  string   `json:"walletAddress" validate:"required"`
	Username       *string  `json:"username,omitempty"`
	EcoPoints      *int     `json:"ecoPoints,omitempty"`
	Streak         *int     `json:"streak,omitempty"`
	CompletedTasks *int     `json:"completedTasks,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
}

func (r CreateUserRequest) ToModel() models.NewUser {
	return models.NewUser{
		WalletAddress:  r.WalletAddress,
		Username:       r.Username,
		EcoPoints:      r.EcoPoints,
		Streak:         r.Streak,
		CompletedTasks: r.CompletedTasks,
		Achievements:   r.Achievements,
	}
}

type CreateProposalRequest struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description" validate:"required"`
	Category     string     `json:"category" validate:"required"`
	AuthorWallet string     `json:"authorWallet" validate:"required"`
	EndDate      *time.Time `json:"endDate" validate:"required"` // RFC 3339
}

func (r CreateProposalRequest) ToModel() models.NewProposal {
	return models.NewProposal{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		AuthorWallet: r.AuthorWallet,
		EndDate:      *r.EndDate,
	}
}

type CastVoteRequest struct {
	ProposalID      *int64  `json:"proposalId" validate:"required"`
	VoterWallet     string  `json:"voterWallet" validate:"required"`
	Vote            *bool   `json:"vote" validate:"required"`
	TransactionHash *string `json:"transactionHash,omitempty"`
}

func (r CastVoteRequest) ToModel() models.NewVote {
	return models.NewVote{
		ProposalID:      *r.ProposalID,
		VoterWallet:     r.VoterWallet,
		Vote:            *r.Vote,
		TransactionHash: r.TransactionHash,
	}
}

type CompleteTaskRequest struct {
	UserWallet    string `json:"userWallet" validate:"required"`
	TaskType      string `json:"taskType" validate:"required"`
	TaskID        string `json:"taskId" validate:"required"`
	PointsAwarded *int   `json:"pointsAwarded" validate:"required"`
}

func (r CompleteTaskRequest) ToModel() models.NewEcoTask {
	return models.NewEcoTask{
		UserWallet:    r.UserWallet,
		TaskType:      r.TaskType,
		TaskID:        r.TaskID,
		PointsAwarded: *r.PointsAwarded,
	}
}

type EcoChatRequest struct {
	Message       string `json:"message"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

type NonceRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}

type WalletSignInRequest struct {
	WalletAddress string        `json:"walletAddress" validate:"required"`
	Proof         *solana.Proof `json:"proof" validate:"required"`
}
