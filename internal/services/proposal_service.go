package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecoboard/backend/internal/events"
	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/storage"
	"go.uber.org/zap"
)

// SuggestedCategories are offered to clients; category stays free-form.
var SuggestedCategories = []string{
	"Energy",
	"Waste Reduction",
	"Transportation",
	"Water Conservation",
	"Carbon Offset",
}

type ProposalService struct {
	store     storage.Storage
	publisher events.Publisher
	log       *zap.Logger
}

func NewProposalService(store storage.Storage, publisher events.Publisher, log *zap.Logger) *ProposalService {
	return &ProposalService{store: store, publisher: publisher, log: log}
}

// Create opens a proposal with zero tallies. Proposals stay active; there
// is no closing transition.
func (s *ProposalService) Create(ctx context.Context, in models.NewProposal) (*models.Proposal, error) {
	p, err := s.store.CreateProposal(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.log.Info("proposal created",
		zap.Int64("proposal_id", p.ID),
		zap.String("author", p.AuthorWallet),
		zap.String("category", p.Category),
	)

	publish(ctx, s.publisher, s.log, events.Event{
		Type: events.EventProposalCreated,
		Payload: map[string]any{
			"proposalId":   p.ID,
			"title":        p.Title,
			"category":     p.Category,
			"authorWallet": p.AuthorWallet,
		},
	})
	return p, nil
}

func (s *ProposalService) List(ctx context.Context) ([]models.Proposal, error) {
	list, err := s.store.GetProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return list, nil
}

func (s *ProposalService) Get(ctx context.Context, id int64) (*models.Proposal, error) {
	p, err := s.store.GetProposal(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

// Votes returns every vote recorded for an existing proposal.
func (s *ProposalService) Votes(ctx context.Context, id int64) ([]models.Vote, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	votes, err := s.store.GetProposalVotes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}
