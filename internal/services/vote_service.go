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

// VoteService is the vote ledger: one vote per wallet per proposal, with
// proposal tallies always equal to a recount of stored votes.
type VoteService struct {
	store     storage.Storage
	publisher events.Publisher
	locks     *keyLocks[int64]
	log       *zap.Logger
}

func NewVoteService(store storage.Storage, publisher events.Publisher, log *zap.Logger) *VoteService {
	return &VoteService{
		store:     store,
		publisher: publisher,
		locks:     newKeyLocks[int64](),
		log:       log,
	}
}

// CastVote records a vote and rewrites the proposal tallies from a full
// recount. A second vote by the same wallet fails with ErrDuplicateVote and
// changes nothing.
func (s *VoteService) CastVote(ctx context.Context, in models.NewVote) (*models.Vote, error) {
	// check, record, recount and write happen under one per-proposal lock
	unlock := s.locks.Lock(in.ProposalID)
	defer unlock()

	// 1. Предложение должно существовать
	if _, err := s.store.GetProposal(ctx, in.ProposalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	// 2. Один голос на кошелёк
	_, err := s.store.GetUserVote(ctx, in.ProposalID, in.VoterWallet)
	if err == nil {
		return nil, ErrDuplicateVote
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	// 3. Записываем голос
	vote, err := s.store.CreateVote(ctx, in)
	if errors.Is(err, storage.ErrDuplicateVote) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	// 4. Полный пересчёт и запись счётчиков
	proposal, err := s.recount(ctx, in.ProposalID)
	if err != nil {
		return nil, err
	}

	s.log.Info("vote cast",
		zap.Int64("proposal_id", vote.ProposalID),
		zap.String("voter", vote.VoterWallet),
		zap.Bool("vote", vote.Vote),
		zap.Int("yes_votes", proposal.YesVotes),
		zap.Int("no_votes", proposal.NoVotes),
	)

	publish(ctx, s.publisher, s.log, events.Event{
		Type: events.EventVoteCast,
		Payload: map[string]any{
			"proposalId":  proposal.ID,
			"voterWallet": vote.VoterWallet,
			"vote":        vote.Vote,
			"yesVotes":    proposal.YesVotes,
			"noVotes":     proposal.NoVotes,
		},
	})
	return vote, nil
}

// recount rewrites the tallies from the stored votes. The store does it
// atomically, so API instances and the worker can recount concurrently.
func (s *VoteService) recount(ctx context.Context, proposalID int64) (*models.Proposal, error) {
	p, err := s.store.RecountProposalVotes(ctx, proposalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recount votes: %w", err)
	}
	return p, nil
}

// FindVote returns the wallet's vote on the proposal, or nil if there is none.
func (s *VoteService) FindVote(ctx context.Context, proposalID int64, voterWallet string) (*models.Vote, error) {
	v, err := s.store.GetUserVote(ctx, proposalID, voterWallet)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return v, nil
}

// RecountAll rewrites every proposal's tallies from its stored votes and
// reports how many proposals were out of date. Used by the worker when
// several API instances share one Postgres.
func (s *VoteService) RecountAll(ctx context.Context) (int, error) {
	proposals, err := s.store.GetProposals(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	fixed := 0
	for _, p := range proposals {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}

		unlock := s.locks.Lock(p.ID)
		updated, err := s.recount(ctx, p.ID)
		unlock()
		if err != nil {
			return fixed, err
		}
		if updated.YesVotes != p.YesVotes || updated.NoVotes != p.NoVotes {
			fixed++
			s.log.Warn("proposal tallies drifted",
				zap.Int64("proposal_id", p.ID),
				zap.Int("yes_votes", updated.YesVotes),
				zap.Int("no_votes", updated.NoVotes),
			)
		}
	}
	return fixed, nil
}
