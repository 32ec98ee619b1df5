package handlers

import (
	"errors"
	"strconv"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VoteHandler struct {
	votes *services.VoteService
	log   *zap.Logger
}

func NewVoteHandler(votes *services.VoteService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, log: log}
}

// CastVote POST /api/vote
func (h *VoteHandler) CastVote(c *fiber.Ctx) error {
	var req dto.CastVoteRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid vote data", errs)
	}

	vote, err := h.votes.CastVote(c.UserContext(), req.ToModel())
	switch {
	case errors.Is(err, services.ErrDuplicateVote):
		return errorJSON(c, fiber.StatusBadRequest, "User has already voted on this proposal")
	case errors.Is(err, services.ErrProposalNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Proposal not found")
	case err != nil:
		h.log.Error("failed to cast vote", zap.Error(err))
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(vote)
}

// GetUserVote GET /api/vote/:proposalId/:walletAddress: the vote, or null.
func (h *VoteHandler) GetUserVote(c *fiber.Ctx) error {
	proposalID, err := strconv.ParseInt(c.Params("proposalId"), 10, 64)
	if err != nil {
		return c.JSON(nil)
	}

	vote, err := h.votes.FindVote(c.UserContext(), proposalID, c.Params("walletAddress"))
	if err != nil {
		h.log.Error("failed to get vote", zap.Error(err))
		return internalError(c)
	}
	if vote == nil {
		return c.JSON(nil)
	}
	return c.JSON(vote)
}
