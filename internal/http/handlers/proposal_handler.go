package handlers

import (
	"errors"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProposalHandler struct {
	proposals *services.ProposalService
	log       *zap.Logger
}

func NewProposalHandler(proposals *services.ProposalService, log *zap.Logger) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, log: log}
}

// List GET /api/proposals: newest first.
func (h *ProposalHandler) List(c *fiber.Ctx) error {
	list, err := h.proposals.List(c.UserContext())
	if err != nil {
		h.log.Error("failed to list proposals", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(list)
}

// Create POST /api/proposals
func (h *ProposalHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProposalRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid proposal data", errs)
	}

	p, err := h.proposals.Create(c.UserContext(), req.ToModel())
	if err != nil {
		h.log.Error("failed to create proposal", zap.Error(err))
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Get GET /api/proposals/:id
func (h *ProposalHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "Proposal not found")
	}

	p, err := h.proposals.Get(c.UserContext(), int64(id))
	if errors.Is(err, services.ErrProposalNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Proposal not found")
	}
	if err != nil {
		h.log.Error("failed to get proposal", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(p)
}

// Votes GET /api/proposals/:id/votes
func (h *ProposalHandler) Votes(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "Proposal not found")
	}

	votes, err := h.proposals.Votes(c.UserContext(), int64(id))
	if errors.Is(err, services.ErrProposalNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Proposal not found")
	}
	if err != nil {
		h.log.Error("failed to list votes", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(votes)
}
