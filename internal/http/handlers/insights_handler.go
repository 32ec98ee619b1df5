package handlers

import (
	"errors"
	"strings"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InsightsHandler serves the AI and market proxy endpoints. Upstream
// failures surface as a generic 500.
type InsightsHandler struct {
	insights *services.InsightsService
	market   *services.MarketClient
	log      *zap.Logger
}

func NewInsightsHandler(insights *services.InsightsService, market *services.MarketClient, log *zap.Logger) *InsightsHandler {
	return &InsightsHandler{insights: insights, market: market, log: log}
}

func (h *InsightsHandler) upstreamError(c *fiber.Ctx, message string, err error) error {
	if errors.Is(err, services.ErrUpstreamDisabled) {
		return errorJSON(c, fiber.StatusInternalServerError, "upstream not configured")
	}
	h.log.Error(strings.ToLower(message), zap.Error(err))
	return errorJSON(c, fiber.StatusInternalServerError, message)
}

// EcoTips GET /api/eco-tips
func (h *InsightsHandler) EcoTips(c *fiber.Ctx) error {
	tips, err := h.insights.EcoTips(c.UserContext())
	if err != nil {
		return h.upstreamError(c, "Failed to fetch eco tips", err)
	}
	return c.JSON(tips)
}

// WeeklyChallenge GET /api/weekly-challenge
func (h *InsightsHandler) WeeklyChallenge(c *fiber.Ctx) error {
	challenge, err := h.insights.WeeklyChallenge(c.UserContext())
	if err != nil {
		return h.upstreamError(c, "Failed to fetch weekly challenge", err)
	}
	return c.JSON(challenge)
}

// EcoChat POST /api/eco-chat
func (h *InsightsHandler) EcoChat(c *fiber.Ctx) error {
	var req dto.EcoChatRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Message is required")
	}

	raw, err := h.insights.Chat(c.UserContext(), req.Message, req.WalletAddress)
	if err != nil {
		return h.upstreamError(c, "Failed to chat with eco-coach", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// SolanaTokens GET /api/solana-tokens
func (h *InsightsHandler) SolanaTokens(c *fiber.Ctx) error {
	tokens, err := h.market.SolanaTokens(c.UserContext())
	if err != nil {
		return h.upstreamError(c, "Failed to fetch token data", err)
	}
	return c.JSON(tokens)
}
