package handlers

import (
	"errors"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *services.WalletAuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.WalletAuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Nonce создаёт nonce для wallet proof.
// POST /api/auth/nonce
func (h *AuthHandler) Nonce(c *fiber.Ctx) error {
	var req dto.NonceRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid nonce request", errs)
	}

	nonce, expiresAt, err := h.auth.GeneratePayload(c.UserContext(), req.WalletAddress)
	if errors.Is(err, services.ErrInvalidWalletProof) {
		return validationError(c, "Invalid nonce request", []dto.FieldError{{Field: "walletAddress", Message: "Invalid Solana address"}})
	}
	if err != nil {
		h.log.Error("failed to generate nonce", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(dto.NonceResponse{Nonce: nonce, ExpiresAt: expiresAt})
}

// WalletSignIn проверяет proof и выдаёт JWT.
// POST /api/auth/wallet
func (h *AuthHandler) WalletSignIn(c *fiber.Ctx) error {
	var req dto.WalletSignInRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid sign-in data", errs)
	}

	session, err := h.auth.Connect(c.UserContext(), req.WalletAddress, *req.Proof)
	if errors.Is(err, services.ErrInvalidWalletProof) {
		h.log.Debug("wallet sign-in rejected", zap.String("wallet", req.WalletAddress), zap.Error(err))
		return errorJSON(c, fiber.StatusUnauthorized, "Wallet proof verification failed")
	}
	if err != nil {
		h.log.Error("wallet sign-in failed", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(session)
}
