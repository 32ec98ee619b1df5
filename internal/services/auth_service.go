package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecoboard/backend/internal/auth"
	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/solana"
	"github.com/ecoboard/backend/internal/storage"
	"go.uber.org/zap"
)

var ErrInvalidWalletProof = errors.New("wallet proof verification failed")

// WalletAuthConfig carries the sign-in settings taken from config.Config.
type WalletAuthConfig struct {
	JWTSecret      string
	JWTExpiration  time.Duration
	AllowedDomains []string
	NonceTTL       time.Duration
}

// WalletAuthService signs wallets in with a nonce-bound signed message and
// issues a session JWT.
type WalletAuthService struct {
	nonces storage.NonceStore
	users  *UserService
	cfg    WalletAuthConfig
	now    func() time.Time
	log    *zap.Logger
}

func NewWalletAuthService(nonces storage.NonceStore, users *UserService, cfg WalletAuthConfig, log *zap.Logger) *WalletAuthService {
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = solana.MaxProofAge
	}
	return &WalletAuthService{
		nonces: nonces,
		users:  users,
		cfg:    cfg,
		now:    time.Now,
		log:    log,
	}
}

// GeneratePayload создаёт nonce для wallet proof.
// Клиент вставляет его в подписываемое сообщение.
func (s *WalletAuthService) GeneratePayload(ctx context.Context, walletAddress string) (string, time.Time, error) {
	if _, err := solana.ParseAddress(walletAddress); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidWalletProof, err)
	}
	nonce, expiresAt, err := s.nonces.Issue(ctx, walletAddress, s.cfg.NonceTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue nonce: %w", err)
	}
	return nonce, expiresAt, nil
}

type WalletSession struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Connect гасит nonce, проверяет proof и выдаёт JWT.
func (s *WalletAuthService) Connect(ctx context.Context, walletAddress string, proof solana.Proof) (*WalletSession, error) {
	// 1. Consume payload (nonce), защита от replay
	if err := s.nonces.Consume(ctx, walletAddress, proof.Payload); err != nil {
		if errors.Is(err, storage.ErrInvalidNonce) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWalletProof, err)
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	// 2. Верифицируем подпись
	if err := solana.VerifyProof(walletAddress, proof, s.cfg.AllowedDomains, s.now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWalletProof, err)
	}

	// 3. Пользователь создаётся при первом входе
	user, _, err := s.users.Register(ctx, models.NewUser{WalletAddress: walletAddress})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, walletAddress, s.cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("wallet signed in", zap.String("wallet", walletAddress))
	return &WalletSession{Token: token, User: user}, nil
}
