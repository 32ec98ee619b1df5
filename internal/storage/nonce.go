package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidNonce is returned when a sign-in nonce is unknown, expired or
// already used.
var ErrInvalidNonce = errors.New("invalid or expired nonce")

// NonceStore issues single-use wallet sign-in nonces.
type NonceStore interface {
	Issue(ctx context.Context, walletAddress string, ttl time.Duration) (nonce string, expiresAt time.Time, err error)
	Consume(ctx context.Context, walletAddress, nonce string) error
}

// --- Redis ---

type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func nonceKey(walletAddress, nonce string) string {
	return fmt.Sprintf("nonce:%s:%s", walletAddress, nonce)
}

func (s *RedisNonceStore) Issue(ctx context.Context, walletAddress string, ttl time.Duration) (string, time.Time, error) {
	nonce := generateNonce(32)
	if err := s.client.Set(ctx, nonceKey(walletAddress, nonce), "1", ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return nonce, time.Now().Add(ttl), nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, walletAddress, nonce string) error {
	n, err := s.client.Del(ctx, nonceKey(walletAddress, nonce)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidNonce
	}
	return nil
}

// --- Memory ---

type nonceEntry struct {
	wallet    string
	expiresAt time.Time
}

type MemNonceStore struct {
	mu      sync.Mutex
	entries map[string]nonceEntry
	now     func() time.Time
}

func NewMemNonceStore() *MemNonceStore {
	return &MemNonceStore{entries: make(map[string]nonceEntry), now: time.Now}
}

func (s *MemNonceStore) Issue(_ context.Context, walletAddress string, ttl time.Duration) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	nonce := generateNonce(32)
	expiresAt := now.Add(ttl)
	s.entries[nonce] = nonceEntry{wallet: walletAddress, expiresAt: expiresAt}
	return nonce, expiresAt, nil
}

func (s *MemNonceStore) Consume(_ context.Context, walletAddress, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[nonce]
	if !ok || e.wallet != walletAddress {
		return ErrInvalidNonce
	}
	delete(s.entries, nonce)
	if s.now().After(e.expiresAt) {
		return ErrInvalidNonce
	}
	return nil
}

func generateNonce(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
