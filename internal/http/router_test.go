package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecoboard/backend/internal/config"
	"github.com/ecoboard/backend/internal/events"
	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/http/handlers"
	"github.com/ecoboard/backend/internal/models"
	"github.com/ecoboard/backend/internal/services"
	"github.com/ecoboard/backend/internal/solana"
	"github.com/ecoboard/backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	app   *fiber.App
	store *storage.MemStorage
	cfg   *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		CORSAllowOrigins:          "*",
		JWTSecret:                 "test-secret",
		JWTExpiration:             time.Hour,
		WalletProofAllowedDomains: []string{"ecoboard.app"},
		WalletNonceTTL:            time.Minute,
		DefaultLeaderboardLimit:   10,
	}

	store := storage.NewMemStorage()
	bus := events.NewLocalBus(log)

	users := services.NewUserService(store, log)
	walletAuth := services.NewWalletAuthService(storage.NewMemNonceStore(), users, services.WalletAuthConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTExpiration:  cfg.JWTExpiration,
		AllowedDomains: cfg.WalletProofAllowedDomains,
		NonceTTL:       cfg.WalletNonceTTL,
	}, log)
	sensay := services.NewSensayClient(services.SensayConfig{}, log)
	market := services.NewMarketClient(services.MarketConfig{}, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	SetupRouter(app, cfg, log, nil, Handlers{
		User:     handlers.NewUserHandler(users, log),
		Proposal: handlers.NewProposalHandler(services.NewProposalService(store, bus, log), log),
		Vote:     handlers.NewVoteHandler(services.NewVoteService(store, bus, log), log),
		Points:   handlers.NewPointsHandler(services.NewPointsService(store, bus, cfg.DefaultLeaderboardLimit, log), log),
		Insights: handlers.NewInsightsHandler(services.NewInsightsService(sensay, log), market, log),
		Auth:     handlers.NewAuthHandler(walletAuth, log),
		Meta:     handlers.NewMetaHandler(),
		WS:       handlers.NewWSHub(cfg, bus, log),
	})
	return &testServer{app: app, store: store, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, raw := s.do(t, "GET", "/health", nil)
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "GET", "/api/user/W1", nil)
	assert.Equal(t, 404, status)

	status, raw := s.do(t, "POST", "/api/user", map[string]any{"walletAddress": "W1", "username": "alice"})
	require.Equal(t, 201, status)
	created := decode[models.User](t, raw)
	assert.Equal(t, "W1", created.WalletAddress)
	assert.Equal(t, 0, created.EcoPoints)
	assert.Equal(t, []string{}, created.Achievements)

	status, raw = s.do(t, "POST", "/api/user", map[string]any{"walletAddress": "W1"})
	require.Equal(t, 200, status)
	assert.Equal(t, created.ID, decode[models.User](t, raw).ID)

	status, raw = s.do(t, "GET", "/api/user/W1", nil)
	require.Equal(t, 200, status)
	got := decode[map[string]any](t, raw)
	for _, key := range []string{"id", "walletAddress", "username", "ecoPoints", "streak", "completedTasks", "achievements", "createdAt"} {
		assert.Contains(t, got, key)
	}

	status, raw = s.do(t, "POST", "/api/user", map[string]any{"username": "nobody"})
	require.Equal(t, 400, status)
	errResp := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "Invalid user data", errResp.Message)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "walletAddress", errResp.Errors[0].Field)

	status, _ = s.do(t, "POST", "/api/user", `{"walletAddress":`)
	assert.Equal(t, 400, status)
}

func createProposal(t *testing.T, s *testServer, title string) models.Proposal {
	t.Helper()
	status, raw := s.do(t, "POST", "/api/proposals", map[string]any{
		"title":        title,
		"description":  "Plant trees along the river",
		"category":     "Carbon Offset",
		"authorWallet": "Author",
		"endDate":      "2030-01-01T00:00:00Z",
	})
	require.Equal(t, 201, status, string(raw))
	return decode[models.Proposal](t, raw)
}

func TestProposalEndpoints(t *testing.T) {
	s := newTestServer(t)

	p1 := createProposal(t, s, "first")
	assert.True(t, p1.IsActive)
	assert.Zero(t, p1.YesVotes)
	assert.Zero(t, p1.NoVotes)
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), p1.EndDate.UTC())
	p2 := createProposal(t, s, "second")

	status, raw := s.do(t, "GET", "/api/proposals", nil)
	require.Equal(t, 200, status)
	list := decode[[]models.Proposal](t, raw)
	require.Len(t, list, 2)
	assert.Equal(t, p2.ID, list[0].ID)
	assert.Equal(t, p1.ID, list[1].ID)

	status, _ = s.do(t, "GET", "/api/proposals/999", nil)
	assert.Equal(t, 404, status)
	status, _ = s.do(t, "GET", "/api/proposals/abc", nil)
	assert.Equal(t, 404, status)

	status, raw = s.do(t, "POST", "/api/proposals", map[string]any{"title": "t", "endDate": "not-a-date"})
	require.Equal(t, 400, status)
	assert.Equal(t, "Invalid proposal data", decode[dto.ErrorResponse](t, raw).Message)

	status, raw = s.do(t, "POST", "/api/proposals", map[string]any{"title": "t"})
	require.Equal(t, 400, status)
	assert.Len(t, decode[dto.ErrorResponse](t, raw).Errors, 4)
}

func TestVoteEndpoints(t *testing.T) {
	s := newTestServer(t)
	p := createProposal(t, s, "P1")

	status, raw := s.do(t, "POST", "/api/vote", map[string]any{
		"proposalId": p.ID, "voterWallet": "WalletA", "vote": true, "transactionHash": "5sig",
	})
	require.Equal(t, 201, status, string(raw))
	v := decode[models.Vote](t, raw)
	assert.True(t, v.Vote)

	status, raw = s.do(t, "POST", "/api/vote", map[string]any{"proposalId": p.ID, "voterWallet": "WalletA", "vote": false})
	require.Equal(t, 400, status)
	assert.Equal(t, "User has already voted on this proposal", decode[dto.ErrorResponse](t, raw).Message)

	status, _ = s.do(t, "POST", "/api/vote", map[string]any{"proposalId": p.ID, "voterWallet": "Wallet B", "vote": false})
	require.Equal(t, 201, status)

	status, raw = s.do(t, "GET", "/api/proposals/1", nil)
	require.Equal(t, 200, status)
	got := decode[models.Proposal](t, raw)
	assert.Equal(t, 1, got.YesVotes)
	assert.Equal(t, 1, got.NoVotes)

	status, raw = s.do(t, "GET", "/api/proposals/1/votes", nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.Vote](t, raw), 2)

	status, _ = s.do(t, "POST", "/api/vote", map[string]any{"proposalId": 77, "voterWallet": "A", "vote": true})
	assert.Equal(t, 404, status)

	status, raw = s.do(t, "POST", "/api/vote", map[string]any{"proposalId": "one", "voterWallet": "A", "vote": true})
	require.Equal(t, 400, status)
	assert.Equal(t, "proposalId", decode[dto.ErrorResponse](t, raw).Errors[0].Field)

	status, raw = s.do(t, "GET", "/api/vote/1/WalletA", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, v.ID, decode[models.Vote](t, raw).ID)

	for _, path := range []string{"/api/vote/1/Nobody", "/api/vote/xyz/WalletA"} {
		status, raw = s.do(t, "GET", path, nil)
		assert.Equal(t, 200, status, path)
		assert.Equal(t, "null", string(raw), path)
	}
}

func TestEcoTaskAndLeaderboard(t *testing.T) {
	s := newTestServer(t)

	for _, w := range []string{"W1", "W2", "W3"} {
		status, _ := s.do(t, "POST", "/api/user", map[string]any{"walletAddress": w})
		require.Equal(t, 201, status)
	}

	task := map[string]any{"userWallet": "W2", "taskType": "tip", "taskId": "tip-1", "pointsAwarded": 10}
	for i := 0; i < 2; i++ {
		status, raw := s.do(t, "POST", "/api/eco-task", task)
		require.Equal(t, 201, status, string(raw))
	}

	status, raw := s.do(t, "GET", "/api/user/W2", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, 20, decode[models.User](t, raw).EcoPoints)

	status, raw = s.do(t, "GET", "/api/user/W2/tasks", nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.EcoTask](t, raw), 2)

	status, raw = s.do(t, "GET", "/api/leaderboard?limit=2", nil)
	require.Equal(t, 200, status)
	board := decode[[]models.User](t, raw)
	require.Len(t, board, 2)
	assert.Equal(t, "W2", board[0].WalletAddress)
	assert.Equal(t, "W1", board[1].WalletAddress)

	status, raw = s.do(t, "GET", "/api/leaderboard?limit=abc", nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.User](t, raw), 3)

	status, raw = s.do(t, "GET", "/api/leaderboard?limit=0", nil)
	require.Equal(t, 200, status)
	assert.JSONEq(t, "[]", string(raw))

	status, raw = s.do(t, "GET", "/api/leaderboard", nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.User](t, raw), 3)

	// a wallet without a user still gets its task recorded
	status, raw = s.do(t, "POST", "/api/eco-task", map[string]any{"userWallet": "ghost", "taskType": "t", "taskId": "1", "pointsAwarded": 1})
	require.Equal(t, 201, status, string(raw))
	status, raw = s.do(t, "GET", "/api/user/ghost/tasks", nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.EcoTask](t, raw), 1)
	status, _ = s.do(t, "GET", "/api/user/ghost", nil)
	assert.Equal(t, 404, status)

	status, raw = s.do(t, "POST", "/api/eco-task", map[string]any{"userWallet": "W1"})
	require.Equal(t, 400, status)
	assert.Equal(t, "Invalid task data", decode[dto.ErrorResponse](t, raw).Message)
}

func TestWalletSignInAndMe(t *testing.T) {
	s := newTestServer(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	status, raw := s.do(t, "POST", "/api/auth/nonce", map[string]any{"walletAddress": wallet})
	require.Equal(t, 200, status, string(raw))
	nonce := decode[dto.NonceResponse](t, raw).Nonce

	proof := solana.Proof{Timestamp: time.Now().Unix(), Domain: "ecoboard.app", Payload: nonce}
	proof.Signature = base58.Encode(ed25519.Sign(priv, solana.Message(wallet, proof)))

	status, raw = s.do(t, "POST", "/api/auth/wallet", map[string]any{"walletAddress": wallet, "proof": proof})
	require.Equal(t, 200, status, string(raw))
	session := decode[services.WalletSession](t, raw)
	require.NotEmpty(t, session.Token)

	status, raw = s.do(t, "GET", "/api/me", nil, "Authorization", "Bearer "+session.Token)
	require.Equal(t, 200, status)
	assert.Equal(t, wallet, decode[models.User](t, raw).WalletAddress)

	status, _ = s.do(t, "GET", "/api/me", nil)
	assert.Equal(t, 401, status)

	// nonce is single-use
	status, _ = s.do(t, "POST", "/api/auth/wallet", map[string]any{"walletAddress": wallet, "proof": proof})
	assert.Equal(t, 401, status)

	status, _ = s.do(t, "POST", "/api/auth/nonce", map[string]any{"walletAddress": "0OIl"})
	assert.Equal(t, 400, status)
}

func TestInsightEndpointsWithoutProviders(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, "POST", "/api/eco-chat", map[string]any{"message": "  "})
	require.Equal(t, 400, status)
	assert.Equal(t, "Message is required", decode[dto.ErrorResponse](t, raw).Message)

	for _, path := range []string{"/api/eco-tips", "/api/weekly-challenge", "/api/solana-tokens"} {
		status, raw = s.do(t, "GET", path, nil)
		assert.Equal(t, 500, status, path)
		assert.Equal(t, "upstream not configured", decode[dto.ErrorResponse](t, raw).Message)
	}
}

func TestMetaCategories(t *testing.T) {
	s := newTestServer(t)
	status, raw := s.do(t, "GET", "/api/meta/categories", nil)
	require.Equal(t, 200, status)

	cats := decode[[]handlers.MetaCategory](t, raw)
	require.Len(t, cats, 5)
	assert.Equal(t, "energy", cats[0].ID)
	assert.Equal(t, "water-conservation", cats[3].ID)
}

func TestErrorHandlerShape(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/boom", func(c *fiber.Ctx) error { return context.DeadlineExceeded })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Internal server error", decode[dto.ErrorResponse](t, raw).Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
