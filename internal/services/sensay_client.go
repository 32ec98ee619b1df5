package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const sensayAPIVersion = "2025-03-25"

type SensayConfig struct {
	BaseURL   string
	APIKey    string
	ReplicaID string
	UserID    string
	Timeout   time.Duration
}

// SensayClient talks to the Sensay replica chat-completions API.
type SensayClient struct {
	cfg        SensayConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewSensayClient(cfg SensayConfig, log *zap.Logger) *SensayClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SensayClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

func (c *SensayClient) Enabled() bool {
	return c.cfg.APIKey != "" && c.cfg.ReplicaID != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends a single user message and returns the raw provider body.
func (c *SensayClient) Complete(ctx context.Context, content string) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrUpstreamDisabled
	}

	body, err := json.Marshal(map[string]any{
		"messages": []chatMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/replicas/%s/chat/completions", c.cfg.BaseURL, c.cfg.ReplicaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ORGANIZATION-SECRET", c.cfg.APIKey)
	req.Header.Set("X-API-Version", sensayAPIVersion)
	if c.cfg.UserID != "" {
		req.Header.Set("X-USER-ID", c.cfg.UserID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sensay unavailable: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: sensay read: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("sensay returned error", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return nil, fmt.Errorf("%w: sensay returned %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: sensay returned invalid JSON", ErrUpstream)
	}
	return raw, nil
}

// Ask returns message.content of the completion, or "" when absent.
func (c *SensayClient) Ask(ctx context.Context, prompt string) (string, error) {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	var out struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: sensay decode: %v", ErrUpstream, err)
	}
	if out.Message == nil {
		return "", nil
	}
	return out.Message.Content, nil
}
