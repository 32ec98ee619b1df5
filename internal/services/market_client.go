package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxTrendTokens = 10

// trendSymbols selects Solana-ecosystem pairs from the spot ticker list.
var trendSymbols = []string{"SOL", "RAY", "USDC"}

type MarketConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MarketClient reads spot tickers from OKX.
type MarketClient struct {
	cfg        MarketConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewMarketClient(cfg MarketConfig, log *zap.Logger) *MarketClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &MarketClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

func (c *MarketClient) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Ticker is one OKX spot ticker exactly as the provider sent it, plus the
// computed 24h change in percent. Only the fields used for filtering and
// the change are decoded; the rest are passed through untouched.
type Ticker struct {
	InstID    string
	Last      string
	Open24h   string
	Change24h string

	raw map[string]json.RawMessage
}

func (t *Ticker) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.raw = raw
	t.InstID = rawString(raw, "instId")
	t.Last = rawString(raw, "last")
	t.Open24h = rawString(raw, "open24h")
	return nil
}

func (t Ticker) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.raw)+1)
	for k, v := range t.raw {
		out[k] = v
	}
	if t.raw == nil {
		out["instId"], _ = json.Marshal(t.InstID)
		out["last"], _ = json.Marshal(t.Last)
		out["open24h"], _ = json.Marshal(t.Open24h)
	}
	if t.Change24h != "" {
		out["change24h"], _ = json.Marshal(t.Change24h)
	}
	return json.Marshal(out)
}

// rawString reads a string field; non-string values read as "".
func rawString(raw map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := raw[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

type okxTickersResponse struct {
	Code string   `json:"code"`
	Msg  string   `json:"msg"`
	Data []Ticker `json:"data"`
}

// SolanaTokens returns up to ten SOL/RAY/USDC tickers in provider order.
func (c *MarketClient) SolanaTokens(ctx context.Context) ([]Ticker, error) {
	if !c.Enabled() {
		return nil, ErrUpstreamDisabled
	}

	url := fmt.Sprintf("%s/api/v5/market/tickers?instType=SPOT", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("OK-ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: okx unavailable: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Warn("okx returned error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: okx returned %d", ErrUpstream, resp.StatusCode)
	}

	var out okxTickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: okx decode: %v", ErrUpstream, err)
	}

	tokens := make([]Ticker, 0, maxTrendTokens)
	for _, t := range out.Data {
		if !isTrendSymbol(t.InstID) {
			continue
		}
		t.Change24h = change24h(t.Last, t.Open24h)
		tokens = append(tokens, t)
		if len(tokens) == maxTrendTokens {
			break
		}
	}
	return tokens, nil
}

func isTrendSymbol(instID string) bool {
	for _, s := range trendSymbols {
		if strings.Contains(instID, s) {
			return true
		}
	}
	return false
}

// change24h is (last-open)/open*100 to two places, or "" when either
// price is missing or open is zero.
func change24h(last, open string) string {
	l, err := decimal.NewFromString(last)
	if err != nil {
		return ""
	}
	o, err := decimal.NewFromString(open)
	if err != nil || o.IsZero() {
		return ""
	}
	return l.Sub(o).Div(o).Mul(decimal.NewFromInt(100)).StringFixed(2)
}
