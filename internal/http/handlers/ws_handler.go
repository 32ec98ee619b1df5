package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ecoboard/backend/internal/auth"
	"github.com/ecoboard/backend/internal/config"
	"github.com/ecoboard/backend/internal/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// wsConn is the part of *websocket.Conn the hub writes to.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// hubConn serialises writes to one connection; the hub lock is never held
// while writing.
type hubConn struct {
	conn wsConn
	mu   sync.Mutex
}

func (c *hubConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		_ = d.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	}
	return c.conn.WriteMessage(messageType, data)
}

// WSHub pushes board events to connected wallets. Events that name a
// walletAddress go only to that wallet, the rest go to everyone.
type WSHub struct {
	cfg        *config.Config
	subscriber events.Subscriber
	log        *zap.Logger

	mu    sync.Mutex
	conns map[string][]*hubConn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:        cfg,
		subscriber: subscriber,
		log:        log,
		conns:      make(map[string][]*hubConn),
	}
}

// Start subscribes the hub to board events for the lifetime of ctx.
func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamBoard, h.dispatch)
}

type wsTarget struct {
	wallet string
	conn   *hubConn
}

func (h *WSHub) dispatch(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	if wallet := event.Wallet(); wallet != "" {
		h.send(h.targets(wallet), websocket.TextMessage, data)
		return
	}
	h.send(h.targets(""), websocket.TextMessage, data)
}

// targets snapshots the connections of wallet, or of everyone when wallet
// is empty.
func (h *WSHub) targets(wallet string) []wsTarget {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []wsTarget
	for w, conns := range h.conns {
		if wallet != "" && w != wallet {
			continue
		}
		for _, c := range conns {
			out = append(out, wsTarget{wallet: w, conn: c})
		}
	}
	return out
}

// send writes to all targets in parallel and waits, so one slow client
// delays nobody else. Failed connections are closed and dropped.
func (h *WSHub) send(targets []wsTarget, messageType int, data []byte) {
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t wsTarget) {
			defer wg.Done()
			if err := t.conn.write(messageType, data); err != nil {
				h.log.Debug("dropping ws connection", zap.String("wallet", t.wallet), zap.Error(err))
				h.remove(t.wallet, t.conn)
				_ = t.conn.conn.Close()
			}
		}(t)
	}
	wg.Wait()
}

func (h *WSHub) register(wallet string, conn wsConn) {
	h.mu.Lock()
	h.conns[wallet] = append(h.conns[wallet], &hubConn{conn: conn})
	h.mu.Unlock()
}

func (h *WSHub) unregister(wallet string, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.conns[wallet] {
		if c.conn == conn {
			h.removeLocked(wallet, c)
			return
		}
	}
}

func (h *WSHub) remove(wallet string, target *hubConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(wallet, target)
}

func (h *WSHub) removeLocked(wallet string, target *hubConn) {
	conns := h.conns[wallet]
	for i, c := range conns {
		if c == target {
			conns = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(h.conns, wallet)
		return
	}
	h.conns[wallet] = conns
}

func (h *WSHub) connCount(wallet string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[wallet])
}

func (h *WSHub) ping(wallet string) {
	h.send(h.targets(wallet), websocket.PingMessage, nil)
}

// WSUpgradeMiddleware rejects plain HTTP requests to /ws.
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleWS GET /ws?token=<jwt>
func (h *WSHub) HandleWS(conn *websocket.Conn) {
	claims, err := auth.ParseJWT(h.cfg.JWTSecret, conn.Query("token"))
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
		_ = conn.Close()
		return
	}

	wallet := claims.WalletAddress
	h.register(wallet, conn)
	h.log.Debug("ws connected", zap.String("wallet", wallet))

	done := make(chan struct{})
	defer func() {
		close(done)
		h.unregister(wallet, conn)
		_ = conn.Close()
	}()

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				h.ping(wallet)
			}
		}
	}()

	// клиент ничего не шлёт, читаем только чтобы заметить закрытие
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
