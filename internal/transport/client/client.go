package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wrongjunior/eventboard/internal/domain"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// SnapshotHandler получает каждый снимок дашборда из ленты.
type SnapshotHandler func(domain.DashboardSnapshot)

// ClientTransport подписывается на ленту дашборда и переподключается при обрыве.
type ClientTransport struct {
	ServerURL string
	Logger    *slog.Logger
	Handle    SnapshotHandler

	mu   sync.Mutex
	conn *websocket.Conn

	// initialBackoff можно уменьшить в тестах.
	initialBackoff time.Duration
}

// NewClientTransport создаёт новый экземпляр транспорта клиента.
func NewClientTransport(serverURL string, handle SnapshotHandler, logger *slog.Logger) *ClientTransport {
	return &ClientTransport{
		ServerURL:      serverURL,
		Handle:         handle,
		Logger:         logger,
		initialBackoff: initialBackoff,
	}
}

// connect устанавливает WebSocket-соединение с сервером.
func (ct *ClientTransport) connect(ctx context.Context) error {
	u, err := url.Parse(ct.ServerURL)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	ct.mu.Lock()
	// closeConn из AfterFunc мог уже отработать по пустому соединению.
	if err := ctx.Err(); err != nil {
		ct.mu.Unlock()
		conn.Close()
		return err
	}
	ct.conn = conn
	ct.mu.Unlock()
	ct.Logger.Info("Connected to feed", "url", ct.ServerURL)
	return nil
}

// Listen читает снимки до отмены ctx, переподключаясь с экспоненциальной задержкой.
func (ct *ClientTransport) Listen(ctx context.Context) {
	stop := context.AfterFunc(ctx, ct.closeConn)
	defer stop()
	defer ct.closeConn()

	if err := ct.connect(ctx); err != nil {
		ct.Logger.Error("Initial connection failed", "error", err)
		if !ct.reconnect(ctx) {
			return
		}
	}

	for {
		ct.mu.Lock()
		conn := ct.conn
		ct.mu.Unlock()
		if conn == nil {
			// Соединение закрыто отменой ctx.
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				ct.Logger.Info("Client transport shutting down")
				return
			}
			ct.Logger.Error("Read error", "error", err)
			if !ct.reconnect(ctx) {
				return
			}
			continue
		}
		var snap domain.DashboardSnapshot
		if err := json.Unmarshal(message, &snap); err != nil {
			ct.Logger.Error("JSON unmarshal error", "error", err)
			continue
		}
		ct.Handle(snap)
	}
}

// reconnect пытается восстановить соединение. Возвращает false, если ctx отменён.
func (ct *ClientTransport) reconnect(ctx context.Context) bool {
	ct.closeConn()
	backoff := ct.initialBackoff
	for {
		err := ct.connect(ctx)
		if err == nil {
			ct.Logger.Info("Reconnected successfully")
			return true
		}
		ct.Logger.Error("Reconnection attempt failed", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			ct.Logger.Info("Reconnection cancelled")
			return false
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (ct *ClientTransport) closeConn() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.conn != nil {
		ct.conn.Close()
		ct.conn = nil
	}
}
