package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wrongjunior/eventboard/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Лента только для чтения и содержит то же, что публичный канал.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscriber представляет подключённого по WebSocket зрителя публичного дашборда.
type subscriber struct {
	conn *websocket.Conn
	send chan domain.DashboardSnapshot
}

// Feed рассылает снимки публичного дашборда подписчикам WebSocket.
// Новый подписчик сразу получает последний снимок.
type Feed struct {
	subscribers map[*subscriber]struct{}
	mu          sync.Mutex
	last        *domain.DashboardSnapshot
	publish     chan domain.DashboardSnapshot
	register    chan *subscriber
	unregister  chan *subscriber
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewFeed создаёт ленту. Рассылка начинается после Run.
func NewFeed(logger *slog.Logger) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		subscribers: make(map[*subscriber]struct{}),
		publish:     make(chan domain.DashboardSnapshot, sendBuffer),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает цикл обработки каналов.
func (f *Feed) Run() {
	f.logger.Info("Dashboard feed started")
	go f.loop()
}

// loop единолично владеет картой подписчиков.
func (f *Feed) loop() {
	for {
		select {
		case sub := <-f.register:
			f.subscribers[sub] = struct{}{}
			if last, ok := f.Last(); ok {
				sub.send <- last
			}
			f.logger.Info("Feed subscriber registered", "subscribers", len(f.subscribers))
		case sub := <-f.unregister:
			if _, ok := f.subscribers[sub]; ok {
				delete(f.subscribers, sub)
				close(sub.send)
				f.logger.Info("Feed subscriber left", "subscribers", len(f.subscribers))
			}
		case snap := <-f.publish:
			for sub := range f.subscribers {
				select {
				case sub.send <- snap:
				default:
					delete(f.subscribers, sub)
					close(sub.send)
					f.logger.Warn("Dropped slow feed subscriber")
				}
			}
			f.logger.Debug("Dashboard snapshot broadcast", "subscribers", len(f.subscribers))
		case <-f.ctx.Done():
			for sub := range f.subscribers {
				close(sub.send)
			}
			f.subscribers = map[*subscriber]struct{}{}
			f.logger.Info("Dashboard feed stopped")
			return
		}
	}
}

// Publish запоминает снимок и ставит его в очередь рассылки. Если очередь
// переполнена, рассылка пропускается: следующий снимок всё равно содержит
// полное состояние. Подписчик может получить один снимок дважды.
func (f *Feed) Publish(snap domain.DashboardSnapshot) {
	f.mu.Lock()
	f.last = &snap
	f.mu.Unlock()

	select {
	case f.publish <- snap:
	case <-f.ctx.Done():
	default:
		f.logger.Warn("Feed queue is full, snapshot dropped")
	}
}

// Last возвращает последний опубликованный снимок.
func (f *Feed) Last() (domain.DashboardSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return domain.DashboardSnapshot{}, false
	}
	return *f.last, true
}

// ServeHTTP выполняет апгрейд соединения и подписывает клиента.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("WebSocket upgrade error", "error", err)
		return
	}
	sub := &subscriber{
		conn: conn,
		send: make(chan domain.DashboardSnapshot, sendBuffer),
	}
	select {
	case f.register <- sub:
	case <-f.ctx.Done():
		conn.Close()
		return
	}

	go f.writePump(sub)
	f.readPump(sub)
}

// readPump нужен только для обработки pong и закрытия соединения.
func (f *Feed) readPump(sub *subscriber) {
	defer func() {
		select {
		case f.unregister <- sub:
		case <-f.ctx.Done():
		}
		sub.conn.Close()
	}()
	sub.conn.SetReadLimit(1024)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.logger.Error("Unexpected feed connection close", "error", err)
			}
			return
		}
	}
}

func (f *Feed) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()
	for {
		select {
		case snap, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(snap); err != nil {
				f.logger.Error("Error writing JSON", "error", err)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.logger.Error("Ping error", "error", err)
				return
			}
		}
	}
}

// Shutdown останавливает рассылку и закрывает соединения подписчиков.
func (f *Feed) Shutdown() {
	f.cancel()
}
