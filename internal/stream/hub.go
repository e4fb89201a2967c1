package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks websocket clients and broadcasts frames to them. Text messages
// from clients are treated as command batches and handed to OnCommand.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	// OnCommand receives raw command payloads from clients. Nil drops them.
	OnCommand func([]byte) error

	messages atomic.Int64
	log      *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[*websocket.Conn]bool), log: log}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Messages returns how many frames have been broadcast.
func (h *Hub) Messages() int64 { return h.messages.Load() }

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Broadcast writes one message to every client, dropping any that fail.
func (h *Hub) Broadcast(messageType int, b []byte) {
	h.messages.Add(1)
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(messageType, b); err != nil {
			h.log.Debug("dropping websocket client", zap.Error(err))
			_ = c.Close()
			h.remove(c)
		}
	}
}

// ServeHTTP upgrades the request and reads client messages until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.add(conn)
	defer func() {
		h.remove(conn)
		_ = conn.Close()
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage || h.OnCommand == nil {
			continue
		}
		if err := h.OnCommand(data); err != nil {
			h.log.Warn("client command rejected", zap.Error(err))
		}
	}
}

// Relay forwards strips as binary frames and status as text frames.
func (h *Hub) Relay(nc *nats.Conn, waveSubject, statusSubject string) ([]*nats.Subscription, error) {
	wave, err := nc.Subscribe(waveSubject, func(msg *nats.Msg) {
		h.Broadcast(websocket.BinaryMessage, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", waveSubject, err)
	}
	subs := []*nats.Subscription{wave}
	if statusSubject == "" {
		return subs, nil
	}
	status, err := nc.Subscribe(statusSubject, func(msg *nats.Msg) {
		h.Broadcast(websocket.TextMessage, msg.Data)
	})
	if err != nil {
		_ = wave.Unsubscribe()
		return nil, fmt.Errorf("subscribing to %s: %w", statusSubject, err)
	}
	return append(subs, status), nil
}

// NewServer routes /ws to the hub and /metrics to a plain-text counter.
func NewServer(addr string, h *Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "messages %d\nclients %d\n", h.Messages(), h.Clients())
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// ListenAndServe runs srv until ctx is done, then shuts it down.
func ListenAndServe(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("server stopped")
	return nil
}
