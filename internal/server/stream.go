package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"go.uber.org/zap"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	symbol      string
	signalsOnly bool
	send        chan []byte
}

func (s *subscriber) wants(decision types.SignalDecision) bool {
	if s.signalsOnly && !decision.IsSignal() {
		return false
	}

	return s.symbol == "" || s.symbol == decision.Symbol
}

// Hub fans decisions out to websocket subscribers. It is a scanner sink.
// Slow subscribers lose messages instead of blocking the scan.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		log: log.Named("stream"),
	}
}

// Publish sends the decision to every interested subscriber.
func (h *Hub) Publish(_ context.Context, decision types.SignalDecision) error {
	data, err := sonic.Marshal(decision)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.wants(decision) {
			continue
		}

		select {
		case sub.send <- data:
		default:
			h.log.Warn("Dropping decision for slow subscriber", zap.String("symbol", decision.Symbol))
		}
	}

	return nil
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}

// ServeHTTP upgrades the request and streams decisions until the client leaves.
// Query parameters: symbol filters by symbol, signals_only=true skips no-signal decisions.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	sub := &subscriber{
		symbol:      strings.ToUpper(r.URL.Query().Get("symbol")),
		signalsOnly: r.URL.Query().Get("signals_only") == "true",
		send:        make(chan []byte, subscriberBuffer),
	}

	h.add(sub)
	defer h.remove(sub)

	// The reader only notices the client going away.
	gone := make(chan struct{})

	go func() {
		defer close(gone)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case data, ok := <-sub.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
					time.Now().Add(writeTimeout))

				return
			}

			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("Websocket write failed", zap.Error(err))

				return
			}
		}
	}
}
