// Package realtime fans notifications out to per-user websocket rooms.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// Event is one frame sent to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type subscriber struct {
	ch chan Event
}

// Hub keeps one room per user. Publishing never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*subscriber]struct{}
	buffer int
	logger *zap.Logger

	// OriginPatterns is passed to websocket.Accept; empty means same origin only.
	OriginPatterns []string
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, originPatterns []string) *Hub {
	return &Hub{
		rooms:          make(map[string]map[*subscriber]struct{}),
		buffer:         16,
		logger:         logger,
		OriginPatterns: originPatterns,
	}
}

// Subscribe joins the user's room. The returned cancel func leaves it.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[userID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.rooms[userID], sub)
			if len(h.rooms[userID]) == 0 {
				delete(h.rooms, userID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish implements port.Publisher.
func (h *Hub) Publish(userID string, n *domain.Notification) bool {
	return h.Send(userID, Event{Type: "notification", Data: n})
}

// Send delivers evt to every connection of userID.
func (h *Hub) Send(userID string, evt Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for sub := range h.rooms[userID] {
		select {
		case sub.ch <- evt:
			delivered = true
		default:
			h.logger.Debug("realtime: subscriber buffer full, event dropped", zap.String("user_id", userID))
		}
	}
	return delivered
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// ServeWS upgrades the request and streams the user's events until either
// side closes. The caller must have authenticated userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		h.logger.Warn("realtime: websocket accept failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, leave := h.Subscribe(userID)
	defer leave()

	_ = wsjson.Write(ctx, conn, Event{Type: "ready"})

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case evt := <-events:
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, evt)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusInternalError, "write_failed")
				return
			}
		}
	}
}
