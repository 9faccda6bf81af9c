package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg"
)

var keepaliveInterval = 30 * time.Second

// Broadcaster fans ticket events out to connected stream subscribers. Slow
// subscribers miss events instead of blocking the publisher.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan pkg.TicketEvent
	logger      apt.Logger
}

func NewBroadcaster(logger apt.Logger) *Broadcaster {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan pkg.TicketEvent),
		logger:      logger,
	}
}

func (b *Broadcaster) Subscribe(id string) <-chan pkg.TicketEvent {
	ch := make(chan pkg.TicketEvent, 100)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(evt pkg.TicketEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.logger.Info("subscriber channel full, dropping event", "subscriber_id", id)
		}
	}
}

func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// StreamOrders serves ticket events as Server-Sent Events.
func (h *Handler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	if h.broadcaster == nil {
		apt.RespondError(w, http.StatusServiceUnavailable, "Stream not available")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	log := h.log(r)
	log.Info("new SSE connection", "subscriber_id", subscriberID)

	events := h.broadcaster.Subscribe(subscriberID)
	defer h.broadcaster.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)

		case evt, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				log.Error("cannot marshal ticket event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", evt.EventType)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
