package feed

import (
	"log"
	"sync"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/metrics"
)

// Buffered updates per subscriber. A subscriber that falls this far behind
// misses intermediate snapshots; every delivered snapshot carries the full
// list, so the next one catches it up.
const subscriberBuffer = 8

type subscriber struct {
	userID uint
	ch     chan []domain.Investor
}

// Hub fans committed collection changes out to live subscribers. Each
// subscriber belongs to one user and receives that user's entire refreshed
// investor list on every change.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[*subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*subscriber]struct{}),
	}
}

// Subscribe registers a listener for the user's collection. The returned
// cancel func removes the listener and closes the channel; it is safe to
// call more than once.
func (h *Hub) Subscribe(userID uint) (<-chan []domain.Investor, func()) {
	s := &subscriber{
		userID: userID,
		ch:     make(chan []domain.Investor, subscriberBuffer),
	}

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*subscriber]struct{})
	}
	h.subscribers[userID][s] = struct{}{}
	total := len(h.subscribers[userID])
	h.mu.Unlock()

	metrics.FeedSubscriberAdded()
	log.Printf("[FEED] Subscriber added: user=%d, active=%d", userID, total)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[s]; !ok {
			return
		}
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
		close(s.ch)
		metrics.FeedSubscriberRemoved()
		log.Printf("[FEED] Subscriber removed: user=%d, active=%d", userID, len(subs))
	}

	return s.ch, cancel
}

// Publish delivers the snapshot to every subscriber of the user without
// blocking. A subscriber whose buffer is full is skipped.
func (h *Hub) Publish(userID uint, snapshot []domain.Investor) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subscribers[userID] {
		select {
		case s.ch <- snapshot:
		default:
			metrics.RecordFeedDrop()
		}
	}
}

// SubscriberCount reports the number of active subscribers for the user
func (h *Hub) SubscriberCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
