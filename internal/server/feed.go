package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
)

const heartbeatInterval = 15 * time.Second

// handleFeed streams the user's collection over SSE: one snapshot event on
// connect, then one per committed change. Every event carries the entire
// refreshed list; clients replace their local state wholesale.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	// ResponseController reaches the flusher through the logging and metrics
	// wrappers, and lets the stream outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Printf("[SERVER] Feed deadline reset failed: %v", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	updates, cancel := s.hub.Subscribe(user.ID)
	defer cancel()

	// Initial snapshot so new subscribers render without waiting for a write.
	snapshot, err := s.investors.List(r.Context(), user)
	if err != nil {
		log.Printf("[SERVER] Feed initial snapshot failed: user=%d: %v", user.ID, err)
		return
	}
	if err := writeSnapshotEvent(w, snapshot); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Printf("[SERVER] Feed flush failed: user=%d: %v", user.ID, err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[SERVER] Feed closed: user=%d", user.ID)
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshotEvent(w, snapshot); err != nil {
				log.Printf("[SERVER] Feed write failed: user=%d: %v", user.ID, err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSnapshotEvent(w io.Writer, snapshot []domain.Investor) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
