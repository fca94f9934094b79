package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/events"
	"storefront/internal/models"
)

// StreamAllEvents handles GET /api/events (SSE)
func (h *Handler) StreamAllEvents(w http.ResponseWriter, r *http.Request) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.stream(w, r, listener, "")
}

// StreamCollectionEvents handles GET /api/json/{collection}/events (SSE)
func (h *Handler) StreamCollectionEvents(w http.ResponseWriter, r *http.Request) {
	name := collectionFromContext(r)

	listener := h.broadcaster.SubscribeCollection(name)
	defer h.broadcaster.UnsubscribeCollection(name, listener)

	h.stream(w, r, listener, name)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, listener *events.Listener, name string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx

	// Send initial connection message
	hello, _ := json.Marshal(map[string]string{
		"listener_id": listener.ID,
		"collection":  name,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", hello)
	flusher.Flush()

	// Heartbeat ticker
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-listener.Events:
			if event.Collection == models.CollectionAdminCredentials && event.Item != nil {
				event.Item = maskCredentials([]models.Record{event.Item})[0]
			}
			fmt.Fprint(w, events.FormatSSE(event))
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, events.FormatPing())
			flusher.Flush()
			h.broadcaster.UpdatePing(listener)

		case <-listener.Done:
			// Listener was closed by broadcaster
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
