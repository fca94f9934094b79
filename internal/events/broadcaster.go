package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

const (
	listenerBuffer  = 16
	cleanupInterval = 30 * time.Second
	staleAfter      = 2 * time.Minute
)

// Broadcaster manages SSE connections and event distribution
type Broadcaster struct {
	mu                  sync.RWMutex
	allListeners        map[*Listener]bool            // every collection
	collectionListeners map[string]map[*Listener]bool // collection -> listeners
	log                 logrus.FieldLogger
	stop                chan struct{}
	stopOnce            sync.Once
}

// Listener represents a single SSE connection
type Listener struct {
	ID       string
	Events   chan models.ChangeEvent
	Done     chan struct{}
	lastPing atomic.Int64
	once     sync.Once
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(log logrus.FieldLogger) *Broadcaster {
	b := &Broadcaster{
		allListeners:        make(map[*Listener]bool),
		collectionListeners: make(map[string]map[*Listener]bool),
		log:                 log,
		stop:                make(chan struct{}),
	}

	// Start cleanup goroutine for dead connections
	go b.cleanupRoutine()

	return b
}

func newListener() *Listener {
	l := &Listener{
		ID:     uuid.NewString(),
		Events: make(chan models.ChangeEvent, listenerBuffer),
		Done:   make(chan struct{}),
	}
	l.lastPing.Store(time.Now().UnixNano())
	return l
}

// close marks the listener finished; safe to call more than once
func (l *Listener) close() {
	l.once.Do(func() { close(l.Done) })
}

// Subscribe adds a listener for events of every collection
func (b *Broadcaster) Subscribe() *Listener {
	listener := newListener()

	b.mu.Lock()
	b.allListeners[listener] = true
	b.mu.Unlock()

	return listener
}

// Unsubscribe removes a listener added by Subscribe
func (b *Broadcaster) Unsubscribe(listener *Listener) {
	b.mu.Lock()
	delete(b.allListeners, listener)
	b.mu.Unlock()

	listener.close()
}

// SubscribeCollection adds a listener for collection-specific events
func (b *Broadcaster) SubscribeCollection(collection string) *Listener {
	listener := newListener()

	b.mu.Lock()
	if b.collectionListeners[collection] == nil {
		b.collectionListeners[collection] = make(map[*Listener]bool)
	}
	b.collectionListeners[collection][listener] = true
	b.mu.Unlock()

	return listener
}

// UnsubscribeCollection removes a collection listener
func (b *Broadcaster) UnsubscribeCollection(collection string, listener *Listener) {
	b.mu.Lock()
	if listeners, exists := b.collectionListeners[collection]; exists {
		delete(listeners, listener)
		if len(listeners) == 0 {
			delete(b.collectionListeners, collection)
		}
	}
	b.mu.Unlock()

	listener.close()
}

// Broadcast sends an event to all listeners and to the event's collection listeners
func (b *Broadcaster) Broadcast(event models.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for listener := range b.allListeners {
		b.send(listener, event)
	}
	for listener := range b.collectionListeners[event.Collection] {
		b.send(listener, event)
	}
}

// send delivers without blocking; a slow listener misses the event
func (b *Broadcaster) send(listener *Listener, event models.ChangeEvent) {
	select {
	case listener.Events <- event:
	default:
		b.log.WithFields(logrus.Fields{
			"listener":   listener.ID,
			"collection": event.Collection,
			"event":      event.EventType,
		}).Warn("Listener buffer full, dropping event")
	}
}

// ListenerCount returns the number of active listeners for a collection,
// including listeners subscribed to every collection
func (b *Broadcaster) ListenerCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.allListeners) + len(b.collectionListeners[collection])
}

// Close stops the cleanup goroutine and disconnects every listener
func (b *Broadcaster) Close() {
	b.stopOnce.Do(func() {
		close(b.stop)

		b.mu.Lock()
		defer b.mu.Unlock()
		for listener := range b.allListeners {
			listener.close()
		}
		for _, listeners := range b.collectionListeners {
			for listener := range listeners {
				listener.close()
			}
		}
		b.allListeners = make(map[*Listener]bool)
		b.collectionListeners = make(map[string]map[*Listener]bool)
	})
}

// cleanupRoutine periodically removes stale connections
func (b *Broadcaster) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.removeStale(time.Now())
		}
	}
}

// removeStale drops listeners that haven't been pinged within staleAfter
func (b *Broadcaster) removeStale(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for listener := range b.allListeners {
		if listener.stale(now) {
			delete(b.allListeners, listener)
			listener.close()
			removed++
		}
	}

	for collection, listeners := range b.collectionListeners {
		for listener := range listeners {
			if listener.stale(now) {
				delete(listeners, listener)
				listener.close()
				removed++
			}
		}
		// Clean up empty collection entries
		if len(listeners) == 0 {
			delete(b.collectionListeners, collection)
		}
	}

	if removed > 0 {
		b.log.WithField("removed", removed).Debug("Removed stale event listeners")
	}
	return removed
}

func (l *Listener) stale(now time.Time) bool {
	return now.Sub(time.Unix(0, l.lastPing.Load())) > staleAfter
}

// UpdatePing updates the last ping time for a listener
func (b *Broadcaster) UpdatePing(listener *Listener) {
	listener.lastPing.Store(time.Now().UnixNano())
}

// FormatSSE formats an event as Server-Sent Events format
func FormatSSE(event models.ChangeEvent) string {
	data, _ := json.Marshal(event)
	return fmt.Sprintf("event: change\ndata: %s\n\n", string(data))
}

// FormatPing formats a ping/heartbeat message
func FormatPing() string {
	return ": ping\n\n"
}
