package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event names pushed to subscribers.
const (
	EventContractsUpdate = "contracts-update"
	EventScanStatus      = "scan-status"
	EventScanError       = "scan-error"
)

// Envelope is the wire format for every pushed event.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to all connected WebSocket subscribers. The
// orchestrator only sees Broadcast; transport details stay here.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// done is closed when Run exits, so register/unregister senders never
	// block against a stopped loop.
	done chan struct{}

	// onScanRequest runs when any subscriber sends a request-scan
	// message. Wired to the orchestrator's trigger by main.
	onScanRequest func()

	// greeting is replayed to each newly-connected client so it starts
	// with the current feed state instead of waiting for the next scan.
	greetingMu sync.RWMutex
	greeting   []byte
}

func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// SetScanRequestHandler wires the client-initiated scan trigger.
func (h *Hub) SetScanRequestHandler(fn func()) {
	h.onScanRequest = fn
}

// Run owns the client set. Blocks until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", n).Msg("subscriber connected")

			h.greetingMu.RLock()
			greeting := h.greeting
			h.greetingMu.RUnlock()
			if greeting != nil {
				c.trySend(greeting)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", n).Msg("subscriber disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.trySend(msg) {
					// Slow consumer: drop it rather than block the feed.
					go func(cl *Client) { h.drop(cl) }(c)
				}
			}
			h.mu.RUnlock()

		case <-stop:
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop hands a client to the run loop for removal, giving up once the
// loop has stopped (the stop path already closed every client).
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast pushes an event to every connected subscriber.
// contracts-update events are also retained as the greeting for future
// connections.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, err := json.Marshal(Envelope{Type: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("event marshal failed")
		return
	}

	if event == EventContractsUpdate {
		h.greetingMu.Lock()
		h.greeting = msg
		h.greetingMu.Unlock()
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("event", event).Msg("broadcast queue full, dropping event")
	}
}

// ClientCount reports currently connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
