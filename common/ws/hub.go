package ws

import (
	"sync"
)

// Hub fans broadcast messages out to registered subscriber channels. It does
// not depend on net/http so handlers and background jobs can share it.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]chan Message
	register   chan registration
	unregister chan string
	broadcast  chan Message
	shutdown   chan struct{}
	stopOnce   sync.Once
	onDrop     func(clientID string)
}

type registration struct {
	id   string
	ch   chan Message
	done chan struct{}
}

// NewHub creates and starts a new Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]chan Message),
		register:   make(chan registration),
		unregister: make(chan string),
		broadcast:  make(chan Message, 100),
		shutdown:   make(chan struct{}),
	}
	go h.run()
	return h
}

// OnDrop sets a callback invoked when a slow subscriber misses a message.
// Must be called before the hub is shared.
func (h *Hub) OnDrop(fn func(clientID string)) {
	h.onDrop = fn
}

func (h *Hub) run() {
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.id] = reg.ch
			h.mu.Unlock()
			close(reg.done)
		case id := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.clients[id]; ok {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for id, ch := range h.clients {
				select {
				case ch <- msg:
				default:
					if h.onDrop != nil {
						h.onDrop(id)
					}
				}
			}
			h.mu.RUnlock()
		case <-h.shutdown:
			h.mu.Lock()
			for id, ch := range h.clients {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a subscriber channel under id. It returns once the hub has
// recorded the subscriber, so a Broadcast issued afterwards reaches it.
// The channel should be buffered.
func (h *Hub) Register(id string, ch chan Message) {
	done := make(chan struct{})
	select {
	case h.register <- registration{id: id, ch: ch, done: done}:
		<-done
	case <-h.shutdown:
	}
}

// Unregister removes the subscriber and closes its channel.
func (h *Hub) Unregister(id string) {
	select {
	case h.unregister <- id:
	case <-h.shutdown:
	}
}

// Broadcast queues msg for every subscriber. It never blocks; the message is
// dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount reports the number of registered subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop shuts down the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.shutdown) })
}
