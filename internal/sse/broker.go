// internal/sse/broker.go
package sse

import (
	"encoding/json"
	"log"
	"sync"

	"backcheck-service/internal/identity"
)

const (
	EventAuthState     = "auth.state"
	EventProfileViewed = "profile.viewed"
)

// Event is one message fanned out to a principal's open streams. State is
// set for auth transitions and is consumed in-process only.
type Event struct {
	Type  string                `json:"type"`
	Data  interface{}           `json:"data"`
	UID   string                `json:"uid"`
	State *identity.StateChange `json:"-"`
}

// Broker manages SSE connections per principal.
type Broker struct {
	clients map[string]map[chan Event]bool
	mu      sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[string]map[chan Event]bool),
	}
}

// Register adds a client channel for uid.
func (b *Broker) Register(uid string, clientChan chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[uid]; !ok {
		b.clients[uid] = make(map[chan Event]bool)
	}
	b.clients[uid][clientChan] = true
	log.Printf("📡 [SSE Broker] Registered client for %s (total clients: %d)", uid, len(b.clients[uid]))
}

// Unregister removes and closes a client channel. Safe to call twice.
func (b *Broker) Unregister(uid string, clientChan chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userClients, ok := b.clients[uid]
	if !ok || !userClients[clientChan] {
		return
	}
	delete(userClients, clientChan)
	close(clientChan)
	if len(userClients) == 0 {
		delete(b.clients, uid)
	}
	log.Printf("📡 [SSE Broker] Unregistered client for %s (remaining: %d)", uid, len(userClients))
}

// Broadcast sends an event to every open stream of event.UID. Slow clients
// are skipped rather than blocking the publisher.
func (b *Broker) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userClients, ok := b.clients[event.UID]
	if !ok {
		return
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		log.Printf("❌ [SSE Broker] Failed to marshal event data: %v", err)
		return
	}
	eventCopy := Event{
		Type:  event.Type,
		Data:  json.RawMessage(dataJSON),
		UID:   event.UID,
		State: event.State,
	}

	for clientChan := range userClients {
		select {
		case clientChan <- eventCopy:
		default:
			log.Printf("⚠️ [SSE Broker] Client channel blocked for %s", event.UID)
		}
	}
	log.Printf("📡 [SSE Broker] Broadcast %s to %d clients for %s", event.Type, len(userClients), event.UID)
}

// Publish implements identity.Publisher.
func (b *Broker) Publish(change identity.StateChange) {
	b.Broadcast(Event{
		Type:  EventAuthState,
		Data:  map[string]interface{}{"authenticated": change.Authenticated},
		UID:   change.UID,
		State: &change,
	})
}

func (b *Broker) ClientCount(uid string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[uid])
}

func (b *Broker) TotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, userClients := range b.clients {
		total += len(userClients)
	}
	return total
}
