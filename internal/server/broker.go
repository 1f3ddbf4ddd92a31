package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/territorio/internal/game"
)

// Broker is an in-process pub/sub for game events, keyed by game ID.
type Broker struct {
	mu    sync.RWMutex
	subs  map[string]map[chan []byte]struct{}
	relay *RedisRelay
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// SetRelay forwards every published event to other instances.
func (b *Broker) SetRelay(r *RedisRelay) {
	b.mu.Lock()
	b.relay = r
	b.mu.Unlock()
}

// Subscribe returns a channel that receives JSON-encoded events for the given game.
func (b *Broker) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given game. It never
// blocks.
func (b *Broker) Publish(gameID string, event game.Event) {
	data, _ := json.Marshal(event)
	b.deliver(gameID, data)

	b.mu.RLock()
	relay := b.relay
	b.mu.RUnlock()
	if relay != nil {
		relay.enqueue(gameID, data)
	}
}

func (b *Broker) deliver(gameID string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
