package server

import (
	"encoding/json"
	"sync"
	"time"
)

// SyncEvent tells a user's other sessions that their stored data changed.
type SyncEvent struct {
	Type        string    `json:"type"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
	PlayCount   int       `json:"playCount,omitempty"`
	FolderCount int       `json:"folderCount,omitempty"`
	ShareID     string    `json:"shareId,omitempty"`
}

const (
	eventDataChanged  = "data-changed"
	eventShareCreated = "share-created"
	eventShareDeleted = "share-deleted"
)

// Broker is an in-process pub/sub for sync events, keyed by user ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given user.
func (b *Broker) Subscribe(userID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan []byte]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the user's subscribers.
func (b *Broker) Unsubscribe(userID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[userID], ch)
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given user.
func (b *Broker) Publish(userID string, event SyncEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[userID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many channels are subscribed for userID.
func (b *Broker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
