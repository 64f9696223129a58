package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

type Type string

const (
	RequestCreated Type = "request-created"
	RequestUpdated Type = "request-updated"
	RequestDeleted Type = "request-deleted"
	RequestExpired Type = "request-expired"
	OfferSubmitted Type = "offer-submitted"
	OfferAccepted  Type = "offer-accepted"
	OfferDeclined  Type = "offer-declined"
)

// Event tells subscribers that a request changed so people can follow up.
type Event struct {
	Type        Type      `json:"type"`
	RequestID   string    `json:"request_id"`
	OfferID     string    `json:"offer_id,omitempty"`
	RequesterID string    `json:"requester_id,omitempty"`
	OffererID   string    `json:"offerer_id,omitempty"`
	At          time.Time `json:"at"`
}

// Broker fans events out to subscribers. Slow subscribers miss events
// rather than block publishers.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewBroker() *Broker {
	return &Broker{clients: make(map[chan string]struct{})}
}

func (b *Broker) Subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	msg := string(raw)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// PublishExpired announces a request that moved to expired. It has the
// shape of a store expiry hook.
func (b *Broker) PublishExpired(r domain.Request) {
	b.Publish(Event{Type: RequestExpired, RequestID: r.ID, RequesterID: r.RequesterID})
}
