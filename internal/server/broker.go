package server

import (
	"net/http"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

type subscriber struct {
	ch      chan store.Change
	domains map[signal.Domain]bool
}

// Broker fans out store changes to websocket subscribers.
type Broker struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewBroker creates a new broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a subscriber for changes in the given domains.
// Empty domains means all.
func (b *Broker) Subscribe(domains []signal.Domain) *Subscription {
	sub := &subscriber{ch: make(chan store.Change, 64), domains: make(map[signal.Domain]bool)}
	for _, d := range domains {
		sub.domains[d] = true
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return &Subscription{broker: b, sub: sub}
}

// Publish broadcasts a change. Slow subscribers miss changes.
func (b *Broker) Publish(c store.Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if len(sub.domains) > 0 && !sub.domains[c.Signal.Domain] {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ServeWS upgrades the connection and streams changes as JSON.
func (b *Broker) ServeWS(w http.ResponseWriter, r *http.Request, domains []signal.Domain, opts *websocket.AcceptOptions) {
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	sub := b.Subscribe(domains)
	defer sub.Close()

	// Clients only listen; CloseRead handles their close frames.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub.sub.ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, c); err != nil {
				return
			}
		}
	}
}

// Subscription represents an active broker subscription.
type Subscription struct {
	broker *Broker
	sub    *subscriber
	once   sync.Once
}

// Chan exposes the change channel.
func (s *Subscription) Chan() <-chan store.Change {
	return s.sub.ch
}

// Close removes the subscription.
func (s *Subscription) Close() {
	if s == nil || s.broker == nil || s.sub == nil {
		return
	}
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.sub)
		s.broker.mu.Unlock()
		close(s.sub.ch)
	})
}
