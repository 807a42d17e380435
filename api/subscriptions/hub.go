// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/metrics"
)

var metricDroppedMessages = metrics.LazyLoadCounter("subscriptions_dropped_count")

// Filter selects the events a subscriber receives. Empty criteria match everything.
type Filter struct {
	Address *farm.Address
	Name    string
	Account *farm.Address
	Token   *farm.Address
}

// Match reports whether ev passes the filter.
func (f *Filter) Match(ev *event.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if f.Name != "" && f.Name != ev.Name {
		return false
	}
	if f.Account != nil && *f.Account != ev.Account {
		return false
	}
	if f.Token != nil && *f.Token != ev.Token {
		return false
	}
	return true
}

// Subscription receives the encoded events matching its filter.
type Subscription struct {
	filter Filter
	ch     chan []byte
}

// C returns the channel messages are delivered on.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Hub is an event.Sink fanning committed events out to live subscribers.
// Delivery never blocks the writer: a subscriber whose buffer is full misses
// the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

var _ event.Sink = (*Hub)(nil)

// NewHub creates a hub buffering up to buffer messages per subscriber.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{filter: filter, ch: make(chan []byte, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Write(events []*event.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.subs) == 0 {
		return nil
	}
	for _, ev := range events {
		// encoded once, on the first match
		var msg []byte
		for sub := range h.subs {
			if !sub.filter.Match(ev) {
				continue
			}
			if msg == nil {
				var err error
				if msg, err = json.Marshal(ev); err != nil {
					return errors.Wrap(err, "encode event")
				}
			}
			select {
			case sub.ch <- msg:
			default:
				metricDroppedMessages().Add(1)
			}
		}
	}
	return nil
}
