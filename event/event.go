// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package event defines the records emitted by committed operations.
package event

import (
	"math/big"
	"sync"

	"github.com/vechain/farm/farm"
)

// Event is a record emitted by a contract after an operation commits.
// Account and Token are indexed and may be zero.
type Event struct {
	Address farm.Address      `json:"address"`
	Name    string            `json:"name"`
	Account farm.Address      `json:"account"`
	Token   farm.Address      `json:"token"`
	Values  map[string]string `json:"values,omitempty"`
	Time    uint64            `json:"time"`
}

// New creates an event emitted by addr.
func New(addr farm.Address, name string) *Event {
	return &Event{Address: addr, Name: name}
}

func (e *Event) WithAccount(account farm.Address) *Event {
	e.Account = account
	return e
}

func (e *Event) WithToken(token farm.Address) *Event {
	e.Token = token
	return e
}

// With records a value. *big.Int, uint64, bool, string and farm.Address are supported.
func (e *Event) With(key string, value any) *Event {
	if e.Values == nil {
		e.Values = make(map[string]string)
	}
	var s string
	switch v := value.(type) {
	case *big.Int:
		s = v.String()
	case uint64:
		s = new(big.Int).SetUint64(v).String()
	case bool:
		if v {
			s = "true"
		} else {
			s = "false"
		}
	case farm.Address:
		s = v.String()
	case string:
		s = v
	default:
		panic("event: unsupported value type")
	}
	e.Values[key] = s
	return e
}

// Sink receives the events of one committed operation.
type Sink interface {
	Write(events []*Event) error
}

type discard struct{}

func (discard) Write([]*Event) error { return nil }

// Discard drops every event.
var Discard Sink = discard{}

// Recorder keeps events in memory.
type Recorder struct {
	lock   sync.Mutex
	events []*Event
}

func (r *Recorder) Write(events []*Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns the recorded events, optionally filtered by name.
func (r *Recorder) Events(names ...string) []*Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(names) == 0 {
		return append([]*Event(nil), r.events...)
	}
	var out []*Event
	for _, ev := range r.events {
		for _, n := range names {
			if ev.Name == n {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = nil
}

// Multi writes to each sink in order and stops at the first error.
type Multi []Sink

func (m Multi) Write(events []*Event) error {
	for _, s := range m {
		if err := s.Write(events); err != nil {
			return err
		}
	}
	return nil
}
