// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package whitelist keeps the reward tokens and pools campaigns may use.
package whitelist

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/pool"
	"github.com/vechain/farm/state"
)

var logger = log.WithContext("pkg", "whitelist")

const (
	EventWhitelistChanged     = "WhitelistChanged"
	EventPoolWhitelistChanged = "PoolWhitelistChanged"
	EventOwnershipTransferred = "OwnershipTransferred"
)

var (
	slotOwner  = farm.BytesToBytes32([]byte("owner"))
	slotTokens = farm.BytesToBytes32([]byte("whitelisted-tokens"))
	slotPools  = farm.BytesToBytes32([]byte("whitelisted-pools"))
)

// Whitelist admits a reward token only if it trades directly against the
// wrapped native token.
type Whitelist struct {
	mu      sync.Mutex
	address farm.Address
	store   kv.Store
	state   *state.State

	wrapped  farm.Address
	registry pool.Registry
	clock    farm.Clock
	sink     event.Sink

	owner  *solidity.Address
	tokens *solidity.Mapping[farm.Address, bool]
	pools  *solidity.Mapping[farm.Address, bool]
}

// New binds the whitelist stored at address. A nil clock or sink falls back
// to the system clock and to discarding events.
func New(address farm.Address, store kv.Store, wrapped farm.Address, registry pool.Registry, clock farm.Clock, sink event.Sink) *Whitelist {
	if clock == nil {
		clock = farm.SystemClock
	}
	if sink == nil {
		sink = event.Discard
	}
	st := state.New(store)
	sctx := solidity.NewContext(address, st)
	return &Whitelist{
		address:  address,
		store:    store,
		state:    st,
		wrapped:  wrapped,
		registry: registry,
		clock:    clock,
		sink:     sink,
		owner:    solidity.NewAddress(sctx, slotOwner),
		tokens:   solidity.NewMapping[farm.Address, bool](sctx, slotTokens),
		pools:    solidity.NewMapping[farm.Address, bool](sctx, slotPools),
	}
}

func (w *Whitelist) execute(op string, fn func(events *[]*event.Event) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []*event.Event
	cp := w.state.NewCheckpoint()
	if err := fn(&events); err != nil {
		w.state.RevertTo(cp)
		logger.Debug("operation reverted", "op", op, "err", err)
		return err
	}
	if err := w.state.Commit(w.store); err != nil {
		w.state.RevertTo(cp)
		return errors.Wrap(err, "commit whitelist state")
	}
	now := w.clock()
	for _, ev := range events {
		ev.Time = now
	}
	if len(events) > 0 {
		if err := w.sink.Write(events); err != nil {
			logger.Warn("failed to write events", "op", op, "err", err)
		}
	}
	return nil
}

func (w *Whitelist) onlyOwner(caller farm.Address) error {
	owner, err := w.owner.Get()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.New(reverts.Unauthorized, "caller is not the owner")
	}
	return nil
}

// Initialize sets the first owner.
func (w *Whitelist) Initialize(owner farm.Address) error {
	return w.execute("initialize", func(*[]*event.Event) error {
		current, err := w.owner.Get()
		if err != nil {
			return err
		}
		if !current.IsZero() {
			return reverts.New(reverts.Unauthorized, "whitelist already initialized")
		}
		if owner.IsZero() {
			return reverts.New(reverts.Unauthorized, "owner is zero")
		}
		w.owner.Set(owner)
		return nil
	})
}

// TransferOwnership hands the whitelist to newOwner at once.
func (w *Whitelist) TransferOwnership(caller, newOwner farm.Address) error {
	return w.execute("transfer_ownership", func(events *[]*event.Event) error {
		if err := w.onlyOwner(caller); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return reverts.New(reverts.Unauthorized, "new owner is zero")
		}
		w.owner.Set(newOwner)
		*events = append(*events, event.New(w.address, EventOwnershipTransferred).WithAccount(newOwner).With("previousOwner", caller))
		return nil
	})
}

// SetWhitelist sets the flag of every token. Every token needs a pool
// against the wrapped native token, otherwise nothing changes.
func (w *Whitelist) SetWhitelist(caller farm.Address, tokens []farm.Address, ok bool) error {
	return w.execute("set_whitelist", func(events *[]*event.Event) error {
		if err := w.onlyOwner(caller); err != nil {
			return err
		}
		for _, token := range tokens {
			exists, err := w.registry.PoolExists(token, w.wrapped)
			if err != nil {
				return errors.Wrap(err, "pool lookup")
			}
			if !exists {
				return reverts.Newf(reverts.PoolNotFound, "there is no pool with %v:wrapped native", token)
			}
			if err := w.tokens.Set(token, ok); err != nil {
				return err
			}
			*events = append(*events, event.New(w.address, EventWhitelistChanged).WithToken(token).With("ok", ok))
		}
		return nil
	})
}

// SetPools sets the flag of every pool. Unknown pools fail the whole call.
func (w *Whitelist) SetPools(caller farm.Address, pairs []pool.Pair, ok bool) error {
	return w.execute("set_pools", func(events *[]*event.Event) error {
		if err := w.onlyOwner(caller); err != nil {
			return err
		}
		for _, p := range pairs {
			exists, err := w.registry.PoolExists(p.Token0, p.Token1)
			if err != nil {
				return errors.Wrap(err, "pool lookup")
			}
			if !exists {
				return reverts.Newf(reverts.PoolNotFound, "there is no pool with %v:%v", p.Token0, p.Token1)
			}
			id := pool.NewPair(p.Token0, p.Token1).ID()
			if err := w.pools.Set(id, ok); err != nil {
				return err
			}
			*events = append(*events, event.New(w.address, EventPoolWhitelistChanged).WithToken(id).With("ok", ok))
		}
		return nil
	})
}

func (w *Whitelist) IsWhitelisted(token farm.Address) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tokens.Get(token)
}

func (w *Whitelist) IsPoolWhitelisted(tokenA, tokenB farm.Address) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pools.Get(pool.NewPair(tokenA, tokenB).ID())
}

func (w *Whitelist) Owner() (farm.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.owner.Get()
}

// Wrapped returns the wrapped native token every whitelisted token pairs with.
func (w *Whitelist) Wrapped() farm.Address {
	return w.wrapped
}

func (w *Whitelist) Address() farm.Address {
	return w.address
}
