// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool tracks which liquidity pools exist for a pair of tokens.
package pool

import (
	"bytes"
	"sync"

	"github.com/vechain/farm/farm"
)

// Registry answers whether a pool exists for a token pair.
type Registry interface {
	PoolExists(tokenA, tokenB farm.Address) (bool, error)
}

// Pair is an unordered pair of tokens.
type Pair struct {
	Token0 farm.Address
	Token1 farm.Address
}

// NewPair returns the pair with tokens sorted.
func NewPair(a, b farm.Address) Pair {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Pair{Token0: a, Token1: b}
}

// ID derives the pool id of the pair.
func (p Pair) ID() farm.Address {
	h := farm.Blake2b([]byte("pool"), p.Token0.Bytes(), p.Token1.Bytes())
	return farm.BytesToAddress(h[12:])
}

// Memory is an in-memory Registry.
type Memory struct {
	lock  sync.RWMutex
	pools map[Pair]struct{}
}

var _ Registry = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{pools: make(map[Pair]struct{})}
}

// Add registers the pool for a pair and returns its id.
func (m *Memory) Add(a, b farm.Address) farm.Address {
	m.lock.Lock()
	defer m.lock.Unlock()

	p := NewPair(a, b)
	m.pools[p] = struct{}{}
	return p.ID()
}

func (m *Memory) PoolExists(a, b farm.Address) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	_, ok := m.pools[NewPair(a, b)]
	return ok, nil
}

// Pairs returns all registered pairs.
func (m *Memory) Pairs() []Pair {
	m.lock.RLock()
	defer m.lock.RUnlock()

	pairs := make([]Pair, 0, len(m.pools))
	for p := range m.pools {
		pairs = append(pairs, p)
	}
	return pairs
}
