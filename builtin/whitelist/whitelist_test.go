// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/pool"
)

var (
	addr    = farm.BytesToAddress([]byte("whitelist"))
	wrapped = farm.BytesToAddress([]byte{1})
	tokenA  = farm.BytesToAddress([]byte{2})
	tokenB  = farm.BytesToAddress([]byte{3})
	tokenC  = farm.BytesToAddress([]byte{4})
	owner   = farm.BytesToAddress([]byte("owner"))
	other   = farm.BytesToAddress([]byte("other"))
)

func newWhitelist(t *testing.T) (*Whitelist, *lvldb.LevelDB, *pool.Memory, *event.Recorder) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pools := pool.NewMemory()
	pools.Add(tokenA, wrapped)
	pools.Add(tokenB, wrapped)
	pools.Add(tokenA, tokenC)

	rec := &event.Recorder{}
	w := New(addr, db, wrapped, pools, farm.NewManualClock(42).Now, rec)
	require.NoError(t, w.Initialize(owner))
	return w, db, pools, rec
}

func assertWhitelisted(t *testing.T, w *Whitelist, token farm.Address, expected bool) {
	ok, err := w.IsWhitelisted(token)
	require.NoError(t, err)
	assert.Equal(t, expected, ok, "token %v", token)
}

func TestSetWhitelist(t *testing.T) {
	w, _, _, rec := newWhitelist(t)
	assert.Equal(t, wrapped, w.Wrapped())

	require.NoError(t, w.SetWhitelist(owner, []farm.Address{tokenA, tokenB}, true))
	assertWhitelisted(t, w, tokenA, true)
	assertWhitelisted(t, w, tokenB, true)

	evs := rec.Events(EventWhitelistChanged)
	require.Len(t, evs, 2)
	assert.Equal(t, tokenA, evs[0].Token)
	assert.Equal(t, "true", evs[0].Values["ok"])
	assert.Equal(t, uint64(42), evs[0].Time)

	require.NoError(t, w.SetWhitelist(owner, []farm.Address{tokenA, tokenB}, false))
	assertWhitelisted(t, w, tokenA, false)
	assertWhitelisted(t, w, tokenB, false)
}

func TestSetWhitelistWithoutPool(t *testing.T) {
	tests := []struct {
		name   string
		tokens []farm.Address
		ok     bool
	}{
		{"last token unpaired", []farm.Address{tokenA, tokenB, tokenC}, true},
		{"middle token unpaired", []farm.Address{tokenA, tokenC, tokenB}, true},
		{"single token", []farm.Address{tokenC}, true},
		{"removal", []farm.Address{tokenC}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, _, rec := newWhitelist(t)
			err := w.SetWhitelist(owner, tt.tokens, tt.ok)
			assert.True(t, reverts.Is(err, reverts.PoolNotFound), "got %v", err)

			// nothing from the failed call sticks
			assertWhitelisted(t, w, tokenA, false)
			assertWhitelisted(t, w, tokenB, false)
			assert.Empty(t, rec.Events())
		})
	}
}

func TestOnlyOwner(t *testing.T) {
	w, _, _, _ := newWhitelist(t)

	err := w.SetWhitelist(other, []farm.Address{tokenA}, true)
	assert.True(t, reverts.Is(err, reverts.Unauthorized))
	err = w.SetPools(other, []pool.Pair{pool.NewPair(tokenA, wrapped)}, true)
	assert.True(t, reverts.Is(err, reverts.Unauthorized))
	err = w.Initialize(other)
	assert.True(t, reverts.Is(err, reverts.Unauthorized))

	require.NoError(t, w.TransferOwnership(owner, other))
	current, err := w.Owner()
	require.NoError(t, err)
	assert.Equal(t, other, current)
	assert.True(t, reverts.Is(w.SetWhitelist(owner, []farm.Address{tokenA}, true), reverts.Unauthorized))
	assert.NoError(t, w.SetWhitelist(other, []farm.Address{tokenA}, true))
}

func TestSetPools(t *testing.T) {
	w, _, _, _ := newWhitelist(t)

	require.NoError(t, w.SetPools(owner, []pool.Pair{{Token0: tokenC, Token1: tokenA}}, true))
	ok, err := w.IsPoolWhitelisted(tokenA, tokenC)
	require.NoError(t, err)
	assert.True(t, ok)

	err = w.SetPools(owner, []pool.Pair{pool.NewPair(tokenB, tokenC)}, true)
	assert.True(t, reverts.Is(err, reverts.PoolNotFound))
	ok, err = w.IsPoolWhitelisted(tokenB, tokenC)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistence(t *testing.T) {
	w, db, pools, _ := newWhitelist(t)
	require.NoError(t, w.SetWhitelist(owner, []farm.Address{tokenA}, true))

	reopened := New(addr, db, wrapped, pools, nil, nil)
	assertWhitelisted(t, reopened, tokenA, true)
	assertWhitelisted(t, reopened, tokenB, false)
	current, err := reopened.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, current)
}
