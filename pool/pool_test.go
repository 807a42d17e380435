// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/farm"
)

func TestMemory(t *testing.T) {
	a := farm.BytesToAddress([]byte("a"))
	b := farm.BytesToAddress([]byte("b"))
	c := farm.BytesToAddress([]byte("c"))

	m := NewMemory()
	ok, err := m.PoolExists(a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	id := m.Add(b, a)
	assert.Equal(t, NewPair(a, b).ID(), id)

	for _, pair := range [][2]farm.Address{{a, b}, {b, a}} {
		ok, err = m.PoolExists(pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err = m.PoolExists(a, c)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []Pair{NewPair(a, b)}, m.Pairs())
	assert.NotEqual(t, NewPair(a, b).ID(), NewPair(a, c).ID())
}
