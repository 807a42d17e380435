// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/fixedpoint"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/state"
)

var (
	tokenA = farm.BytesToAddress([]byte("tokenA"))
	tokenB = farm.BytesToAddress([]byte("tokenB"))
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(farm.BytesToAddress([]byte("campaign")), state.New(db)))
}

func TestEnable(t *testing.T) {
	svc := newService(t)

	r, err := svc.Get(tokenA)
	require.NoError(t, err)
	assert.Equal(t, StatusUnconfigured, r.Status(0))

	added, err := svc.Enable(tokenA, false, 100, 10)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.Enable(tokenB, true, 200, 10)
	require.NoError(t, err)
	assert.True(t, added)

	tokens, err := svc.Tokens()
	require.NoError(t, err)
	assert.Equal(t, []farm.Address{tokenA, tokenB}, tokens)

	r, err = svc.Get(tokenB)
	require.NoError(t, err)
	assert.True(t, r.Native)
	assert.True(t, r.Asset(tokenB).IsNative())
	assert.Equal(t, StatusConfigured, r.Status(10))

	// re-enable before any funding only updates the record
	added, err = svc.Enable(tokenA, false, 300, 10)
	require.NoError(t, err)
	assert.False(t, added)
	tokens, err = svc.Tokens()
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	// the payout form is fixed at first enable
	_, err = svc.Enable(tokenB, false, 200, 10)
	assert.True(t, reverts.Is(err, reverts.InvalidToken))
	_, err = svc.Enable(tokenA, true, 300, 10)
	assert.True(t, reverts.Is(err, reverts.InvalidToken))
	r, err = svc.Get(tokenA)
	require.NoError(t, err)
	assert.False(t, r.Native)
	assert.Equal(t, uint64(300), r.Duration)
}

func TestNotify(t *testing.T) {
	svc := newService(t)

	_, err := svc.Notify(tokenA, big.NewInt(1000), 0, 0)
	assert.True(t, reverts.Is(err, reverts.NotConfigured))

	_, err = svc.Enable(tokenA, false, 100, 0)
	require.NoError(t, err)

	_, err = svc.Notify(tokenA, big.NewInt(99), 0, 0)
	assert.True(t, reverts.Is(err, reverts.RateTooLow))

	r, err := svc.Notify(tokenA, big.NewInt(1000), 0, 50)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), r.Rate)
	assert.Equal(t, uint64(50), r.LastUpdate)
	assert.Equal(t, uint64(150), r.PeriodFinish)
	assert.Equal(t, StatusActive, r.Status(149))
	assert.Equal(t, StatusLapsed, r.Status(150))

	_, err = svc.Enable(tokenA, false, 100, 100)
	assert.True(t, reverts.Is(err, reverts.PeriodActive))
	assert.True(t, reverts.Is(svc.SetDuration(tokenA, 10, 100), reverts.PeriodActive))

	// top up halfway: 500 undistributed blends into the new rate
	r, err = svc.Notify(tokenA, big.NewInt(1000), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(15), r.Rate)
	assert.Equal(t, uint64(200), r.PeriodFinish)

	forDuration, err := r.ForDuration()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), forDuration)

	// after lapse nothing is blended
	r, err = svc.Notify(tokenA, big.NewInt(400), 40, 500)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), r.Rate)
	assert.Equal(t, uint64(40), r.Duration)
	assert.Equal(t, uint64(540), r.PeriodFinish)
}

func TestCheckpoint(t *testing.T) {
	svc := newService(t)
	_, err := svc.Enable(tokenA, false, 100, 0)
	require.NoError(t, err)
	_, err = svc.Notify(tokenA, big.NewInt(1000), 0, 0)
	require.NoError(t, err)

	total := big.NewInt(5)

	perToken, err := svc.Checkpoint(tokenA, total, 20)
	require.NoError(t, err)
	// 20s * 10/s * 1e18 / 5
	expected := new(big.Int).Mul(big.NewInt(40), fixedpoint.Scale)
	assert.Equal(t, expected, perToken)

	// nothing staked: the accumulator holds still but time is consumed
	perToken, err = svc.Checkpoint(tokenA, big.NewInt(0), 30)
	require.NoError(t, err)
	assert.Equal(t, expected, perToken)

	// past the period end accrual is capped
	perToken, err = svc.Checkpoint(tokenA, total, 1000)
	require.NoError(t, err)
	expected = new(big.Int).Add(expected, new(big.Int).Mul(big.NewInt(140), fixedpoint.Scale))
	assert.Equal(t, expected, perToken)

	r, err := svc.Get(tokenA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.LastUpdate)

	// a clock running backwards never rewinds the checkpoint
	_, err = svc.Checkpoint(tokenA, total, 50)
	require.NoError(t, err)
	r, err = svc.Get(tokenA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.LastUpdate)
	assert.Equal(t, expected, r.PerTokenStored)
}

func TestSetDuration(t *testing.T) {
	svc := newService(t)
	assert.True(t, reverts.Is(svc.SetDuration(tokenA, 10, 0), reverts.NotConfigured))

	_, err := svc.Enable(tokenA, false, 100, 0)
	require.NoError(t, err)
	require.NoError(t, svc.SetDuration(tokenA, 10, 0))

	r, err := svc.Get(tokenA)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r.Duration)
}

func TestRewardRecordRoundTrip(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	addr := farm.BytesToAddress([]byte("campaign"))

	f := fuzz.New().NilChance(0.2).Funcs(
		// rlp carries non-negative integers only
		func(b *big.Int, c fuzz.Continue) {
			buf := make([]byte, c.Intn(33))
			c.Read(buf)
			b.SetBytes(buf)
		},
	)
	for range 200 {
		var (
			token farm.Address
			want  Reward
		)
		f.Fuzz(&token)
		f.Fuzz(&want)

		st := state.New(db)
		require.NoError(t, New(solidity.NewContext(addr, st)).set(token, &want))
		require.NoError(t, st.Commit(db))

		got, err := New(solidity.NewContext(addr, state.New(db))).Get(token)
		require.NoError(t, err)
		assert.Equal(t, want.Native, got.Native)
		assert.Equal(t, want.Duration, got.Duration)
		assert.Equal(t, want.PeriodFinish, got.PeriodFinish)
		assert.Equal(t, want.LastUpdate, got.LastUpdate)
		// a nil integer reads back as zero
		assert.Equal(t, want.rate().String(), got.rate().String())
		assert.Equal(t, want.perTokenStored().String(), got.perTokenStored().String())
	}
}
