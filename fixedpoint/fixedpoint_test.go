// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestMulDiv(t *testing.T) {
	max := maxUint256()

	tests := []struct {
		name    string
		a, b, c *big.Int
		want    *big.Int
		err     error
	}{
		{"simple", big.NewInt(10), big.NewInt(3), big.NewInt(4), big.NewInt(7), nil},
		{"truncates", big.NewInt(1), big.NewInt(1), big.NewInt(3), big.NewInt(0), nil},
		{"wide intermediate", max, big.NewInt(2), big.NewInt(2), max, nil},
		{"quotient overflow", max, big.NewInt(2), big.NewInt(1), nil, ErrOverflow},
		{"division by zero", big.NewInt(1), big.NewInt(1), big.NewInt(0), nil, ErrDivisionByZero},
		{"negative", big.NewInt(-1), big.NewInt(1), big.NewInt(1), nil, ErrNegative},
		{"operand overflow", new(big.Int).Add(max, big.NewInt(1)), big.NewInt(1), big.NewInt(1), nil, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.c)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestDiv(t *testing.T) {
	duration := big.NewInt(60 * 24 * 60 * 60)

	rate, err := Div(big.NewInt(10), duration)
	require.NoError(t, err)
	assert.Equal(t, 0, rate.Sign())

	rate, err = Div(big.NewInt(864000000), big.NewInt(3600))
	require.NoError(t, err)
	assert.Equal(t, int64(240000), rate.Int64())

	_, err = Div(big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulAdd(t *testing.T) {
	max := maxUint256()

	v, err := Mul(big.NewInt(6), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = Mul(max, big.NewInt(2))
	assert.ErrorIs(t, err, ErrOverflow)

	v, err = Add(big.NewInt(40), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = Add(max, big.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestScaledRatio(t *testing.T) {
	// 100 seconds at 5 units/s spread over 1000 staked units: 0.5 per unit.
	got, err := ScaledRatio(100, big.NewInt(5), big.NewInt(1000))
	require.NoError(t, err)
	want := new(big.Int).Div(Scale, big.NewInt(2))
	assert.Equal(t, 0, want.Cmp(got))

	_, err = ScaledRatio(1, big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	zero, err := ScaledRatio(0, big.NewInt(5), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Sign())
}

func TestUnscale(t *testing.T) {
	perToken := new(big.Int).Mul(big.NewInt(3), Scale)
	got, err := Unscale(big.NewInt(7), perToken)
	require.NoError(t, err)
	assert.Equal(t, int64(21), got.Int64())

	// large stake and accumulator still fit thanks to the wide product
	stake := new(big.Int).Lsh(big.NewInt(1), 200)
	acc := new(big.Int).Lsh(big.NewInt(1), 100)
	got, err = Unscale(stake, acc)
	require.NoError(t, err)
	want := new(big.Int).Div(new(big.Int).Lsh(big.NewInt(1), 300), Scale)
	assert.Equal(t, 0, want.Cmp(got))
}
