// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedpoint implements the integer arithmetic used by reward accounting.
// All values are unsigned 256-bit integers carried as *big.Int at the API boundary;
// intermediate products are computed in 512 bits so a*b/c never overflows unless
// the quotient itself does.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when an operand or a result does not fit in 256 bits.
	ErrOverflow = errors.New("fixedpoint: uint256 overflow")
	// ErrDivisionByZero is returned when the divisor is zero.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	// ErrNegative is returned for negative operands.
	ErrNegative = errors.New("fixedpoint: negative operand")
)

// Scale is the precision of reward-per-token accumulators (1e18).
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var scale256 = uint256.MustFromBig(Scale)

func toU256(x *big.Int) (*uint256.Int, error) {
	if x == nil {
		return new(uint256.Int), nil
	}
	if x.Sign() < 0 {
		return nil, ErrNegative
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

// MulDiv returns floor(a*b/c) computed with a 512-bit intermediate product.
func MulDiv(a, b, c *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	d, err := toU256(c)
	if err != nil {
		return nil, err
	}
	z, err := mulDiv(x, y, d)
	if err != nil {
		return nil, err
	}
	return z.ToBig(), nil
}

func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Div returns floor(a/b). Truncation is intentional: callers reject zero
// quotients where a silent zero would be wrong.
func Div(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	if y.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(x, y).ToBig(), nil
}

// Mul returns a*b, failing when the product exceeds 256 bits.
func Mul(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z.ToBig(), nil
}

// Add returns a+b, failing when the sum exceeds 256 bits.
func Add(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z.ToBig(), nil
}

// ScaledRatio returns floor(elapsed * rate * Scale / total), the growth of a
// reward-per-token accumulator over elapsed seconds.
func ScaledRatio(elapsed uint64, rate, total *big.Int) (*big.Int, error) {
	r, err := toU256(rate)
	if err != nil {
		return nil, err
	}
	d, err := toU256(total)
	if err != nil {
		return nil, err
	}
	distributed, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(elapsed), r)
	if overflow {
		return nil, ErrOverflow
	}
	z, err := mulDiv(distributed, scale256, d)
	if err != nil {
		return nil, err
	}
	return z.ToBig(), nil
}

// Unscale returns floor(amount * perToken / Scale).
func Unscale(amount, perToken *big.Int) (*big.Int, error) {
	return MulDiv(amount, perToken, Scale)
}
