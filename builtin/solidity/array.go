// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"fmt"
	"math/big"

	"github.com/vechain/farm/farm"
)

// Array is an append-only ordered list, like a dynamic storage array in Solidity.
type Array[V any] struct {
	length *Uint256
	items  *Mapping[Index, V]
}

func NewArray[V any](context *Context, pos farm.Bytes32) *Array[V] {
	return &Array[V]{
		length: NewUint256(context, pos),
		items:  NewMapping[Index, V](context, farm.Blake2b(pos.Bytes(), []byte("items"))),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	l, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	return l.Uint64(), nil
}

func (a *Array[V]) Get(i uint64) (V, error) {
	l, err := a.Len()
	if err != nil {
		var zero V
		return zero, err
	}
	if i >= l {
		var zero V
		return zero, fmt.Errorf("index %d out of range [0, %d)", i, l)
	}
	return a.items.Get(Index(i))
}

func (a *Array[V]) Push(value V) error {
	l, err := a.Len()
	if err != nil {
		return err
	}
	if err := a.items.Set(Index(l), value); err != nil {
		return err
	}
	a.length.Set(new(big.Int).SetUint64(l + 1))
	return nil
}

// All returns every element in insertion order.
func (a *Array[V]) All() ([]V, error) {
	l, err := a.Len()
	if err != nil {
		return nil, err
	}
	values := make([]V, 0, l)
	for i := uint64(0); i < l; i++ {
		v, err := a.items.Get(Index(i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
