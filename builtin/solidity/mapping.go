// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/farm/farm"
)

type Key interface {
	Bytes() []byte
}

// Index is an integer mapping key.
type Index uint64

func (i Index) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// CompositeKey derives a single key from an ordered list of keys, like a nested
// mapping(a => mapping(b => v)).
func CompositeKey(keys ...Key) farm.Bytes32 {
	parts := make([][]byte, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.Bytes())
	}
	return farm.Blake2b(parts...)
}

// Mapping is a key/value storage abstraction for built-in contracts, similar to the mapping in Solidity.
// Values are rlp encoded; a missing key decodes as the zero value.
type Mapping[K Key, V any] struct {
	context *Context
	basePos farm.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos farm.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) farm.Bytes32 {
	return farm.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete clears the value stored for key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
