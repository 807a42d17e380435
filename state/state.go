// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr farm.Address
	key  farm.Bytes32
}

func (k storageKey) bytes() []byte {
	b := make([]byte, 0, farm.AddressLength+32)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages contract storage of one or more contracts.
// It is not safe for concurrent use; owners serialize access.
type State struct {
	src kv.Getter
	sm  *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object reading through to src.
func New(src kv.Getter) *State {
	s := &State{src: src}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.storageGetter)
}

// storageGetter implements stackedmap.MapGetter.
func (s *State) storageGetter(key storageKey) (rlp.RawValue, bool, error) {
	v, err := s.src.Get(key.bytes())
	if err != nil {
		if s.src.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr farm.Address, key farm.Bytes32) (farm.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return farm.Bytes32{}, err
	}
	if len(raw) == 0 {
		return farm.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return farm.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// a structured value; expose its hash
		return farm.Blake2b(raw), nil
	}
	return farm.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr farm.Address, key, value farm.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr farm.Address, key farm.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr farm.Address, key farm.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr farm.Address, key farm.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr farm.Address, key farm.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every storage slot written since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(key storageKey, value rlp.RawValue) bool {
		changes[key] = value
		return true
	})
	return &Stage{changes: changes}
}

// Commit flushes all pending changes to store and clears the journal.
// The State must read through to the same store.
func (s *State) Commit(store kv.Store) error {
	if err := s.Stage().Commit(store); err != nil {
		return err
	}
	s.reset()
	return nil
}
