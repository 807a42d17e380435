// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/farm/kv"
)

// Stage holds the storage changes pending to be written.
type Stage struct {
	changes map[storageKey]rlp.RawValue
}

// Len returns the number of changed slots.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Commit writes the changes into store atomically.
func (st *Stage) Commit(store kv.Store) error {
	if len(st.changes) == 0 {
		return nil
	}
	bulk := store.Bulk()
	for key, value := range st.changes {
		var err error
		if len(value) == 0 {
			err = bulk.Delete(key.bytes())
		} else {
			err = bulk.Put(key.bytes(), value)
		}
		if err != nil {
			return &Error{errors.Wrap(err, "stage")}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{errors.Wrap(err, "commit")}
	}
	return nil
}
