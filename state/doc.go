// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides journaled contract storage.
//
// A State reads through to a kv store and keeps every write in a stack of
// revisions, so a caller can take a checkpoint, mutate storage and revert all
// of it if the operation fails. Staged changes are flushed to the kv store in
// one atomic bulk write.
package state
