// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/vechain/farm/farm"
)

func RandomHash() farm.Bytes32 {
	var b32 farm.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() farm.Address {
	var addr farm.Address

	rand.Read(addr[:])
	return addr
}

func RandAddresses(n int) []farm.Address {
	addrs := make([]farm.Address, 0, n)
	for range n {
		addrs = append(addrs, RandAddress())
	}
	return addrs
}
