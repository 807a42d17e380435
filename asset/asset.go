// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"

	"github.com/vechain/farm/farm"
)

// Asset is either the platform native asset or a fungible token.
type Asset struct {
	native bool
	token  farm.Address
}

// Native returns the native asset.
func Native() Asset {
	return Asset{native: true}
}

// Fungible returns the fungible token identified by token.
func Fungible(token farm.Address) Asset {
	return Asset{token: token}
}

// Of returns the native asset if native is set, otherwise the fungible token.
func Of(token farm.Address, native bool) Asset {
	if native {
		return Native()
	}
	return Fungible(token)
}

func (a Asset) IsNative() bool {
	return a.native
}

// Token returns the fungible token id. It is zero for the native asset.
func (a Asset) Token() farm.Address {
	return a.token
}

func (a Asset) String() string {
	if a.native {
		return "native"
	}
	return a.token.String()
}

type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Transfer is one movement of an asset.
type Transfer struct {
	Direction Direction
	Asset     Asset
	From      farm.Address
	To        farm.Address
	Amount    *big.Int
}

// Batch collects transfers to be applied together.
type Batch struct {
	transfers []Transfer
}

func NewBatch() *Batch {
	return &Batch{}
}

// TransferIn pulls amount from `from` into `to`. It consumes the allowance
// `from` granted to `to`. A native transfer-in pulls the wrapped native token.
func (b *Batch) TransferIn(asset Asset, from, to farm.Address, amount *big.Int) {
	b.add(In, asset, from, to, amount)
}

// TransferOut pushes amount held by `from` to `to`. A native transfer-out
// unwraps into the recipient's native balance.
func (b *Batch) TransferOut(asset Asset, from, to farm.Address, amount *big.Int) {
	b.add(Out, asset, from, to, amount)
}

func (b *Batch) add(dir Direction, asset Asset, from, to farm.Address, amount *big.Int) {
	b.transfers = append(b.transfers, Transfer{
		Direction: dir,
		Asset:     asset,
		From:      from,
		To:        to,
		Amount:    new(big.Int).Set(amount),
	})
}

func (b *Batch) Len() int {
	return len(b.transfers)
}

func (b *Batch) Transfers() []Transfer {
	return append([]Transfer(nil), b.transfers...)
}

// Bank moves assets. Execute applies every transfer of the batch or none.
// Wrapped names the token that native payouts are held in.
type Bank interface {
	Execute(batch *Batch) error
	Wrapped() farm.Address
}
