// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/state"
)

var logger = log.WithContext("pkg", "asset")

// LedgerAddress is the storage address of the in-process ledger.
var LedgerAddress = farm.BytesToAddress([]byte("asset.ledger"))

var (
	slotBalances   = farm.Blake2b([]byte("balances"))
	slotAllowances = farm.Blake2b([]byte("allowances"))
	slotSupplies   = farm.Blake2b([]byte("supplies"))

	// balances of the native asset are kept under the zero token id
	nativeToken = farm.Address{}
)

var (
	errInsufficientBalance   = errors.New("insufficient balance")
	errInsufficientAllowance = errors.New("insufficient allowance")
)

// Ledger is an in-process Bank keeping token balances, allowances and native
// balances in its own journaled state on top of a kv store.
type Ledger struct {
	mu      sync.Mutex
	store   kv.Store
	state   *state.State
	wrapped farm.Address

	balances   *solidity.Mapping[farm.Bytes32, *big.Int]
	allowances *solidity.Mapping[farm.Bytes32, *big.Int]
	supplies   *solidity.Mapping[farm.Address, *big.Int]
}

var _ Bank = (*Ledger)(nil)

// NewLedger creates a ledger. wrapped is the token id of the wrapped native asset.
func NewLedger(store kv.Store, wrapped farm.Address) *Ledger {
	st := state.New(store)
	ctx := solidity.NewContext(LedgerAddress, st)
	return &Ledger{
		store:      store,
		state:      st,
		wrapped:    wrapped,
		balances:   solidity.NewMapping[farm.Bytes32, *big.Int](ctx, slotBalances),
		allowances: solidity.NewMapping[farm.Bytes32, *big.Int](ctx, slotAllowances),
		supplies:   solidity.NewMapping[farm.Address, *big.Int](ctx, slotSupplies),
	}
}

// Wrapped returns the token id of the wrapped native asset.
func (l *Ledger) Wrapped() farm.Address {
	return l.wrapped
}

// Execute applies batch atomically.
func (l *Ledger) Execute(batch *Batch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if batch.Len() == 0 {
		return nil
	}

	cp := l.state.NewCheckpoint()
	for _, tr := range batch.transfers {
		if err := l.apply(tr); err != nil {
			l.state.RevertTo(cp)
			metricBatches().AddWithLabel(1, map[string]string{"result": "failed"})
			logger.Debug("transfer rejected", "dir", tr.Direction, "asset", tr.Asset, "from", tr.From, "to", tr.To, "amount", tr.Amount, "err", err)
			if reverts.IsRevertErr(err) {
				return err
			}
			return reverts.Wrap(reverts.TransferFailed, err, "transfer "+tr.Direction.String()+" "+tr.Asset.String())
		}
	}
	if err := l.state.Commit(l.store); err != nil {
		l.state.RevertTo(cp)
		return errors.Wrap(err, "commit ledger")
	}
	metricBatches().AddWithLabel(1, map[string]string{"result": "ok"})
	return nil
}

func (l *Ledger) apply(tr Transfer) error {
	if tr.Amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	if tr.Amount.Sign() == 0 {
		return nil
	}
	token := tr.Asset.Token()
	if tr.Asset.IsNative() {
		token = l.wrapped
	}

	switch tr.Direction {
	case In:
		if err := l.spendAllowance(token, tr.From, tr.To, tr.Amount); err != nil {
			return err
		}
		return l.move(token, tr.From, tr.To, tr.Amount)
	case Out:
		if !tr.Asset.IsNative() {
			return l.move(token, tr.From, tr.To, tr.Amount)
		}
		// unwrap: burn the custodian's wrapped tokens, credit native
		if err := l.sub(token, tr.From, tr.Amount); err != nil {
			return err
		}
		if err := l.subSupply(token, tr.Amount); err != nil {
			return err
		}
		return l.add(nativeToken, tr.To, tr.Amount)
	default:
		return errors.Errorf("unknown direction %d", tr.Direction)
	}
}

func (l *Ledger) move(token, from, to farm.Address, amount *big.Int) error {
	if err := l.sub(token, from, amount); err != nil {
		return err
	}
	return l.add(token, to, amount)
}

func (l *Ledger) add(token, owner farm.Address, amount *big.Int) error {
	key := solidity.CompositeKey(token, owner)
	bal, err := l.balances.Get(key)
	if err != nil {
		return err
	}
	return l.balances.Set(key, bal.Add(bal, amount))
}

func (l *Ledger) sub(token, owner farm.Address, amount *big.Int) error {
	key := solidity.CompositeKey(token, owner)
	bal, err := l.balances.Get(key)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	return l.balances.Set(key, bal.Sub(bal, amount))
}

func (l *Ledger) spendAllowance(token, owner, spender farm.Address, amount *big.Int) error {
	key := solidity.CompositeKey(token, owner, spender)
	allowance, err := l.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errInsufficientAllowance
	}
	return l.allowances.Set(key, allowance.Sub(allowance, amount))
}

func (l *Ledger) addSupply(token farm.Address, amount *big.Int) error {
	supply, err := l.supplies.Get(token)
	if err != nil {
		return err
	}
	return l.supplies.Set(token, supply.Add(supply, amount))
}

func (l *Ledger) subSupply(token farm.Address, amount *big.Int) error {
	supply, err := l.supplies.Get(token)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	return l.supplies.Set(token, supply.Sub(supply, amount))
}

// update runs fn against the ledger state and commits it, or reverts on error.
func (l *Ledger) update(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := l.state.NewCheckpoint()
	if err := fn(); err != nil {
		l.state.RevertTo(cp)
		return err
	}
	if err := l.state.Commit(l.store); err != nil {
		l.state.RevertTo(cp)
		return errors.Wrap(err, "commit ledger")
	}
	return nil
}

// Mint creates amount of token for to.
func (l *Ledger) Mint(token, to farm.Address, amount *big.Int) error {
	if token == l.wrapped {
		return errors.New("wrapped native token is minted by Deposit")
	}
	return l.update(func() error {
		if err := l.addSupply(token, amount); err != nil {
			return err
		}
		return l.add(token, to, amount)
	})
}

// MintNative credits native balance to an account.
func (l *Ledger) MintNative(to farm.Address, amount *big.Int) error {
	return l.update(func() error {
		return l.add(nativeToken, to, amount)
	})
}

// Approve sets the allowance owner grants to spender.
func (l *Ledger) Approve(token, owner, spender farm.Address, amount *big.Int) error {
	return l.update(func() error {
		return l.allowances.Set(solidity.CompositeKey(token, owner, spender), new(big.Int).Set(amount))
	})
}

// Deposit wraps native balance of owner into the wrapped native token.
func (l *Ledger) Deposit(owner farm.Address, amount *big.Int) error {
	return l.update(func() error {
		if err := l.sub(nativeToken, owner, amount); err != nil {
			return reverts.Wrap(reverts.TransferFailed, err, "deposit")
		}
		if err := l.addSupply(l.wrapped, amount); err != nil {
			return err
		}
		return l.add(l.wrapped, owner, amount)
	})
}

// Withdraw unwraps wrapped native tokens of owner into native balance.
func (l *Ledger) Withdraw(owner farm.Address, amount *big.Int) error {
	return l.update(func() error {
		if err := l.sub(l.wrapped, owner, amount); err != nil {
			return reverts.Wrap(reverts.TransferFailed, err, "withdraw")
		}
		if err := l.subSupply(l.wrapped, amount); err != nil {
			return err
		}
		return l.add(nativeToken, owner, amount)
	})
}

func (l *Ledger) read(fn func() (*big.Int, error)) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// BalanceOf returns the balance of a fungible token.
func (l *Ledger) BalanceOf(token, owner farm.Address) (*big.Int, error) {
	return l.read(func() (*big.Int, error) {
		return l.balances.Get(solidity.CompositeKey(token, owner))
	})
}

// NativeBalance returns the native balance of owner.
func (l *Ledger) NativeBalance(owner farm.Address) (*big.Int, error) {
	return l.BalanceOf(nativeToken, owner)
}

// Allowance returns the amount spender may still pull from owner.
func (l *Ledger) Allowance(token, owner, spender farm.Address) (*big.Int, error) {
	return l.read(func() (*big.Int, error) {
		return l.allowances.Get(solidity.CompositeKey(token, owner, spender))
	})
}

// TotalSupply returns the minted supply of token.
func (l *Ledger) TotalSupply(token farm.Address) (*big.Int, error) {
	return l.read(func() (*big.Int, error) {
		return l.supplies.Get(token)
	})
}
