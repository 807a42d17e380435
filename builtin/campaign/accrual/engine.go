// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual settles rewards lazily against a per-token accumulator.
//
// Every mutating campaign operation first calls Settle, which brings the
// reward-per-token accumulator of each token current and credits the user
// with balance * (accumulator - paid) / Scale. Balances may only change after
// settlement within the same operation.
package accrual

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/farm/builtin/campaign/ledger"
	"github.com/vechain/farm/builtin/campaign/rewards"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/fixedpoint"
)

var (
	slotPerTokenPaid = farm.BytesToBytes32([]byte("reward-per-token-paid"))
	slotRewardsOwed  = farm.BytesToBytes32([]byte("rewards-owed"))
)

// Global is the sentinel account for settlements that only update accumulators.
var Global = farm.Address{}

// Engine keeps the per user reward snapshots of one campaign.
type Engine struct {
	rewards *rewards.Service
	ledger  *ledger.Service

	paid *solidity.Mapping[farm.Bytes32, *big.Int]
	owed *solidity.Mapping[farm.Bytes32, *big.Int]
}

func New(sctx *solidity.Context, rewards *rewards.Service, ledger *ledger.Service) *Engine {
	return &Engine{
		rewards: rewards,
		ledger:  ledger,
		paid:    solidity.NewMapping[farm.Bytes32, *big.Int](sctx, slotPerTokenPaid),
		owed:    solidity.NewMapping[farm.Bytes32, *big.Int](sctx, slotRewardsOwed),
	}
}

func accountKey(user, token farm.Address) farm.Bytes32 {
	return solidity.CompositeKey(user, token)
}

// Settle checkpoints each token at now and, unless user is Global, credits
// user with what it earned since its last settlement.
func (e *Engine) Settle(user farm.Address, tokens []farm.Address, now uint64) error {
	total, err := e.ledger.TotalStaked()
	if err != nil {
		return err
	}
	var balance *big.Int
	if user != Global {
		if balance, err = e.ledger.BalanceOf(user); err != nil {
			return err
		}
	}

	for _, token := range tokens {
		perToken, err := e.rewards.Checkpoint(token, total, now)
		if err != nil {
			return errors.WithMessagef(err, "checkpoint %v", token)
		}
		if user == Global {
			continue
		}
		owed, err := e.earned(user, token, balance, perToken)
		if err != nil {
			return err
		}
		key := accountKey(user, token)
		if err := e.owed.Set(key, owed); err != nil {
			return errors.Wrap(err, "failed to set owed rewards")
		}
		if err := e.paid.Set(key, perToken); err != nil {
			return errors.Wrap(err, "failed to set paid snapshot")
		}
	}
	return nil
}

// SettleAll settles user against every enabled token.
func (e *Engine) SettleAll(user farm.Address, now uint64) error {
	tokens, err := e.rewards.Tokens()
	if err != nil {
		return err
	}
	return e.Settle(user, tokens, now)
}

// earned returns owed + balance * (perToken - paid) / Scale.
func (e *Engine) earned(user, token farm.Address, balance, perToken *big.Int) (*big.Int, error) {
	key := accountKey(user, token)
	paid, err := e.paid.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paid snapshot")
	}
	owed, err := e.owed.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get owed rewards")
	}
	if perToken.Cmp(paid) < 0 {
		return nil, errors.Errorf("accumulator of %v went backwards", token)
	}
	accrued, err := fixedpoint.Unscale(balance, new(big.Int).Sub(perToken, paid))
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(owed, accrued)
}

// Earned returns what user could claim for token at now, without mutating anything.
func (e *Engine) Earned(user, token farm.Address, now uint64) (*big.Int, error) {
	r, err := e.rewards.Get(token)
	if err != nil {
		return nil, err
	}
	total, err := e.ledger.TotalStaked()
	if err != nil {
		return nil, err
	}
	balance, err := e.ledger.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	perToken, err := r.PerToken(total, now)
	if err != nil {
		return nil, err
	}
	return e.earned(user, token, balance, perToken)
}

// PerTokenPaid returns the accumulator snapshot taken at the last settlement of user.
func (e *Engine) PerTokenPaid(user, token farm.Address) (*big.Int, error) {
	return e.paid.Get(accountKey(user, token))
}

// Owed returns the settled but unclaimed rewards of user.
func (e *Engine) Owed(user, token farm.Address) (*big.Int, error) {
	return e.owed.Get(accountKey(user, token))
}

// Claim zeroes the settled rewards of user for token and returns them.
func (e *Engine) Claim(user, token farm.Address) (*big.Int, error) {
	key := accountKey(user, token)
	owed, err := e.owed.Get(key)
	if err != nil {
		return nil, err
	}
	if owed.Sign() > 0 {
		e.owed.Delete(key)
	}
	return owed, nil
}
