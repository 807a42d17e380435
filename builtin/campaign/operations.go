// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/campaign/accrual"
	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/farm"
)

// Initialize sets the owner and staking token of a freshly deployed campaign.
func (c *Campaign) Initialize(owner, stakingToken farm.Address) error {
	return c.execute("initialize", func(tx *txn) error {
		current, err := c.stakingToken.Get()
		if err != nil {
			return err
		}
		if !current.IsZero() {
			return reverts.New(reverts.Unauthorized, "campaign already initialized")
		}
		if stakingToken.IsZero() {
			return reverts.New(reverts.InvalidToken, "staking token is zero")
		}
		if owner.IsZero() {
			return reverts.New(reverts.Unauthorized, "owner is zero")
		}
		c.stakingToken.Set(stakingToken)
		c.owner.Set(owner)
		return nil
	})
}

// EnableReward registers token as a reward with the given period length.
// It fails while a previous period of token is still running.
func (c *Campaign) EnableReward(caller, token farm.Address, native bool, duration uint64) error {
	return c.execute("enable_reward", func(tx *txn) error {
		if err := c.onlyOwner(caller); err != nil {
			return err
		}
		stakingToken, err := c.stakingToken.Get()
		if err != nil {
			return err
		}
		if token.IsZero() || token == stakingToken {
			return reverts.Newf(reverts.InvalidToken, "invalid reward token %v", token)
		}
		if native && token != c.bank.Wrapped() {
			return reverts.Newf(reverts.InvalidToken, "native reward must use the wrapped token, got %v", token)
		}
		if err := c.policy.CheckDuration(duration); err != nil {
			return err
		}
		if err := c.requireWhitelisted(token); err != nil {
			return err
		}
		if err := c.engine.Settle(accrual.Global, []farm.Address{token}, tx.now); err != nil {
			return err
		}
		if _, err := c.rewards.Enable(token, native, duration, tx.now); err != nil {
			return err
		}
		if c.policy.hasEnableFee() {
			if err := c.collab.CollectFee(tx.batch, asset.Fungible(c.policy.FeeToken), c.address, caller, c.policy.EnableFee); err != nil {
				return reverts.Wrap(reverts.TransferFailed, err, "collect enable fee")
			}
		}
		c.emit(tx, EventRewardEnabled).WithToken(token).With("duration", duration).With("native", native)
		return nil
	})
}

// NotifyRewardAmount funds a new reward period of token with amount. A
// duration of zero keeps the configured period length. When the current
// period is still running its undistributed remainder is carried over.
func (c *Campaign) NotifyRewardAmount(caller, token farm.Address, amount *big.Int, duration uint64) error {
	return c.execute("notify_reward_amount", func(tx *txn) error {
		if !c.policy.PermissionlessNotify {
			if err := c.onlyOwner(caller); err != nil {
				return err
			}
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidAmount, "reward amount must be positive")
		}
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		if !r.IsConfigured() {
			return reverts.Newf(reverts.NotConfigured, "reward token %v not enabled", token)
		}
		if err := c.requireWhitelisted(token); err != nil {
			return err
		}
		if duration != 0 {
			if err := c.policy.CheckDuration(duration); err != nil {
				return err
			}
		}
		if err := c.engine.Settle(accrual.Global, []farm.Address{token}, tx.now); err != nil {
			return err
		}

		fee := c.policy.NotifyFee(amount)
		net := new(big.Int).Sub(amount, fee)
		r, err = c.rewards.Notify(token, net, duration, tx.now)
		if err != nil {
			return err
		}

		rewardAsset := r.Asset(token)
		tx.batch.TransferIn(rewardAsset, caller, c.address, net)
		if fee.Sign() > 0 {
			if err := c.collab.CollectFee(tx.batch, rewardAsset, c.address, caller, fee); err != nil {
				return reverts.Wrap(reverts.TransferFailed, err, "collect notify fee")
			}
		}
		c.emit(tx, EventRewardAdded).WithToken(token).With("reward", net).With("duration", r.Duration)
		return nil
	})
}

// SetRewardsDuration changes the period length of token once its period lapsed.
func (c *Campaign) SetRewardsDuration(caller, token farm.Address, duration uint64) error {
	return c.execute("set_rewards_duration", func(tx *txn) error {
		if err := c.onlyOwner(caller); err != nil {
			return err
		}
		if err := c.policy.CheckDuration(duration); err != nil {
			return err
		}
		if err := c.rewards.SetDuration(token, duration, tx.now); err != nil {
			return err
		}
		c.emit(tx, EventRewardsDurationUpdated).WithToken(token).With("duration", duration)
		return nil
	})
}

// Stake moves amount of the staking token from user into the campaign.
func (c *Campaign) Stake(user farm.Address, amount *big.Int) error {
	return c.execute("stake", func(tx *txn) error {
		if err := requireAccount(user); err != nil {
			return err
		}
		paused, err := c.paused.Get()
		if err != nil {
			return err
		}
		if paused {
			return reverts.New(reverts.Paused, "this action cannot be performed while the contract is paused")
		}
		if err := c.engine.SettleAll(user, tx.now); err != nil {
			return err
		}
		stakingToken, err := c.stakingToken.Get()
		if err != nil {
			return err
		}
		if stakingToken.IsZero() {
			return reverts.New(reverts.NotConfigured, "campaign not initialized")
		}
		balance, err := c.ledger.Stake(user, amount)
		if err != nil {
			return err
		}
		total, err := c.ledger.TotalStaked()
		if err != nil {
			return err
		}
		tx.batch.TransferIn(asset.Fungible(stakingToken), user, c.address, amount)
		c.emit(tx, EventStaked).WithAccount(user).With("amount", amount).With("balance", balance).With("totalStaked", total)
		return nil
	})
}

// Withdraw returns amount of staked tokens to user. It is allowed while paused.
func (c *Campaign) Withdraw(user farm.Address, amount *big.Int) error {
	return c.execute("withdraw", func(tx *txn) error {
		if err := requireAccount(user); err != nil {
			return err
		}
		if err := c.engine.SettleAll(user, tx.now); err != nil {
			return err
		}
		return c.withdraw(tx, user, amount)
	})
}

func (c *Campaign) withdraw(tx *txn, user farm.Address, amount *big.Int) error {
	balance, err := c.ledger.Withdraw(user, amount)
	if err != nil {
		return err
	}
	total, err := c.ledger.TotalStaked()
	if err != nil {
		return err
	}
	stakingToken, err := c.stakingToken.Get()
	if err != nil {
		return err
	}
	tx.batch.TransferOut(asset.Fungible(stakingToken), c.address, user, amount)
	c.emit(tx, EventWithdrawn).WithAccount(user).With("amount", amount).With("balance", balance).With("totalStaked", total)
	return nil
}

// GetReward pays user everything owed, token by token.
func (c *Campaign) GetReward(user farm.Address) error {
	return c.execute("get_reward", func(tx *txn) error {
		if err := requireAccount(user); err != nil {
			return err
		}
		if err := c.engine.SettleAll(user, tx.now); err != nil {
			return err
		}
		return c.getReward(tx, user)
	})
}

func (c *Campaign) getReward(tx *txn, user farm.Address) error {
	tokens, err := c.rewards.Tokens()
	if err != nil {
		return err
	}
	for _, token := range tokens {
		owed, err := c.engine.Claim(user, token)
		if err != nil {
			return err
		}
		if owed.Sign() == 0 {
			continue
		}
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		tx.batch.TransferOut(r.Asset(token), c.address, user, owed)
		c.emit(tx, EventRewardPaid).WithAccount(user).WithToken(token).With("reward", owed)
	}
	return nil
}

// Exit withdraws the whole balance of user and pays all rewards.
func (c *Campaign) Exit(user farm.Address) error {
	return c.execute("exit", func(tx *txn) error {
		if err := requireAccount(user); err != nil {
			return err
		}
		if err := c.engine.SettleAll(user, tx.now); err != nil {
			return err
		}
		balance, err := c.ledger.BalanceOf(user)
		if err != nil {
			return err
		}
		if err := c.withdraw(tx, user, balance); err != nil {
			return err
		}
		return c.getReward(tx, user)
	})
}

// SetPaused toggles whether new stakes are accepted. Setting the current value is a no-op.
func (c *Campaign) SetPaused(caller farm.Address, paused bool) error {
	return c.execute("set_paused", func(tx *txn) error {
		if err := c.onlyOwner(caller); err != nil {
			return err
		}
		current, err := c.paused.Get()
		if err != nil {
			return err
		}
		if current == paused {
			return nil
		}
		c.paused.Set(paused)
		c.emit(tx, EventPauseChanged).With("paused", paused)
		return nil
	})
}

// NominateNewOwner starts an ownership handover to owner.
func (c *Campaign) NominateNewOwner(caller, owner farm.Address) error {
	return c.execute("nominate_new_owner", func(tx *txn) error {
		if err := c.onlyOwner(caller); err != nil {
			return err
		}
		c.nominatedOwner.Set(owner)
		c.emit(tx, EventOwnerNominated).WithAccount(owner)
		return nil
	})
}

// AcceptOwnership completes a handover; only the nominated account may call it.
func (c *Campaign) AcceptOwnership(caller farm.Address) error {
	return c.execute("accept_ownership", func(tx *txn) error {
		nominated, err := c.nominatedOwner.Get()
		if err != nil {
			return err
		}
		if nominated.IsZero() || caller != nominated {
			return reverts.New(reverts.Unauthorized, "you must be nominated before you can accept ownership")
		}
		old, err := c.owner.Get()
		if err != nil {
			return err
		}
		c.owner.Set(caller)
		c.nominatedOwner.Set(farm.Address{})
		c.emit(tx, EventOwnerChanged).WithAccount(caller).With("oldOwner", old)
		return nil
	})
}
