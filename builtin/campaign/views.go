// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"

	"github.com/vechain/farm/builtin/campaign/rewards"
	"github.com/vechain/farm/farm"
)

//
// Getters - no state change
//

// Earned returns what user could claim of token right now.
func (c *Campaign) Earned(user, token farm.Address) (earned *big.Int, err error) {
	err = c.view(func(now uint64) error {
		earned, err = c.engine.Earned(user, token, now)
		return err
	})
	return
}

// RewardPerToken returns the accumulator of token brought current.
func (c *Campaign) RewardPerToken(token farm.Address) (perToken *big.Int, err error) {
	err = c.view(func(now uint64) error {
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		total, err := c.ledger.TotalStaked()
		if err != nil {
			return err
		}
		perToken, err = r.PerToken(total, now)
		return err
	})
	return
}

// LastTimeRewardApplicable returns min(now, period finish) of token.
func (c *Campaign) LastTimeRewardApplicable(token farm.Address) (ts uint64, err error) {
	err = c.view(func(now uint64) error {
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		ts = r.LastTimeApplicable(now)
		return nil
	})
	return
}

// RewardForDuration returns rate * duration of token.
func (c *Campaign) RewardForDuration(token farm.Address) (amount *big.Int, err error) {
	err = c.view(func(uint64) error {
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		amount, err = r.ForDuration()
		return err
	})
	return
}

// RewardData returns the stored record of token.
func (c *Campaign) RewardData(token farm.Address) (r *rewards.Reward, err error) {
	err = c.view(func(uint64) error {
		r, err = c.rewards.Get(token)
		return err
	})
	return
}

// Status returns the lifecycle state of token.
func (c *Campaign) Status(token farm.Address) (status rewards.Status, err error) {
	err = c.view(func(now uint64) error {
		r, err := c.rewards.Get(token)
		if err != nil {
			return err
		}
		status = r.Status(now)
		return nil
	})
	return
}

// RewardTokens lists the reward tokens in enable order.
func (c *Campaign) RewardTokens() (tokens []farm.Address, err error) {
	err = c.view(func(uint64) error {
		tokens, err = c.rewards.Tokens()
		return err
	})
	return
}

func (c *Campaign) TotalStaked() (total *big.Int, err error) {
	err = c.view(func(uint64) error {
		total, err = c.ledger.TotalStaked()
		return err
	})
	return
}

func (c *Campaign) BalanceOf(user farm.Address) (balance *big.Int, err error) {
	err = c.view(func(uint64) error {
		balance, err = c.ledger.BalanceOf(user)
		return err
	})
	return
}

// Stakers returns the number of accounts with a staked balance.
func (c *Campaign) Stakers() (n uint64, err error) {
	err = c.view(func(uint64) error {
		n, err = c.ledger.Stakers()
		return err
	})
	return
}

func (c *Campaign) StakingToken() (token farm.Address, err error) {
	err = c.view(func(uint64) error {
		token, err = c.stakingToken.Get()
		return err
	})
	return
}

func (c *Campaign) Owner() (owner farm.Address, err error) {
	err = c.view(func(uint64) error {
		owner, err = c.owner.Get()
		return err
	})
	return
}

func (c *Campaign) NominatedOwner() (owner farm.Address, err error) {
	err = c.view(func(uint64) error {
		owner, err = c.nominatedOwner.Get()
		return err
	})
	return
}

func (c *Campaign) Paused() (paused bool, err error) {
	err = c.view(func(uint64) error {
		paused, err = c.paused.Get()
		return err
	})
	return
}

// Summary is a consistent snapshot of the campaign.
type Summary struct {
	Address      farm.Address
	StakingToken farm.Address
	Owner        farm.Address
	Paused       bool
	TotalStaked  *big.Int
	Stakers      uint64
	RewardTokens []farm.Address
}

// Summarize reads the campaign header in one locked view.
func (c *Campaign) Summarize() (*Summary, error) {
	s := &Summary{Address: c.address}
	err := c.view(func(uint64) (err error) {
		if s.StakingToken, err = c.stakingToken.Get(); err != nil {
			return
		}
		if s.Owner, err = c.owner.Get(); err != nil {
			return
		}
		if s.Paused, err = c.paused.Get(); err != nil {
			return
		}
		if s.TotalStaked, err = c.ledger.TotalStaked(); err != nil {
			return
		}
		if s.Stakers, err = c.ledger.Stakers(); err != nil {
			return
		}
		s.RewardTokens, err = c.rewards.Tokens()
		return
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Account is the position of one user for one reward token.
type Account struct {
	Token        farm.Address
	Earned       *big.Int
	Owed         *big.Int
	PerTokenPaid *big.Int
}

// Accounts returns the staked balance of user and its position in every reward token.
func (c *Campaign) Accounts(user farm.Address) (balance *big.Int, accounts []Account, err error) {
	err = c.view(func(now uint64) error {
		if balance, err = c.ledger.BalanceOf(user); err != nil {
			return err
		}
		tokens, err := c.rewards.Tokens()
		if err != nil {
			return err
		}
		for _, token := range tokens {
			acc := Account{Token: token}
			if acc.Earned, err = c.engine.Earned(user, token, now); err != nil {
				return err
			}
			if acc.Owed, err = c.engine.Owed(user, token); err != nil {
				return err
			}
			if acc.PerTokenPaid, err = c.engine.PerTokenPaid(user, token); err != nil {
				return err
			}
			accounts = append(accounts, acc)
		}
		return nil
	})
	return
}

// RewardInfo is the record and lifecycle state of one reward token.
type RewardInfo struct {
	Token  farm.Address
	Reward *rewards.Reward
	Status rewards.Status
}

// Rewards returns every reward token in enable order, read in one locked view.
func (c *Campaign) Rewards() (infos []RewardInfo, err error) {
	err = c.view(func(now uint64) error {
		tokens, err := c.rewards.Tokens()
		if err != nil {
			return err
		}
		for _, token := range tokens {
			r, err := c.rewards.Get(token)
			if err != nil {
				return err
			}
			infos = append(infos, RewardInfo{Token: token, Reward: r, Status: r.Status(now)})
		}
		return nil
	})
	return
}
