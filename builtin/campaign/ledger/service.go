// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/farm"
)

var (
	slotTotalStaked = farm.BytesToBytes32([]byte("total-staked"))
	slotBalances    = farm.BytesToBytes32([]byte("balances"))
	slotStakers     = farm.BytesToBytes32([]byte("stakers"))
)

// Service tracks the staked balances of one campaign.
// Callers settle rewards before mutating it.
type Service struct {
	total    *solidity.Uint256
	balances *solidity.Mapping[farm.Address, *big.Int]
	stakers  *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		total:    solidity.NewUint256(sctx, slotTotalStaked),
		balances: solidity.NewMapping[farm.Address, *big.Int](sctx, slotBalances),
		stakers:  solidity.NewUint256(sctx, slotStakers),
	}
}

// TotalStaked returns the sum of all balances.
func (s *Service) TotalStaked() (*big.Int, error) {
	return s.total.Get()
}

// BalanceOf returns the staked balance of user.
func (s *Service) BalanceOf(user farm.Address) (*big.Int, error) {
	bal, err := s.balances.Get(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

// Stakers returns the number of accounts with a non-zero balance.
func (s *Service) Stakers() (uint64, error) {
	n, err := s.stakers.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Stake adds amount to the balance of user and returns the new balance.
func (s *Service) Stake(user farm.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.New(reverts.InvalidAmount, "cannot stake 0")
	}
	bal, err := s.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	if bal.Sign() == 0 {
		if err := s.stakers.Add(big.NewInt(1)); err != nil {
			return nil, err
		}
	}
	bal.Add(bal, amount)
	if err := s.balances.Set(user, bal); err != nil {
		return nil, errors.Wrap(err, "failed to set balance")
	}
	if err := s.total.Add(amount); err != nil {
		return nil, err
	}
	return bal, nil
}

// Withdraw removes amount from the balance of user and returns the new balance.
func (s *Service) Withdraw(user farm.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, reverts.New(reverts.InvalidAmount, "cannot withdraw 0")
	}
	bal, err := s.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	if bal.Cmp(amount) < 0 {
		return nil, reverts.Newf(reverts.InvalidAmount, "insufficient balance: %v < %v", bal, amount)
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		s.balances.Delete(user)
		if err := s.stakers.Sub(big.NewInt(1)); err != nil {
			return nil, err
		}
	} else if err := s.balances.Set(user, bal); err != nil {
		return nil, errors.Wrap(err, "failed to set balance")
	}
	if err := s.total.Sub(amount); err != nil {
		return nil, err
	}
	return bal, nil
}
