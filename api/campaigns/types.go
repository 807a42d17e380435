// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaigns

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/farm/builtin/campaign"
	"github.com/vechain/farm/builtin/campaign/rewards"
	"github.com/vechain/farm/farm"
)

type Summary struct {
	Address      farm.Address          `json:"address"`
	StakingToken farm.Address          `json:"stakingToken"`
	Owner        farm.Address          `json:"owner"`
	Paused       bool                  `json:"paused"`
	TotalStaked  *math.HexOrDecimal256 `json:"totalStaked"`
	Stakers      uint64                `json:"stakers"`
	RewardTokens []farm.Address        `json:"rewardTokens"`
}

type Reward struct {
	Token             farm.Address          `json:"token"`
	Native            bool                  `json:"native"`
	Status            string                `json:"status"`
	Duration          uint64                `json:"duration"`
	PeriodFinish      uint64                `json:"periodFinish"`
	Rate              *math.HexOrDecimal256 `json:"rate"`
	LastUpdate        uint64                `json:"lastUpdate"`
	PerTokenStored    *math.HexOrDecimal256 `json:"perTokenStored"`
	RewardForDuration *math.HexOrDecimal256 `json:"rewardForDuration"`
}

type AccountReward struct {
	Token        farm.Address          `json:"token"`
	Earned       *math.HexOrDecimal256 `json:"earned"`
	Owed         *math.HexOrDecimal256 `json:"owed"`
	PerTokenPaid *math.HexOrDecimal256 `json:"perTokenPaid"`
}

type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	Rewards []AccountReward       `json:"rewards"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

func convertSummary(s *campaign.Summary) *Summary {
	tokens := s.RewardTokens
	if tokens == nil {
		tokens = []farm.Address{}
	}
	return &Summary{
		Address:      s.Address,
		StakingToken: s.StakingToken,
		Owner:        s.Owner,
		Paused:       s.Paused,
		TotalStaked:  hex(s.TotalStaked),
		Stakers:      s.Stakers,
		RewardTokens: tokens,
	}
}

func convertReward(token farm.Address, r *rewards.Reward, status rewards.Status) (*Reward, error) {
	forDuration, err := r.ForDuration()
	if err != nil {
		return nil, err
	}
	return &Reward{
		Token:             token,
		Native:            r.Native,
		Status:            status.String(),
		Duration:          r.Duration,
		PeriodFinish:      r.PeriodFinish,
		Rate:              hex(r.Rate),
		LastUpdate:        r.LastUpdate,
		PerTokenStored:    hex(r.PerTokenStored),
		RewardForDuration: hex(forDuration),
	}, nil
}

func convertAccount(balance *big.Int, accounts []campaign.Account) *Account {
	acc := &Account{Balance: hex(balance), Rewards: make([]AccountReward, 0, len(accounts))}
	for _, a := range accounts {
		acc.Rewards = append(acc.Rewards, AccountReward{
			Token:        a.Token,
			Earned:       hex(a.Earned),
			Owed:         hex(a.Owed),
			PerTokenPaid: hex(a.PerTokenPaid),
		})
	}
	return acc
}
