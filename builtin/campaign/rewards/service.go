// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/fixedpoint"
)

var (
	slotRewardTokens = farm.BytesToBytes32([]byte("reward-tokens"))
	slotRewardData   = farm.BytesToBytes32([]byte("reward-data"))
)

// Service is the registry of reward tokens of one campaign.
type Service struct {
	tokens *solidity.Array[farm.Address]
	data   *solidity.Mapping[farm.Address, *Reward]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		tokens: solidity.NewArray[farm.Address](sctx, slotRewardTokens),
		data:   solidity.NewMapping[farm.Address, *Reward](sctx, slotRewardData),
	}
}

// Get returns the record of token. An unknown token yields an unconfigured record.
func (s *Service) Get(token farm.Address) (*Reward, error) {
	r, err := s.data.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward")
	}
	return r, nil
}

func (s *Service) set(token farm.Address, r *Reward) error {
	if err := s.data.Set(token, r); err != nil {
		return errors.Wrap(err, "failed to set reward")
	}
	return nil
}

// Tokens returns every reward token ever enabled, in enable order.
func (s *Service) Tokens() ([]farm.Address, error) {
	return s.tokens.All()
}

// Enable configures token with a duration. A token seen for the first time is
// appended to the token list and its payout form is fixed. It fails while a
// period is still running or when a later call asks for the other form.
func (s *Service) Enable(token farm.Address, native bool, duration uint64, now uint64) (bool, error) {
	r, err := s.Get(token)
	if err != nil {
		return false, err
	}
	if r.Status(now) == StatusActive {
		return false, reverts.New(reverts.PeriodActive, "reward period still active")
	}
	added := !r.IsConfigured()
	if added {
		if err := s.tokens.Push(token); err != nil {
			return false, err
		}
		r.Native = native
	} else if r.Native != native {
		return false, reverts.Newf(reverts.InvalidToken, "payout form of %v is fixed (native=%v)", token, r.Native)
	}
	r.Duration = duration
	return added, s.set(token, r)
}

// SetDuration changes the period length of a configured token once its period lapsed.
func (s *Service) SetDuration(token farm.Address, duration uint64, now uint64) error {
	r, err := s.Get(token)
	if err != nil {
		return err
	}
	if !r.IsConfigured() {
		return reverts.New(reverts.NotConfigured, "reward token not enabled")
	}
	if r.Status(now) == StatusActive {
		return reverts.New(reverts.PeriodActive, "reward period still active")
	}
	r.Duration = duration
	return s.set(token, r)
}

// Checkpoint brings the accumulator of token current to now and returns it.
func (s *Service) Checkpoint(token farm.Address, totalStaked *big.Int, now uint64) (*big.Int, error) {
	r, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	perToken, err := r.PerToken(totalStaked, now)
	if err != nil {
		return nil, err
	}
	r.PerTokenStored = perToken
	if applicable := r.LastTimeApplicable(now); applicable > r.LastUpdate {
		r.LastUpdate = applicable
	}
	if err := s.set(token, r); err != nil {
		return nil, err
	}
	return perToken, nil
}

// Notify funds a new period of token with amount over duration. When the
// current period is still running its undistributed remainder is blended in.
// The accumulator must be checkpointed at now beforehand.
func (s *Service) Notify(token farm.Address, amount *big.Int, duration uint64, now uint64) (*Reward, error) {
	r, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	if !r.IsConfigured() {
		return nil, reverts.New(reverts.NotConfigured, "reward token not enabled")
	}
	if duration == 0 {
		duration = r.Duration
	}

	total := new(big.Int).Set(amount)
	if now < r.PeriodFinish {
		leftover, err := r.Leftover(now)
		if err != nil {
			return nil, err
		}
		total.Add(total, leftover)
	}
	rate, err := fixedpoint.Div(total, new(big.Int).SetUint64(duration))
	if err != nil {
		return nil, err
	}
	if rate.Sign() == 0 {
		return nil, reverts.Newf(reverts.RateTooLow, "reward rate too low: %v over %d seconds", total, duration)
	}

	r.Rate = rate
	r.Duration = duration
	r.LastUpdate = now
	r.PeriodFinish = now + duration
	if err := s.set(token, r); err != nil {
		return nil, err
	}
	return r, nil
}
