// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/fixedpoint"
)

// Status is the lifecycle position of a reward token, derived from time.
type Status uint8

const (
	StatusUnconfigured Status = iota
	StatusConfigured          // duration set, never funded
	StatusActive              // funded and now < period finish
	StatusLapsed              // now >= period finish
)

func (s Status) String() string {
	switch s {
	case StatusConfigured:
		return "configured"
	case StatusActive:
		return "active"
	case StatusLapsed:
		return "lapsed"
	default:
		return "unconfigured"
	}
}

// Reward is the durable record of one reward token.
type Reward struct {
	Native         bool
	Duration       uint64
	PeriodFinish   uint64
	Rate           *big.Int
	LastUpdate     uint64
	PerTokenStored *big.Int
}

func (r *Reward) IsConfigured() bool {
	return r != nil && r.Duration > 0
}

// Asset returns the asset paid out for token.
func (r *Reward) Asset(token farm.Address) asset.Asset {
	return asset.Of(token, r.Native)
}

func (r *Reward) rate() *big.Int {
	if r.Rate == nil {
		return new(big.Int)
	}
	return r.Rate
}

func (r *Reward) perTokenStored() *big.Int {
	if r.PerTokenStored == nil {
		return new(big.Int)
	}
	return r.PerTokenStored
}

// Status returns the state of the reward at now.
func (r *Reward) Status(now uint64) Status {
	switch {
	case !r.IsConfigured():
		return StatusUnconfigured
	case r.PeriodFinish == 0:
		return StatusConfigured
	case now < r.PeriodFinish:
		return StatusActive
	default:
		return StatusLapsed
	}
}

// LastTimeApplicable returns min(now, period finish).
func (r *Reward) LastTimeApplicable(now uint64) uint64 {
	return min(now, r.PeriodFinish)
}

// PerToken returns the accumulator brought current to now for the given total stake.
func (r *Reward) PerToken(totalStaked *big.Int, now uint64) (*big.Int, error) {
	stored := r.perTokenStored()
	if totalStaked.Sign() == 0 {
		return new(big.Int).Set(stored), nil
	}
	applicable := r.LastTimeApplicable(now)
	if applicable <= r.LastUpdate {
		return new(big.Int).Set(stored), nil
	}
	delta, err := fixedpoint.ScaledRatio(applicable-r.LastUpdate, r.rate(), totalStaked)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(stored, delta)
}

// ForDuration returns the reward distributed over one full period at the current rate.
func (r *Reward) ForDuration() (*big.Int, error) {
	return fixedpoint.Mul(r.rate(), new(big.Int).SetUint64(r.Duration))
}

// Leftover returns the reward not yet distributed in the current period.
func (r *Reward) Leftover(now uint64) (*big.Int, error) {
	if now >= r.PeriodFinish {
		return new(big.Int), nil
	}
	return fixedpoint.Mul(r.rate(), new(big.Int).SetUint64(r.PeriodFinish-now))
}
