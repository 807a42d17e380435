// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"fmt"
	"math/big"

	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/farm"
)

// Policy holds the knobs that differ between deployments.
type Policy struct {
	// MinRewardsDuration is an exclusive lower bound in seconds.
	MinRewardsDuration uint64 `yaml:"min-rewards-duration" json:"minRewardsDuration"`
	// MaxRewardsDuration is an inclusive upper bound in seconds.
	MaxRewardsDuration uint64 `yaml:"max-rewards-duration" json:"maxRewardsDuration"`
	// PermissionlessNotify lets anyone fund a reward period, not only the owner.
	PermissionlessNotify bool `yaml:"permissionless-notify" json:"permissionlessNotify"`
	// RequireWhitelist restricts reward tokens to the whitelist.
	RequireWhitelist bool `yaml:"require-whitelist" json:"requireWhitelist"`
	// EnableFee is charged in FeeToken on every EnableReward.
	EnableFee *big.Int     `yaml:"-" json:"enableFee,omitempty"`
	FeeToken  farm.Address `yaml:"-" json:"feeToken"`
	// NotifyFeeBPS is taken from every notified amount, in basis points.
	NotifyFeeBPS uint64 `yaml:"notify-fee-bps" json:"notifyFeeBPS"`
}

// DefaultPolicy is owner-only funding of whitelisted tokens for up to a year, without fees.
func DefaultPolicy() Policy {
	return Policy{
		MinRewardsDuration: farm.DefaultMinRewardsDuration,
		MaxRewardsDuration: farm.DefaultMaxRewardsDuration,
		RequireWhitelist:   true,
	}
}

// Validate checks the policy is consistent.
func (p Policy) Validate() error {
	if p.MaxRewardsDuration <= p.MinRewardsDuration {
		return fmt.Errorf("max rewards duration %d must exceed min %d", p.MaxRewardsDuration, p.MinRewardsDuration)
	}
	if p.NotifyFeeBPS >= farm.BasisPoints {
		return fmt.Errorf("notify fee %d bps must be below %d", p.NotifyFeeBPS, farm.BasisPoints)
	}
	if p.EnableFee != nil && p.EnableFee.Sign() < 0 {
		return fmt.Errorf("negative enable fee %v", p.EnableFee)
	}
	if p.EnableFee != nil && p.EnableFee.Sign() > 0 && p.FeeToken.IsZero() {
		return fmt.Errorf("enable fee requires a fee token")
	}
	return nil
}

// CheckDuration fails unless min < duration <= max.
func (p Policy) CheckDuration(duration uint64) error {
	if duration <= p.MinRewardsDuration || duration > p.MaxRewardsDuration {
		return reverts.Newf(reverts.DurationOutOfRange, "duration %d out of range (%d, %d]",
			duration, p.MinRewardsDuration, p.MaxRewardsDuration)
	}
	return nil
}

// NotifyFee returns the protocol fee taken from amount.
func (p Policy) NotifyFee(amount *big.Int) *big.Int {
	if p.NotifyFeeBPS == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(p.NotifyFeeBPS))
	return fee.Div(fee, new(big.Int).SetUint64(farm.BasisPoints))
}

func (p Policy) hasEnableFee() bool {
	return p.EnableFee != nil && p.EnableFee.Sign() > 0
}
