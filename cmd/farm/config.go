// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/farm/builtin/campaign"
	"github.com/vechain/farm/farm"
)

const envPrefix = "FARM"

// PoolConfig registers a liquidity pool at startup.
type PoolConfig struct {
	TokenA farm.Address `yaml:"token-a"`
	TokenB farm.Address `yaml:"token-b"`
}

// Config is the node configuration. Values come from defaults, then the YAML
// file, then FARM_* environment variables, then command line flags.
type Config struct {
	DataDir   string `yaml:"data-dir" envconfig:"DATA_DIR"`
	APIAddr   string `yaml:"api-addr" envconfig:"API_ADDR"`
	APICors   string `yaml:"api-cors" envconfig:"API_CORS"`
	LogsLimit uint64 `yaml:"api-logs-limit" envconfig:"API_LOGS_LIMIT"`
	CacheSize int    `yaml:"cache-size" envconfig:"CACHE_SIZE"`

	// SubscriptionBuffer is the number of events a websocket subscriber may lag behind.
	SubscriptionBuffer int `yaml:"subscription-buffer" envconfig:"SUBSCRIPTION_BUFFER"`

	Owner    farm.Address `yaml:"owner" envconfig:"OWNER"`
	Wrapped  farm.Address `yaml:"wrapped" envconfig:"WRAPPED"`
	Treasury farm.Address `yaml:"treasury" envconfig:"TREASURY"`
	FeeToken farm.Address `yaml:"fee-token" envconfig:"FEE_TOKEN"`

	// EnableFee is a decimal or 0x-prefixed amount of FeeToken.
	EnableFee            string `yaml:"enable-fee" envconfig:"ENABLE_FEE"`
	NotifyFeeBPS         uint64 `yaml:"notify-fee-bps" envconfig:"NOTIFY_FEE_BPS"`
	MinRewardsDuration   uint64 `yaml:"min-rewards-duration" envconfig:"MIN_REWARDS_DURATION"`
	MaxRewardsDuration   uint64 `yaml:"max-rewards-duration" envconfig:"MAX_REWARDS_DURATION"`
	PermissionlessNotify bool   `yaml:"permissionless-notify" envconfig:"PERMISSIONLESS_NOTIFY"`
	RequireWhitelist     bool   `yaml:"require-whitelist" envconfig:"REQUIRE_WHITELIST"`

	Pools     []PoolConfig   `yaml:"pools" ignored:"true"`
	Whitelist []farm.Address `yaml:"whitelist" envconfig:"WHITELIST"`
}

func defaultConfig() *Config {
	policy := campaign.DefaultPolicy()
	return &Config{
		DataDir:            defaultDataDir(),
		APIAddr:            apiAddrFlag.Value,
		LogsLimit:          apiLogsLimitFlag.Value,
		CacheSize:          256,
		SubscriptionBuffer: 256,
		MinRewardsDuration: policy.MinRewardsDuration,
		MaxRewardsDuration: policy.MaxRewardsDuration,
		RequireWhitelist:   policy.RequireWhitelist,
	}
}

// loadConfig reads the YAML file at path, if any, and applies environment overrides.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config [%v]", path)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "environment")
	}
	return cfg, nil
}

// Policy builds the campaign policy and validates it.
func (c *Config) Policy() (campaign.Policy, error) {
	policy := campaign.Policy{
		MinRewardsDuration:   c.MinRewardsDuration,
		MaxRewardsDuration:   c.MaxRewardsDuration,
		PermissionlessNotify: c.PermissionlessNotify,
		RequireWhitelist:     c.RequireWhitelist,
		FeeToken:             c.FeeToken,
		NotifyFeeBPS:         c.NotifyFeeBPS,
	}
	if c.EnableFee != "" {
		fee, ok := math.ParseBig256(c.EnableFee)
		if !ok {
			return campaign.Policy{}, errors.Errorf("invalid enable fee %q", c.EnableFee)
		}
		policy.EnableFee = fee
	} else {
		policy.EnableFee = new(big.Int)
	}
	if err := policy.Validate(); err != nil {
		return campaign.Policy{}, err
	}
	return policy, nil
}

// Validate checks the addresses a node cannot run without.
func (c *Config) Validate() error {
	if c.Owner.IsZero() {
		return errors.New("owner is required")
	}
	if c.Wrapped.IsZero() {
		return errors.New("wrapped native token is required")
	}
	if _, err := c.Policy(); err != nil {
		return errors.WithMessage(err, "policy")
	}
	return nil
}
