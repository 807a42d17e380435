// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
)

const sampleConfig = `
data-dir: /var/lib/farm
api-addr: 0.0.0.0:8680
owner: 0x000000000000000000000000000000000000aaaa
wrapped: 0x000000000000000000000000000000000000bbbb
treasury: 0x000000000000000000000000000000000000cccc
fee-token: 0x000000000000000000000000000000000000dddd
enable-fee: "1000000000000000000"
notify-fee-bps: 50
max-rewards-duration: 5184000
pools:
  - token-a: 0x0000000000000000000000000000000000001111
    token-b: 0x000000000000000000000000000000000000bbbb
whitelist:
  - 0x0000000000000000000000000000000000001111
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "farm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, defaultDataDir(), cfg.DataDir)
	assert.Equal(t, "localhost:8680", cfg.APIAddr)
	assert.Equal(t, uint64(1000), cfg.LogsLimit)
	assert.True(t, cfg.RequireWhitelist)
	assert.Equal(t, farm.Year, cfg.MaxRewardsDuration)
	assert.Equal(t, 256, cfg.SubscriptionBuffer)

	assert.Error(t, cfg.Validate(), "owner and wrapped token are required")
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/farm", cfg.DataDir)
	assert.Equal(t, "0.0.0.0:8680", cfg.APIAddr)
	assert.Equal(t, farm.MustParseAddress("0x000000000000000000000000000000000000aaaa"), cfg.Owner)
	assert.True(t, cfg.RequireWhitelist, "defaults survive a partial file")
	require.Len(t, cfg.Pools, 1)
	assert.Equal(t, farm.MustParseAddress("0x000000000000000000000000000000000000bbbb"), cfg.Pools[0].TokenB)
	assert.Equal(t, []farm.Address{farm.MustParseAddress("0x0000000000000000000000000000000000001111")}, cfg.Whitelist)
	require.NoError(t, cfg.Validate())

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", policy.EnableFee.String())
	assert.Equal(t, uint64(50), policy.NotifyFeeBPS)
	assert.Equal(t, uint64(2*farm.Month), policy.MaxRewardsDuration)
	assert.Equal(t, cfg.FeeToken, policy.FeeToken)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("FARM_API_ADDR", "127.0.0.1:9000")
	t.Setenv("FARM_REQUIRE_WHITELIST", "false")
	t.Setenv("FARM_NOTIFY_FEE_BPS", "25")
	t.Setenv("FARM_OWNER", "0x000000000000000000000000000000000000eeee")
	t.Setenv("FARM_SUBSCRIPTION_BUFFER", "8")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.APIAddr)
	assert.False(t, cfg.RequireWhitelist)
	assert.Equal(t, uint64(25), cfg.NotifyFeeBPS)
	assert.Equal(t, farm.MustParseAddress("0x000000000000000000000000000000000000eeee"), cfg.Owner)
	assert.Equal(t, "/var/lib/farm", cfg.DataDir)
	assert.Equal(t, 8, cfg.SubscriptionBuffer)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "owner: not-an-address\n"))
	assert.Error(t, err)

	t.Setenv("FARM_NOTIFY_FEE_BPS", "lots")
	_, err = loadConfig("")
	assert.Error(t, err)
}

func TestConfigPolicy(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"bad fee", func(c *Config) { c.EnableFee = "ten" }, true},
		{"fee without token", func(c *Config) { c.EnableFee = "10" }, true},
		{"fee with token", func(c *Config) { c.EnableFee = "0x0a"; c.FeeToken = farm.BytesToAddress([]byte("fee")) }, false},
		{"notify fee too high", func(c *Config) { c.NotifyFeeBPS = farm.BasisPoints }, true},
		{"inverted durations", func(c *Config) { c.MinRewardsDuration = c.MaxRewardsDuration }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			_, err := cfg.Policy()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseAddresses(t *testing.T) {
	addrs, err := parseAddresses(" 0x0000000000000000000000000000000000001111, ,0x0000000000000000000000000000000000002222")
	require.NoError(t, err)
	assert.Len(t, addrs, 2)

	addrs, err = parseAddresses("")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	_, err = parseAddresses("0x11")
	assert.Error(t, err)
}

func TestOpenComponents(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()

	mainDB, err := openMainDB(cfg, false)
	require.NoError(t, err)
	defer mainDB.Close()
	logDB, err := openLogDB(cfg, false)
	require.NoError(t, err)
	defer logDB.Close()

	comps, err := openComponents(cfg, mainDB, logDB)
	require.NoError(t, err)
	owner, err := comps.factory.Owner()
	require.NoError(t, err)
	assert.Equal(t, cfg.Owner, owner)
	ok, err := comps.whitelist.IsWhitelisted(cfg.Whitelist[0])
	require.NoError(t, err)
	assert.True(t, ok)

	addr, err := comps.factory.Deploy(cfg.Owner, cfg.Owner, cfg.Pools[0].TokenA, cfg.Pools[0].TokenB)
	require.NoError(t, err)

	// a second start finds the initialized contracts
	comps, err = openComponents(cfg, mainDB, logDB)
	require.NoError(t, err)
	campaigns, err := comps.factory.Campaigns()
	require.NoError(t, err)
	assert.Equal(t, []farm.Address{addr}, campaigns)

	require.NoError(t, comps.bank.Mint(cfg.Whitelist[0], cfg.Owner, big.NewInt(1)))
	for _, b := range []kv.Bucket{bankBucket, whitelistBucket, factoryBucket, factoryBucket + "campaigns/"} {
		assert.NotZero(t, countKeys(t, b.NewStore(mainDB)), "bucket %q", b)
	}
	assert.Equal(t, countKeys(t, mainDB), countKeys(t, bankBucket.NewStore(mainDB))+
		countKeys(t, whitelistBucket.NewStore(mainDB))+
		countKeys(t, factoryBucket.NewStore(mainDB)), "records outside the contract buckets")
}

func countKeys(t *testing.T, store kv.Store) int {
	iter := store.Iterate(kv.Range{})
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	require.NoError(t, iter.Error())
	return n
}
