// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/campaign/rewards"
	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/lvldb"
)

var (
	campaignAddr = farm.BytesToAddress([]byte("campaign"))
	stakingToken = farm.BytesToAddress([]byte("lp-token"))
	rewardA      = farm.BytesToAddress([]byte("reward-a"))
	rewardB      = farm.BytesToAddress([]byte("reward-b"))
	wrapped      = farm.BytesToAddress([]byte("wrapped-native"))
	feeToken     = farm.BytesToAddress([]byte("fee-token"))
	owner        = farm.BytesToAddress([]byte("owner"))
	treasury     = farm.BytesToAddress([]byte("treasury"))
	alice        = farm.BytesToAddress([]byte("alice"))
	bob          = farm.BytesToAddress([]byte("bob"))
	carol        = farm.BytesToAddress([]byte("carol"))

	// plenty of every token for every account
	supply = new(big.Int).Lsh(big.NewInt(1), 120)
)

type stubCollaborator struct {
	whitelisted map[farm.Address]bool
}

func (s *stubCollaborator) IsRewardTokenWhitelisted(token farm.Address) (bool, error) {
	return s.whitelisted[token], nil
}

func (s *stubCollaborator) CollectFee(batch *asset.Batch, fee asset.Asset, custodian, payer farm.Address, amount *big.Int) error {
	batch.TransferIn(fee, payer, custodian, amount)
	batch.TransferOut(fee, custodian, treasury, amount)
	return nil
}

type CampaignTest struct {
	*Campaign
	t      *testing.T
	db     *lvldb.LevelDB
	clock  *farm.ManualClock
	bank   *asset.Ledger
	collab *stubCollaborator
	events *event.Recorder
}

func newTest(t *testing.T) *CampaignTest {
	return newTestWithPolicy(t, DefaultPolicy())
}

func newTestWithPolicy(t *testing.T, policy Policy) *CampaignTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ct := &CampaignTest{
		t:     t,
		db:    db,
		clock: farm.NewManualClock(1_000_000),
		bank:  asset.NewLedger(db, wrapped),
		collab: &stubCollaborator{whitelisted: map[farm.Address]bool{
			rewardA: true,
			rewardB: true,
			wrapped: true,
		}},
		events: &event.Recorder{},
	}
	ct.Campaign = ct.open(policy)
	require.NoError(t, ct.Initialize(owner, stakingToken))

	for _, acc := range []farm.Address{owner, alice, bob, carol} {
		for _, token := range []farm.Address{stakingToken, rewardA, rewardB, feeToken} {
			require.NoError(t, ct.bank.Mint(token, acc, supply))
			require.NoError(t, ct.bank.Approve(token, acc, campaignAddr, supply))
		}
		require.NoError(t, ct.bank.MintNative(acc, supply))
		require.NoError(t, ct.bank.Deposit(acc, new(big.Int).Rsh(supply, 1)))
		require.NoError(t, ct.bank.Approve(wrapped, acc, campaignAddr, supply))
	}
	ct.events.Reset()
	return ct
}

func (ct *CampaignTest) open(policy Policy) *Campaign {
	c, err := New(campaignAddr, ct.db, Options{
		Clock:        ct.clock.Now,
		Bank:         ct.bank,
		Collaborator: ct.collab,
		Policy:       policy,
		Events:       ct.events,
	})
	require.NoError(ct.t, err)
	return c
}

// At sets the clock to start + offset seconds.
func (ct *CampaignTest) At(offset uint64) *CampaignTest {
	ct.clock.Set(1_000_000 + offset)
	return ct
}

func (ct *CampaignTest) Advance(d uint64) *CampaignTest {
	ct.clock.Advance(d)
	return ct
}

func (ct *CampaignTest) Enable(token farm.Address, duration uint64) *CampaignTest {
	require.NoError(ct.t, ct.EnableReward(owner, token, false, duration))
	return ct
}

func (ct *CampaignTest) EnableNative(token farm.Address, duration uint64) *CampaignTest {
	require.NoError(ct.t, ct.EnableReward(owner, token, true, duration))
	return ct
}

func (ct *CampaignTest) Notify(token farm.Address, amount int64) *CampaignTest {
	require.NoError(ct.t, ct.NotifyRewardAmount(owner, token, big.NewInt(amount), 0))
	return ct
}

func (ct *CampaignTest) StakeOK(user farm.Address, amount int64) *CampaignTest {
	require.NoError(ct.t, ct.Stake(user, big.NewInt(amount)))
	return ct
}

func (ct *CampaignTest) WithdrawOK(user farm.Address, amount int64) *CampaignTest {
	require.NoError(ct.t, ct.Withdraw(user, big.NewInt(amount)))
	return ct
}

func (ct *CampaignTest) ClaimOK(user farm.Address) *CampaignTest {
	require.NoError(ct.t, ct.GetReward(user))
	return ct
}

// AssertKind checks err is a revert of kind.
func (ct *CampaignTest) AssertKind(err error, kind reverts.Kind) *CampaignTest {
	require.Error(ct.t, err)
	assert.True(ct.t, reverts.Is(err, kind), "expected %v, got %v", kind, err)
	return ct
}

func (ct *CampaignTest) AssertEarned(user, token farm.Address, expected int64) *CampaignTest {
	earned, err := ct.Earned(user, token)
	require.NoError(ct.t, err)
	assert.Equal(ct.t, big.NewInt(expected).String(), earned.String(), "earned of %v", user)
	return ct
}

func (ct *CampaignTest) AssertBalance(user farm.Address, expected int64) *CampaignTest {
	bal, err := ct.BalanceOf(user)
	require.NoError(ct.t, err)
	assert.Equal(ct.t, big.NewInt(expected).String(), bal.String())
	return ct
}

func (ct *CampaignTest) AssertStatus(token farm.Address, expected rewards.Status) *CampaignTest {
	status, err := ct.Status(token)
	require.NoError(ct.t, err)
	assert.Equal(ct.t, expected, status)
	return ct
}

// AssertWallet checks how much token user received since setup.
func (ct *CampaignTest) AssertWallet(user, token farm.Address, received int64) *CampaignTest {
	bal, err := ct.bank.BalanceOf(token, user)
	require.NoError(ct.t, err)
	start := supply
	if token == wrapped {
		start = new(big.Int).Rsh(supply, 1)
	}
	assert.Equal(ct.t, big.NewInt(received).String(), new(big.Int).Sub(bal, start).String(), "wallet %v of %v", token, user)
	return ct
}

// AssertConservation checks the staked balances add up to the total and to the custody.
func (ct *CampaignTest) AssertConservation(users ...farm.Address) *CampaignTest {
	sum := new(big.Int)
	for _, u := range users {
		bal, err := ct.BalanceOf(u)
		require.NoError(ct.t, err)
		sum.Add(sum, bal)
	}
	total, err := ct.TotalStaked()
	require.NoError(ct.t, err)
	custody, err := ct.bank.BalanceOf(stakingToken, campaignAddr)
	require.NoError(ct.t, err)

	assert.Equal(ct.t, total.String(), sum.String(), "sum of balances")
	assert.Equal(ct.t, total.String(), custody.String(), "custody")
	return ct
}

func (ct *CampaignTest) Rate(token farm.Address) *big.Int {
	r, err := ct.RewardData(token)
	require.NoError(ct.t, err)
	return r.Rate
}
