// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/api/campaigns"
	"github.com/vechain/farm/api/subscriptions"
	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/campaign"
	"github.com/vechain/farm/builtin/factory"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/logdb"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/metrics"
	"github.com/vechain/farm/pool"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

var (
	wrapped = farm.BytesToAddress([]byte("wrapped"))
	tokenA  = farm.BytesToAddress([]byte("token-a"))
	reward  = farm.BytesToAddress([]byte("reward"))
	owner   = farm.BytesToAddress([]byte("owner"))
	alice   = farm.BytesToAddress([]byte("alice"))
)

type testServer struct {
	*httptest.Server
	campaign farm.Address
	c        *campaign.Campaign
	clock    *farm.ManualClock
	hub      *subscriptions.Hub
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	clock := farm.NewManualClock(1_000)
	bank := asset.NewLedger(db, wrapped)
	pools := pool.NewMemory()
	pools.Add(tokenA, wrapped)

	hub := subscriptions.NewHub(16)

	policy := campaign.DefaultPolicy()
	policy.RequireWhitelist = false
	f, err := factory.New(farm.BytesToAddress([]byte("factory")), db, factory.Options{
		Clock:  clock.Now,
		Bank:   bank,
		Pools:  pools,
		Policy: policy,
		Events: event.Multi{hub, logDB},
	})
	require.NoError(t, err)
	require.NoError(t, f.Initialize(owner))
	addr, err := f.Deploy(owner, owner, tokenA, wrapped)
	require.NoError(t, err)
	c, err := f.Campaign(addr)
	require.NoError(t, err)

	lp := pool.NewPair(tokenA, wrapped).ID()
	for _, mint := range []struct{ token, account farm.Address }{{reward, owner}, {lp, alice}} {
		require.NoError(t, bank.Mint(mint.token, mint.account, big.NewInt(1_000_000)))
		require.NoError(t, bank.Approve(mint.token, mint.account, addr, big.NewInt(1_000_000)))
	}
	require.NoError(t, c.EnableReward(owner, reward, false, 100))
	require.NoError(t, c.NotifyRewardAmount(owner, reward, big.NewInt(10_000), 0))
	require.NoError(t, c.Stake(alice, big.NewInt(50)))
	clock.Advance(10)

	handler, closeSubs := New(f, logDB, hub, Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
		LogsLimit:      100,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Cleanup(closeSubs)
	return &testServer{ts, addr, c, clock, hub}
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func getJSON(t *testing.T, url string, v any) {
	body, code := httpGet(t, url)
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, v))
}

func TestCampaignRoutes(t *testing.T) {
	ts := newTestServer(t)

	var list []campaigns.Summary
	getJSON(t, ts.URL+"/campaigns", &list)
	require.Len(t, list, 1)
	assert.Equal(t, ts.campaign, list[0].Address)
	assert.Equal(t, owner, list[0].Owner)
	assert.Equal(t, uint64(1), list[0].Stakers)
	assert.Equal(t, "50", (*big.Int)(list[0].TotalStaked).String())
	assert.Equal(t, []farm.Address{reward}, list[0].RewardTokens)

	var summary campaigns.Summary
	getJSON(t, ts.URL+"/campaigns/"+ts.campaign.String(), &summary)
	assert.Equal(t, list[0].StakingToken, summary.StakingToken)

	var rewards []campaigns.Reward
	getJSON(t, ts.URL+"/campaigns/"+ts.campaign.String()+"/rewards", &rewards)
	require.Len(t, rewards, 1)
	assert.Equal(t, "active", rewards[0].Status)
	assert.Equal(t, "100", (*big.Int)(rewards[0].Rate).String())
	assert.Equal(t, "10000", (*big.Int)(rewards[0].RewardForDuration).String())

	var account campaigns.Account
	getJSON(t, ts.URL+"/campaigns/"+ts.campaign.String()+"/accounts/"+alice.String(), &account)
	assert.Equal(t, "50", (*big.Int)(account.Balance).String())
	require.Len(t, account.Rewards, 1)
	assert.Equal(t, "1000", (*big.Int)(account.Rewards[0].Earned).String())

	_, code := httpGet(t, ts.URL+"/campaigns/0x1234")
	assert.Equal(t, http.StatusBadRequest, code)
	_, code = httpGet(t, ts.URL+"/campaigns/"+alice.String())
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/campaigns/"+ts.campaign.String()+"/accounts/bad")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEventRoute(t *testing.T) {
	ts := newTestServer(t)

	var evs []map[string]any
	getJSON(t, ts.URL+"/logs/event?campaign="+ts.campaign.String()+"&name=Staked", &evs)
	require.Len(t, evs, 1)
	assert.Equal(t, "Staked", evs[0]["name"])
	assert.Equal(t, "50", evs[0]["values"].(map[string]any)["amount"])
}

func TestSubscriptionRoute(t *testing.T) {
	ts := newTestServer(t)

	_, code := httpGet(t, ts.URL+"/subscriptions/events?account=bad")
	assert.Equal(t, http.StatusBadRequest, code)

	u := url.URL{
		Scheme:   "ws",
		Host:     strings.TrimPrefix(ts.URL, "http://"),
		Path:     "/subscriptions/events",
		RawQuery: "name=RewardPaid&account=" + alice.String(),
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// the handler subscribes right after the upgrade
	require.Eventually(t, func() bool { return ts.hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ts.c.Stake(alice, big.NewInt(1)))
	require.NoError(t, ts.c.GetReward(alice))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev event.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, campaign.EventRewardPaid, ev.Name)
	assert.Equal(t, alice, ev.Account)
	assert.Equal(t, reward, ev.Token)
	assert.Equal(t, ts.campaign, ev.Address)
}

func TestMetricsMiddleware(t *testing.T) {
	ts := newTestServer(t)

	httpGet(t, ts.URL+"/campaigns")
	httpGet(t, ts.URL+"/campaigns/"+alice.String())
	httpGet(t, ts.URL+"/unknown")

	body, code := httpGet(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["farm_api_request_count"]
	require.True(t, ok)
	seen := make(map[string]float64)
	for _, m := range family.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		seen[labels["name"]+":"+labels["code"]] += m.GetCounter().GetValue()
	}
	assert.GreaterOrEqual(t, seen["campaigns:200"], float64(1))
	assert.GreaterOrEqual(t, seen["campaigns_address:404"], float64(1))
	for key := range seen {
		assert.NotContains(t, key, "unknown")
	}

	_, ok = families["farm_campaign_operations_count"]
	assert.True(t, ok)
}
