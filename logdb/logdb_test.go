// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/logdb"
	"github.com/vechain/farm/test/datagen"
)

var (
	campaignA = farm.BytesToAddress([]byte("campaign-a"))
	campaignB = farm.BytesToAddress([]byte("campaign-b"))
	alice     = farm.BytesToAddress([]byte("alice"))
	bob       = farm.BytesToAddress([]byte("bob"))
	token     = farm.BytesToAddress([]byte("token"))
)

func newEvents() []*event.Event {
	var events []*event.Event
	for i := range 20 {
		addr, user := campaignA, alice
		if i%2 == 1 {
			addr = campaignB
		}
		if i%4 >= 2 {
			user = bob
		}
		name := "Staked"
		if i%5 == 0 {
			name = "RewardPaid"
		}
		ev := event.New(addr, name).WithAccount(user).With("amount", big.NewInt(int64(i)))
		if name == "RewardPaid" {
			ev.WithToken(token)
		}
		ev.Time = uint64(100 + i)
		events = append(events, ev)
	}
	return events
}

func filter(t *testing.T, db *logdb.LogDB, f *logdb.EventFilter) []*logdb.Event {
	events, err := db.FilterEvents(context.Background(), f)
	require.NoError(t, err)
	return events
}

func TestWriteAndFilter(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	evs := newEvents()
	require.NoError(t, db.Write(evs[:10]))
	require.NoError(t, db.Write(evs[10:]))
	require.NoError(t, db.Write(nil))

	all := filter(t, db, nil)
	require.Len(t, all, 20)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, evs[3].Address, all[3].Address)
	assert.Equal(t, evs[3].Account, all[3].Account)
	assert.Equal(t, "3", all[3].Values["amount"])
	assert.True(t, all[3].Token.IsZero())
	assert.Equal(t, token, all[5].Token)

	tests := []struct {
		name     string
		filter   *logdb.EventFilter
		expected []int
	}{
		{
			"by campaign",
			&logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &campaignA}}},
			[]int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18},
		},
		{
			"by campaign and account",
			&logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &campaignB, Account: &bob}}},
			[]int{3, 7, 11, 15, 19},
		},
		{
			"by name or token",
			&logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "RewardPaid"}, {Token: &token}}},
			[]int{0, 5, 10, 15},
		},
		{
			"time range",
			&logdb.EventFilter{Range: &logdb.Range{From: 105, To: 107}},
			[]int{5, 6, 7},
		},
		{
			"open range with criteria",
			&logdb.EventFilter{
				Range:       &logdb.Range{From: 115},
				CriteriaSet: []*logdb.EventCriteria{{Name: "RewardPaid"}},
			},
			[]int{15},
		},
		{
			"descending with paging",
			&logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Offset: 1, Limit: 3}},
			[]int{18, 17, 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter(t, db, tt.filter)
			var idx []int
			for _, ev := range got {
				idx = append(idx, int(ev.Seq)-1)
			}
			assert.Equal(t, tt.expected, idx)
		})
	}
}

func TestFilterCancelled(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Write(newEvents()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.FilterEvents(ctx, &logdb.EventFilter{})
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := logdb.New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	ev := event.New(datagen.RandAddress(), "PauseChanged").With("paused", true)
	ev.Time = 7
	require.NoError(t, db.Write([]*event.Event{ev}))
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()

	got := filter(t, db, nil)
	require.Len(t, got, 1)
	assert.Equal(t, ev.Address, got[0].Address)
	assert.Equal(t, "true", got[0].Values["paused"])
	assert.Equal(t, uint64(7), got[0].Time)
}
