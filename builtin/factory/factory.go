// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package factory deploys campaigns for existing pools and collects the
// protocol fees they charge.
package factory

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/campaign"
	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/cache"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/pool"
	"github.com/vechain/farm/state"
)

var logger = log.WithContext("pkg", "factory")

const (
	EventCampaignDeployed = "CampaignDeployed"
	EventOwnerNominated   = campaign.EventOwnerNominated
	EventOwnerChanged     = campaign.EventOwnerChanged
)

var (
	slotOwner          = farm.BytesToBytes32([]byte("owner"))
	slotNominatedOwner = farm.BytesToBytes32([]byte("nominated-owner"))
	slotCampaigns      = farm.BytesToBytes32([]byte("campaigns"))
	slotDeployed       = farm.BytesToBytes32([]byte("deployed"))
)

// The factory and its campaigns keep their records in separate buckets of the store.
var (
	stateBucket    = kv.Bucket("state/")
	campaignBucket = kv.Bucket("campaigns/")
)

// ErrCampaignNotFound is returned for addresses the factory never deployed.
var ErrCampaignNotFound = errors.New("campaign not found")

// TokenWhitelist answers whether a token may be used as a reward.
type TokenWhitelist interface {
	IsWhitelisted(token farm.Address) (bool, error)
}

// Options configures a factory and every campaign it deploys.
type Options struct {
	Clock     farm.Clock
	Bank      asset.Bank
	Pools     pool.Registry
	Whitelist TokenWhitelist
	Treasury  farm.Address
	Policy    campaign.Policy
	Events    event.Sink
	// CacheSize bounds the deployed-address lookup cache.
	CacheSize int
}

// Factory is the registry of deployed campaigns.
type Factory struct {
	mu      sync.Mutex
	address farm.Address
	store   kv.Store
	state   *state.State
	opts    Options

	campaignStore kv.Store

	owner          *solidity.Address
	nominatedOwner *solidity.Address
	campaigns      *solidity.Array[farm.Address]
	deployed       *solidity.Mapping[farm.Address, bool]

	lookups *cache.LRU[farm.Address, bool]

	instMu    sync.Mutex
	instances map[farm.Address]*campaign.Campaign
}

var _ campaign.Collaborator = (*Factory)(nil)

// New binds the factory stored at address.
func New(address farm.Address, store kv.Store, opts Options) (*Factory, error) {
	if opts.Bank == nil || opts.Pools == nil {
		return nil, errors.New("factory requires a bank and a pool registry")
	}
	if opts.Whitelist == nil && opts.Policy.RequireWhitelist {
		return nil, errors.New("policy requires a token whitelist")
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid policy")
	}
	if opts.Clock == nil {
		opts.Clock = farm.SystemClock
	}
	if opts.Events == nil {
		opts.Events = event.Discard
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	lookups, err := cache.NewLRU[farm.Address, bool](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	own := stateBucket.NewStore(store)
	st := state.New(own)
	sctx := solidity.NewContext(address, st)
	return &Factory{
		address:        address,
		store:          own,
		state:          st,
		opts:           opts,
		campaignStore:  campaignBucket.NewStore(store),
		owner:          solidity.NewAddress(sctx, slotOwner),
		nominatedOwner: solidity.NewAddress(sctx, slotNominatedOwner),
		campaigns:      solidity.NewArray[farm.Address](sctx, slotCampaigns),
		deployed:       solidity.NewMapping[farm.Address, bool](sctx, slotDeployed),
		lookups:        lookups,
		instances:      make(map[farm.Address]*campaign.Campaign),
	}, nil
}

func (f *Factory) execute(op string, fn func(events *[]*event.Event) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []*event.Event
	cp := f.state.NewCheckpoint()
	if err := fn(&events); err != nil {
		f.state.RevertTo(cp)
		logger.Debug("operation reverted", "op", op, "err", err)
		return err
	}
	if err := f.state.Commit(f.store); err != nil {
		f.state.RevertTo(cp)
		logger.Error("failed to commit factory state", "op", op, "err", err)
		return errors.Wrap(err, "commit factory state")
	}
	now := f.opts.Clock()
	for _, ev := range events {
		ev.Time = now
	}
	if len(events) > 0 {
		if err := f.opts.Events.Write(events); err != nil {
			logger.Warn("failed to write events", "op", op, "err", err)
		}
	}
	return nil
}

func (f *Factory) onlyOwner(caller farm.Address) error {
	owner, err := f.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.Unauthorized, "only the contract owner may perform this action")
	}
	return nil
}

// Initialize sets the first owner of a fresh factory.
func (f *Factory) Initialize(owner farm.Address) error {
	return f.execute("initialize", func(*[]*event.Event) error {
		current, err := f.owner.Get()
		if err != nil {
			return err
		}
		if !current.IsZero() {
			return reverts.New(reverts.Unauthorized, "factory already initialized")
		}
		if owner.IsZero() {
			return reverts.New(reverts.Unauthorized, "owner is zero")
		}
		f.owner.Set(owner)
		return nil
	})
}

// Deploy creates a campaign staking the pool token of (tokenA, tokenB) and
// hands it to owner. The pool must exist.
func (f *Factory) Deploy(caller, owner, tokenA, tokenB farm.Address) (addr farm.Address, err error) {
	var initialized bool
	err = f.execute("deploy", func(events *[]*event.Event) error {
		if err := f.onlyOwner(caller); err != nil {
			return err
		}
		if tokenA == tokenB {
			return reverts.New(reverts.InvalidToken, "identical pool tokens")
		}
		exists, err := f.opts.Pools.PoolExists(tokenA, tokenB)
		if err != nil {
			return errors.Wrap(err, "pool lookup")
		}
		if !exists {
			return reverts.Newf(reverts.PoolNotFound, "there is no pool with %v:%v", tokenA, tokenB)
		}
		stakingToken := pool.NewPair(tokenA, tokenB).ID()

		n, err := f.campaigns.Len()
		if err != nil {
			return err
		}
		addr = farm.CreateCampaignAddress(f.address, stakingToken, n)

		if err := f.campaigns.Push(addr); err != nil {
			return err
		}
		if err := f.deployed.Set(addr, true); err != nil {
			return err
		}
		c, err := f.instance(addr)
		if err != nil {
			return err
		}
		// the campaign commits on its own, so it goes last
		if err := c.Initialize(owner, stakingToken); err != nil {
			return err
		}
		initialized = true
		metricCampaigns().Set(int64(n + 1))
		*events = append(*events, event.New(f.address, EventCampaignDeployed).
			WithAccount(owner).
			WithToken(stakingToken).
			With("campaign", addr))
		return nil
	})
	if err != nil {
		if initialized {
			logger.Log(log.LevelCrit, "campaign initialized but not registered", "campaign", addr, "owner", owner, "err", err)
		}
		return farm.Address{}, err
	}
	f.lookups.Add(addr, true)
	logger.Info("campaign deployed", "campaign", addr, "owner", owner)
	return addr, nil
}

// instance returns the single live Campaign bound to addr.
func (f *Factory) instance(addr farm.Address) (*campaign.Campaign, error) {
	f.instMu.Lock()
	defer f.instMu.Unlock()

	if c, ok := f.instances[addr]; ok {
		return c, nil
	}
	c, err := campaign.New(addr, f.campaignStore, campaign.Options{
		Clock:        f.opts.Clock,
		Bank:         f.opts.Bank,
		Collaborator: f,
		Policy:       f.opts.Policy,
		Events:       f.opts.Events,
	})
	if err != nil {
		return nil, err
	}
	f.instances[addr] = c
	return c, nil
}

func (f *Factory) isDeployed(addr farm.Address) (bool, error) {
	return f.lookups.GetOrLoad(addr, func(addr farm.Address) (bool, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.deployed.Get(addr)
	})
}

// Campaign returns the deployed campaign at addr.
func (f *Factory) Campaign(addr farm.Address) (*campaign.Campaign, error) {
	ok, err := f.isDeployed(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return f.instance(addr)
}

// Campaigns lists deployed campaign addresses in deploy order.
func (f *Factory) Campaigns() ([]farm.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaigns.All()
}

func (f *Factory) CampaignsLength() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaigns.Len()
}

// CampaignAt returns the address of the i-th deployed campaign.
func (f *Factory) CampaignAt(i uint64) (farm.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaigns.Get(i)
}

// NominateNewOwner starts an ownership handover to owner.
func (f *Factory) NominateNewOwner(caller, owner farm.Address) error {
	return f.execute("nominate_new_owner", func(events *[]*event.Event) error {
		if err := f.onlyOwner(caller); err != nil {
			return err
		}
		f.nominatedOwner.Set(owner)
		*events = append(*events, event.New(f.address, EventOwnerNominated).WithAccount(owner))
		return nil
	})
}

// AcceptOwnership completes a handover; only the nominated account may call it.
func (f *Factory) AcceptOwnership(caller farm.Address) error {
	return f.execute("accept_ownership", func(events *[]*event.Event) error {
		nominated, err := f.nominatedOwner.Get()
		if err != nil {
			return err
		}
		if nominated.IsZero() || caller != nominated {
			return reverts.New(reverts.Unauthorized, "you must be nominated before you can accept ownership")
		}
		old, err := f.owner.Get()
		if err != nil {
			return err
		}
		f.owner.Set(caller)
		f.nominatedOwner.Set(farm.Address{})
		*events = append(*events, event.New(f.address, EventOwnerChanged).WithAccount(caller).With("oldOwner", old))
		return nil
	})
}

func (f *Factory) Owner() (farm.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner.Get()
}

func (f *Factory) NominatedOwner() (farm.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nominatedOwner.Get()
}

func (f *Factory) Address() farm.Address {
	return f.address
}

// Treasury returns the account receiving protocol fees.
func (f *Factory) Treasury() farm.Address {
	return f.opts.Treasury
}

//
// campaign.Collaborator
//

// IsRewardTokenWhitelisted implements campaign.Collaborator.
func (f *Factory) IsRewardTokenWhitelisted(token farm.Address) (bool, error) {
	if f.opts.Whitelist == nil {
		return true, nil
	}
	return f.opts.Whitelist.IsWhitelisted(token)
}

// CollectFee implements campaign.Collaborator. The fee is pulled from payer
// into the campaign's custody and forwarded to the treasury.
func (f *Factory) CollectFee(batch *asset.Batch, fee asset.Asset, custodian, payer farm.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if f.opts.Treasury.IsZero() {
		return errors.New("no treasury configured")
	}
	batch.TransferIn(fee, payer, custodian, amount)
	batch.TransferOut(fee, custodian, f.opts.Treasury, amount)
	return nil
}
