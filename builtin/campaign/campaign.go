// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import (
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/campaign/accrual"
	"github.com/vechain/farm/builtin/campaign/ledger"
	"github.com/vechain/farm/builtin/campaign/rewards"
	"github.com/vechain/farm/builtin/reverts"
	"github.com/vechain/farm/builtin/solidity"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/state"
)

var logger = log.WithContext("pkg", "campaign")

var (
	slotStakingToken   = farm.BytesToBytes32([]byte("staking-token"))
	slotOwner          = farm.BytesToBytes32([]byte("owner"))
	slotNominatedOwner = farm.BytesToBytes32([]byte("nominated-owner"))
	slotPaused         = farm.BytesToBytes32([]byte("paused"))
)

// Collaborator is consulted for reward token whitelisting and protocol fees.
type Collaborator interface {
	IsRewardTokenWhitelisted(token farm.Address) (bool, error)
	// CollectFee adds to batch the transfers moving amount of fee from payer,
	// through the campaign custodian, to the fee recipient.
	CollectFee(batch *asset.Batch, fee asset.Asset, custodian, payer farm.Address, amount *big.Int) error
}

// Options wires a campaign to its environment.
type Options struct {
	Clock        farm.Clock
	Bank         asset.Bank
	Collaborator Collaborator
	Policy       Policy
	Events       event.Sink
}

// Campaign is one staking pool paying one or more reward tokens.
// Every operation runs under the campaign lock against a journaled state and
// either commits with all of its transfers or leaves no trace.
type Campaign struct {
	mu      sync.Mutex
	address farm.Address
	store   kv.Store
	state   *state.State

	clock  farm.Clock
	bank   asset.Bank
	collab Collaborator
	policy Policy
	sink   event.Sink

	stakingToken   *solidity.Address
	owner          *solidity.Address
	nominatedOwner *solidity.Address
	paused         *solidity.Bool

	rewards *rewards.Service
	ledger  *ledger.Service
	engine  *accrual.Engine
}

// New binds the campaign stored at address in store.
func New(address farm.Address, store kv.Store, opts Options) (*Campaign, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid policy")
	}
	if opts.Bank == nil {
		return nil, errors.New("campaign requires a bank")
	}
	if opts.Collaborator == nil && (opts.Policy.RequireWhitelist || opts.Policy.hasEnableFee() || opts.Policy.NotifyFeeBPS > 0) {
		return nil, errors.New("policy requires a whitelist and fee collaborator")
	}
	if opts.Clock == nil {
		opts.Clock = farm.SystemClock
	}
	if opts.Events == nil {
		opts.Events = event.Discard
	}

	st := state.New(store)
	sctx := solidity.NewContext(address, st)
	rw := rewards.New(sctx)
	lg := ledger.New(sctx)

	return &Campaign{
		address: address,
		store:   store,
		state:   st,

		clock:  opts.Clock,
		bank:   opts.Bank,
		collab: opts.Collaborator,
		policy: opts.Policy,
		sink:   opts.Events,

		stakingToken:   solidity.NewAddress(sctx, slotStakingToken),
		owner:          solidity.NewAddress(sctx, slotOwner),
		nominatedOwner: solidity.NewAddress(sctx, slotNominatedOwner),
		paused:         solidity.NewBool(sctx, slotPaused),

		rewards: rw,
		ledger:  lg,
		engine:  accrual.New(sctx, rw, lg),
	}, nil
}

// txn collects the effects of one operation.
type txn struct {
	now    uint64
	batch  *asset.Batch
	events []*event.Event
}

func (c *Campaign) emit(tx *txn, name string) *event.Event {
	ev := event.New(c.address, name)
	tx.events = append(tx.events, ev)
	return ev
}

// execute runs fn as one atomic operation.
func (c *Campaign) execute(op string, fn func(tx *txn) error) (err error) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		metricOperationDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": resultLabel(err)})
	}()

	tx := &txn{now: c.clock(), batch: asset.NewBatch()}
	cp := c.state.NewCheckpoint()

	if err = fn(tx); err == nil {
		err = c.bank.Execute(tx.batch)
	}
	if err != nil {
		c.state.RevertTo(cp)
		logger.Debug("operation reverted", "campaign", c.address, "op", op, "err", err)
		return err
	}
	if err = c.state.Commit(c.store); err != nil {
		c.state.RevertTo(cp)
		// the bank already applied the batch, custody and records now disagree
		logger.Log(log.LevelCrit, "failed to commit campaign state after transfers",
			"campaign", c.address, "op", op, "transfers", tx.batch.Len(), "err", err)
		return errors.Wrap(err, "commit campaign state")
	}

	for _, ev := range tx.events {
		ev.Time = tx.now
	}
	if len(tx.events) > 0 {
		if werr := c.sink.Write(tx.events); werr != nil {
			logger.Warn("failed to write events", "campaign", c.address, "op", op, "err", werr)
		}
	}
	logger.Debug("operation committed", "campaign", c.address, "op", op, "transfers", tx.batch.Len())
	return nil
}

// view runs fn under the campaign lock with the current time.
func (c *Campaign) view(fn func(now uint64) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.clock())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reverts.IsRevertErr(err):
		return "revert"
	default:
		return "error"
	}
}

func (c *Campaign) onlyOwner(caller farm.Address) error {
	owner, err := c.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.Unauthorized, "only the contract owner may perform this action")
	}
	return nil
}

// requireAccount rejects the zero address, which keys the global accumulator.
func requireAccount(user farm.Address) error {
	if user.IsZero() {
		return reverts.New(reverts.Unauthorized, "zero address can not hold a stake")
	}
	return nil
}

func (c *Campaign) requireWhitelisted(token farm.Address) error {
	if !c.policy.RequireWhitelist {
		return nil
	}
	ok, err := c.collab.IsRewardTokenWhitelisted(token)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Newf(reverts.NotWhitelisted, "reward token %v is not whitelisted", token)
	}
	return nil
}

// Address returns the campaign address.
func (c *Campaign) Address() farm.Address {
	return c.address
}

// Policy returns the policy the campaign runs with.
func (c *Campaign) Policy() Policy {
	return c.policy
}
