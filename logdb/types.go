// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
)

// Event is an event.Event as stored, with its insertion sequence.
type Event struct {
	Seq uint64
	*event.Event
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds event time, both ends inclusive. A To below From leaves the range open-ended.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-nil field.
type EventCriteria struct {
	Address *farm.Address // campaign, factory or whitelist
	Name    string
	Account *farm.Address
	Token   *farm.Address
}

// EventFilter selects events matching any of CriteriaSet.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order //default asc
}
