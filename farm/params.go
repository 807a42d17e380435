// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"sync"
	"time"
)

// Time units, in seconds.
const (
	Day   uint64 = 24 * 60 * 60
	Month uint64 = 30 * Day
	Year  uint64 = 365 * Day
)

// Default reward policy bounds, in seconds.
const (
	DefaultMinRewardsDuration uint64 = 0
	DefaultMaxRewardsDuration uint64 = Year
)

// BasisPoints is the denominator of fee ratios.
const BasisPoints uint64 = 10_000

// Clock returns the current time as unix seconds.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock, mostly for tests and replays.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock creates a clock starting at now.
func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

// Now implements Clock.
func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d seconds and returns the new time.
func (c *ManualClock) Advance(d uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}
