// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/farm/asset"
	"github.com/vechain/farm/builtin/factory"
	"github.com/vechain/farm/builtin/whitelist"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/kv"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/logdb"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/pool"
)

var (
	factoryAddress   = farm.BytesToAddress([]byte("factory"))
	whitelistAddress = farm.BytesToAddress([]byte("whitelist"))
)

// each contract owns a bucket of the main database
var (
	bankBucket      = kv.Bucket("bank/")
	whitelistBucket = kv.Bucket("whitelist/")
	factoryBucket   = kv.Bucket("factory/")
)

// initLogger installs the root handler and returns its level, adjustable through the admin API.
func initLogger(ctx *cli.Context) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(log.FromVerbosity(ctx.GlobalInt(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(os.Stderr, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(os.Stderr, level, useColor)
	}
	log.SetDefault(log.New(handler))
	return level
}

// makeConfig loads the configuration and applies the command line flags that were set.
func makeConfig(ctx *cli.Context) (*Config, error) {
	cfg, err := loadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(apiAddrFlag.Name) {
		cfg.APIAddr = ctx.GlobalString(apiAddrFlag.Name)
	}
	if ctx.GlobalIsSet(apiCorsFlag.Name) {
		cfg.APICors = ctx.GlobalString(apiCorsFlag.Name)
	}
	if ctx.GlobalIsSet(apiLogsLimitFlag.Name) {
		cfg.LogsLimit = ctx.GlobalUint64(apiLogsLimitFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "config")
	}
	return cfg, nil
}

func openMainDB(cfg *Config, inMemory bool) (*lvldb.LevelDB, error) {
	if inMemory {
		return lvldb.NewMem()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	dir := filepath.Join(cfg.DataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func openLogDB(cfg *Config, inMemory bool) (*logdb.LogDB, error) {
	if inMemory {
		return logdb.NewMem()
	}
	dir := filepath.Join(cfg.DataDir, "events.db")
	db, err := logdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", dir)
	}
	return db, nil
}

// components are the contracts of a running node.
type components struct {
	bank      *asset.Ledger
	pools     *pool.Memory
	whitelist *whitelist.Whitelist
	factory   *factory.Factory
}

// openComponents wires the contracts on top of the databases, initializing
// ownership on first start.
func openComponents(cfg *Config, mainDB *lvldb.LevelDB, sink event.Sink) (*components, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	pools := pool.NewMemory()
	for _, p := range cfg.Pools {
		id := pools.Add(p.TokenA, p.TokenB)
		log.Debug("pool registered", "tokenA", p.TokenA, "tokenB", p.TokenB, "id", id)
	}

	list := whitelist.New(whitelistAddress, whitelistBucket.NewStore(mainDB), cfg.Wrapped, pools, farm.SystemClock, sink)
	if owner, err := list.Owner(); err != nil {
		return nil, err
	} else if owner.IsZero() {
		if err := list.Initialize(cfg.Owner); err != nil {
			return nil, errors.WithMessage(err, "initialize whitelist")
		}
	}
	if len(cfg.Whitelist) > 0 {
		if err := list.SetWhitelist(cfg.Owner, cfg.Whitelist, true); err != nil {
			return nil, errors.WithMessage(err, "whitelist")
		}
	}

	bank := asset.NewLedger(bankBucket.NewStore(mainDB), cfg.Wrapped)
	f, err := factory.New(factoryAddress, factoryBucket.NewStore(mainDB), factory.Options{
		Clock:     farm.SystemClock,
		Bank:      bank,
		Pools:     pools,
		Whitelist: list,
		Treasury:  cfg.Treasury,
		Policy:    policy,
		Events:    sink,
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	if owner, err := f.Owner(); err != nil {
		return nil, err
	} else if owner.IsZero() {
		if err := f.Initialize(cfg.Owner); err != nil {
			return nil, errors.WithMessage(err, "initialize factory")
		}
	}
	return &components{bank, pools, list, f}, nil
}

func parseAddresses(s string) ([]farm.Address, error) {
	var addrs []farm.Address
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := farm.ParseAddress(part)
		if err != nil {
			return nil, errors.WithMessagef(err, "address %q", part)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".farm")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
