// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/farm/admin"
	"github.com/vechain/farm/api"
	"github.com/vechain/farm/api/subscriptions"
	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/logdb"
	"github.com/vechain/farm/lvldb"
	"github.com/vechain/farm/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Farm",
		Usage:     "Staking campaign reward service",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			inMemoryFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			adminAddrFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "deploy",
				Usage:  "deploy a campaign for the pool of two tokens",
				Flags:  []cli.Flag{tokenAFlag, tokenBFlag, campaignOwnerFlag},
				Action: deployAction,
			},
			{
				Name:   "whitelist",
				Usage:  "add or remove reward tokens from the whitelist",
				Flags:  []cli.Flag{tokensFlag, removeFlag},
				Action: whitelistAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// node holds the opened databases and contracts.
type node struct {
	*components
	cfg      *Config
	mainDB   *lvldb.LevelDB
	logDB    *logdb.LogDB
	hub      *subscriptions.Hub
	logLevel *slog.LevelVar
}

func openNode(ctx *cli.Context) (*node, error) {
	logLevel := initLogger(ctx)

	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	inMemory := ctx.GlobalBool(inMemoryFlag.Name)
	mainDB, err := openMainDB(cfg, inMemory)
	if err != nil {
		return nil, err
	}
	logDB, err := openLogDB(cfg, inMemory)
	if err != nil {
		mainDB.Close()
		return nil, err
	}
	// live subscribers first, a failing log database must not starve them
	hub := subscriptions.NewHub(cfg.SubscriptionBuffer)
	comps, err := openComponents(cfg, mainDB, event.Multi{hub, logDB})
	if err != nil {
		logDB.Close()
		mainDB.Close()
		return nil, err
	}
	log.Info("databases opened", "dir", cfg.DataDir, "memory", inMemory, "sqlite", logDB.DriverVersion())
	return &node{comps, cfg, mainDB, logDB, hub, logLevel}, nil
}

func (n *node) Close() {
	log.Info("closing log database...")
	if err := n.logDB.Close(); err != nil {
		log.Warn("failed to close log database", "err", err)
	}
	log.Info("closing main database...")
	if err := n.mainDB.Close(); err != nil {
		log.Warn("failed to close main database", "err", err)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { log.Info("exited") }()

	if ctx.GlobalBool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()
	cfg := n.cfg

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(ctx.GlobalBool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(n.factory, n.logDB, n.hub, api.Options{
		AllowedOrigins:       cfg.APICors,
		PprofOn:              ctx.GlobalBool(pprofFlag.Name),
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: time.Duration(ctx.GlobalUint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.GlobalBool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.GlobalBool(enableMetricsFlag.Name),
		LogsLimit:            cfg.LogsLimit,
	})

	if addr := ctx.GlobalString(adminAddrFlag.Name); addr != "" {
		url, closeAdmin, err := admin.StartServer(addr, n.logLevel, enableReqLogger)
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping admin server..."); closeAdmin() }()
		log.Info("admin server started", "url", url)
	}

	listener, err := net.Listen("tcp", cfg.APIAddr)
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", cfg.APIAddr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	log.Info("API server started", "url", "http://"+listener.Addr().String()+"/")

	g, gctx := errgroup.WithContext(exitSignal)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("stopping API server...")
		closeSubs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func deployAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()
	cfg := n.cfg
	tokenA, err := farm.ParseAddress(ctx.String(tokenAFlag.Name))
	if err != nil {
		return errors.WithMessage(err, tokenAFlag.Name)
	}
	tokenB, err := farm.ParseAddress(ctx.String(tokenBFlag.Name))
	if err != nil {
		return errors.WithMessage(err, tokenBFlag.Name)
	}
	owner := cfg.Owner
	if s := ctx.String(campaignOwnerFlag.Name); s != "" {
		if owner, err = farm.ParseAddress(s); err != nil {
			return errors.WithMessage(err, campaignOwnerFlag.Name)
		}
	}

	addr, err := n.factory.Deploy(cfg.Owner, owner, tokenA, tokenB)
	if err != nil {
		return err
	}
	fmt.Println(addr)
	return nil
}

func whitelistAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()
	cfg := n.cfg
	tokens, err := parseAddresses(ctx.String(tokensFlag.Name))
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("no tokens given")
	}
	return n.whitelist.SetWhitelist(cfg.Owner, tokens, !ctx.Bool(removeFlag.Name))
}
