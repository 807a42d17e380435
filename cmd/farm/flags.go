// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for campaign and event databases",
	}
	inMemoryFlag = cli.BoolFlag{
		Name:  "in-memory",
		Usage: "keep all state in memory, nothing survives a restart",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /logs/event",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Usage: "all queries with duration longer than this threshold (in milliseconds) will be logged",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log all requests answered with a 5xx status",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection, served at /metrics",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Usage: "admin service listening address, disabled when empty",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	tokenAFlag = cli.StringFlag{
		Name:  "token-a",
		Usage: "first token of the staking pool",
	}
	tokenBFlag = cli.StringFlag{
		Name:  "token-b",
		Usage: "second token of the staking pool",
	}
	campaignOwnerFlag = cli.StringFlag{
		Name:  "campaign-owner",
		Usage: "owner of the deployed campaign, defaults to the factory owner",
	}
	tokensFlag = cli.StringFlag{
		Name:  "tokens",
		Usage: "comma separated list of reward tokens",
	}
	removeFlag = cli.BoolFlag{
		Name:  "remove",
		Usage: "remove the tokens instead of adding them",
	}
)
