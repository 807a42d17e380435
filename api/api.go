// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/farm/api/campaigns"
	"github.com/vechain/farm/api/events"
	"github.com/vechain/farm/api/middleware"
	"github.com/vechain/farm/api/subscriptions"
	"github.com/vechain/farm/log"
	"github.com/vechain/farm/logdb"
	"github.com/vechain/farm/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	SkipLogs             bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	LogsLimit            uint64
}

// New return api router and a func closing the open subscriptions.
// The subscription endpoints are mounted when hub is not nil.
func New(source campaigns.Source, logDB *logdb.LogDB, hub *subscriptions.Hub, opts Options) (http.Handler, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	campaigns.New(source).
		Mount(router, "/campaigns")
	if !opts.SkipLogs && logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	closeSubs := func() {}
	if hub != nil {
		subs := subscriptions.New(hub, origins)
		subs.Mount(router, "/subscriptions")
		closeSubs = subs.Close
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Name("metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	if opts.EnableReqLogger == nil {
		opts.EnableReqLogger = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler, closeSubs
}
