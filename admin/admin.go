// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves runtime controls of a running node: the log level and
// API request logging.
package admin

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/farm/api/utils"
)

type Admin struct {
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
}

func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool) *Admin {
	return &Admin{logLevel, apiLogs}
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("GET /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.getLogLevel))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("POST /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.postLogLevel))
	sub.Path("/apilogs").
		Methods(http.MethodGet).
		Name("GET /admin/apilogs").
		HandlerFunc(utils.WrapHandlerFunc(a.getAPILogs))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		Name("POST /admin/apilogs").
		HandlerFunc(utils.WrapHandlerFunc(a.postAPILogs))
}

func HTTPHandler(logLevel *slog.LevelVar, apiLogs *atomic.Bool) http.Handler {
	router := mux.NewRouter()
	New(logLevel, apiLogs).Mount(router, "/admin")
	return handlers.CompressHandler(router)
}

// StartServer serves the admin API on addr until the returned func is called.
func StartServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: HTTPHandler(logLevel, apiLogs), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var g errgroup.Group
	g.Go(func() error {
		return srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		g.Wait()
	}, nil
}
