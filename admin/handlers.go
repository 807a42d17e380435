// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/log"
)

type LogLevel struct {
	Level string `json:"level"`
}

type LogLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type APILogs struct {
	Enabled bool `json:"enabled"`
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	}
	return 0, errors.Errorf("invalid verbosity level %q", name)
}

func (a *Admin) getLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &LogLevelResponse{CurrentLevel: a.logLevel.Level().String()})
}

func (a *Admin) postLogLevel(w http.ResponseWriter, req *http.Request) error {
	var body LogLevel
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	level, err := ParseLevel(body.Level)
	if err != nil {
		return utils.BadRequest(err)
	}
	a.logLevel.Set(level)
	log.Info("log level changed", "level", level)
	return utils.WriteJSON(w, &LogLevelResponse{CurrentLevel: a.logLevel.Level().String()})
}

func (a *Admin) getAPILogs(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &APILogs{Enabled: a.apiLogs.Load()})
}

func (a *Admin) postAPILogs(w http.ResponseWriter, req *http.Request) error {
	var body APILogs
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	a.apiLogs.Store(body.Enabled)
	return utils.WriteJSON(w, &APILogs{Enabled: a.apiLogs.Load()})
}
