// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFollowsRootHandler(t *testing.T) {
	// created before the handler is set, like a package level logger
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	SetHandler(NewJSONHandler(&buf, LevelVar(LevelInfo)))
	t.Cleanup(func() { SetHandler(NewJSONHandler(&bytes.Buffer{}, LevelVar(LevelCrit))) })

	logger.Info("staked", "amount", 10)
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "staked", rec["msg"])
	assert.Equal(t, "test", rec["pkg"])
	assert.Equal(t, float64(10), rec["amount"])
	assert.Equal(t, "info", rec["lvl"])
}

func TestLevelChangeAfterBuild(t *testing.T) {
	var (
		level   = LevelVar(LevelInfo)
		jsonBuf bytes.Buffer
		termBuf bytes.Buffer
	)
	jsonLogger := New(NewJSONHandler(&jsonBuf, level)).With("pkg", "test")
	termLogger := New(NewTerminalHandler(&termBuf, level, false)).With("pkg", "test")

	jsonLogger.Debug("before")
	termLogger.Debug("before")
	assert.Zero(t, jsonBuf.Len())
	assert.Zero(t, termBuf.Len())

	level.Set(LevelDebug)
	jsonLogger.Debug("after")
	termLogger.Debug("after")
	assert.Contains(t, jsonBuf.String(), `"msg":"after"`)
	assert.Contains(t, termBuf.String(), "after")
	assert.Contains(t, termBuf.String(), "pkg=test")

	jsonBuf.Reset()
	termBuf.Reset()
	level.Set(LevelWarn)
	jsonLogger.Info("muted")
	termLogger.Info("muted")
	assert.Zero(t, jsonBuf.Len())
	assert.Zero(t, termBuf.Len())
}

func TestRootFollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	level := LevelVar(LevelError)
	SetHandler(NewJSONHandler(&buf, level))
	t.Cleanup(func() { SetHandler(NewJSONHandler(&bytes.Buffer{}, LevelVar(LevelCrit))) })

	logger := WithContext("pkg", "test")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	level.Set(LevelInfo)
	logger.Info("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelInfo, FromVerbosity(3))
	assert.Equal(t, LevelTrace, FromVerbosity(5))
	assert.Equal(t, LevelCrit, FromVerbosity(0))
}
