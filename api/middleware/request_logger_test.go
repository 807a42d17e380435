// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/farm/log"
)

func respond(status int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		if status != 0 {
			w.WriteHeader(status)
		}
		w.Write([]byte("body"))
	}
}

func TestRequestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		enabled   bool
		threshold time.Duration
		log5xx    bool
		shouldLog bool
	}{
		{"enabled", respond(http.StatusOK, 0), true, 0, false, true},
		{"disabled", respond(http.StatusOK, 0), false, 0, false, false},
		{"slow request", respond(http.StatusOK, 15*time.Millisecond), false, 10 * time.Millisecond, false, true},
		{"fast request", respond(http.StatusOK, 0), false, 50 * time.Millisecond, false, false},
		{"5xx logged", respond(http.StatusServiceUnavailable, 0), false, 0, true, true},
		{"5xx ignored", respond(http.StatusInternalServerError, 0), false, 0, false, false},
		{"4xx not logged", respond(http.StatusBadRequest, 0), false, 0, true, false},
		{"implicit 200", respond(0, 0), false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(log.NewJSONHandler(&buf, log.LevelVar(log.LevelInfo)))
			var enabled atomic.Bool
			enabled.Store(tt.enabled)

			h := RequestLoggerMiddleware(logger, &enabled, tt.threshold, tt.log5xx)(tt.handler)
			req := httptest.NewRequest(http.MethodPost, "http://example.com/campaigns", strings.NewReader("payload"))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if !tt.shouldLog {
				assert.Empty(t, buf.String())
				return
			}
			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "http://example.com/campaigns", entry["URI"])
			assert.Equal(t, "POST", entry["Method"])
			assert.Equal(t, "payload", entry["Body"])
			assert.Equal(t, float64(rr.Code), entry["Status"])
			assert.Contains(t, entry, "Timestamp")
		})
	}
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	var enabled atomic.Bool
	enabled.Store(true)
	var got string
	h := RequestLoggerMiddleware(log.New(log.NewJSONHandler(&bytes.Buffer{}, log.LevelVar(log.LevelInfo))), &enabled, 0, false)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			var b bytes.Buffer
			b.ReadFrom(r.Body)
			got = b.String()
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload")))
	assert.Equal(t, "payload", got)
}
