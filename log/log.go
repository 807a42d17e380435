// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin layer over go-ethereum's structured logger.
// Loggers created by WithContext at package init keep following the root
// handler after SetDefault or SetHandler replace it.
package log

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	ethlog "github.com/ethereum/go-ethereum/log"
)

type Logger = ethlog.Logger

const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

type handlerBox struct {
	h slog.Handler
}

var current atomic.Pointer[handlerBox]

func init() {
	current.Store(&handlerBox{ethlog.DiscardHandler()})
}

// swapHandler resolves the root handler on every record.
type swapHandler struct {
	attrs []slog.Attr
}

func (s *swapHandler) resolve() slog.Handler {
	h := current.Load().h
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return h
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return current.Load().h.Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.resolve().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &swapHandler{attrs: append(slices.Clip(s.attrs), attrs...)}
}

// WithGroup is not supported; records stay flat.
func (s *swapHandler) WithGroup(string) slog.Handler {
	return s
}

var root = ethlog.NewLogger(&swapHandler{})

// Root returns the root logger.
func Root() Logger {
	return root
}

// SetHandler replaces the handler every logger writes through.
func SetHandler(h slog.Handler) {
	current.Store(&handlerBox{h})
}

// SetDefault routes all loggers through l's handler.
func SetDefault(l Logger) {
	SetHandler(l.Handler())
}

// WithContext returns a logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return root.With(ctx...)
}

// New returns a logger writing to h, detached from the root handler.
func New(h slog.Handler) Logger {
	return ethlog.NewLogger(h)
}

// FromVerbosity maps the 0 (silent) to 5 (trace) command line scale to a level.
func FromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
