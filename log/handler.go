// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// levelHandler filters records against a level that may change after the
// handler is built.
type levelHandler struct {
	inner slog.Handler
	lvl   *slog.LevelVar
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{inner: h.inner.WithAttrs(attrs), lvl: h.lvl}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{inner: h.inner.WithGroup(name), lvl: h.lvl}
}

// NewTerminalHandler returns a handler formatting records for a human reader:
//
//	INFO [05-16|20:58:45.000] campaign deployed   addr=0x...
//
// Records below lvl are dropped; lvl is read on every record.
func NewTerminalHandler(wr io.Writer, lvl *slog.LevelVar, useColor bool) slog.Handler {
	return &levelHandler{
		inner: ethlog.NewTerminalHandlerWithLevel(wr, LevelTrace, useColor),
		lvl:   lvl,
	}
}

type leveler struct{ minLevel *slog.LevelVar }

func (l *leveler) Level() slog.Level {
	return l.minLevel.Level()
}

// NewJSONHandler returns a handler which prints records in JSON format that are at
// or above the given level.
func NewJSONHandler(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: replaceJSON,
		Level:       &leveler{level},
	})
}

// LevelVar returns a level variable set to l.
func LevelVar(l slog.Level) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(l)
	return v
}

func replaceJSON(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.Any("lvl", ethlog.LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}
