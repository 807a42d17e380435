// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert so callers can branch on it.
type Kind uint8

const (
	Unknown Kind = iota
	Unauthorized
	InvalidAmount
	NotConfigured
	PeriodActive
	DurationOutOfRange
	RateTooLow
	NotWhitelisted
	TransferFailed
	Paused
	PoolNotFound
	InvalidToken
)

var kindNames = map[Kind]string{
	Unknown:            "Unknown",
	Unauthorized:       "Unauthorized",
	InvalidAmount:      "InvalidAmount",
	NotConfigured:      "NotConfigured",
	PeriodActive:       "PeriodActive",
	DurationOutOfRange: "DurationOutOfRange",
	RateTooLow:         "RateTooLow",
	NotWhitelisted:     "NotWhitelisted",
	TransferFailed:     "TransferFailed",
	Paused:             "Paused",
	PoolNotFound:       "PoolNotFound",
	InvalidToken:       "InvalidToken",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ErrRevert is a rejected operation. No state change survives it.
type ErrRevert struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches cause to a revert of the given kind.
func Wrap(kind Kind, cause error, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
		cause:   cause,
	}
}

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ErrRevert) Unwrap() error {
	return e.cause
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Message() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the outermost revert in err's chain, or Unknown.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return Unknown
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	return IsRevertErr(err) && KindOf(err) == kind
}
