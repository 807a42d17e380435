// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb stores committed campaign events in sqlite.
package logdb

import (
	"context"
	"database/sql"
	"encoding/json"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/farm/event"
	"github.com/vechain/farm/farm"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	address BLOB(20) NOT NULL,
	name TEXT NOT NULL,
	account BLOB(20),
	token BLOB(20),
	time INTEGER NOT NULL,
	data TEXT
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(address, name);
CREATE INDEX IF NOT EXISTS event_i1 ON event(account);
CREATE INDEX IF NOT EXISTS event_i2 ON event(time);
`

const insertEvent = "INSERT INTO event(address, name, account, token, time, data) VALUES (?, ?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

var _ event.Sink = (*LogDB)(nil)

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// an in-memory database lives as long as its one connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Write stores the events of one operation in a single transaction.
func (db *LogDB) Write(events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}
	// prepared outside the transaction, which holds the only connection
	insert, err := db.stmtCache.Prepare(insertEvent)
	if err != nil {
		return err
	}
	return db.execInTx(func(tx *sql.Tx) error {
		stmt := tx.Stmt(insert)
		for _, ev := range events {
			data, err := json.Marshal(ev.Values)
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(
				ev.Address.Bytes(),
				ev.Name,
				optAddress(ev.Account),
				optAddress(ev.Token),
				ev.Time,
				string(data),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func optAddress(addr farm.Address) []byte {
	if addr.IsZero() {
		return nil
	}
	return addr.Bytes()
}

// FilterEvents returns events matching the filter. A nil filter returns all events.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, address, name, account, token, time, data FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, address, name, account, token, time, data FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ? "
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ? "
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ? "
		}
		if criteria.Token != nil {
			args = append(args, criteria.Token.Bytes())
			stmt += " AND token = ? "
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			address []byte
			name    string
			account []byte
			token   []byte
			ts      uint64
			data    sql.NullString
		)
		if err := rows.Scan(&seq, &address, &name, &account, &token, &ts, &data); err != nil {
			return nil, err
		}
		ev := &event.Event{
			Address: farm.BytesToAddress(address),
			Name:    name,
			Account: farm.BytesToAddress(account),
			Token:   farm.BytesToAddress(token),
			Time:    ts,
		}
		if data.Valid && data.String != "" && data.String != "null" {
			if err := json.Unmarshal([]byte(data.String), &ev.Values); err != nil {
				return nil, errors.Wrap(err, "decode event values")
			}
		}
		events = append(events, &Event{Seq: seq, Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
