// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/hive/hive"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

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
	// a single connection keeps in-memory dbs shared and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the sqlite library version.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestCallNumber returns the number of the last committed call, 0 if none.
func (db *LogDB) NewestCallNumber() (uint64, error) {
	var n sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(callNumber) FROM event").Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n.Int64), nil
}

// Prepare starts a batch for the events of one call.
func (db *LogDB) Prepare(callNumber, callTime uint64) *Batch {
	return &Batch{
		db:         db.db,
		callNumber: callNumber,
		callTime:   callTime,
	}
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY callNumber ASC, eventIndex ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		condition := "callNumber"
		if filter.Range.Unit == Time {
			condition = "callTime"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Name != nil {
			args = append(args, *criteria.Name)
			stmt += " AND name = ? "
		}
		if criteria.Subject != nil {
			args = append(args, criteria.Subject.Bytes())
			stmt += " AND subject = ? "
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY callNumber DESC, eventIndex DESC "
	} else {
		stmt += " ORDER BY callNumber ASC, eventIndex ASC "
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
			callNumber uint64
			index      uint32
			callTime   uint64
			name       string
			subject    []byte
			value      uint64
			amount     []byte
		)
		if err := rows.Scan(
			&callNumber,
			&index,
			&callTime,
			&name,
			&subject,
			&value,
			&amount,
		); err != nil {
			return nil, err
		}
		event := &Event{
			CallNumber: callNumber,
			Index:      index,
			CallTime:   callTime,
			Name:       name,
			Subject:    hive.BytesToAddress(subject),
			Value:      value,
		}
		if amount != nil {
			event.Amount = new(big.Int).SetBytes(amount)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Batch collects the events of one call and writes them in one transaction.
type Batch struct {
	db         *sql.DB
	callNumber uint64
	callTime   uint64
	events     []*Event
}

// Insert appends an event, assigning its call number, time and index.
func (b *Batch) Insert(name string, subject hive.Address, value uint64, amount *big.Int) *Batch {
	b.events = append(b.events, &Event{
		CallNumber: b.callNumber,
		Index:      uint32(len(b.events)),
		CallTime:   b.callTime,
		Name:       name,
		Subject:    subject,
		Value:      value,
		Amount:     amount,
	})
	return b
}

func (b *Batch) Len() int {
	return len(b.events)
}

func (b *Batch) Commit() (err error) {
	if len(b.events) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, ev := range b.events {
		var amount []byte
		if ev.Amount != nil {
			amount = ev.Amount.Bytes()
			if amount == nil {
				amount = []byte{}
			}
		}
		if _, err = tx.Exec("INSERT OR REPLACE INTO event(callNumber, eventIndex, callTime, name, subject, value, amount) VALUES (?, ?, ?, ?, ?, ?, ?);",
			ev.CallNumber,
			ev.Index,
			ev.CallTime,
			ev.Name,
			ev.Subject.Bytes(),
			ev.Value,
			amount,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
