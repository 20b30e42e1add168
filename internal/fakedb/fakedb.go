// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb registers a "fakedb" database/sql driver for tests.
//
// Every query returns a copy of the rows handed to Run. Statements
// executed with Exec are recorded and can be inspected with Executed.
package fakedb // import "github.com/go-lpc/adda/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

var state struct {
	run sync.Mutex // serializes Run calls

	mu    sync.Mutex
	rows  Rows
	execs []Exec
}

// Exec is a statement executed against the fake DB.
type Exec struct {
	Query string
	Args  []driver.Value
}

// Rows is the result set returned by queries.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Run runs f with a DB whose queries return rows.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	state.run.Lock()
	defer state.run.Unlock()

	state.mu.Lock()
	state.rows = rows
	state.execs = nil
	state.mu.Unlock()

	return f(ctx)
}

// Executed returns the statements executed since the start of the
// current Run.
func Executed() []Exec {
	state.mu.Lock()
	defer state.mu.Unlock()
	return append([]Exec(nil), state.execs...)
}

func init() {
	sql.Register("fakedb", &fakeDriver{})
}

type fakeDriver struct{}

func (*fakeDriver) Open(name string) (driver.Conn, error) {
	return &conn{}, nil
}

type conn struct{}

func (*conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{query: query}, nil
}

func (*conn) Close() error { return nil }

func (*conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("fakedb: transactions not supported")
}

type stmt struct {
	query string
}

func (*stmt) Close() error  { return nil }
func (*stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.execs = append(state.execs, Exec{
		Query: s.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return driver.RowsAffected(1), nil
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	state.mu.Lock()
	defer state.mu.Unlock()
	return &rows{
		names:  state.rows.Names,
		values: append([][]driver.Value(nil), state.rows.Values...),
	}, nil
}

type rows struct {
	names  []string
	values [][]driver.Value
}

func (r *rows) Columns() []string { return r.names }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if len(r.values) == 0 {
		return io.EOF
	}
	copy(dest, r.values[0])
	r.values = r.values[1:]
	return nil
}

var (
	_ driver.Driver = (*fakeDriver)(nil)
	_ driver.Conn   = (*conn)(nil)
	_ driver.Stmt   = (*stmt)(nil)
	_ driver.Rows   = (*rows)(nil)
)
