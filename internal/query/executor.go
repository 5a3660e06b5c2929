// Package query sends parameterized queries to the relational store and
// returns the rows or affected-row count it replies with.
//
// Two transports implement Executor: ProxyExecutor talks to the HTTP query
// proxy the store is published behind, PostgresExecutor connects directly
// through a pgx pool. Neither retries; failures are returned wrapped in one
// of the sentinel errors below.
package query

import (
	"context"
	"errors"
)

var (
	// ErrTransport: the round trip could not complete (refused, timeout, TLS).
	ErrTransport = errors.New("query transport failed")
	// ErrResponseParse: the store replied but the reply is not well-formed.
	ErrResponseParse = errors.New("malformed query response")
	// ErrStore: the store received the query and rejected it.
	ErrStore = errors.New("store rejected query")
	// ErrNotSent accompanies ErrTransport when the failure happened before
	// the query left this process, so the store cannot have applied it.
	ErrNotSent = errors.New("query not sent")
)

// NotApplied reports whether err guarantees the store did not apply the
// query. Other failures, such as a timeout waiting for the reply or a reply
// that cannot be read, leave the outcome unknown.
func NotApplied(err error) bool {
	return errors.Is(err, ErrStore) || errors.Is(err, ErrNotSent)
}

type Result struct {
	Rows     []Row `json:"rows"`
	RowCount int   `json:"rowCount"`
}

// First returns the first row, or nil when the result is empty.
func (r *Result) First() Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Executor runs one query at a time and waits for the full reply.
// Placeholders are positional ($1, $2, ...) and bound in params order.
type Executor interface {
	Execute(ctx context.Context, query string, params ...any) (*Result, error)
}
