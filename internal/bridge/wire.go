// Package bridge carries relational calls across a process boundary. The
// calling side sends a Request naming a catalog statement or raw SQL text
// plus positional or named parameters; the receiving side executes it
// against a relational store and answers with a Response.
package bridge

import (
	"context"
	"errors"
)

// Op selects how a statement is executed and what the response carries.
type Op string

// Supported operations.
const (
	// OpRun executes a statement and reports the affected row count.
	OpRun Op = "run"
	// OpGet returns the first result row, or no row.
	OpGet Op = "get"
	// OpAll returns every result row.
	OpAll Op = "all"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Request is one remote call.
type Request struct {
	ID        string         `json:"id"`
	Op        Op             `json:"op"`
	Statement string         `json:"statement,omitempty"`
	SQL       string         `json:"sql,omitempty"`
	Args      []any          `json:"args,omitempty"`
	Named     map[string]any `json:"named,omitempty"`
}

// Error codes reported in Response.Code.
const (
	CodeUniqueViolation = "unique_violation"
	CodeBadRequest      = "bad_request"
	CodeExecFailed      = "exec_failed"
)

// Response is the answer to one Request. OK is false when the receiving side
// rejected or failed the statement; Error then carries the reason as text.
type Response struct {
	ID           string `json:"id"`
	OK           bool   `json:"ok"`
	Row          Row    `json:"row,omitempty"`
	Rows         []Row  `json:"rows,omitempty"`
	RowsAffected int64  `json:"rows_affected,omitempty"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
}

// Transport delivers requests to a receiving side. A returned error means
// the call could not be delivered or answered; statement failures come back
// as a Response with OK set to false.
type Transport interface {
	Call(ctx context.Context, req Request) (Response, error)
	Close() error
}

// ErrClosed is returned by a transport after Close.
var ErrClosed = errors.New("bridge: transport closed")
