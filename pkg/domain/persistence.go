package domain

import (
	"context"
	"encoding/json"
)

// BackendKind names a backend adapter implementation.
type BackendKind string

// Supported backend adapters.
const (
	BackendKV         BackendKind = "kv"
	BackendRelational BackendKind = "relational"
)

// Patch is a partial update keyed by JSON field name.
type Patch map[string]any

// Backend is the CRUD contract every storage adapter implements. Records
// travel as JSON documents keyed by their "id" field. Adapters report a
// missing id with ErrRecordMissing and a duplicate id with ErrRecordExists.
type Backend interface {
	Kind() BackendKind
	List(ctx context.Context, c Collection) ([]json.RawMessage, error)
	Create(ctx context.Context, c Collection, record json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, c Collection, id string, patch Patch) (json.RawMessage, error)
	Delete(ctx context.Context, c Collection, id string) error
	// NextSequence durably increments and returns the named counter.
	NextSequence(ctx context.Context, name string) (int64, error)
	Close() error
}

// Action describes the type of mutation applied to an entity.
type Action string

// Mutation actions reported in Change records.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes one committed entity mutation. Before is nil for creates
// and After is nil for deletes.
type Change struct {
	Entity EntityType
	Action Action
	ID     string
	Before any
	After  any
}
