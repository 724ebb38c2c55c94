package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags a failure returned from the core.
type ErrorKind string

// Failure kinds surfaced to callers.
const (
	KindValidation  ErrorKind = "validation"
	KindTransition  ErrorKind = "transition"
	KindPersistence ErrorKind = "persistence"
	KindNotFound    ErrorKind = "not_found"
	KindUnknown     ErrorKind = "unknown"
)

// Sentinel errors reported by backend adapters.
var (
	ErrRecordMissing = errors.New("record missing")
	ErrRecordExists  = errors.New("record already exists")
)

// ValidationError reports a missing or invalid field on a request.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}

// TransitionError reports an operation that is not legal from the entity's current state.
type TransitionError struct {
	Entity EntityType
	ID     string
	From   string
	Event  string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from state %q", e.Entity, e.ID, e.Event, e.From)
}

// PersistenceError reports a failure of the active backend.
type PersistenceError struct {
	Collection Collection
	Op         string
	Backend    BackendKind
	Err        error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s backend %s %s: %v", e.Backend, e.Op, e.Collection, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports an id absent from the entity store.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CascadeError aggregates step failures of a multi-step operation. Steps
// listed in Committed were durably written before the failure occurred.
type CascadeError struct {
	Operation string
	Committed []string
	Failures  []StepError
}

// StepError is the failure of one named step in a cascade.
type StepError struct {
	Step string
	Err  error
}

func (e *CascadeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Step, f.Err))
	}
	return fmt.Sprintf("%s: %d step(s) failed: %s", e.Operation, len(e.Failures), strings.Join(parts, "; "))
}

func (e *CascadeError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// KindOf classifies err into one of the tagged failure kinds. A cascade is
// classified by its first failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var cascade *CascadeError
	if errors.As(err, &cascade) && len(cascade.Failures) > 0 {
		return KindOf(cascade.Failures[0].Err)
	}
	var (
		validation  ValidationError
		transition  TransitionError
		persistence PersistenceError
		notFound    NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &transition):
		return KindTransition
	case errors.As(err, &persistence):
		return KindPersistence
	case errors.As(err, &notFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}
