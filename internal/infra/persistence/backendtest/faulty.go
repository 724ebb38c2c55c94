package backendtest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"maintcore/pkg/domain"
)

// Op names a backend method for fault injection.
type Op string

// Backend methods that can be failed or gated.
const (
	OpList     Op = "list"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpSequence Op = "sequence"
)

// Call is one recorded backend invocation.
type Call struct {
	Collection domain.Collection
	Op         Op
	ID         string
}

type faultKey struct {
	c  domain.Collection
	op Op
}

// Gate blocks one backend call until released.
type Gate struct {
	// Entered is closed once the gated call has started.
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Release lets the gated call proceed.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// Faulty wraps a backend with injectable failures, panics, and gates, and
// records every call it forwards.
type Faulty struct {
	inner domain.Backend

	mu     sync.Mutex
	fail   map[faultKey]error
	panics map[faultKey]any
	gates  map[faultKey]*Gate
	calls  []Call
}

var _ domain.Backend = (*Faulty)(nil)

// NewFaulty wraps inner.
func NewFaulty(inner domain.Backend) *Faulty {
	return &Faulty{
		inner:  inner,
		fail:   map[faultKey]error{},
		panics: map[faultKey]any{},
		gates:  map[faultKey]*Gate{},
	}
}

// FailOn makes every op on c fail with err until Heal is called.
func (f *Faulty) FailOn(c domain.Collection, op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[faultKey{c, op}] = err
}

// PanicOn makes the next op on c panic with v.
func (f *Faulty) PanicOn(c domain.Collection, op Op, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[faultKey{c, op}] = v
}

// Heal removes every injected failure.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[faultKey]error{}
	f.panics = map[faultKey]any{}
}

// Gate arms a gate on the next op on c. The call blocks before reaching
// the wrapped backend until the gate is released.
func (f *Faulty) Gate(c domain.Collection, op Op) *Gate {
	g := &Gate{Entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[faultKey{c, op}] = g
	return g
}

// Calls returns the recorded calls in order.
func (f *Faulty) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// enter records the call, waits on an armed gate, then applies the faults
// in effect once the gate opened.
func (f *Faulty) enter(ctx context.Context, c domain.Collection, op Op, id string) error {
	key := faultKey{c, op}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Collection: c, Op: op, ID: id})
	gate := f.gates[key]
	delete(f.gates, key)
	f.mu.Unlock()

	if gate != nil {
		close(gate.Entered)
		select {
		case <-gate.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	p, shouldPanic := f.panics[key]
	delete(f.panics, key)
	err := f.fail[key]
	f.mu.Unlock()
	if shouldPanic {
		panic(p)
	}
	return err
}

func (f *Faulty) Kind() domain.BackendKind { return f.inner.Kind() }

func (f *Faulty) List(ctx context.Context, c domain.Collection) ([]json.RawMessage, error) {
	if err := f.enter(ctx, c, OpList, ""); err != nil {
		return nil, err
	}
	return f.inner.List(ctx, c)
}

func (f *Faulty) Create(ctx context.Context, c domain.Collection, record json.RawMessage) (json.RawMessage, error) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	_ = json.Unmarshal(record, &probe)
	if err := f.enter(ctx, c, OpCreate, strings.Trim(string(probe.ID), `"`)); err != nil {
		return nil, err
	}
	return f.inner.Create(ctx, c, record)
}

func (f *Faulty) Update(ctx context.Context, c domain.Collection, id string, patch domain.Patch) (json.RawMessage, error) {
	if err := f.enter(ctx, c, OpUpdate, id); err != nil {
		return nil, err
	}
	return f.inner.Update(ctx, c, id, patch)
}

func (f *Faulty) Delete(ctx context.Context, c domain.Collection, id string) error {
	if err := f.enter(ctx, c, OpDelete, id); err != nil {
		return err
	}
	return f.inner.Delete(ctx, c, id)
}

func (f *Faulty) NextSequence(ctx context.Context, name string) (int64, error) {
	if err := f.enter(ctx, domain.Collection(name), OpSequence, ""); err != nil {
		return 0, err
	}
	return f.inner.NextSequence(ctx, name)
}

func (f *Faulty) Close() error { return f.inner.Close() }
