// Package kv implements the local key/value backend adapter. Each collection
// is stored as one serialized JSON array under a fixed key and every write
// re-serializes the full collection.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"maintcore/internal/infra/kvstore"
	"maintcore/pkg/domain"
	"maintcore/pkg/logger"
)

// Adapter implements domain.Backend over a kvstore.Store.
type Adapter struct {
	store  kvstore.Store
	prefix string
	log    *zap.Logger
	// mu serializes the read-modify-write of whole collections.
	mu sync.Mutex
}

var _ domain.Backend = (*Adapter)(nil)

// Option customises an Adapter.
type Option func(*Adapter)

// WithPrefix namespaces every key written by the adapter.
func WithPrefix(prefix string) Option { return func(a *Adapter) { a.prefix = prefix } }

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option { return func(a *Adapter) { a.log = logger.OrNop(l) } }

// New wraps store as a backend adapter.
func New(store kvstore.Store, opts ...Option) *Adapter {
	a := &Adapter{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("kv")
	return a
}

func (a *Adapter) Kind() domain.BackendKind { return domain.BackendKV }

func (a *Adapter) key(c domain.Collection) string { return a.prefix + string(c) }

func (a *Adapter) sequenceKey(name string) string { return a.prefix + "sequences/" + name }

func (a *Adapter) load(ctx context.Context, c domain.Collection) ([]json.RawMessage, error) {
	raw, err := a.store.Get(ctx, a.key(c))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []json.RawMessage
	if err := gojson.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	return records, nil
}

func (a *Adapter) save(ctx context.Context, c domain.Collection, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	payload, err := gojson.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := a.store.Set(ctx, a.key(c), payload); err != nil {
		return fmt.Errorf("write %s: %w", c, err)
	}
	a.log.Debug("collection written", zap.String("collection", string(c)), zap.Int("records", len(records)))
	return nil
}

func (a *Adapter) List(ctx context.Context, c domain.Collection) ([]json.RawMessage, error) {
	return a.load(ctx, c)
}

func (a *Adapter) Create(ctx context.Context, c domain.Collection, record json.RawMessage) (json.RawMessage, error) {
	id, err := RecordID(record)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	records, err := a.load(ctx, c)
	if err != nil {
		return nil, err
	}
	if indexOf(records, id) >= 0 {
		return nil, fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordExists)
	}
	stored := append(json.RawMessage(nil), record...)
	if err := a.save(ctx, c, append(records, stored)); err != nil {
		return nil, err
	}
	return stored, nil
}

func (a *Adapter) Update(ctx context.Context, c domain.Collection, id string, patch domain.Patch) (json.RawMessage, error) {
	if v, ok := patch["id"]; ok && fmt.Sprint(v) != id {
		return nil, domain.ValidationError{Entity: domain.EntityType(c), Field: "id", Reason: "is immutable"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	records, err := a.load(ctx, c)
	if err != nil {
		return nil, err
	}
	idx := indexOf(records, id)
	if idx < 0 {
		return nil, fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordMissing)
	}
	merged, err := mergePatch(records[idx], patch)
	if err != nil {
		return nil, fmt.Errorf("patch %s %s: %w", c, id, err)
	}
	next := make([]json.RawMessage, len(records))
	copy(next, records)
	next[idx] = merged
	if err := a.save(ctx, c, next); err != nil {
		return nil, err
	}
	return merged, nil
}

func (a *Adapter) Delete(ctx context.Context, c domain.Collection, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	records, err := a.load(ctx, c)
	if err != nil {
		return err
	}
	idx := indexOf(records, id)
	if idx < 0 {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordMissing)
	}
	next := make([]json.RawMessage, 0, len(records)-1)
	next = append(next, records[:idx]...)
	next = append(next, records[idx+1:]...)
	return a.save(ctx, c, next)
}

func (a *Adapter) NextSequence(ctx context.Context, name string) (int64, error) {
	n, err := a.store.Incr(ctx, a.sequenceKey(name))
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return n, nil
}

func (a *Adapter) Close() error { return a.store.Close() }

// RecordID extracts the "id" field of a record as text. Numeric ids are
// rendered in their JSON form.
func RecordID(record json.RawMessage) (string, error) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := gojson.Unmarshal(record, &probe); err != nil {
		return "", fmt.Errorf("decode record id: %w", err)
	}
	raw := strings.TrimSpace(string(probe.ID))
	if raw == "" || raw == "null" || raw == `""` {
		return "", errors.New("record has no id")
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := gojson.Unmarshal(probe.ID, &s); err != nil {
			return "", fmt.Errorf("decode record id: %w", err)
		}
		return s, nil
	}
	return raw, nil
}

func indexOf(records []json.RawMessage, id string) int {
	for i, r := range records {
		if rid, err := RecordID(r); err == nil && rid == id {
			return i
		}
	}
	return -1
}

// mergePatch applies patch to record by JSON field name. A nil value clears the field.
func mergePatch(record json.RawMessage, patch domain.Patch) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := gojson.Unmarshal(record, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if v == nil {
			delete(fields, k)
			continue
		}
		encoded, err := gojson.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		fields[k] = encoded
	}
	return gojson.Marshal(fields)
}
