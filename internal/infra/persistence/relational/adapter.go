// Package relational implements the backend adapter that stores each
// collection as a table reached through the bridge. Statements are built
// with squirrel on the calling side and executed by the bridge handler.
package relational

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"maintcore/internal/bridge"
	"maintcore/pkg/config"
	"maintcore/pkg/domain"
	"maintcore/pkg/logger"
)

// Adapter implements domain.Backend over a bridge.Transport.
type Adapter struct {
	transport   bridge.Transport
	dialect     bridge.Dialect
	placeholder sq.PlaceholderFormat
	timeout     time.Duration
	log         *zap.Logger
}

var _ domain.Backend = (*Adapter)(nil)

// Option customises an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option { return func(a *Adapter) { a.log = logger.OrNop(l) } }

// WithTimeout bounds every bridge call. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(a *Adapter) { a.timeout = d } }

// New builds an adapter that sends statements in dialect over transport.
func New(transport bridge.Transport, dialect bridge.Dialect, opts ...Option) *Adapter {
	a := &Adapter{transport: transport, dialect: dialect, placeholder: sq.Question, log: zap.NewNop()}
	if dialect == bridge.DialectPostgres {
		a.placeholder = sq.Dollar
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("relational")
	return a
}

// Open builds the configured transport and wraps it in an adapter.
func Open(ctx context.Context, cfg config.RelationalConfig, log *zap.Logger) (*Adapter, error) {
	transport, err := bridge.OpenTransport(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return New(transport, bridge.Dialect(cfg.Dialect), WithLogger(log), WithTimeout(cfg.Timeout)), nil
}

func (a *Adapter) Kind() domain.BackendKind { return domain.BackendRelational }

func (a *Adapter) table(c domain.Collection) (*Table, error) {
	t, ok := Schema[c]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return t, nil
}

func (a *Adapter) call(ctx context.Context, req bridge.Request) (bridge.Response, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	resp, err := a.transport.Call(ctx, req)
	if err != nil {
		return bridge.Response{}, fmt.Errorf("bridge call: %w", err)
	}
	if !resp.OK {
		a.log.Debug("statement rejected", zap.String("id", resp.ID), zap.String("code", resp.Code), zap.String("error", resp.Error))
	}
	return resp, nil
}

func failure(c domain.Collection, id string, resp bridge.Response) error {
	if resp.Code == bridge.CodeUniqueViolation {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordExists)
	}
	return fmt.Errorf("%s %s: %s", c, id, resp.Error)
}

func (a *Adapter) List(ctx context.Context, c domain.Collection) ([]json.RawMessage, error) {
	t, err := a.table(c)
	if err != nil {
		return nil, err
	}
	resp, err := a.call(ctx, bridge.Request{Op: bridge.OpAll, Statement: bridge.ListStatement(c)})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("list %s: %s", c, resp.Error)
	}
	records := make([]json.RawMessage, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rec, err := recordFromRow(t, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (a *Adapter) Create(ctx context.Context, c domain.Collection, record json.RawMessage) (json.RawMessage, error) {
	t, err := a.table(c)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(record)
	if err != nil {
		return nil, fmt.Errorf("decode %s record: %w", c, err)
	}
	if v, ok := doc["id"]; !ok || v == nil || v == "" {
		return nil, errors.New("record has no id")
	}
	for field := range doc {
		if _, ok := t.Kind(field); !ok {
			return nil, domain.ValidationError{Entity: domain.EntityType(c), Field: field, Reason: "is not a known field"}
		}
	}
	query, args, err := a.insertSQL(t, doc)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprint(doc["id"])
	resp, err := a.call(ctx, bridge.Request{Op: bridge.OpGet, SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, failure(c, id, resp)
	}
	return recordFromRow(t, resp.Row)
}

func (a *Adapter) insertSQL(t *Table, doc map[string]any) (string, []any, error) {
	cols := make([]string, 0, len(doc))
	vals := make([]any, 0, len(doc))
	for _, col := range t.Columns {
		v, ok := doc[col.Name]
		if !ok {
			continue
		}
		p, err := toParam(col.Kind, v)
		if err != nil {
			return "", nil, domain.ValidationError{Entity: domain.EntityType(t.Collection), Field: col.Name, Reason: err.Error()}
		}
		cols = append(cols, col.Name)
		vals = append(vals, p)
	}
	query, args, err := sq.Insert(string(t.Collection)).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING *").
		PlaceholderFormat(a.placeholder).
		ToSql()
	if err != nil {
		return "", nil, err
	}
	return query, bridge.SanitizeArgs(args), nil
}

func (a *Adapter) Update(ctx context.Context, c domain.Collection, id string, patch domain.Patch) (json.RawMessage, error) {
	t, err := a.table(c)
	if err != nil {
		return nil, err
	}
	key, err := keyParam(t, id)
	if err != nil {
		return nil, err
	}
	set := make(map[string]any, len(patch))
	for field, value := range patch {
		kind, ok := t.Kind(field)
		if !ok {
			return nil, domain.ValidationError{Entity: domain.EntityType(c), Field: field, Reason: "is not a known field"}
		}
		norm, err := normalize(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field, err)
		}
		if field == "id" {
			if fmt.Sprint(norm) != id {
				return nil, domain.ValidationError{Entity: domain.EntityType(c), Field: "id", Reason: "is immutable"}
			}
			continue
		}
		p, err := toParam(kind, norm)
		if err != nil {
			return nil, domain.ValidationError{Entity: domain.EntityType(c), Field: field, Reason: err.Error()}
		}
		set[field] = p
	}
	query, args, err := a.updateSQL(t, key, set)
	if err != nil {
		return nil, err
	}
	resp, err := a.call(ctx, bridge.Request{Op: bridge.OpGet, SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, failure(c, id, resp)
	}
	if resp.Row == nil {
		return nil, fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordMissing)
	}
	return recordFromRow(t, resp.Row)
}

// updateSQL renders an UPDATE ... RETURNING for set, or a plain SELECT of
// the row when the patch is empty.
func (a *Adapter) updateSQL(t *Table, key any, set map[string]any) (string, []any, error) {
	var (
		query string
		args  []any
		err   error
	)
	if len(set) == 0 {
		query, args, err = sq.Select("*").
			From(string(t.Collection)).
			Where(sq.Eq{"id": key}).
			PlaceholderFormat(a.placeholder).
			ToSql()
	} else {
		query, args, err = sq.Update(string(t.Collection)).
			SetMap(set).
			Where(sq.Eq{"id": key}).
			Suffix("RETURNING *").
			PlaceholderFormat(a.placeholder).
			ToSql()
	}
	if err != nil {
		return "", nil, err
	}
	return query, bridge.SanitizeArgs(args), nil
}

func (a *Adapter) Delete(ctx context.Context, c domain.Collection, id string) error {
	t, err := a.table(c)
	if err != nil {
		return err
	}
	key, err := keyParam(t, id)
	if err != nil {
		return err
	}
	resp, err := a.call(ctx, bridge.Request{
		Op:        bridge.OpRun,
		Statement: bridge.DeleteStatement(c),
		Named:     map[string]any{"id": key},
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		return failure(c, id, resp)
	}
	if resp.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrRecordMissing)
	}
	return nil
}

func (a *Adapter) NextSequence(ctx context.Context, name string) (int64, error) {
	resp, err := a.call(ctx, bridge.Request{
		Op:        bridge.OpGet,
		Statement: bridge.StmtSequenceNext,
		Named:     map[string]any{"name": name},
	})
	if err != nil {
		return 0, err
	}
	if !resp.OK {
		return 0, fmt.Errorf("sequence %s: %s", name, resp.Error)
	}
	n, err := asInt(resp.Row["value"])
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return n, nil
}

func (a *Adapter) Close() error { return a.transport.Close() }
