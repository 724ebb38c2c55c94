package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"maintcore/pkg/logger"
)

// Handler is the receiving side of the bridge. It resolves catalog
// statements, re-sanitizes parameters, binds them, and executes the
// statement against db. Handler never returns Go errors: every failure is
// reported in the Response.
type Handler struct {
	db      *sql.DB
	dialect Dialect
	binding Binding
	catalog map[string]string
	log     *zap.Logger
	// namedRejected records that the driver refused named binding once;
	// later calls go straight to positional rewriting.
	namedRejected atomic.Bool
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.log = logger.OrNop(l) }
}

// WithStatements adds or overrides catalog statements.
func WithStatements(stmts map[string]string) HandlerOption {
	return func(h *Handler) {
		for k, v := range stmts {
			h.catalog[k] = v
		}
	}
}

// NewHandler builds a handler executing against db.
func NewHandler(db *sql.DB, dialect Dialect, binding Binding, opts ...HandlerOption) *Handler {
	if binding == "" {
		binding = BindNamed
	}
	h := &Handler{db: db, dialect: dialect, binding: binding, catalog: Catalog(dialect), log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("bridge")
	return h
}

// Dialect reports the SQL dialect of the underlying database.
func (h *Handler) Dialect() Dialect { return h.dialect }

func (h *Handler) placeholder() sq.PlaceholderFormat {
	if h.dialect == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Handle executes one request.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	query, err := h.resolve(req)
	if err != nil {
		return failure(req.ID, CodeBadRequest, err)
	}
	switch req.Op {
	case OpRun, OpGet, OpAll:
	default:
		return failure(req.ID, CodeBadRequest, fmt.Errorf("unknown op %q", req.Op))
	}
	if len(req.Named) > 0 && len(req.Args) > 0 {
		return failure(req.ID, CodeBadRequest, errors.New("request carries both positional and named parameters"))
	}
	h.log.Debug("statement", zap.String("id", req.ID), zap.String("op", string(req.Op)), zap.String("statement", req.Statement), zap.String("sql", query))

	if len(req.Named) == 0 {
		resp, err := h.execute(ctx, req.Op, query, SanitizeArgs(req.Args))
		return h.finish(req.ID, resp, err)
	}

	named := SanitizeNamed(req.Named)
	if h.binding == BindNamed && !h.namedRejected.Load() {
		args := make([]any, 0, len(named))
		for k, v := range named {
			args = append(args, sql.Named(k, v))
		}
		resp, namedErr := h.execute(ctx, req.Op, query, args)
		if namedErr == nil {
			return h.finish(req.ID, resp, nil)
		}
		positional, posArgs, rewriteErr := RewriteNamed(query, named, h.placeholder())
		if rewriteErr != nil {
			return h.finish(req.ID, resp, namedErr)
		}
		resp, err := h.execute(ctx, req.Op, positional, posArgs)
		if err == nil {
			h.namedRejected.Store(true)
			h.log.Info("named binding rejected, using positional parameters", zap.Error(namedErr))
		}
		return h.finish(req.ID, resp, err)
	}
	positional, posArgs, err := RewriteNamed(query, named, h.placeholder())
	if err != nil {
		return failure(req.ID, CodeBadRequest, err)
	}
	resp, err := h.execute(ctx, req.Op, positional, posArgs)
	return h.finish(req.ID, resp, err)
}

func (h *Handler) resolve(req Request) (string, error) {
	switch {
	case req.Statement != "" && req.SQL != "":
		return "", errors.New("request names both a statement and sql text")
	case req.Statement != "":
		q, ok := h.catalog[req.Statement]
		if !ok {
			return "", fmt.Errorf("unknown statement %q", req.Statement)
		}
		return q, nil
	case strings.TrimSpace(req.SQL) != "":
		return req.SQL, nil
	default:
		return "", errors.New("request carries no statement")
	}
}

func (h *Handler) finish(id string, resp Response, err error) Response {
	if err != nil {
		code := CodeExecFailed
		if isUniqueViolation(err) {
			code = CodeUniqueViolation
		}
		h.log.Debug("statement failed", zap.String("id", id), zap.Error(err))
		return failure(id, code, err)
	}
	resp.ID = id
	resp.OK = true
	return resp
}

func failure(id, code string, err error) Response {
	return Response{ID: id, OK: false, Error: err.Error(), Code: code}
}

func (h *Handler) execute(ctx context.Context, op Op, query string, args []any) (Response, error) {
	if op == OpRun {
		res, err := h.db.ExecContext(ctx, query, args...)
		if err != nil {
			return Response{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Response{}, err
		}
		return Response{RowsAffected: n}, nil
	}
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = rows.Close() }()
	out, err := scanRows(rows, op == OpGet)
	if err != nil {
		return Response{}, err
	}
	if op == OpGet {
		var resp Response
		if len(out) > 0 {
			resp.Row = out[0]
			resp.RowsAffected = 1
		}
		return resp, nil
	}
	return Response{Rows: out}, nil
}

func scanRows(rows *sql.Rows, first bool) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
		if first {
			break
		}
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
