package bridge

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenDB(ctx, DialectSQLite, filepath.Join(t.TempDir(), "bridge.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db, DialectSQLite))
	return db
}

func newSQLiteHandler(t *testing.T, binding Binding) *Handler {
	t.Helper()
	return NewHandler(newSQLiteDB(t), DialectSQLite, binding)
}

func insertEquipment(t *testing.T, h *Handler, id string) Response {
	t.Helper()
	return h.Handle(context.Background(), Request{
		ID:   "req-" + id,
		Op:   OpGet,
		SQL:  "INSERT INTO equipment (id, name, state, operating_hours) VALUES (?, ?, ?, ?) RETURNING *",
		Args: []any{id, "Motor " + id, "operational", 10.5},
	})
}

func TestHandlerInsertListDelete(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHandler(t, BindNamed)

	resp := insertEquipment(t, h, "MOT-001")
	require.True(t, resp.OK, resp.Error)
	require.Equal(t, "req-MOT-001", resp.ID)
	require.Equal(t, "MOT-001", resp.Row["id"])
	require.Equal(t, "operational", resp.Row["state"])
	require.True(t, insertEquipment(t, h, "BOM-001").OK)

	list := h.Handle(ctx, Request{Op: OpAll, Statement: ListStatement("equipment")})
	require.True(t, list.OK, list.Error)
	require.Len(t, list.Rows, 2)
	require.Equal(t, "MOT-001", list.Rows[0]["id"])
	require.Equal(t, "BOM-001", list.Rows[1]["id"])

	del := h.Handle(ctx, Request{Op: OpRun, Statement: DeleteStatement("equipment"), Named: map[string]any{"id": "MOT-001"}})
	require.True(t, del.OK, del.Error)
	require.Equal(t, int64(1), del.RowsAffected)
	del = h.Handle(ctx, Request{Op: OpRun, Statement: DeleteStatement("equipment"), Named: map[string]any{"id": "MOT-001"}})
	require.True(t, del.OK, del.Error)
	require.Zero(t, del.RowsAffected)
}

func TestHandlerReportsUniqueViolation(t *testing.T) {
	h := newSQLiteHandler(t, BindNamed)
	require.True(t, insertEquipment(t, h, "MOT-001").OK)
	resp := insertEquipment(t, h, "MOT-001")
	require.False(t, resp.OK)
	require.Equal(t, CodeUniqueViolation, resp.Code)
	require.NotEmpty(t, resp.Error)
}

func TestHandlerSequenceNext(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHandler(t, BindNamed)
	for want := int64(1); want <= 3; want++ {
		resp := h.Handle(ctx, Request{Op: OpGet, Statement: StmtSequenceNext, Named: map[string]any{"name": "cost"}})
		require.True(t, resp.OK, resp.Error)
		require.EqualValues(t, want, resp.Row["value"])
	}
}

func TestHandlerGetWithoutRow(t *testing.T) {
	h := newSQLiteHandler(t, BindPositional)
	resp := h.Handle(context.Background(), Request{Op: OpGet, SQL: "UPDATE equipment SET name = ? WHERE id = ? RETURNING *", Args: []any{"x", "missing"}})
	require.True(t, resp.OK, resp.Error)
	require.Nil(t, resp.Row)
}

func TestHandlerRejectsMalformedRequests(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHandler(t, BindNamed)
	cases := map[string]Request{
		"unknown statement":      {Op: OpAll, Statement: "equipment.truncate"},
		"no statement":           {Op: OpAll},
		"both statement and sql": {Op: OpAll, Statement: ListStatement("equipment"), SQL: "SELECT 1"},
		"unknown op":             {Op: "stream", SQL: "SELECT 1"},
		"mixed params":           {Op: OpRun, SQL: "SELECT ?", Args: []any{1}, Named: map[string]any{"a": 1}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			resp := h.Handle(ctx, req)
			require.False(t, resp.OK)
			require.Equal(t, CodeBadRequest, resp.Code)
		})
	}
	resp := h.Handle(ctx, Request{Op: OpAll, SQL: "SELECT * FROM nowhere"})
	require.False(t, resp.OK)
	require.Equal(t, CodeExecFailed, resp.Code)
}

// positionalOnlyDriver wraps the sqlite driver and refuses named parameters,
// standing in for drivers without named binding support.
type positionalOnlyDriver struct{ inner driver.Driver }

type positionalOnlyConn struct{ driver.Conn }

type positionalOnlyStmt struct{ driver.Stmt }

func (d positionalOnlyDriver) Open(name string) (driver.Conn, error) {
	c, err := d.inner.Open(name)
	if err != nil {
		return nil, err
	}
	return positionalOnlyConn{c}, nil
}

func (c positionalOnlyConn) Prepare(query string) (driver.Stmt, error) {
	st, err := c.Conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return positionalOnlyStmt{st}, nil
}

func (positionalOnlyConn) CheckNamedValue(nv *driver.NamedValue) error {
	if nv.Name != "" {
		return errors.New("named parameters not supported")
	}
	return driver.ErrSkip
}

var registerPositionalOnly sync.Once

func newPositionalOnlyDB(t *testing.T) *sql.DB {
	t.Helper()
	base := newSQLiteDB(t)
	registerPositionalOnly.Do(func() {
		sql.Register("sqlite-positional-only", positionalOnlyDriver{inner: base.Driver()})
	})
	path := filepath.Join(t.TempDir(), "positional.db")
	restore := OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) { return sql.Open("sqlite-positional-only", dsn) })
	defer restore()
	db, err := OpenDB(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
	return db
}

func TestHandlerFallsBackToPositionalBinding(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(newPositionalOnlyDB(t), DialectSQLite, BindNamed)
	require.False(t, h.namedRejected.Load())

	resp := h.Handle(ctx, Request{Op: OpGet, Statement: StmtSequenceNext, Named: map[string]any{"name": "work_order"}})
	require.True(t, resp.OK, resp.Error)
	require.EqualValues(t, 1, resp.Row["value"])
	require.True(t, h.namedRejected.Load(), "fallback should be remembered")

	resp = h.Handle(ctx, Request{Op: OpGet, Statement: StmtSequenceNext, Named: map[string]any{"name": "work_order"}})
	require.True(t, resp.OK, resp.Error)
	require.EqualValues(t, 2, resp.Row["value"])
}

func TestHandlerPositionalBindingNeverTriesNamed(t *testing.T) {
	h := NewHandler(newPositionalOnlyDB(t), DialectSQLite, BindPositional)
	resp := h.Handle(context.Background(), Request{Op: OpGet, Statement: StmtSequenceNext, Named: map[string]any{"name": "cost"}})
	require.True(t, resp.OK, resp.Error)
	require.False(t, h.namedRejected.Load())
}

func TestOpenDBReportsDriverFailure(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") })
	defer restore()
	_, err := OpenDB(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "x.db"))
	require.ErrorContains(t, err, "no driver")
	_, err = OpenDB(context.Background(), Dialect("oracle"), "")
	require.Error(t, err)
	_, err = OpenDB(context.Background(), DialectPostgres, "")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
	require.Error(t, Migrate(context.Background(), db, Dialect("oracle")))
}
