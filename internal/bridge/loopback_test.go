package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopbackCallsHandler(t *testing.T) {
	h := newSQLiteHandler(t, BindNamed)
	l := NewLoopback(h)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	resp, err := l.Call(ctx, Request{
		Op:   OpGet,
		SQL:  "INSERT INTO company_areas (id, name, active) VALUES (?, ?, ?) RETURNING *",
		Args: []any{"AREA-001", "Producción", true},
	})
	require.NoError(t, err)
	require.True(t, resp.OK, resp.Error)
	require.NotEmpty(t, resp.ID, "loopback assigns request ids")
	// values cross the wire encoding: numbers arrive as json.Number
	require.Equal(t, json.Number("1"), resp.Row["active"])
}

func TestLoopbackFinishesCallAfterCallerCancels(t *testing.T) {
	db := newSQLiteDB(t)
	h := NewHandler(db, DialectSQLite, BindNamed)
	l := NewLoopback(h)
	t.Cleanup(func() { _ = l.Close() })

	// Hold the only connection so the worker blocks inside the call.
	conn, err := db.Conn(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Call(ctx, Request{
			Op:   OpRun,
			SQL:  "INSERT INTO technicians (id, name, active) VALUES (?, ?, ?)",
			Args: []any{"TEC-001", "Ana", true},
		})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return db.Stats().WaitCount > 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		resp, err := l.Call(context.Background(), Request{Op: OpAll, Statement: ListStatement("technicians")})
		return err == nil && resp.OK && len(resp.Rows) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoopbackClosed(t *testing.T) {
	h := newSQLiteHandler(t, BindNamed)
	l := NewLoopback(h)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, err := l.Call(context.Background(), Request{Op: OpAll, Statement: ListStatement("alerts")})
	require.ErrorIs(t, err, ErrClosed)
}
