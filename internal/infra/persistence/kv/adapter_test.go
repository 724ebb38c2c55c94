package kv

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"maintcore/internal/infra/kvstore"
	"maintcore/internal/infra/kvstore/fs"
	"maintcore/internal/infra/kvstore/memory"
	"maintcore/internal/infra/kvstore/s3"
	"maintcore/internal/infra/persistence/backendtest"
	"maintcore/pkg/config"
	"maintcore/pkg/domain"
)

func TestContractMemory(t *testing.T) {
	backendtest.RunContract(t, func(t *testing.T) domain.Backend { return New(memory.New()) })
}

func TestContractFilesystem(t *testing.T) {
	backendtest.RunContract(t, func(t *testing.T) domain.Backend {
		store, err := fs.New(t.TempDir())
		require.NoError(t, err)
		return New(store, WithPrefix("maint/"))
	})
}

func TestContractS3(t *testing.T) {
	backendtest.RunContract(t, func(t *testing.T) domain.Backend { return New(s3.NewMockForTests()) })
}

func TestCollectionStoredAsOneArray(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := New(store, WithPrefix("maintcore/"))
	_, err := a.Create(ctx, domain.CollectionCosts, json.RawMessage(`{"id":"CST-001","task_id":"MNT-001","amount":10}`))
	require.NoError(t, err)
	_, err = a.Create(ctx, domain.CollectionCosts, json.RawMessage(`{"id":"CST-002","task_id":"MNT-001","amount":5}`))
	require.NoError(t, err)

	raw, err := store.Get(ctx, "maintcore/costs")
	require.NoError(t, err)
	var arr []map[string]any
	require.NoError(t, json.Unmarshal(raw, &arr))
	require.Len(t, arr, 2)

	require.NoError(t, a.Delete(ctx, domain.CollectionCosts, "CST-001"))
	require.NoError(t, a.Delete(ctx, domain.CollectionCosts, "CST-002"))
	raw, err = store.Get(ctx, "maintcore/costs")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(raw))
}

func TestUpdateNilClearsField(t *testing.T) {
	ctx := context.Background()
	a := New(memory.New())
	_, err := a.Create(ctx, domain.CollectionWorkOrders, json.RawMessage(`{"id":"OT-001","assigned_technician":"Juan"}`))
	require.NoError(t, err)
	out, err := a.Update(ctx, domain.CollectionWorkOrders, "OT-001", domain.Patch{"assigned_technician": nil})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"OT-001"}`, string(out))
}

func TestUpdateRejectsIDChange(t *testing.T) {
	ctx := context.Background()
	a := New(memory.New())
	_, err := a.Create(ctx, domain.CollectionEquipment, json.RawMessage(`{"id":"MOT-001"}`))
	require.NoError(t, err)
	_, err = a.Update(ctx, domain.CollectionEquipment, "MOT-001", domain.Patch{"id": "MOT-002"})
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCreateRequiresID(t *testing.T) {
	a := New(memory.New())
	_, err := a.Create(context.Background(), domain.CollectionEquipment, json.RawMessage(`{"name":"x"}`))
	require.Error(t, err)
}

type failingStore struct {
	kvstore.Store
	err error
}

func (f failingStore) Set(context.Context, string, []byte) error { return f.err }

func TestWriteFailureLeavesCollectionUntouched(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	ok := New(inner)
	_, err := ok.Create(ctx, domain.CollectionEquipment, json.RawMessage(`{"id":"MOT-001"}`))
	require.NoError(t, err)

	boom := errors.New("quota exceeded")
	broken := New(failingStore{Store: inner, err: boom})
	_, err = broken.Create(ctx, domain.CollectionEquipment, json.RawMessage(`{"id":"MOT-002"}`))
	require.ErrorIs(t, err, boom)

	records, err := ok.List(ctx, domain.CollectionEquipment)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestCorruptCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, "alerts", []byte("{not json")))
	_, err := New(store).List(ctx, domain.CollectionAlerts)
	require.Error(t, err)
}

func TestRecordID(t *testing.T) {
	cases := map[string]string{
		`{"id":"MOT-001"}`: "MOT-001",
		`{"id":12}`:        "12",
	}
	for in, want := range cases {
		got, err := RecordID(json.RawMessage(in))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	for _, bad := range []string{`{}`, `{"id":null}`, `{"id":""}`, `[]`} {
		_, err := RecordID(json.RawMessage(bad))
		require.Error(t, err, bad)
	}
}

func TestOpenSelectsStore(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, config.KVConfig{Driver: "fs", FSRoot: t.TempDir()}, nil)
	require.NoError(t, err)
	require.Equal(t, kvstore.DriverFilesystem, a.store.Driver())

	a, err = Open(ctx, config.KVConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	require.Equal(t, kvstore.DriverMemory, a.store.Driver())

	_, err = Open(ctx, config.KVConfig{Driver: "floppy"}, nil)
	require.Error(t, err)
}
