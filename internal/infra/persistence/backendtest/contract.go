// Package backendtest provides the behavioural contract every domain.Backend
// implementation must satisfy. Adapter packages run it from their own tests.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maintcore/pkg/domain"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) domain.Backend

// RunContract exercises the CRUD and sequence semantics shared by all adapters.
func RunContract(t *testing.T, newBackend Factory) {
	t.Run("list empty collection", func(t *testing.T) {
		b := newBackend(t)
		records, err := b.List(context.Background(), domain.CollectionEquipment)
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("create preserves insertion order", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		for _, id := range []string{"MOT-001", "BOM-001", "CMP-001"} {
			_, err := b.Create(ctx, domain.CollectionEquipment, encode(t, equipment(id)))
			require.NoError(t, err)
		}
		records, err := b.List(ctx, domain.CollectionEquipment)
		require.NoError(t, err)
		require.Len(t, records, 3)
		var ids []string
		for _, r := range records {
			ids = append(ids, decodeEquipment(t, r).ID)
		}
		require.Equal(t, []string{"MOT-001", "BOM-001", "CMP-001"}, ids)
	})

	t.Run("create returns stored record", func(t *testing.T) {
		b := newBackend(t)
		want := equipment("MOT-001")
		got, err := b.Create(context.Background(), domain.CollectionEquipment, encode(t, want))
		require.NoError(t, err)
		require.Equal(t, want.Name, decodeEquipment(t, got).Name)
		require.True(t, want.InstalledAt.Equal(*decodeEquipment(t, got).InstalledAt))
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		_, err := b.Create(ctx, domain.CollectionEquipment, encode(t, equipment("MOT-001")))
		require.NoError(t, err)
		_, err = b.Create(ctx, domain.CollectionEquipment, encode(t, equipment("MOT-001")))
		require.ErrorIs(t, err, domain.ErrRecordExists)
	})

	t.Run("update merges patch", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		_, err := b.Create(ctx, domain.CollectionEquipment, encode(t, equipment("MOT-001")))
		require.NoError(t, err)
		next := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		updated, err := b.Update(ctx, domain.CollectionEquipment, "MOT-001", domain.Patch{
			"state":               domain.EquipmentUnderMaintenance,
			"next_maintenance_at": next,
		})
		require.NoError(t, err)
		got := decodeEquipment(t, updated)
		require.Equal(t, domain.EquipmentUnderMaintenance, got.State)
		require.Equal(t, "Motor principal", got.Name)
		require.NotNil(t, got.NextMaintenanceAt)
		require.True(t, next.Equal(*got.NextMaintenanceAt))

		records, err := b.List(ctx, domain.CollectionEquipment)
		require.NoError(t, err)
		require.Equal(t, domain.EquipmentUnderMaintenance, decodeEquipment(t, records[0]).State)
	})

	t.Run("update missing record", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Update(context.Background(), domain.CollectionEquipment, "NOPE", domain.Patch{"name": "x"})
		require.ErrorIs(t, err, domain.ErrRecordMissing)
	})

	t.Run("delete removes record", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		for _, id := range []string{"MOT-001", "BOM-001"} {
			_, err := b.Create(ctx, domain.CollectionEquipment, encode(t, equipment(id)))
			require.NoError(t, err)
		}
		require.NoError(t, b.Delete(ctx, domain.CollectionEquipment, "MOT-001"))
		records, err := b.List(ctx, domain.CollectionEquipment)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "BOM-001", decodeEquipment(t, records[0]).ID)
		err = b.Delete(ctx, domain.CollectionEquipment, "MOT-001")
		require.True(t, errors.Is(err, domain.ErrRecordMissing), "got %v", err)
	})

	t.Run("numeric ids", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		alert := domain.Alert{
			ID: 7, EquipmentID: "MOT-001", EquipmentName: "Motor principal", Category: "Temperatura",
			Message: "Temperatura alta", Severity: domain.SeverityWarning,
			CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), State: domain.AlertActive,
		}
		_, err := b.Create(ctx, domain.CollectionAlerts, encode(t, alert))
		require.NoError(t, err)
		updated, err := b.Update(ctx, domain.CollectionAlerts, "7", domain.Patch{"state": domain.AlertRead})
		require.NoError(t, err)
		var got domain.Alert
		require.NoError(t, json.Unmarshal(updated, &got))
		require.Equal(t, int64(7), got.ID)
		require.Equal(t, domain.AlertRead, got.State)
		require.NoError(t, b.Delete(ctx, domain.CollectionAlerts, "7"))
	})

	t.Run("list fields", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		hours := 4.5
		order := domain.WorkOrder{
			ID: "OT-001", Number: "2026-001", Title: "Cambio de rodamientos", State: domain.OrderOpen,
			CreatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), Materials: []string{"rodamiento 6204", "grasa"},
			EstimatedHours: &hours,
		}
		_, err := b.Create(ctx, domain.CollectionWorkOrders, encode(t, order))
		require.NoError(t, err)
		records, err := b.List(ctx, domain.CollectionWorkOrders)
		require.NoError(t, err)
		var got domain.WorkOrder
		require.NoError(t, json.Unmarshal(records[0], &got))
		require.Equal(t, order.Materials, got.Materials)
		require.NotNil(t, got.EstimatedHours)
		require.InDelta(t, 4.5, *got.EstimatedHours, 1e-9)
	})

	t.Run("sequences are monotonic per name", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		for want := int64(1); want <= 3; want++ {
			got, err := b.NextSequence(ctx, "cost")
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
		got, err := b.NextSequence(ctx, "work_order_number:2026")
		require.NoError(t, err)
		require.Equal(t, int64(1), got)
	})
}

func equipment(id string) domain.Equipment {
	installed := time.Date(2020, 5, 10, 0, 0, 0, 0, time.UTC)
	return domain.Equipment{
		ID: id, Name: "Motor principal", Type: "Motor eléctrico", Location: "Planta A",
		State: domain.EquipmentOperational, InstalledAt: &installed, OperatingHours: 1200, Efficiency: 92.5,
	}
}

func encode(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func decodeEquipment(t *testing.T, raw json.RawMessage) domain.Equipment {
	t.Helper()
	var e domain.Equipment
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}
