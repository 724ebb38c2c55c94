package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"maintcore/pkg/domain"
)

func TestWorkOrderNumbersPerYear(t *testing.T) {
	for _, strategy := range []IDStrategy{IDCounter, IDLength} {
		t.Run(string(strategy), func(t *testing.T) {
			h := newHarness(t, WithIDStrategy(strategy))
			first := h.order(t)
			second := h.order(t)
			require.Equal(t, "2026-001", first.Number)
			require.Equal(t, "2026-002", second.Number)
			require.Equal(t, domain.OrderOpen, first.State)
			require.NotEqual(t, first.ID, second.ID)
		})
	}
}

func TestBlankWorkOrderNumberIsGenerated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order, err := h.svc.CreateWorkOrder(ctx, domain.WorkOrder{Title: "Revisión", Number: "   "})
	require.NoError(t, err)
	require.Equal(t, "2026-001", order.Number)
	kept, err := h.svc.CreateWorkOrder(ctx, domain.WorkOrder{Title: "Revisión", Number: "EXT-77"})
	require.NoError(t, err)
	require.Equal(t, "EXT-77", kept.Number)
}

func TestCreateWorkOrderRejectsTakenNumber(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.order(t)
	_, err := h.svc.CreateWorkOrder(ctx, domain.WorkOrder{Title: "Otra", Number: first.Number})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.CreateWorkOrder(ctx, domain.WorkOrder{Title: " "})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.CreateWorkOrder(ctx, domain.WorkOrder{Title: "Bomba", EquipmentID: "NOPE"})
	requireKind(t, domain.KindNotFound, err)
}

func TestWorkOrderLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.order(t)

		_, err := h.svc.AssignWorkOrder(ctx, order.ID, "")
		requireKind(t, domain.KindValidation, err)
		assigned, err := h.svc.AssignWorkOrder(ctx, order.ID, "TEC-001")
		require.NoError(t, err)
		require.Equal(t, domain.OrderAssigned, assigned.State)
		require.Equal(t, "TEC-001", assigned.AssignedTechnician)
		require.NotNil(t, assigned.AssignedAt)

		started, err := h.svc.StartWorkOrder(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, started.StartedAt)
		paused, err := h.svc.PauseWorkOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderPaused, paused.State)
		resumed, err := h.svc.StartWorkOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderInProgress, resumed.State)
		require.True(t, started.StartedAt.Equal(*resumed.StartedAt), "start time is stamped once")

		_, err = h.svc.CompleteWorkOrder(ctx, order.ID, "", nil, nil)
		requireKind(t, domain.KindValidation, err)
		_, err = h.svc.CompleteWorkOrder(ctx, order.ID, "ok", ptr(-1.0), nil)
		requireKind(t, domain.KindValidation, err)
		completed, err := h.svc.CompleteWorkOrder(ctx, order.ID, "Rodamientos sustituidos", ptr(3.5), ptr(120.0))
		require.NoError(t, err)
		require.Equal(t, domain.OrderCompleted, completed.State)
		require.Equal(t, "Rodamientos sustituidos", completed.Resolution)
		require.InDelta(t, 3.5, *completed.ActualHours, 1e-9)
		require.InDelta(t, 120, *completed.ActualCost, 1e-9)

		_, err = h.svc.CloseWorkOrder(ctx, order.ID, "")
		requireKind(t, domain.KindValidation, err)
		closed, err := h.svc.CloseWorkOrder(ctx, order.ID, "Jefe de planta")
		require.NoError(t, err)
		require.Equal(t, domain.OrderClosed, closed.State)
		require.Equal(t, "Jefe de planta", closed.ValidatedBy)
		require.NotNil(t, closed.ValidatedAt)

		_, err = h.svc.CancelWorkOrder(ctx, order.ID, "late")
		requireKind(t, domain.KindTransition, err)

		require.NoError(t, h.svc.DeleteWorkOrder(ctx, order.ID))
		requireKind(t, domain.KindNotFound, h.svc.DeleteWorkOrder(ctx, order.ID))
	})
}

func TestCloseInProgressOrderFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.order(t)
	_, err := h.svc.AssignWorkOrder(ctx, order.ID, "TEC-001")
	require.NoError(t, err)
	inProgress, err := h.svc.StartWorkOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = h.svc.CloseWorkOrder(ctx, order.ID, "Jefe de planta")
	requireKind(t, domain.KindTransition, err)
	got, _ := h.svc.Store().WorkOrder(order.ID)
	require.Equal(t, inProgress, got)
}

func TestCancelWorkOrderStoresReason(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.order(t)
	_, err := h.svc.CancelWorkOrder(ctx, order.ID, "")
	requireKind(t, domain.KindValidation, err)
	cancelled, err := h.svc.CancelWorkOrder(ctx, order.ID, "Duplicada")
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, cancelled.State)
	require.Equal(t, "Duplicada", cancelled.Observations)
}

func TestUpdateWorkOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.equipment(t, "MOT-001")
	first := h.order(t)
	second := h.order(t)

	_, err := h.svc.UpdateWorkOrder(ctx, first.ID, domain.Patch{"state": domain.OrderClosed})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.UpdateWorkOrder(ctx, first.ID, domain.Patch{"number": second.Number})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.UpdateWorkOrder(ctx, "OT-404", domain.Patch{"title": "x"})
	requireKind(t, domain.KindNotFound, err)

	updated, err := h.svc.UpdateWorkOrder(ctx, first.ID, domain.Patch{
		"equipment_id": "MOT-001",
		"materials":    []string{"rodamiento 6204", "grasa"},
	})
	require.NoError(t, err)
	require.Equal(t, "Motor principal MOT-001", updated.EquipmentName)
	require.Equal(t, []string{"rodamiento 6204", "grasa"}, updated.Materials)
}

func TestOrderQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.order(t)
	h.order(t)
	_, err := h.svc.AssignWorkOrder(ctx, a.ID, "TEC-001")
	require.NoError(t, err)

	require.Len(t, h.svc.OrdersByState(domain.OrderOpen), 1)
	require.Len(t, h.svc.OrdersByState(domain.OrderAssigned), 1)
	byTech := h.svc.OrdersByTechnician("TEC-001")
	require.Len(t, byTech, 1)
	require.Equal(t, a.ID, byTech[0].ID)
}
