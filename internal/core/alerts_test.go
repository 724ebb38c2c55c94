package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"maintcore/pkg/domain"
)

func TestAlertLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.equipment(t, "MOT-001")

	alert, err := h.svc.CreateAlert(ctx, domain.Alert{EquipmentID: "MOT-001", Category: "Temperatura", Message: "Temperatura alta"})
	require.NoError(t, err)
	require.Equal(t, int64(1), alert.ID)
	require.Equal(t, domain.AlertActive, alert.State)
	require.Equal(t, domain.SeverityInfo, alert.Severity)
	require.Equal(t, "Motor principal MOT-001", alert.EquipmentName)

	read, err := h.svc.MarkAlertRead(ctx, alert.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AlertRead, read.State)
	require.NotNil(t, read.ReadAt)

	_, err = h.svc.MarkAlertRead(ctx, alert.ID)
	requireKind(t, domain.KindTransition, err)

	resolved, err := h.svc.ResolveAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AlertResolved, resolved.State)
	require.NotNil(t, resolved.ResolvedAt)

	active, err := h.svc.ReactivateAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AlertActive, active.State)
	require.Nil(t, active.ReadAt)
	require.Nil(t, active.ResolvedAt)

	_, err = h.svc.ReactivateAlert(ctx, alert.ID)
	requireKind(t, domain.KindTransition, err)

	resolved, err = h.svc.ResolveAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.NoError(t, h.svc.DeleteAlert(ctx, resolved.ID))
	requireKind(t, domain.KindNotFound, h.svc.DeleteAlert(ctx, resolved.ID))
	_, err = h.svc.ResolveAlert(ctx, 99)
	requireKind(t, domain.KindNotFound, err)
}

func TestCreateAlertValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.svc.CreateAlert(ctx, domain.Alert{Category: "Vibración"})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.CreateAlert(ctx, domain.Alert{Category: "Vibración", Message: "x", Severity: "fatal"})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.CreateAlert(ctx, domain.Alert{EquipmentID: "NOPE", Category: "Vibración", Message: "x"})
	requireKind(t, domain.KindNotFound, err)

	created, err := h.svc.CreateAlert(ctx, domain.Alert{ID: 40, Category: "Vibración", Message: "x", Severity: domain.SeverityCritical})
	require.NoError(t, err)
	require.Equal(t, int64(40), created.ID)
	_, err = h.svc.CreateAlert(ctx, domain.Alert{ID: 40, Category: "Vibración", Message: "y"})
	requireKind(t, domain.KindValidation, err)
}

func TestLengthStrategyAlertIDsFollowHighest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, WithIDStrategy(IDLength))
	_, err := h.svc.CreateAlert(ctx, domain.Alert{ID: 7, Category: "Aceite", Message: "Nivel bajo"})
	require.NoError(t, err)
	next, err := h.svc.CreateAlert(ctx, domain.Alert{Category: "Aceite", Message: "Nivel bajo"})
	require.NoError(t, err)
	require.Equal(t, int64(8), next.ID)
}
