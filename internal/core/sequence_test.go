package core

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maintcore/internal/gateway"
	"maintcore/internal/infra/kvstore/memory"
	"maintcore/internal/infra/persistence/backendtest"
	"maintcore/internal/infra/persistence/kv"
	"maintcore/pkg/domain"
)

func TestFormatting(t *testing.T) {
	require.Equal(t, "CST-003", FormatID("CST", 3))
	require.Equal(t, "AREA-002", FormatID("AREA", 2))
	require.Equal(t, "OT-1234", FormatID("OT", 1234))
	require.Equal(t, "2026-001", FormatOrderNumber(2026, 1))
}

func TestGeneratedIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	gw := gateway.New(kv.New(memory.New()))
	store := NewStore()
	pattern := map[domain.EntityType]*regexp.Regexp{
		domain.EntityEquipment:       regexp.MustCompile(`^EQ-\d{3,}$`),
		domain.EntityMaintenanceTask: regexp.MustCompile(`^MNT-\d{3,}$`),
		domain.EntityWorkOrder:       regexp.MustCompile(`^OT-\d{3,}$`),
		domain.EntityCost:            regexp.MustCompile(`^CST-\d{3,}$`),
		domain.EntityCompanyArea:     regexp.MustCompile(`^AREA-\d{3,}$`),
		domain.EntityTechnician:      regexp.MustCompile(`^TEC-\d{3,}$`),
	}
	gen := NewIDGenerator(NewCounterSequencer(gw), store)
	for entity, re := range pattern {
		seen := map[string]bool{}
		for i := 0; i < 25; i++ {
			id, err := gen.NextID(ctx, entity)
			require.NoError(t, err)
			require.Regexp(t, re, id)
			require.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
	var last int64
	for i := 0; i < 5; i++ {
		id, err := gen.NextAlertID(ctx)
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
	_, err := gen.NextID(ctx, domain.EntityCompanyProfile)
	require.Error(t, err)
}

func TestCounterSkipsOccupiedIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.equipment(t, "EQ-001")
	h.equipment(t, "EQ-002")
	eq, err := h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Compresor", State: domain.EquipmentOperational})
	require.NoError(t, err)
	require.Equal(t, "EQ-003", eq.ID)
}

func TestLengthStrategyCollidesAfterDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, WithIDStrategy(IDLength))
	first, err := h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Motor", State: domain.EquipmentOperational})
	require.NoError(t, err)
	second, err := h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Bomba", State: domain.EquipmentOperational})
	require.NoError(t, err)
	require.Equal(t, []string{"EQ-001", "EQ-002"}, []string{first.ID, second.ID})

	require.NoError(t, h.svc.DeleteEquipment(ctx, first.ID))
	_, err = h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Compresor", State: domain.EquipmentOperational})
	requireKind(t, domain.KindPersistence, err)
	require.ErrorIs(t, err, domain.ErrRecordExists)
	require.Equal(t, 1, h.svc.Store().Len(domain.EntityEquipment))
}

func TestSequenceFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	boom := errors.New("counter unavailable")
	h.backend.FailOn(domain.Collection(domain.EntityEquipment), backendtest.OpSequence, boom)
	_, err := h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Motor", State: domain.EquipmentOperational})
	requireKind(t, domain.KindPersistence, err)
	require.ErrorIs(t, err, boom)
	require.Zero(t, h.svc.Store().Len(domain.EntityEquipment))
}

func TestOrderNumberCounterIsPerYear(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	n, err := h.svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, "2026-001", n)
	h.clock.Set(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	n, err = h.svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, "2027-001", n)
}
