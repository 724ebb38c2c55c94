package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maintcore/internal/bridge"
	"maintcore/internal/gateway"
	"maintcore/internal/infra/kvstore/memory"
	"maintcore/internal/infra/persistence/backendtest"
	"maintcore/internal/infra/persistence/kv"
	"maintcore/internal/infra/persistence/relational"
	"maintcore/pkg/domain"
	"maintcore/testutil"
)

var testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	backend *backendtest.Faulty
	clock   *testutil.StepClock
}

// newHarness builds a service over the in-memory kv adapter wrapped by a
// fault-injecting backend.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return newHarnessOver(t, openKV, opts...)
}

func newHarnessOver(t *testing.T, open func(*testing.T) domain.Backend, opts ...Option) *harness {
	t.Helper()
	backend := backendtest.NewFaulty(open(t))
	clock := testutil.NewStepClock(testStart, time.Minute)
	gw := gateway.New(backend)
	svc := NewService(gw, append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = svc.Close() })
	return &harness{svc: svc, backend: backend, clock: clock}
}

func openKV(*testing.T) domain.Backend { return kv.New(memory.New()) }

// openRelational opens the relational adapter over a migrated sqlite file
// reached through the loopback bridge.
func openRelational(t *testing.T) domain.Backend {
	t.Helper()
	ctx := context.Background()
	db, err := bridge.OpenDB(ctx, bridge.DialectSQLite, filepath.Join(t.TempDir(), "core.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	require.NoError(t, bridge.Migrate(ctx, db, bridge.DialectSQLite))
	h := bridge.NewHandler(db, bridge.DialectSQLite, bridge.BindNamed)
	return relational.New(bridge.NewLoopback(h, h), bridge.DialectSQLite, relational.WithTimeout(5*time.Second))
}

var harnessBackends = []struct {
	name string
	open func(*testing.T) domain.Backend
}{
	{"kv", openKV},
	{"relational", openRelational},
}

// forEachBackend runs fn once per backend adapter with a fresh harness.
func forEachBackend(t *testing.T, fn func(t *testing.T, h *harness), opts ...Option) {
	for _, b := range harnessBackends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, newHarnessOver(t, b.open, opts...))
		})
	}
}

func (h *harness) equipment(t *testing.T, id string) domain.Equipment {
	t.Helper()
	eq, err := h.svc.CreateEquipment(context.Background(), domain.Equipment{
		ID: id, Name: "Motor principal " + id, Type: "Motor eléctrico", Location: "Planta A",
		State: domain.EquipmentOperational, OperatingHours: 1200, Efficiency: 90,
	})
	require.NoError(t, err)
	return eq
}

func (h *harness) task(t *testing.T, equipmentID string) domain.MaintenanceTask {
	t.Helper()
	task, err := h.svc.CreateMaintenanceTask(context.Background(), domain.MaintenanceTask{
		EquipmentID: equipmentID, Kind: domain.TaskPreventive, Description: "Cambio de aceite",
		ScheduledAt: testStart.Add(24 * time.Hour), Technician: "Juan Pérez", Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)
	return task
}

func (h *harness) order(t *testing.T) domain.WorkOrder {
	t.Helper()
	order, err := h.svc.CreateWorkOrder(context.Background(), domain.WorkOrder{
		Title: "Cambio de rodamientos", WorkType: domain.WorkRepair, Requester: "Producción",
	})
	require.NoError(t, err)
	return order
}

func requireKind(t *testing.T, want domain.ErrorKind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, domain.KindOf(err), "error: %v", err)
}

func ptr[T any](v T) *T { return &v }
