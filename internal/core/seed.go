package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// Sample records installed by Seed. The task cost matches its cost entries.
var (
	sampleEquipment = []domain.Equipment{
		{
			ID: "MOT-001", Name: "Motor Principal Línea A", Type: "Motor Eléctrico",
			Location: "Planta Principal - Sector A", State: domain.EquipmentOperational,
			InstalledAt: day(2020, 3, 15), NextMaintenanceAt: day(2024, 1, 25),
			OperatingHours: 8760, Efficiency: 87,
		},
		{
			ID: "BOM-001", Name: "Bomba Centrífuga Agua", Type: "Bomba Centrífuga",
			Location: "Sala de Bombas", State: domain.EquipmentOperational,
			InstalledAt: day(2021, 6, 10), NextMaintenanceAt: day(2024, 1, 18),
			OperatingHours: 6240, Efficiency: 92,
		},
	}
	sampleTasks = []domain.MaintenanceTask{
		{
			ID: "MNT-001", EquipmentID: "MOT-001", EquipmentName: "Motor Principal Línea A",
			Kind: domain.TaskPreventive, Description: "Cambio de aceite y filtros, inspección general",
			ScheduledAt: time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC), State: domain.TaskScheduled,
			Technician: "Juan Pérez", Priority: domain.PriorityHigh, Cost: 450,
		},
	}
	sampleCosts = []domain.Cost{
		{
			ID: "CST-001", TaskID: "MNT-001", Concept: "Aceite, filtros y mano de obra",
			Category: domain.CostParts, Amount: 450, Date: time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC),
		},
	}
)

// Seed installs the sample equipment and task when the store holds neither
// equipment nor tasks. It reports whether anything was written.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	if s.store.Len(domain.EntityEquipment) > 0 || s.store.Len(domain.EntityMaintenanceTask) > 0 {
		return false, nil
	}
	for _, eq := range sampleEquipment {
		if _, err := insertRecord(ctx, s.store, s.equipment, equipmentTable, eq); err != nil {
			return false, err
		}
	}
	for _, task := range sampleTasks {
		if _, err := insertRecord(ctx, s.store, s.tasks, taskTable, task); err != nil {
			return false, err
		}
	}
	for _, cost := range sampleCosts {
		if _, err := insertRecord(ctx, s.store, s.costs, costTable, cost); err != nil {
			return false, err
		}
	}
	s.log.Info("sample data installed", zap.Int("equipment", len(sampleEquipment)), zap.Int("tasks", len(sampleTasks)))
	return true, nil
}
