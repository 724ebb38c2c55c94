package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
)

// DefaultCompletionNotes is stored when a task is completed without notes.
const DefaultCompletionNotes = "Maintenance completed successfully"

// CompletionAlertCategory is the category of the alert raised on completion.
const CompletionAlertCategory = "Maintenance completed"

// CreateMaintenanceTask schedules a new task. The task always starts
// scheduled with a zero cost; the equipment name is copied from the store.
func (s *Service) CreateMaintenanceTask(ctx context.Context, task domain.MaintenanceTask) (domain.MaintenanceTask, error) {
	if err := required(domain.EntityMaintenanceTask, "equipment_id", task.EquipmentID); err != nil {
		return domain.MaintenanceTask{}, err
	}
	eq, ok := s.store.EquipmentByID(task.EquipmentID)
	if !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityEquipment, task.EquipmentID)
	}
	if task.ScheduledAt.IsZero() {
		return domain.MaintenanceTask{}, domain.ValidationError{Entity: domain.EntityMaintenanceTask, Field: "scheduled_at", Reason: "is required"}
	}
	task.EquipmentName = eq.Name
	task.State = domain.TaskScheduled
	task.StartedAt, task.CompletedAt = nil, nil
	task.Cost = 0
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Priority == domain.PriorityUrgent {
		return domain.MaintenanceTask{}, domain.ValidationError{Entity: domain.EntityMaintenanceTask, Field: "priority", Reason: "urgent applies to work orders only"}
	}
	if err := validateDraft(domain.EntityMaintenanceTask, task); err != nil {
		return domain.MaintenanceTask{}, err
	}
	id, err := s.assignID(ctx, domain.EntityMaintenanceTask, task.ID)
	if err != nil {
		return domain.MaintenanceTask{}, err
	}
	task.ID = id
	return insertRecord(ctx, s.store, s.tasks, taskTable, task)
}

// UpdateMaintenanceTask edits task fields. State and cost are owned by the
// lifecycle and the cost aggregator and cannot be patched.
func (s *Service) UpdateMaintenanceTask(ctx context.Context, id string, patch domain.Patch) (domain.MaintenanceTask, error) {
	current, ok := s.store.MaintenanceTask(id)
	if !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityMaintenanceTask, id)
	}
	if err := immutable(domain.EntityMaintenanceTask, patch, "id", "state", "cost", "equipment_name"); err != nil {
		return domain.MaintenanceTask{}, err
	}
	patch, err := s.withEquipmentName(domain.EntityMaintenanceTask, patch)
	if err != nil {
		return domain.MaintenanceTask{}, err
	}
	next, err := preview(domain.EntityMaintenanceTask, current, patch)
	if err != nil {
		return domain.MaintenanceTask{}, err
	}
	if err := validateEntity(domain.EntityMaintenanceTask, next); err != nil {
		return domain.MaintenanceTask{}, err
	}
	return updateRecord(ctx, s.store, s.tasks, taskTable, id, patch)
}

// DeleteMaintenanceTask removes a task. A task that still owns cost entries
// cannot be deleted.
func (s *Service) DeleteMaintenanceTask(ctx context.Context, id string) error {
	if _, ok := s.store.MaintenanceTask(id); !ok {
		return notFound(domain.EntityMaintenanceTask, id)
	}
	if n := len(s.CostsByTask(id)); n > 0 {
		return domain.ValidationError{Entity: domain.EntityMaintenanceTask, Field: "id", Reason: fmt.Sprintf("task still owns %d cost entries", n)}
	}
	return deleteRecord(ctx, s.store, s.tasks, taskTable, id)
}

// StartMaintenanceTask moves a scheduled task to in progress and puts its
// equipment under maintenance.
func (s *Service) StartMaintenanceTask(ctx context.Context, id string) (domain.MaintenanceTask, error) {
	task, ok := s.store.MaintenanceTask(id)
	if !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityMaintenanceTask, id)
	}
	next, err := transition(domain.EntityMaintenanceTask, id, task.State, EventStart)
	if err != nil {
		return task, err
	}
	now := s.now()
	plan := Plan{
		Operation: "maintenance_task.start",
		Primary: s.taskStep("task", id,
			domain.Patch{"state": next, "started_at": now},
			domain.Patch{"state": task.State, "started_at": stamp(task.StartedAt)}),
	}
	if step, ok := s.equipmentStateStep(task.EquipmentID, domain.EquipmentUnderMaintenance, nil); ok {
		plan.Effects = append(plan.Effects, step)
	}
	return s.runTaskPlan(ctx, id, EventStart, plan)
}

// CompleteMaintenanceTask moves an in-progress task to completed. The
// equipment returns to operational with its next maintenance pushed forward
// and an info alert announces the completion.
func (s *Service) CompleteMaintenanceTask(ctx context.Context, id, notes string) (domain.MaintenanceTask, error) {
	task, ok := s.store.MaintenanceTask(id)
	if !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityMaintenanceTask, id)
	}
	next, err := transition(domain.EntityMaintenanceTask, id, task.State, EventComplete)
	if err != nil {
		return task, err
	}
	if strings.TrimSpace(notes) == "" {
		notes = DefaultCompletionNotes
	}
	now := s.now()
	due := domain.Date(now.AddDate(0, s.months, 0))
	plan := Plan{
		Operation: "maintenance_task.complete",
		Primary: s.taskStep("task", id,
			domain.Patch{"state": next, "completed_at": now, "notes": notes},
			domain.Patch{"state": task.State, "completed_at": stamp(task.CompletedAt), "notes": task.Notes}),
	}
	if step, ok := s.equipmentStateStep(task.EquipmentID, domain.EquipmentOperational, &due); ok {
		plan.Effects = append(plan.Effects, step)
	}
	plan.Effects = append(plan.Effects, s.completionAlertStep(task, now))
	return s.runTaskPlan(ctx, id, EventComplete, plan)
}

// CancelMaintenanceTask cancels a scheduled task and keeps reason in its notes.
func (s *Service) CancelMaintenanceTask(ctx context.Context, id, reason string) (domain.MaintenanceTask, error) {
	task, ok := s.store.MaintenanceTask(id)
	if !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityMaintenanceTask, id)
	}
	if err := required(domain.EntityMaintenanceTask, "reason", reason); err != nil {
		return task, err
	}
	next, err := transition(domain.EntityMaintenanceTask, id, task.State, EventCancel)
	if err != nil {
		return task, err
	}
	plan := Plan{
		Operation: "maintenance_task.cancel",
		Primary:   s.taskStep("task", id, domain.Patch{"state": next, "notes": reason}, nil),
	}
	return s.runTaskPlan(ctx, id, EventCancel, plan)
}

func (s *Service) runTaskPlan(ctx context.Context, id, event string, plan Plan) (domain.MaintenanceTask, error) {
	err := s.exec.Execute(ctx, plan)
	task, _ := s.store.MaintenanceTask(id)
	if err == nil {
		s.log.Debug("transition", zap.String("entity", string(domain.EntityMaintenanceTask)),
			zap.String("id", id), zap.String("event", event), zap.String("state", string(task.State)))
	}
	return task, err
}

func (s *Service) taskStep(name, id string, apply, revert domain.Patch) Step {
	step := Step{
		Name: name,
		Apply: func(ctx context.Context) error {
			_, err := updateRecord(ctx, s.store, s.tasks, taskTable, id, apply)
			return err
		},
	}
	if revert != nil {
		step.Revert = func(ctx context.Context) error {
			_, err := updateRecord(ctx, s.store, s.tasks, taskTable, id, revert)
			return err
		}
	}
	return step
}

// equipmentStateStep moves equipment into state and optionally sets its next
// maintenance date. It reports false when the equipment is not in the store.
func (s *Service) equipmentStateStep(equipmentID string, state domain.EquipmentState, nextMaintenance *time.Time) (Step, bool) {
	eq, ok := s.store.EquipmentByID(equipmentID)
	if !ok {
		s.log.Warn("equipment missing, skipping state change", zap.String("equipment_id", equipmentID))
		return Step{}, false
	}
	apply := domain.Patch{"state": state}
	revert := domain.Patch{"state": eq.State}
	if nextMaintenance != nil {
		apply["next_maintenance_at"] = *nextMaintenance
		revert["next_maintenance_at"] = stamp(eq.NextMaintenanceAt)
	}
	return Step{
		Name: "equipment",
		Apply: func(ctx context.Context) error {
			_, err := updateRecord(ctx, s.store, s.equipment, equipmentTable, equipmentID, apply)
			return err
		},
		Revert: func(ctx context.Context) error {
			_, err := updateRecord(ctx, s.store, s.equipment, equipmentTable, equipmentID, revert)
			return err
		},
	}, true
}

func (s *Service) completionAlertStep(task domain.MaintenanceTask, now time.Time) Step {
	var created int64
	return Step{
		Name: "alert",
		Apply: func(ctx context.Context) error {
			id, err := s.ids.NextAlertID(ctx)
			if err != nil {
				return err
			}
			alert := domain.Alert{
				ID:            id,
				EquipmentID:   task.EquipmentID,
				EquipmentName: task.EquipmentName,
				Category:      CompletionAlertCategory,
				Message:       fmt.Sprintf("%s maintenance completed successfully", capitalize(string(task.Kind))),
				Severity:      domain.SeverityInfo,
				CreatedAt:     now,
				State:         domain.AlertActive,
			}
			stored, err := insertRecord(ctx, s.store, s.alerts, alertTable, alert)
			if err != nil {
				return err
			}
			created = stored.ID
			return nil
		},
		Revert: func(ctx context.Context) error {
			return deleteRecord(ctx, s.store, s.alerts, alertTable, domain.Alert{ID: created}.Key())
		},
	}
}

// withEquipmentName refreshes the denormalized equipment name when a patch
// relinks the equipment.
func (s *Service) withEquipmentName(entity domain.EntityType, patch domain.Patch) (domain.Patch, error) {
	raw, ok := patch["equipment_id"]
	if !ok {
		return patch, nil
	}
	id, _ := raw.(string)
	if id == "" {
		if entity == domain.EntityMaintenanceTask {
			return nil, domain.ValidationError{Entity: entity, Field: "equipment_id", Reason: "is required"}
		}
		out := domain.Patch{"equipment_name": ""}
		for k, v := range patch {
			out[k] = v
		}
		return out, nil
	}
	eq, found := s.store.EquipmentByID(id)
	if !found {
		return nil, notFound(domain.EntityEquipment, id)
	}
	out := domain.Patch{"equipment_name": eq.Name}
	for k, v := range patch {
		out[k] = v
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
