package core

import (
	"context"

	"maintcore/pkg/domain"
)

// AddCost records a cost entry against its task and recomputes the task's
// cost.
func (s *Service) AddCost(ctx context.Context, cost domain.Cost) (domain.Cost, error) {
	if err := required(domain.EntityCost, "task_id", cost.TaskID); err != nil {
		return domain.Cost{}, err
	}
	if _, ok := s.store.MaintenanceTask(cost.TaskID); !ok {
		return domain.Cost{}, notFound(domain.EntityMaintenanceTask, cost.TaskID)
	}
	if cost.Date.IsZero() {
		cost.Date = s.now()
	}
	if err := validateDraft(domain.EntityCost, cost); err != nil {
		return domain.Cost{}, err
	}
	id, err := s.assignID(ctx, domain.EntityCost, cost.ID)
	if err != nil {
		return domain.Cost{}, err
	}
	cost.ID = id
	plan := Plan{
		Operation: "cost.add",
		Primary: Step{
			Name: "cost",
			Apply: func(ctx context.Context) error {
				_, err := insertRecord(ctx, s.store, s.costs, costTable, cost)
				return err
			},
			Revert: func(ctx context.Context) error {
				return deleteRecord(ctx, s.store, s.costs, costTable, cost.ID)
			},
		},
		Effects: []Step{s.recomputeStep(cost.TaskID)},
	}
	err = s.exec.Execute(ctx, plan)
	stored, _ := s.store.Cost(cost.ID)
	return stored, err
}

// UpdateCost edits a cost entry. When the entry moves to another task both
// tasks are recomputed.
func (s *Service) UpdateCost(ctx context.Context, id string, patch domain.Patch) (domain.Cost, error) {
	current, ok := s.store.Cost(id)
	if !ok {
		return domain.Cost{}, notFound(domain.EntityCost, id)
	}
	next, err := preview(domain.EntityCost, current, patch)
	if err != nil {
		return current, err
	}
	if next.TaskID != current.TaskID {
		if _, ok := s.store.MaintenanceTask(next.TaskID); !ok {
			return current, notFound(domain.EntityMaintenanceTask, next.TaskID)
		}
	}
	if err := immutable(domain.EntityCost, patch, "id"); err != nil {
		return current, err
	}
	if err := validateEntity(domain.EntityCost, next); err != nil {
		return current, err
	}
	prior, err := priorValues(current, patch)
	if err != nil {
		return current, err
	}
	plan := Plan{
		Operation: "cost.update",
		Primary: Step{
			Name: "cost",
			Apply: func(ctx context.Context) error {
				_, err := updateRecord(ctx, s.store, s.costs, costTable, id, patch)
				return err
			},
			Revert: func(ctx context.Context) error {
				_, err := updateRecord(ctx, s.store, s.costs, costTable, id, prior)
				return err
			},
		},
		Effects: []Step{s.recomputeStep(current.TaskID)},
	}
	if next.TaskID != current.TaskID {
		plan.Effects = append(plan.Effects, s.recomputeStep(next.TaskID))
	}
	err = s.exec.Execute(ctx, plan)
	stored, _ := s.store.Cost(id)
	return stored, err
}

// DeleteCost removes a cost entry and recomputes its task.
func (s *Service) DeleteCost(ctx context.Context, id string) error {
	current, ok := s.store.Cost(id)
	if !ok {
		return notFound(domain.EntityCost, id)
	}
	plan := Plan{
		Operation: "cost.delete",
		Primary: Step{
			Name: "cost",
			Apply: func(ctx context.Context) error {
				return deleteRecord(ctx, s.store, s.costs, costTable, id)
			},
			Revert: func(ctx context.Context) error {
				_, err := insertRecord(ctx, s.store, s.costs, costTable, current)
				return err
			},
		},
		Effects: []Step{s.recomputeStep(current.TaskID)},
	}
	return s.exec.Execute(ctx, plan)
}

// RecomputeTaskCost writes the sum of the task's cost entries into its cost
// field.
func (s *Service) RecomputeTaskCost(ctx context.Context, taskID string) (domain.MaintenanceTask, error) {
	if _, ok := s.store.MaintenanceTask(taskID); !ok {
		return domain.MaintenanceTask{}, notFound(domain.EntityMaintenanceTask, taskID)
	}
	return updateRecord(ctx, s.store, s.tasks, taskTable, taskID, domain.Patch{"cost": s.taskCostSum(taskID)})
}

// recomputeStep sums the task's entries when applied, so it sees the cost
// mutation committed by the step before it.
func (s *Service) recomputeStep(taskID string) Step {
	var previous float64
	return Step{
		Name: "task cost " + taskID,
		Apply: func(ctx context.Context) error {
			task, ok := s.store.MaintenanceTask(taskID)
			if !ok {
				return notFound(domain.EntityMaintenanceTask, taskID)
			}
			previous = task.Cost
			_, err := updateRecord(ctx, s.store, s.tasks, taskTable, taskID, domain.Patch{"cost": s.taskCostSum(taskID)})
			return err
		},
		Revert: func(ctx context.Context) error {
			_, err := updateRecord(ctx, s.store, s.tasks, taskTable, taskID, domain.Patch{"cost": previous})
			return err
		},
	}
}

func (s *Service) taskCostSum(taskID string) float64 {
	var sum float64
	for _, c := range s.CostsByTask(taskID) {
		sum += c.Amount
	}
	return sum
}
