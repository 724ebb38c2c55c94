package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
)

// GenerateOrderNumber returns the next {year}-{NNN} work order number for
// the current year.
func (s *Service) GenerateOrderNumber(ctx context.Context) (string, error) {
	return s.ids.NextOrderNumber(ctx, s.now())
}

// CreateWorkOrder opens a new work order. The order always starts open with
// created_at stamped; a blank or whitespace-only number is generated.
func (s *Service) CreateWorkOrder(ctx context.Context, order domain.WorkOrder) (domain.WorkOrder, error) {
	if order.EquipmentID != "" {
		eq, ok := s.store.EquipmentByID(order.EquipmentID)
		if !ok {
			return domain.WorkOrder{}, notFound(domain.EntityEquipment, order.EquipmentID)
		}
		order.EquipmentName = eq.Name
	}
	order.State = domain.OrderOpen
	order.CreatedAt = s.now()
	order.AssignedAt, order.StartedAt, order.CompletedAt, order.ValidatedAt = nil, nil, nil, nil
	if order.Priority == "" {
		order.Priority = domain.PriorityMedium
	}
	if strings.TrimSpace(order.Number) == "" {
		order.Number = ""
	}
	if order.Number != "" && s.orderNumberTaken(order.Number, "") {
		return domain.WorkOrder{}, domain.ValidationError{Entity: domain.EntityWorkOrder, Field: "number", Reason: fmt.Sprintf("%q already exists", order.Number)}
	}
	if err := required(domain.EntityWorkOrder, "title", order.Title); err != nil {
		return domain.WorkOrder{}, err
	}
	id, err := s.assignID(ctx, domain.EntityWorkOrder, order.ID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	order.ID = id
	if order.Number == "" {
		if order.Number, err = s.GenerateOrderNumber(ctx); err != nil {
			return domain.WorkOrder{}, err
		}
	}
	if err := validateEntity(domain.EntityWorkOrder, order); err != nil {
		return domain.WorkOrder{}, err
	}
	return insertRecord(ctx, s.store, s.orders, orderTable, order)
}

// UpdateWorkOrder edits work order fields. The state moves only through the
// lifecycle operations.
func (s *Service) UpdateWorkOrder(ctx context.Context, id string, patch domain.Patch) (domain.WorkOrder, error) {
	current, ok := s.store.WorkOrder(id)
	if !ok {
		return domain.WorkOrder{}, notFound(domain.EntityWorkOrder, id)
	}
	if err := immutable(domain.EntityWorkOrder, patch, "id", "state", "equipment_name"); err != nil {
		return domain.WorkOrder{}, err
	}
	patch, err := s.withEquipmentName(domain.EntityWorkOrder, patch)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	next, err := preview(domain.EntityWorkOrder, current, patch)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if next.Number != current.Number && s.orderNumberTaken(next.Number, id) {
		return domain.WorkOrder{}, domain.ValidationError{Entity: domain.EntityWorkOrder, Field: "number", Reason: fmt.Sprintf("%q already exists", next.Number)}
	}
	if err := validateEntity(domain.EntityWorkOrder, next); err != nil {
		return domain.WorkOrder{}, err
	}
	return updateRecord(ctx, s.store, s.orders, orderTable, id, patch)
}

// DeleteWorkOrder removes an order in any state.
func (s *Service) DeleteWorkOrder(ctx context.Context, id string) error {
	if _, ok := s.store.WorkOrder(id); !ok {
		return notFound(domain.EntityWorkOrder, id)
	}
	return deleteRecord(ctx, s.store, s.orders, orderTable, id)
}

// AssignWorkOrder hands an open order to technician.
func (s *Service) AssignWorkOrder(ctx context.Context, id, technician string) (domain.WorkOrder, error) {
	return s.transitionOrder(ctx, id, EventAssign,
		func() error { return required(domain.EntityWorkOrder, "assigned_technician", technician) },
		func(_ domain.WorkOrder, now time.Time) domain.Patch {
			return domain.Patch{"assigned_technician": technician, "assigned_at": now}
		})
}

// StartWorkOrder starts an assigned order or resumes a paused one. The start
// time is stamped only the first time.
func (s *Service) StartWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	return s.transitionOrder(ctx, id, EventStart, nil, func(o domain.WorkOrder, now time.Time) domain.Patch {
		if o.StartedAt != nil {
			return domain.Patch{}
		}
		return domain.Patch{"started_at": now}
	})
}

// PauseWorkOrder pauses an order in progress.
func (s *Service) PauseWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	return s.transitionOrder(ctx, id, EventPause, nil, nil)
}

// CompleteWorkOrder completes an order in progress. The resolution is
// required; actual hours and cost are stored when given.
func (s *Service) CompleteWorkOrder(ctx context.Context, id, resolution string, actualHours, actualCost *float64) (domain.WorkOrder, error) {
	check := func() error {
		if err := required(domain.EntityWorkOrder, "resolution", resolution); err != nil {
			return err
		}
		if actualHours != nil && *actualHours < 0 {
			return domain.ValidationError{Entity: domain.EntityWorkOrder, Field: "actual_hours", Reason: "must be at least 0"}
		}
		if actualCost != nil && *actualCost < 0 {
			return domain.ValidationError{Entity: domain.EntityWorkOrder, Field: "actual_cost", Reason: "must be at least 0"}
		}
		return nil
	}
	return s.transitionOrder(ctx, id, EventComplete, check, func(_ domain.WorkOrder, now time.Time) domain.Patch {
		patch := domain.Patch{"completed_at": now, "resolution": resolution}
		if actualHours != nil {
			patch["actual_hours"] = floatOrNil(actualHours)
		}
		if actualCost != nil {
			patch["actual_cost"] = floatOrNil(actualCost)
		}
		return patch
	})
}

// CancelWorkOrder cancels a non-terminal order and records reason as its
// observations.
func (s *Service) CancelWorkOrder(ctx context.Context, id, reason string) (domain.WorkOrder, error) {
	return s.transitionOrder(ctx, id, EventCancel,
		func() error { return required(domain.EntityWorkOrder, "reason", reason) },
		func(domain.WorkOrder, time.Time) domain.Patch { return domain.Patch{"observations": reason} })
}

// CloseWorkOrder closes a completed order once validatedBy signs it off.
func (s *Service) CloseWorkOrder(ctx context.Context, id, validatedBy string) (domain.WorkOrder, error) {
	return s.transitionOrder(ctx, id, EventClose,
		func() error { return required(domain.EntityWorkOrder, "validated_by", validatedBy) },
		func(_ domain.WorkOrder, now time.Time) domain.Patch {
			return domain.Patch{"validated_by": validatedBy, "validated_at": now}
		})
}

// transitionOrder checks the order exists, runs check, evaluates event, then
// writes the new state together with the fields fields returns.
func (s *Service) transitionOrder(ctx context.Context, id, event string, check func() error, fields func(domain.WorkOrder, time.Time) domain.Patch) (domain.WorkOrder, error) {
	order, ok := s.store.WorkOrder(id)
	if !ok {
		return domain.WorkOrder{}, notFound(domain.EntityWorkOrder, id)
	}
	if check != nil {
		if err := check(); err != nil {
			return order, err
		}
	}
	next, err := transition(domain.EntityWorkOrder, id, order.State, event)
	if err != nil {
		return order, err
	}
	patch := domain.Patch{}
	if fields != nil {
		patch = fields(order, s.now())
	}
	patch["state"] = next
	updated, err := updateRecord(ctx, s.store, s.orders, orderTable, id, patch)
	if err != nil {
		return order, err
	}
	s.log.Debug("transition", zap.String("entity", string(domain.EntityWorkOrder)),
		zap.String("id", id), zap.String("event", event), zap.String("state", string(next)))
	return updated, nil
}

func (s *Service) orderNumberTaken(number, exceptID string) bool {
	for _, o := range s.store.WorkOrders() {
		if o.Number == number && o.ID != exceptID {
			return true
		}
	}
	return false
}
