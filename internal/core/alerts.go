package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
)

// CreateAlert raises an alert. Blank state and severity default to active
// and info; a zero id is generated.
func (s *Service) CreateAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	if alert.EquipmentID != "" {
		eq, ok := s.store.EquipmentByID(alert.EquipmentID)
		if !ok {
			return domain.Alert{}, notFound(domain.EntityEquipment, alert.EquipmentID)
		}
		alert.EquipmentName = eq.Name
	}
	if alert.State == "" {
		alert.State = domain.AlertActive
	}
	if alert.Severity == "" {
		alert.Severity = domain.SeverityInfo
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}
	if err := validateEntity(domain.EntityAlert, alert); err != nil {
		return domain.Alert{}, err
	}
	if alert.ID != 0 && s.store.has(domain.EntityAlert, alert.Key()) {
		return domain.Alert{}, domain.ValidationError{Entity: domain.EntityAlert, Field: "id", Reason: fmt.Sprintf("%d already exists", alert.ID)}
	}
	if alert.ID == 0 {
		id, err := s.ids.NextAlertID(ctx)
		if err != nil {
			return domain.Alert{}, err
		}
		alert.ID = id
	}
	return insertRecord(ctx, s.store, s.alerts, alertTable, alert)
}

// MarkAlertRead marks an active alert as read.
func (s *Service) MarkAlertRead(ctx context.Context, id int64) (domain.Alert, error) {
	return s.transitionAlert(ctx, id, EventRead, func(now time.Time) domain.Patch {
		return domain.Patch{"read_at": now}
	})
}

// ResolveAlert resolves an active or read alert.
func (s *Service) ResolveAlert(ctx context.Context, id int64) (domain.Alert, error) {
	return s.transitionAlert(ctx, id, EventResolve, func(now time.Time) domain.Patch {
		return domain.Patch{"resolved_at": now}
	})
}

// ReactivateAlert returns a read or resolved alert to active and clears its
// read and resolved stamps.
func (s *Service) ReactivateAlert(ctx context.Context, id int64) (domain.Alert, error) {
	return s.transitionAlert(ctx, id, EventReactivate, func(time.Time) domain.Patch {
		return domain.Patch{"read_at": nil, "resolved_at": nil}
	})
}

// DeleteAlert removes an alert in any state.
func (s *Service) DeleteAlert(ctx context.Context, id int64) error {
	key := strconv.FormatInt(id, 10)
	if _, ok := s.store.Alert(id); !ok {
		return notFound(domain.EntityAlert, key)
	}
	return deleteRecord(ctx, s.store, s.alerts, alertTable, key)
}

func (s *Service) transitionAlert(ctx context.Context, id int64, event string, fields func(time.Time) domain.Patch) (domain.Alert, error) {
	key := strconv.FormatInt(id, 10)
	alert, ok := s.store.Alert(id)
	if !ok {
		return domain.Alert{}, notFound(domain.EntityAlert, key)
	}
	next, err := transition(domain.EntityAlert, key, alert.State, event)
	if err != nil {
		return alert, err
	}
	patch := fields(s.now())
	patch["state"] = next
	updated, err := updateRecord(ctx, s.store, s.alerts, alertTable, key, patch)
	if err != nil {
		return alert, err
	}
	s.log.Debug("transition", zap.String("entity", string(domain.EntityAlert)),
		zap.String("id", key), zap.String("event", event), zap.String("state", string(next)))
	return updated, nil
}
