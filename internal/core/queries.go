package core

import (
	"time"

	"maintcore/pkg/domain"
)

// TotalCost sums every cost entry.
func (s *Service) TotalCost() float64 {
	var total float64
	for _, c := range s.store.Costs() {
		total += c.Amount
	}
	return total
}

// CostByCategory sums cost entries per category.
func (s *Service) CostByCategory() map[domain.CostCategory]float64 {
	out := map[domain.CostCategory]float64{}
	for _, c := range s.store.Costs() {
		out[c.Category] += c.Amount
	}
	return out
}

// CostsByTask lists the cost entries owned by taskID.
func (s *Service) CostsByTask(taskID string) []domain.Cost {
	var out []domain.Cost
	for _, c := range s.store.Costs() {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out
}

// OrdersByState lists work orders in state.
func (s *Service) OrdersByState(state domain.WorkOrderState) []domain.WorkOrder {
	var out []domain.WorkOrder
	for _, o := range s.store.WorkOrders() {
		if o.State == state {
			out = append(out, o)
		}
	}
	return out
}

// OrdersByTechnician lists work orders assigned to technician.
func (s *Service) OrdersByTechnician(technician string) []domain.WorkOrder {
	var out []domain.WorkOrder
	for _, o := range s.store.WorkOrders() {
		if o.AssignedTechnician == technician {
			out = append(out, o)
		}
	}
	return out
}

// NextOccurrence returns the date the task recurs after its scheduled date.
// The boolean is false for tasks without a fixed frequency.
func (s *Service) NextOccurrence(taskID string) (time.Time, bool, error) {
	task, ok := s.store.MaintenanceTask(taskID)
	if !ok {
		return time.Time{}, false, notFound(domain.EntityMaintenanceTask, taskID)
	}
	next, ok := task.Frequency.Next(domain.Date(task.ScheduledAt))
	if !ok {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// Statistics is a dashboard snapshot of the store.
type Statistics struct {
	Equipment struct {
		Total             int     `json:"total"`
		Operational       int     `json:"operational"`
		UnderMaintenance  int     `json:"under_maintenance"`
		OutOfService      int     `json:"out_of_service"`
		AverageEfficiency float64 `json:"average_efficiency"`
	} `json:"equipment"`
	Tasks struct {
		Total      int `json:"total"`
		Scheduled  int `json:"scheduled"`
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
	} `json:"tasks"`
	Orders struct {
		Total      int `json:"total"`
		Open       int `json:"open"`
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
	} `json:"orders"`
	Alerts struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Critical int `json:"critical"`
	} `json:"alerts"`
}

// Statistics computes counts by state for equipment, tasks, orders and alerts.
func (s *Service) Statistics() Statistics {
	var st Statistics
	var efficiency float64
	for _, e := range s.store.Equipment() {
		st.Equipment.Total++
		efficiency += e.Efficiency
		switch e.State {
		case domain.EquipmentOperational:
			st.Equipment.Operational++
		case domain.EquipmentUnderMaintenance:
			st.Equipment.UnderMaintenance++
		case domain.EquipmentOutOfService:
			st.Equipment.OutOfService++
		}
	}
	if st.Equipment.Total > 0 {
		st.Equipment.AverageEfficiency = efficiency / float64(st.Equipment.Total)
	}
	for _, t := range s.store.MaintenanceTasks() {
		st.Tasks.Total++
		switch t.State {
		case domain.TaskScheduled:
			st.Tasks.Scheduled++
		case domain.TaskInProgress:
			st.Tasks.InProgress++
		case domain.TaskCompleted:
			st.Tasks.Completed++
		}
	}
	for _, o := range s.store.WorkOrders() {
		st.Orders.Total++
		switch o.State {
		case domain.OrderOpen:
			st.Orders.Open++
		case domain.OrderInProgress:
			st.Orders.InProgress++
		case domain.OrderCompleted:
			st.Orders.Completed++
		}
	}
	for _, a := range s.store.Alerts() {
		st.Alerts.Total++
		if a.State == domain.AlertActive {
			st.Alerts.Active++
		}
		if a.Severity == domain.SeverityCritical {
			st.Alerts.Critical++
		}
	}
	return st
}
