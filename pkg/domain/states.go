package domain

import "time"

// EquipmentState is the operating state of an equipment.
type EquipmentState string

// Equipment operating states.
const (
	EquipmentOperational      EquipmentState = "operational"
	EquipmentUnderMaintenance EquipmentState = "under_maintenance"
	EquipmentOutOfService     EquipmentState = "out_of_service"
)

// TaskKind classifies a maintenance task.
type TaskKind string

// Maintenance task kinds.
const (
	TaskPreventive TaskKind = "preventive"
	TaskCorrective TaskKind = "corrective"
	TaskPredictive TaskKind = "predictive"
)

// TaskState enumerates maintenance task lifecycle states.
type TaskState string

// Maintenance task lifecycle states. Completed and cancelled are terminal.
const (
	TaskScheduled  TaskState = "scheduled"
	TaskInProgress TaskState = "in_progress"
	TaskCompleted  TaskState = "completed"
	TaskCancelled  TaskState = "cancelled"
)

// Priority ranks tasks and work orders. Urgent applies to work orders only.
type Priority string

// Priorities in ascending order.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
	PriorityUrgent   Priority = "urgent"
)

// WorkType classifies the work requested by a work order.
type WorkType string

// Work order work types.
const (
	WorkPreventiveMaintenance WorkType = "preventive_maintenance"
	WorkCorrectiveMaintenance WorkType = "corrective_maintenance"
	WorkRepair                WorkType = "repair"
	WorkInstallation          WorkType = "installation"
	WorkInspection            WorkType = "inspection"
	WorkModification          WorkType = "modification"
)

// WorkOrderState enumerates work order lifecycle states.
type WorkOrderState string

// Work order lifecycle states. Closed and cancelled are terminal.
const (
	OrderOpen       WorkOrderState = "open"
	OrderAssigned   WorkOrderState = "assigned"
	OrderInProgress WorkOrderState = "in_progress"
	OrderPaused     WorkOrderState = "paused"
	OrderCompleted  WorkOrderState = "completed"
	OrderCancelled  WorkOrderState = "cancelled"
	OrderClosed     WorkOrderState = "closed"
)

// AlertSeverity ranks alerts.
type AlertSeverity string

// Alert severities.
const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// AlertState enumerates alert lifecycle states. No alert state is terminal.
type AlertState string

// Alert lifecycle states.
const (
	AlertActive   AlertState = "active"
	AlertRead     AlertState = "read"
	AlertResolved AlertState = "resolved"
)

// CostCategory groups cost entries for roll-up reporting.
type CostCategory string

// Cost categories.
const (
	CostLabor            CostCategory = "labor"
	CostParts            CostCategory = "parts"
	CostTools            CostCategory = "tools"
	CostExternalServices CostCategory = "external_services"
	CostOther            CostCategory = "other"
)

// Frequency is the recurrence of a maintenance task.
type Frequency string

// Recurrence frequencies.
const (
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiweekly    Frequency = "biweekly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyBimonthly   Frequency = "bimonthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencySemiannual  Frequency = "semiannual"
	FrequencyAnnual      Frequency = "annual"
	FrequencyOnCondition Frequency = "on_condition"
	FrequencyOnce        Frequency = "once"
)

// Next returns the date of the next occurrence after from. The boolean is
// false for frequencies without a fixed interval, in which case from is
// returned unchanged.
func (f Frequency) Next(from time.Time) (time.Time, bool) {
	switch f {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1), true
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), true
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 15), true
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0), true
	case FrequencyBimonthly:
		return from.AddDate(0, 2, 0), true
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0), true
	case FrequencySemiannual:
		return from.AddDate(0, 6, 0), true
	case FrequencyAnnual:
		return from.AddDate(1, 0, 0), true
	default:
		return from, false
	}
}

// Date truncates t to midnight UTC. Scheduling dates carry no time of day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
