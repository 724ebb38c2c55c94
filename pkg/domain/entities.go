// Package domain defines the persistent entities, state enumerations, error
// taxonomy, and backend contract shared by every maintcore layer.
package domain

import (
	"strconv"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence collections.
const (
	// EntityEquipment identifies a piece of plant equipment.
	EntityEquipment EntityType = "equipment"
	// EntityMaintenanceTask identifies a scheduled maintenance task.
	EntityMaintenanceTask EntityType = "maintenance_task"
	// EntityWorkOrder identifies a work order.
	EntityWorkOrder EntityType = "work_order"
	// EntityAlert identifies an alert raised against equipment.
	EntityAlert EntityType = "alert"
	// EntityCost identifies a cost entry owned by a maintenance task.
	EntityCost EntityType = "cost"
	// EntityCompanyArea identifies an organisational area.
	EntityCompanyArea EntityType = "company_area"
	// EntityTechnician identifies a technician record.
	EntityTechnician EntityType = "technician"
	// EntityCompanyProfile identifies the single company profile record.
	EntityCompanyProfile EntityType = "company_profile"
)

// Collection is the well-known persisted name of an entity set. The key/value
// backend stores one serialized array under this name and the relational
// backend uses it as the table name.
type Collection string

// Persisted collection names.
const (
	CollectionEquipment        Collection = "equipment"
	CollectionMaintenanceTasks Collection = "maintenance_tasks"
	CollectionWorkOrders       Collection = "work_orders"
	CollectionAlerts           Collection = "alerts"
	CollectionCosts            Collection = "costs"
	CollectionCompanyAreas     Collection = "company_areas"
	CollectionTechnicians      Collection = "technicians"
	CollectionCompanyProfile   Collection = "company_profile"
)

// Collections lists every persisted collection in load order.
var Collections = []Collection{
	CollectionEquipment,
	CollectionMaintenanceTasks,
	CollectionWorkOrders,
	CollectionAlerts,
	CollectionCosts,
	CollectionCompanyAreas,
	CollectionTechnicians,
	CollectionCompanyProfile,
}

// CollectionFor maps an entity type to its persisted collection.
func CollectionFor(entity EntityType) Collection {
	switch entity {
	case EntityEquipment:
		return CollectionEquipment
	case EntityMaintenanceTask:
		return CollectionMaintenanceTasks
	case EntityWorkOrder:
		return CollectionWorkOrders
	case EntityAlert:
		return CollectionAlerts
	case EntityCost:
		return CollectionCosts
	case EntityCompanyArea:
		return CollectionCompanyAreas
	case EntityTechnician:
		return CollectionTechnicians
	case EntityCompanyProfile:
		return CollectionCompanyProfile
	default:
		return Collection(entity)
	}
}

// Keyed is implemented by every persisted entity.
type Keyed interface {
	Key() string
}

// Equipment is a piece of plant equipment that maintenance is performed on.
type Equipment struct {
	ID                string         `json:"id" validate:"required"`
	Name              string         `json:"name" validate:"required"`
	Type              string         `json:"type"`
	Location          string         `json:"location"`
	State             EquipmentState `json:"state" validate:"required,oneof=operational under_maintenance out_of_service"`
	InstalledAt       *time.Time     `json:"installed_at,omitempty"`
	NextMaintenanceAt *time.Time     `json:"next_maintenance_at,omitempty"`
	OperatingHours    float64        `json:"operating_hours" validate:"gte=0"`
	Efficiency        float64        `json:"efficiency" validate:"gte=0,lte=100"`
}

// MaintenanceTask is a unit of scheduled maintenance work on one equipment.
// Cost is derived: it always equals the sum of the task's cost entries.
type MaintenanceTask struct {
	ID            string     `json:"id" validate:"required"`
	EquipmentID   string     `json:"equipment_id" validate:"required"`
	EquipmentName string     `json:"equipment_name"`
	Kind          TaskKind   `json:"kind" validate:"required,oneof=preventive corrective predictive"`
	Description   string     `json:"description"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	State         TaskState  `json:"state" validate:"required,oneof=scheduled in_progress completed cancelled"`
	Technician    string     `json:"technician"`
	Priority      Priority   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Frequency     Frequency  `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly biweekly monthly bimonthly quarterly semiannual annual on_condition once"`
	Cost          float64    `json:"cost"`
	Notes         string     `json:"notes,omitempty"`
}

// WorkOrder is a request for work against an equipment, tracked through its own lifecycle.
type WorkOrder struct {
	ID                 string         `json:"id" validate:"required"`
	Number             string         `json:"number" validate:"required"`
	Title              string         `json:"title" validate:"required"`
	Description        string         `json:"description"`
	EquipmentID        string         `json:"equipment_id"`
	EquipmentName      string         `json:"equipment_name"`
	WorkType           WorkType       `json:"work_type" validate:"omitempty,oneof=preventive_maintenance corrective_maintenance repair installation inspection modification"`
	Priority           Priority       `json:"priority" validate:"omitempty,oneof=low medium high critical urgent"`
	State              WorkOrderState `json:"state" validate:"required,oneof=open assigned in_progress paused completed cancelled closed"`
	CreatedAt          time.Time      `json:"created_at"`
	DueAt              *time.Time     `json:"due_at,omitempty"`
	AssignedAt         *time.Time     `json:"assigned_at,omitempty"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	Requester          string         `json:"requester"`
	AssignedTechnician string         `json:"assigned_technician,omitempty"`
	Department         string         `json:"department"`
	Area               string         `json:"area"`
	Location           string         `json:"location"`
	Materials          []string       `json:"materials,omitempty"`
	Tools              []string       `json:"tools,omitempty"`
	Procedures         []string       `json:"procedures,omitempty"`
	EstimatedHours     *float64       `json:"estimated_hours,omitempty"`
	ActualHours        *float64       `json:"actual_hours,omitempty"`
	EstimatedCost      *float64       `json:"estimated_cost,omitempty"`
	ActualCost         *float64       `json:"actual_cost,omitempty"`
	Observations       string         `json:"observations,omitempty"`
	Resolution         string         `json:"resolution,omitempty"`
	ValidatedBy        string         `json:"validated_by,omitempty"`
	ValidatedAt        *time.Time     `json:"validated_at,omitempty"`
}

// Alert is a notification raised against an equipment. Alert ids are plain integers.
type Alert struct {
	ID            int64         `json:"id"`
	EquipmentID   string        `json:"equipment_id"`
	EquipmentName string        `json:"equipment_name"`
	Category      string        `json:"category" validate:"required"`
	Message       string        `json:"message" validate:"required"`
	Severity      AlertSeverity `json:"severity" validate:"required,oneof=critical warning info"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	ReadAt        *time.Time    `json:"read_at,omitempty"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
	State         AlertState    `json:"state" validate:"required,oneof=active read resolved"`
}

// Cost is an expense recorded against exactly one maintenance task.
type Cost struct {
	ID       string       `json:"id" validate:"required"`
	TaskID   string       `json:"task_id" validate:"required"`
	Concept  string       `json:"concept" validate:"required"`
	Category CostCategory `json:"category" validate:"required,oneof=labor parts tools external_services other"`
	Amount   float64      `json:"amount" validate:"gte=0"`
	Date     time.Time    `json:"date"`
	Supplier string       `json:"supplier,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

// CompanyArea is an organisational area. Names are unique.
type CompanyArea struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Responsible string `json:"responsible"`
	Active      bool   `json:"active"`
}

// Technician is a person who performs maintenance work.
type Technician struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Active    bool   `json:"active"`
}

// CompanyProfileID is the fixed id of the single company profile record.
const CompanyProfileID = "company"

// CompanyProfile holds the operating company's details.
type CompanyProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email" validate:"omitempty,email"`
	TaxID     string    `json:"tax_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e Equipment) Key() string       { return e.ID }
func (t MaintenanceTask) Key() string { return t.ID }
func (o WorkOrder) Key() string       { return o.ID }
func (a Alert) Key() string           { return strconv.FormatInt(a.ID, 10) }
func (c Cost) Key() string            { return c.ID }
func (a CompanyArea) Key() string     { return a.ID }
func (t Technician) Key() string      { return t.ID }
func (p CompanyProfile) Key() string  { return p.ID }
