package relational

import "maintcore/pkg/domain"

// ColumnKind is the storage form of a column. Every kind maps onto types
// both sqlite and postgres store natively: times are ISO-8601 text,
// booleans are 0/1 integers, and lists are JSON text.
type ColumnKind uint8

// Column kinds.
const (
	KindText ColumnKind = iota
	KindInt
	KindReal
	KindBool
	KindTime
	KindJSON
)

// Column is one table column. Name equals the entity's JSON field name.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table describes the columns of one collection in declaration order.
type Table struct {
	Collection domain.Collection
	Columns    []Column
	index      map[string]ColumnKind
}

func newTable(c domain.Collection, cols ...Column) *Table {
	t := &Table{Collection: c, Columns: cols, index: make(map[string]ColumnKind, len(cols))}
	for _, col := range cols {
		t.index[col.Name] = col.Kind
	}
	return t
}

// Kind reports the kind of column name.
func (t *Table) Kind(name string) (ColumnKind, bool) {
	k, ok := t.index[name]
	return k, ok
}

// KeyKind reports the kind of the id column.
func (t *Table) KeyKind() ColumnKind { return t.index["id"] }

func text(name string) Column   { return Column{Name: name, Kind: KindText} }
func number(name string) Column { return Column{Name: name, Kind: KindReal} }
func stamp(name string) Column  { return Column{Name: name, Kind: KindTime} }
func list(name string) Column   { return Column{Name: name, Kind: KindJSON} }
func flag(name string) Column   { return Column{Name: name, Kind: KindBool} }

// Schema maps every collection to its table. It mirrors the embedded bridge
// migrations.
var Schema = map[domain.Collection]*Table{
	domain.CollectionEquipment: newTable(domain.CollectionEquipment,
		text("id"), text("name"), text("type"), text("location"), text("state"),
		stamp("installed_at"), stamp("next_maintenance_at"),
		number("operating_hours"), number("efficiency"),
	),
	domain.CollectionMaintenanceTasks: newTable(domain.CollectionMaintenanceTasks,
		text("id"), text("equipment_id"), text("equipment_name"), text("kind"), text("description"),
		stamp("scheduled_at"), stamp("started_at"), stamp("completed_at"),
		text("state"), text("technician"), text("priority"), text("frequency"),
		number("cost"), text("notes"),
	),
	domain.CollectionWorkOrders: newTable(domain.CollectionWorkOrders,
		text("id"), text("number"), text("title"), text("description"),
		text("equipment_id"), text("equipment_name"), text("work_type"), text("priority"), text("state"),
		stamp("created_at"), stamp("due_at"), stamp("assigned_at"), stamp("started_at"), stamp("completed_at"),
		text("requester"), text("assigned_technician"), text("department"), text("area"), text("location"),
		list("materials"), list("tools"), list("procedures"),
		number("estimated_hours"), number("actual_hours"), number("estimated_cost"), number("actual_cost"),
		text("observations"), text("resolution"), text("validated_by"), stamp("validated_at"),
	),
	domain.CollectionAlerts: newTable(domain.CollectionAlerts,
		Column{Name: "id", Kind: KindInt},
		text("equipment_id"), text("equipment_name"), text("category"), text("message"), text("severity"),
		stamp("created_at"), stamp("expires_at"), stamp("read_at"), stamp("resolved_at"), text("state"),
	),
	domain.CollectionCosts: newTable(domain.CollectionCosts,
		text("id"), text("task_id"), text("concept"), text("category"), number("amount"),
		stamp("date"), text("supplier"), text("notes"),
	),
	domain.CollectionCompanyAreas: newTable(domain.CollectionCompanyAreas,
		text("id"), text("name"), text("description"), text("responsible"), flag("active"),
	),
	domain.CollectionTechnicians: newTable(domain.CollectionTechnicians,
		text("id"), text("name"), text("role"), text("specialty"), text("phone"), text("email"), flag("active"),
	),
	domain.CollectionCompanyProfile: newTable(domain.CollectionCompanyProfile,
		text("id"), text("name"), text("address"), text("phone"), text("email"), text("tax_id"), stamp("updated_at"),
	),
}
