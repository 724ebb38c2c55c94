package core

import (
	"sync"

	gojson "github.com/goccy/go-json"

	"maintcore/pkg/domain"
)

// table keeps one entity set in insertion order.
type table[T domain.Keyed] struct {
	order []string
	rows  map[string]T
}

func newTable[T domain.Keyed]() *table[T] {
	return &table[T]{rows: map[string]T{}}
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, clone(t.rows[id]))
	}
	return out
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return clone(v), true
}

// put stores v and reports the previous value, if any.
func (t *table[T]) put(v T) (before T, existed bool) {
	id := v.Key()
	before, existed = t.rows[id]
	if !existed {
		t.order = append(t.order, id)
	}
	t.rows[id] = clone(v)
	return before, existed
}

func (t *table[T]) remove(id string) (T, bool) {
	before, ok := t.rows[id]
	if !ok {
		return before, false
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return before, true
}

func (t *table[T]) len() int { return len(t.order) }

func tableFrom[T domain.Keyed](items []T) *table[T] {
	t := newTable[T]()
	for _, v := range items {
		t.put(v)
	}
	return t
}

// clone copies v through its JSON form. Slices and pointers are never
// shared with the copy.
func clone[T any](v T) T {
	raw, err := gojson.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := gojson.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// Store is the in-memory, session-authoritative view of every entity set.
// Reads return copies. Only the lifecycle controllers and mutators of this
// package write to it, and only after the backend accepted the write.
type Store struct {
	mu          sync.RWMutex
	equipment   *table[domain.Equipment]
	tasks       *table[domain.MaintenanceTask]
	orders      *table[domain.WorkOrder]
	alerts      *table[domain.Alert]
	costs       *table[domain.Cost]
	areas       *table[domain.CompanyArea]
	technicians *table[domain.Technician]
	profile     *table[domain.CompanyProfile]

	subMu   sync.Mutex
	subs    map[uint64]func(domain.Change)
	nextSub uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		equipment:   newTable[domain.Equipment](),
		tasks:       newTable[domain.MaintenanceTask](),
		orders:      newTable[domain.WorkOrder](),
		alerts:      newTable[domain.Alert](),
		costs:       newTable[domain.Cost](),
		areas:       newTable[domain.CompanyArea](),
		technicians: newTable[domain.Technician](),
		profile:     newTable[domain.CompanyProfile](),
		subs:        map[uint64]func(domain.Change){},
	}
}

// Subscribe registers fn to receive every committed change. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(domain.Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(change domain.Change) {
	s.subMu.Lock()
	fns := make([]func(domain.Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}

// snapshot is a complete set of entity collections loaded from a backend.
type snapshot struct {
	equipment   []domain.Equipment
	tasks       []domain.MaintenanceTask
	orders      []domain.WorkOrder
	alerts      []domain.Alert
	costs       []domain.Cost
	areas       []domain.CompanyArea
	technicians []domain.Technician
	profile     []domain.CompanyProfile
}

// replace swaps every table for the snapshot's contents.
func (s *Store) replace(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment = tableFrom(snap.equipment)
	s.tasks = tableFrom(snap.tasks)
	s.orders = tableFrom(snap.orders)
	s.alerts = tableFrom(snap.alerts)
	s.costs = tableFrom(snap.costs)
	s.areas = tableFrom(snap.areas)
	s.technicians = tableFrom(snap.technicians)
	s.profile = tableFrom(snap.profile)
}

func equipmentTable(s *Store) *table[domain.Equipment]    { return s.equipment }
func taskTable(s *Store) *table[domain.MaintenanceTask]   { return s.tasks }
func orderTable(s *Store) *table[domain.WorkOrder]        { return s.orders }
func alertTable(s *Store) *table[domain.Alert]            { return s.alerts }
func costTable(s *Store) *table[domain.Cost]              { return s.costs }
func areaTable(s *Store) *table[domain.CompanyArea]       { return s.areas }
func technicianTable(s *Store) *table[domain.Technician]  { return s.technicians }
func profileTable(s *Store) *table[domain.CompanyProfile] { return s.profile }

func listOf[T domain.Keyed](s *Store, sel func(*Store) *table[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sel(s).list()
}

func getOf[T domain.Keyed](s *Store, sel func(*Store) *table[T], id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sel(s).get(id)
}

func commitPut[T domain.Keyed](s *Store, entity domain.EntityType, sel func(*Store) *table[T], v T) {
	s.mu.Lock()
	before, existed := sel(s).put(v)
	s.mu.Unlock()
	change := domain.Change{Entity: entity, Action: domain.ActionCreate, ID: v.Key(), After: clone(v)}
	if existed {
		change.Action = domain.ActionUpdate
		change.Before = before
	}
	s.notify(change)
}

func commitDelete[T domain.Keyed](s *Store, entity domain.EntityType, sel func(*Store) *table[T], id string) {
	s.mu.Lock()
	before, existed := sel(s).remove(id)
	s.mu.Unlock()
	if !existed {
		return
	}
	s.notify(domain.Change{Entity: entity, Action: domain.ActionDelete, ID: id, Before: before})
}

// Equipment lists every equipment in insertion order.
func (s *Store) Equipment() []domain.Equipment { return listOf(s, equipmentTable) }

// EquipmentByID returns one equipment.
func (s *Store) EquipmentByID(id string) (domain.Equipment, bool) {
	return getOf(s, equipmentTable, id)
}

// MaintenanceTasks lists every maintenance task.
func (s *Store) MaintenanceTasks() []domain.MaintenanceTask { return listOf(s, taskTable) }

// MaintenanceTask returns one maintenance task.
func (s *Store) MaintenanceTask(id string) (domain.MaintenanceTask, bool) {
	return getOf(s, taskTable, id)
}

// WorkOrders lists every work order.
func (s *Store) WorkOrders() []domain.WorkOrder { return listOf(s, orderTable) }

// WorkOrder returns one work order.
func (s *Store) WorkOrder(id string) (domain.WorkOrder, bool) { return getOf(s, orderTable, id) }

// Alerts lists every alert.
func (s *Store) Alerts() []domain.Alert { return listOf(s, alertTable) }

// Alert returns one alert.
func (s *Store) Alert(id int64) (domain.Alert, bool) {
	return getOf(s, alertTable, domain.Alert{ID: id}.Key())
}

// Costs lists every cost entry.
func (s *Store) Costs() []domain.Cost { return listOf(s, costTable) }

// Cost returns one cost entry.
func (s *Store) Cost(id string) (domain.Cost, bool) { return getOf(s, costTable, id) }

// CompanyAreas lists every company area.
func (s *Store) CompanyAreas() []domain.CompanyArea { return listOf(s, areaTable) }

// CompanyArea returns one company area.
func (s *Store) CompanyArea(id string) (domain.CompanyArea, bool) { return getOf(s, areaTable, id) }

// Technicians lists every technician.
func (s *Store) Technicians() []domain.Technician { return listOf(s, technicianTable) }

// Technician returns one technician.
func (s *Store) Technician(id string) (domain.Technician, bool) {
	return getOf(s, technicianTable, id)
}

// CompanyProfile returns the company profile when one has been saved.
func (s *Store) CompanyProfile() (domain.CompanyProfile, bool) {
	return getOf(s, profileTable, domain.CompanyProfileID)
}

// Len reports the number of records held for entity.
func (s *Store) Len(entity domain.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch entity {
	case domain.EntityEquipment:
		return s.equipment.len()
	case domain.EntityMaintenanceTask:
		return s.tasks.len()
	case domain.EntityWorkOrder:
		return s.orders.len()
	case domain.EntityAlert:
		return s.alerts.len()
	case domain.EntityCost:
		return s.costs.len()
	case domain.EntityCompanyArea:
		return s.areas.len()
	case domain.EntityTechnician:
		return s.technicians.len()
	case domain.EntityCompanyProfile:
		return s.profile.len()
	default:
		return 0
	}
}

// has reports whether entity holds a record keyed id.
func (s *Store) has(entity domain.EntityType, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ok bool
	switch entity {
	case domain.EntityEquipment:
		_, ok = s.equipment.rows[id]
	case domain.EntityMaintenanceTask:
		_, ok = s.tasks.rows[id]
	case domain.EntityWorkOrder:
		_, ok = s.orders.rows[id]
	case domain.EntityAlert:
		_, ok = s.alerts.rows[id]
	case domain.EntityCost:
		_, ok = s.costs.rows[id]
	case domain.EntityCompanyArea:
		_, ok = s.areas.rows[id]
	case domain.EntityTechnician:
		_, ok = s.technicians.rows[id]
	case domain.EntityCompanyProfile:
		_, ok = s.profile.rows[id]
	}
	return ok
}
