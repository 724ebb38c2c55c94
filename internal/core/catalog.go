package core

import (
	"context"
	"fmt"
	"strings"

	"maintcore/pkg/domain"
)

// CreateEquipment registers equipment. A blank state defaults to operational.
func (s *Service) CreateEquipment(ctx context.Context, eq domain.Equipment) (domain.Equipment, error) {
	if eq.State == "" {
		eq.State = domain.EquipmentOperational
	}
	if err := validateDraft(domain.EntityEquipment, eq); err != nil {
		return domain.Equipment{}, err
	}
	id, err := s.assignID(ctx, domain.EntityEquipment, eq.ID)
	if err != nil {
		return domain.Equipment{}, err
	}
	eq.ID = id
	return insertRecord(ctx, s.store, s.equipment, equipmentTable, eq)
}

// UpdateEquipment edits equipment fields, state included.
func (s *Service) UpdateEquipment(ctx context.Context, id string, patch domain.Patch) (domain.Equipment, error) {
	current, ok := s.store.EquipmentByID(id)
	if !ok {
		return domain.Equipment{}, notFound(domain.EntityEquipment, id)
	}
	if err := immutable(domain.EntityEquipment, patch, "id"); err != nil {
		return current, err
	}
	next, err := preview(domain.EntityEquipment, current, patch)
	if err != nil {
		return current, err
	}
	if err := validateEntity(domain.EntityEquipment, next); err != nil {
		return current, err
	}
	return updateRecord(ctx, s.store, s.equipment, equipmentTable, id, patch)
}

// DeleteEquipment removes equipment. Tasks, orders and alerts that reference
// it keep their denormalized name.
func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	if _, ok := s.store.EquipmentByID(id); !ok {
		return notFound(domain.EntityEquipment, id)
	}
	return deleteRecord(ctx, s.store, s.equipment, equipmentTable, id)
}

// CreateCompanyArea adds an area. Names are trimmed and must be unique
// regardless of case.
func (s *Service) CreateCompanyArea(ctx context.Context, area domain.CompanyArea) (domain.CompanyArea, error) {
	area.Name = strings.TrimSpace(area.Name)
	if err := validateDraft(domain.EntityCompanyArea, area); err != nil {
		return domain.CompanyArea{}, err
	}
	if err := s.uniqueAreaName(area.Name, ""); err != nil {
		return domain.CompanyArea{}, err
	}
	id, err := s.assignID(ctx, domain.EntityCompanyArea, area.ID)
	if err != nil {
		return domain.CompanyArea{}, err
	}
	area.ID = id
	return insertRecord(ctx, s.store, s.areas, areaTable, area)
}

// UpdateCompanyArea edits an area, keeping names unique.
func (s *Service) UpdateCompanyArea(ctx context.Context, id string, patch domain.Patch) (domain.CompanyArea, error) {
	current, ok := s.store.CompanyArea(id)
	if !ok {
		return domain.CompanyArea{}, notFound(domain.EntityCompanyArea, id)
	}
	if err := immutable(domain.EntityCompanyArea, patch, "id"); err != nil {
		return current, err
	}
	if name, ok := patch["name"].(string); ok {
		patch["name"] = strings.TrimSpace(name)
	}
	next, err := preview(domain.EntityCompanyArea, current, patch)
	if err != nil {
		return current, err
	}
	if err := validateEntity(domain.EntityCompanyArea, next); err != nil {
		return current, err
	}
	if err := s.uniqueAreaName(next.Name, id); err != nil {
		return current, err
	}
	return updateRecord(ctx, s.store, s.areas, areaTable, id, patch)
}

// DeleteCompanyArea removes an area.
func (s *Service) DeleteCompanyArea(ctx context.Context, id string) error {
	if _, ok := s.store.CompanyArea(id); !ok {
		return notFound(domain.EntityCompanyArea, id)
	}
	return deleteRecord(ctx, s.store, s.areas, areaTable, id)
}

func (s *Service) uniqueAreaName(name, exceptID string) error {
	for _, a := range s.store.CompanyAreas() {
		if a.ID != exceptID && strings.EqualFold(strings.TrimSpace(a.Name), name) {
			return domain.ValidationError{Entity: domain.EntityCompanyArea, Field: "name", Reason: fmt.Sprintf("%q already exists", name)}
		}
	}
	return nil
}

// CreateTechnician adds a technician.
func (s *Service) CreateTechnician(ctx context.Context, tech domain.Technician) (domain.Technician, error) {
	if err := validateDraft(domain.EntityTechnician, tech); err != nil {
		return domain.Technician{}, err
	}
	id, err := s.assignID(ctx, domain.EntityTechnician, tech.ID)
	if err != nil {
		return domain.Technician{}, err
	}
	tech.ID = id
	return insertRecord(ctx, s.store, s.technicians, technicianTable, tech)
}

// UpdateTechnician edits a technician.
func (s *Service) UpdateTechnician(ctx context.Context, id string, patch domain.Patch) (domain.Technician, error) {
	current, ok := s.store.Technician(id)
	if !ok {
		return domain.Technician{}, notFound(domain.EntityTechnician, id)
	}
	if err := immutable(domain.EntityTechnician, patch, "id"); err != nil {
		return current, err
	}
	next, err := preview(domain.EntityTechnician, current, patch)
	if err != nil {
		return current, err
	}
	if err := validateEntity(domain.EntityTechnician, next); err != nil {
		return current, err
	}
	return updateRecord(ctx, s.store, s.technicians, technicianTable, id, patch)
}

// DeleteTechnician removes a technician.
func (s *Service) DeleteTechnician(ctx context.Context, id string) error {
	if _, ok := s.store.Technician(id); !ok {
		return notFound(domain.EntityTechnician, id)
	}
	return deleteRecord(ctx, s.store, s.technicians, technicianTable, id)
}

// SaveCompanyProfile creates or replaces the single company profile.
func (s *Service) SaveCompanyProfile(ctx context.Context, profile domain.CompanyProfile) (domain.CompanyProfile, error) {
	profile.ID = domain.CompanyProfileID
	profile.UpdatedAt = s.now()
	if err := validateEntity(domain.EntityCompanyProfile, profile); err != nil {
		return domain.CompanyProfile{}, err
	}
	if _, ok := s.store.CompanyProfile(); !ok {
		return insertRecord(ctx, s.store, s.profile, profileTable, profile)
	}
	patch, err := fieldsOf(profile)
	if err != nil {
		return domain.CompanyProfile{}, err
	}
	return updateRecord(ctx, s.store, s.profile, profileTable, profile.ID, patch)
}
