package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"maintcore/pkg/domain"
)

func TestEquipmentCRUD(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	eq, err := h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Compresor"})
	require.NoError(t, err)
	require.Equal(t, "EQ-001", eq.ID)
	require.Equal(t, domain.EquipmentOperational, eq.State)

	_, err = h.svc.CreateEquipment(ctx, domain.Equipment{ID: eq.ID, Name: "Otro"})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.CreateEquipment(ctx, domain.Equipment{Name: "Caldera", Efficiency: 120})
	requireKind(t, domain.KindValidation, err)

	_, err = h.svc.UpdateEquipment(ctx, eq.ID, domain.Patch{"state": "broken"})
	requireKind(t, domain.KindValidation, err)
	_, err = h.svc.UpdateEquipment(ctx, eq.ID, domain.Patch{"colour": "red"})
	requireKind(t, domain.KindValidation, err)
	updated, err := h.svc.UpdateEquipment(ctx, eq.ID, domain.Patch{"operating_hours": 10.5, "location": "Nave 2"})
	require.NoError(t, err)
	require.InDelta(t, 10.5, updated.OperatingHours, 1e-9)
	require.Equal(t, "Nave 2", updated.Location)

	require.NoError(t, h.svc.DeleteEquipment(ctx, eq.ID))
	requireKind(t, domain.KindNotFound, h.svc.DeleteEquipment(ctx, eq.ID))
	_, err = h.svc.UpdateEquipment(ctx, eq.ID, domain.Patch{"name": "x"})
	requireKind(t, domain.KindNotFound, err)
}

func TestCompanyAreaNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	area, err := h.svc.CreateCompanyArea(ctx, domain.CompanyArea{Name: "  Producción ", Active: true})
	require.NoError(t, err)
	require.Equal(t, "Producción", area.Name)
	require.Equal(t, "AREA-001", area.ID)

	_, err = h.svc.CreateCompanyArea(ctx, domain.CompanyArea{Name: "producción"})
	requireKind(t, domain.KindValidation, err)
	other, err := h.svc.CreateCompanyArea(ctx, domain.CompanyArea{Name: "Calidad"})
	require.NoError(t, err)

	_, err = h.svc.UpdateCompanyArea(ctx, other.ID, domain.Patch{"name": "PRODUCCIÓN"})
	requireKind(t, domain.KindValidation, err)
	same, err := h.svc.UpdateCompanyArea(ctx, area.ID, domain.Patch{"name": "Producción ", "responsible": "Luis"})
	require.NoError(t, err)
	require.Equal(t, "Producción", same.Name)
	require.Equal(t, "Luis", same.Responsible)

	require.NoError(t, h.svc.DeleteCompanyArea(ctx, other.ID))
	requireKind(t, domain.KindNotFound, h.svc.DeleteCompanyArea(ctx, other.ID))
}

func TestTechnicianCRUD(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.svc.CreateTechnician(ctx, domain.Technician{Name: "Ana", Email: "not-an-email"})
	requireKind(t, domain.KindValidation, err)
	tech, err := h.svc.CreateTechnician(ctx, domain.Technician{Name: "Ana", Email: "ana@example.com", Active: true})
	require.NoError(t, err)
	require.Equal(t, "TEC-001", tech.ID)

	updated, err := h.svc.UpdateTechnician(ctx, tech.ID, domain.Patch{"active": false, "specialty": "Eléctrica"})
	require.NoError(t, err)
	require.False(t, updated.Active)
	require.Equal(t, "Eléctrica", updated.Specialty)

	require.NoError(t, h.svc.DeleteTechnician(ctx, tech.ID))
	require.Empty(t, h.svc.Store().Technicians())
}

func TestSaveCompanyProfileUpserts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.svc.SaveCompanyProfile(ctx, domain.CompanyProfile{})
	requireKind(t, domain.KindValidation, err)

	first, err := h.svc.SaveCompanyProfile(ctx, domain.CompanyProfile{Name: "Industrias del Norte", TaxID: "B12345678"})
	require.NoError(t, err)
	require.Equal(t, domain.CompanyProfileID, first.ID)

	second, err := h.svc.SaveCompanyProfile(ctx, domain.CompanyProfile{Name: "Industrias del Norte S.L.", Phone: "555 0101"})
	require.NoError(t, err)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
	require.Equal(t, 1, h.svc.Store().Len(domain.EntityCompanyProfile))
	got, _ := h.svc.Store().CompanyProfile()
	require.Equal(t, "Industrias del Norte S.L.", got.Name)
	require.Empty(t, got.TaxID)
	require.Equal(t, "555 0101", got.Phone)
}
