package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/domain/medication"
	"github.com/clinicore/interop/internal/platform/audit"
)

func TestPrescriptionRepositoryPersistsItems(t *testing.T) {
	ctx := context.Background()
	patient := createTestPatient(t, ctx, "Paciente Receita")
	doctor := createTestDoctor(t, ctx, "Doutor Receita")

	repo := medication.NewPrescriptionRepository(globalDB.Pool)
	p := &medication.Prescription{
		ID:           uuid.New(),
		PatientID:    patient.ID,
		DoctorID:     &doctor.ID,
		Status:       medication.StatusActive,
		PrescribedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		Items: []medication.PrescriptionItem{
			{MedicationName: "Metformina 850mg", DosageText: "1 comprimido 2x ao dia"},
			{MedicationName: "Losartana 50mg", DosageText: "1 comprimido pela manha"},
		},
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fetched.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(fetched.Items))
	}
	if fetched.Items[0].MedicationName != "Metformina 850mg" || fetched.Items[0].Position != 1 {
		t.Errorf("item 0 = %+v", fetched.Items[0])
	}
	if fetched.Items[1].Position != 2 {
		t.Errorf("item 1 position = %d", fetched.Items[1].Position)
	}
}

func TestPrescriptionUpdateReplacesItems(t *testing.T) {
	ctx := context.Background()
	patient := createTestPatient(t, ctx, "Paciente Troca")

	svc := medication.NewService(medication.NewPrescriptionRepository(globalDB.Pool), audit.Nop{})
	p := &medication.Prescription{
		PatientID:    patient.ID,
		Status:       medication.StatusDraft,
		PrescribedAt: time.Now().UTC(),
		Items: []medication.PrescriptionItem{
			{MedicationName: "Dipirona 500mg", DosageText: "se dor"},
		},
	}
	if err := svc.CreatePrescription(ctx, p); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	updated, err := svc.UpdatePrescription(ctx, p.ID.String(), &medication.Prescription{
		PatientID: patient.ID,
		Status:    medication.StatusActive,
		Items: []medication.PrescriptionItem{
			{MedicationName: "Dipirona 1g", DosageText: "de 8 em 8 horas"},
			{MedicationName: "Omeprazol 20mg", DosageText: "em jejum"},
		},
	}, 0)
	if err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}

	fetched, err := svc.GetPrescription(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if len(fetched.Items) != 2 {
		t.Fatalf("items after update = %d, want 2", len(fetched.Items))
	}
	if fetched.Items[0].MedicationName != "Dipirona 1g" {
		t.Errorf("item 0 = %q", fetched.Items[0].MedicationName)
	}
}

func TestPrescriptionSearchByAuthoredOn(t *testing.T) {
	ctx := context.Background()
	patient := createTestPatient(t, ctx, "Paciente Autoria")

	repo := medication.NewPrescriptionRepository(globalDB.Pool)
	for _, month := range []time.Month{time.January, time.June} {
		p := &medication.Prescription{
			ID:           uuid.New(),
			PatientID:    patient.ID,
			Status:       medication.StatusActive,
			PrescribedAt: time.Date(2026, month, 10, 9, 0, 0, 0, time.UTC),
			Items: []medication.PrescriptionItem{
				{MedicationName: "Vitamina D"},
			},
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", month, err)
		}
	}

	_, total, err := repo.Search(ctx, map[string]string{
		"patient":    patient.ID.String(),
		"authoredon": "lt2026-03-01",
	}, "", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}
