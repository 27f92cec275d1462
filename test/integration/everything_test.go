package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/domain/clinical"
	"github.com/clinicore/interop/internal/domain/medication"
	"github.com/clinicore/interop/internal/platform/fhir"
)

func TestPatientEverything(t *testing.T) {
	ctx := context.Background()
	patient := createTestPatient(t, ctx, "Paciente Completo")
	doctor := createTestDoctor(t, ctx, "Doutor Completo")

	createTestAppointment(t, ctx, patient.ID, doctor.ID, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC))

	labs := clinical.NewLabResultRepository(globalDB.Pool)
	if err := labs.Create(ctx, &clinical.LabResult{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		ExamName:    "Creatinina",
		Value:       "1.1",
		Status:      clinical.ResultFinal,
		EffectiveAt: time.Date(2026, 5, 3, 7, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create lab result: %v", err)
	}

	diagnoses := clinical.NewDiagnosisRepository(globalDB.Pool)
	if err := diagnoses.Create(ctx, &clinical.Diagnosis{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		ICDCode:     ptrStr("I10"),
		Description: "Hipertensao essencial",
		Status:      clinical.DiagnosisActive,
		RecordedAt:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create diagnosis: %v", err)
	}

	prescriptions := medication.NewPrescriptionRepository(globalDB.Pool)
	if err := prescriptions.Create(ctx, &medication.Prescription{
		ID:           uuid.New(),
		PatientID:    patient.ID,
		Status:       medication.StatusActive,
		PrescribedAt: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
		Items: []medication.PrescriptionItem{
			{MedicationName: "Enalapril 10mg", DosageText: "1 comprimido ao dia"},
		},
	}); err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	rec := doRequest(t, http.MethodGet, fmt.Sprintf("/fhir/Patient/%s/$everything", patient.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var bundle fhir.Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Type != "searchset" {
		t.Errorf("type = %q", bundle.Type)
	}
	if bundle.Total == nil || *bundle.Total != 5 {
		t.Fatalf("total = %v, want 5 (patient + 4 related)", bundle.Total)
	}

	types := map[string]int{}
	for i, entry := range bundle.Entry {
		var res struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &res); err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		types[res.ResourceType]++

		wantMode := fhir.SearchModeInclude
		if i == 0 {
			wantMode = fhir.SearchModeMatch
		}
		if entry.Search == nil || entry.Search.Mode != wantMode {
			t.Errorf("entry %d (%s) mode = %+v, want %s", i, res.ResourceType, entry.Search, wantMode)
		}
	}
	for _, want := range []string{"Patient", "Appointment", "Condition", "MedicationRequest", "Observation"} {
		if types[want] != 1 {
			t.Errorf("%s entries = %d, want 1", want, types[want])
		}
	}
}

func TestPatientEverythingWindowFiltersRelated(t *testing.T) {
	ctx := context.Background()
	patient := createTestPatient(t, ctx, "Paciente Recorte")
	doctor := createTestDoctor(t, ctx, "Doutor Recorte")

	createTestAppointment(t, ctx, patient.ID, doctor.ID, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	createTestAppointment(t, ctx, patient.ID, doctor.ID, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))

	path := fmt.Sprintf("/fhir/Patient/%s/$everything?start=2026-01-01&end=2026-12-31", patient.ID)
	rec := doRequest(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var bundle fhir.Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Patient plus the single 2026 appointment.
	if bundle.Total == nil || *bundle.Total != 2 {
		t.Errorf("total = %v, want 2", bundle.Total)
	}
}

func TestPatientEverythingUnknownPatient(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/fhir/Patient/"+uuid.NewString()+"/$everything", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
