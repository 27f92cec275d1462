package clinical

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

func strp(s string) *string { return &s }

func TestLabResultNumericValue(t *testing.T) {
	lr := &LabResult{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ExamName:    "Hemoglobina",
		Value:       "13.5",
		Unit:        strp("g/dL"),
		Status:      ResultFinal,
		EffectiveAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		Version:     1,
		UpdatedAt:   time.Now().UTC(),
	}

	r := lr.ToFHIR()

	if r.Status != "final" {
		t.Errorf("status = %q", r.Status)
	}
	if r.ValueQuantity == nil {
		t.Fatal("want valueQuantity for a float-parsable value")
	}
	if r.ValueQuantity.Value != 13.5 || r.ValueQuantity.Unit != "g/dL" {
		t.Errorf("valueQuantity = %+v", r.ValueQuantity)
	}
	if r.ValueString != "" {
		t.Errorf("valueString = %q, want empty", r.ValueString)
	}

	back := LabResultFromFHIR(r)
	if back.Value != "13.5" {
		t.Errorf("value round trip = %q", back.Value)
	}
	if back.Unit == nil || *back.Unit != "g/dL" {
		t.Errorf("unit round trip = %v", back.Unit)
	}
}

func TestLabResultTextValue(t *testing.T) {
	lr := &LabResult{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		ExamName:  "Cultura de urina",
		Value:     "negativo",
		Status:    ResultFinal,
	}

	r := lr.ToFHIR()

	if r.ValueQuantity != nil {
		t.Errorf("valueQuantity = %+v, want nil for a text value", r.ValueQuantity)
	}
	if r.ValueString != "negativo" {
		t.Errorf("valueString = %q", r.ValueString)
	}

	back := LabResultFromFHIR(r)
	if back.Value != "negativo" {
		t.Errorf("value round trip = %q", back.Value)
	}
}

func TestLabResultCriticalInterpretation(t *testing.T) {
	lr := &LabResult{ID: uuid.New(), PatientID: uuid.New(), ExamName: "Potássio", Value: "6.8", IsCritical: true, Status: ResultFinal}

	r := lr.ToFHIR()

	if len(r.Interpretation) != 1 || len(r.Interpretation[0].Coding) != 1 {
		t.Fatalf("interpretation = %+v", r.Interpretation)
	}
	if r.Interpretation[0].Coding[0].Code != "A" {
		t.Errorf("interpretation code = %q, want A", r.Interpretation[0].Coding[0].Code)
	}

	// Input accepts the whole abnormal family, not just A.
	for _, code := range []string{"H", "HH", "L", "LL", "A"} {
		res := &ObservationResource{
			ResourceType:   "Observation",
			Status:         "final",
			Code:           fhir.CodeableConcept{Text: "Potássio"},
			ValueString:    "6.8",
			Interpretation: []fhir.CodeableConcept{{Coding: []fhir.Coding{{Code: code}}}},
		}
		if !LabResultFromFHIR(res).IsCritical {
			t.Errorf("interpretation %q not recognized as critical", code)
		}
	}

	normal := &ObservationResource{
		ResourceType:   "Observation",
		Status:         "final",
		Code:           fhir.CodeableConcept{Text: "Potássio"},
		Interpretation: []fhir.CodeableConcept{{Coding: []fhir.Coding{{Code: "N"}}}},
	}
	if LabResultFromFHIR(normal).IsCritical {
		t.Error("interpretation N marked critical")
	}
}

func TestResultStatusDefaults(t *testing.T) {
	if got := ResultStatusToFHIR("WEIRD"); got != "unknown" {
		t.Errorf("unknown internal status = %q, want unknown", got)
	}
	if got := ResultStatusFromFHIR("preliminary"); got != ResultPending {
		t.Errorf("unmapped FHIR status = %q, want %q", got, ResultPending)
	}
}

func TestDiagnosisToFHIR(t *testing.T) {
	doctorID := uuid.New()
	d := &Diagnosis{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		DoctorID:    &doctorID,
		ICDCode:     strp("E11.9"),
		Description: "Diabetes mellitus tipo 2",
		Status:      DiagnosisActive,
		RecordedAt:  time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		Version:     1,
		UpdatedAt:   time.Now().UTC(),
	}

	r := d.ToFHIR()

	if r.ResourceType != "Condition" {
		t.Fatalf("resourceType = %q", r.ResourceType)
	}
	if r.Code == nil || len(r.Code.Coding) != 1 {
		t.Fatalf("code = %+v", r.Code)
	}
	if r.Code.Coding[0].System != "http://hl7.org/fhir/sid/icd-10" || r.Code.Coding[0].Code != "E11.9" {
		t.Errorf("coding = %+v", r.Code.Coding[0])
	}
	if r.ClinicalStatus == nil || r.ClinicalStatus.Coding[0].Code != "active" {
		t.Errorf("clinicalStatus = %+v", r.ClinicalStatus)
	}

	back := DiagnosisFromFHIR(r)
	if back.ICDCode == nil || *back.ICDCode != "E11.9" {
		t.Errorf("icd round trip = %v", back.ICDCode)
	}
	if back.Description != "Diabetes mellitus tipo 2" {
		t.Errorf("description round trip = %q", back.Description)
	}
	if back.Status != DiagnosisActive {
		t.Errorf("status round trip = %q", back.Status)
	}
}

func TestDiagnosisResolvedStatus(t *testing.T) {
	d := &Diagnosis{ID: uuid.New(), PatientID: uuid.New(), Description: "Gripe", Status: DiagnosisResolved}

	r := d.ToFHIR()
	if r.ClinicalStatus.Coding[0].Code != "resolved" {
		t.Errorf("clinicalStatus = %+v", r.ClinicalStatus)
	}
	if back := DiagnosisFromFHIR(r); back.Status != DiagnosisResolved {
		t.Errorf("status round trip = %q", back.Status)
	}
}
