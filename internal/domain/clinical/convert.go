package clinical

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

const (
	systemObservationCategory       = "http://terminology.hl7.org/CodeSystem/observation-category"
	systemObservationInterpretation = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	systemICD10                     = "http://hl7.org/fhir/sid/icd-10"
	systemConditionClinical         = "http://terminology.hl7.org/CodeSystem/condition-clinical"
)

// ObservationResource is the FHIR R4 Observation projection of a LabResult.
type ObservationResource struct {
	ResourceType      string                      `json:"resourceType"`
	ID                string                      `json:"id,omitempty"`
	Meta              *fhir.Meta                  `json:"meta,omitempty"`
	Identifier        []fhir.Identifier           `json:"identifier,omitempty"`
	Status            string                      `json:"status"`
	Category          []fhir.CodeableConcept      `json:"category,omitempty"`
	Code              fhir.CodeableConcept        `json:"code"`
	Subject           *fhir.Reference             `json:"subject,omitempty"`
	Performer         []fhir.Reference            `json:"performer,omitempty"`
	EffectiveDateTime string                      `json:"effectiveDateTime,omitempty"`
	ValueQuantity     *fhir.Quantity              `json:"valueQuantity,omitempty"`
	ValueString       string                      `json:"valueString,omitempty"`
	Interpretation    []fhir.CodeableConcept      `json:"interpretation,omitempty"`
	Note              []fhir.Annotation           `json:"note,omitempty"`
	ReferenceRange    []ObservationReferenceRange `json:"referenceRange,omitempty"`
}

// ObservationReferenceRange carries the stored range as free text.
type ObservationReferenceRange struct {
	Text string `json:"text,omitempty"`
}

// ConditionResource is the FHIR R4 Condition projection of a Diagnosis.
type ConditionResource struct {
	ResourceType   string                `json:"resourceType"`
	ID             string                `json:"id,omitempty"`
	Meta           *fhir.Meta            `json:"meta,omitempty"`
	Identifier     []fhir.Identifier     `json:"identifier,omitempty"`
	ClinicalStatus *fhir.CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           *fhir.CodeableConcept `json:"code,omitempty"`
	Subject        *fhir.Reference       `json:"subject,omitempty"`
	Recorder       *fhir.Reference       `json:"recorder,omitempty"`
	RecordedDate   string                `json:"recordedDate,omitempty"`
	Note           []fhir.Annotation     `json:"note,omitempty"`
}

var resultStatusToFHIR = map[string]string{
	ResultPending:   "registered",
	ResultFinal:     "final",
	ResultAmended:   "amended",
	ResultCancelled: "cancelled",
}

var resultStatusFromFHIR = map[string]string{
	"registered": ResultPending,
	"final":      ResultFinal,
	"amended":    ResultAmended,
	"cancelled":  ResultCancelled,
}

func ResultStatusToFHIR(status string) string {
	if code, ok := resultStatusToFHIR[status]; ok {
		return code
	}
	return "unknown"
}

func ResultStatusFromFHIR(code string) string {
	if status, ok := resultStatusFromFHIR[code]; ok {
		return status
	}
	return ResultPending
}

// criticalCodes are the interpretation codes that mark a result critical on
// input. Output always uses A (Abnormal).
var criticalCodes = map[string]bool{"H": true, "HH": true, "L": true, "LL": true, "A": true}

// ToFHIR builds the FHIR Observation view of lr. A value that parses as a
// float becomes valueQuantity, anything else valueString.
func (lr *LabResult) ToFHIR() *ObservationResource {
	r := &ObservationResource{
		ResourceType: "Observation",
		ID:           lr.ID.String(),
		Meta:         fhir.NewMeta(lr.Version, lr.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(lr.ID.String())},
		Status:       ResultStatusToFHIR(lr.Status),
		Category: []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{System: systemObservationCategory, Code: "laboratory", Display: "Laboratory"}},
		}},
		Code:    fhir.CodeableConcept{Text: lr.ExamName},
		Subject: &fhir.Reference{Reference: fhir.FormatReference("Patient", lr.PatientID.String())},
	}
	if !lr.EffectiveAt.IsZero() {
		r.EffectiveDateTime = lr.EffectiveAt.UTC().Format(time.RFC3339)
	}
	if lr.DoctorID != nil {
		r.Performer = []fhir.Reference{{Reference: fhir.FormatReference("Practitioner", lr.DoctorID.String())}}
	}
	if v, err := strconv.ParseFloat(lr.Value, 64); err == nil {
		q := &fhir.Quantity{Value: v}
		if lr.Unit != nil {
			q.Unit = *lr.Unit
		}
		r.ValueQuantity = q
	} else {
		r.ValueString = lr.Value
	}
	if lr.IsCritical {
		r.Interpretation = []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{System: systemObservationInterpretation, Code: "A", Display: "Abnormal"}},
		}}
	}
	if lr.ReferenceRange != nil && *lr.ReferenceRange != "" {
		r.ReferenceRange = []ObservationReferenceRange{{Text: *lr.ReferenceRange}}
	}
	if lr.Notes != nil && *lr.Notes != "" {
		r.Note = []fhir.Annotation{{Text: *lr.Notes}}
	}
	return r
}

// LabResultFromFHIR maps an inbound Observation resource onto the internal
// model.
func LabResultFromFHIR(r *ObservationResource) *LabResult {
	lr := &LabResult{
		ExamName: r.Code.Text,
		Status:   ResultStatusFromFHIR(r.Status),
	}
	if r.Subject != nil {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Subject.Reference)); err == nil {
			lr.PatientID = id
		}
	}
	if len(r.Performer) > 0 {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Performer[0].Reference)); err == nil {
			lr.DoctorID = &id
		}
	}
	if r.EffectiveDateTime != "" {
		if t, err := fhir.ParseFlexDate(r.EffectiveDateTime); err == nil {
			lr.EffectiveAt = t
		}
	}
	switch {
	case r.ValueQuantity != nil:
		lr.Value = strconv.FormatFloat(r.ValueQuantity.Value, 'f', -1, 64)
		if r.ValueQuantity.Unit != "" {
			unit := r.ValueQuantity.Unit
			lr.Unit = &unit
		}
	default:
		lr.Value = r.ValueString
	}
	for _, concept := range r.Interpretation {
		for _, coding := range concept.Coding {
			if criticalCodes[coding.Code] {
				lr.IsCritical = true
			}
		}
	}
	if len(r.ReferenceRange) > 0 && r.ReferenceRange[0].Text != "" {
		rr := r.ReferenceRange[0].Text
		lr.ReferenceRange = &rr
	}
	if len(r.Note) > 0 && r.Note[0].Text != "" {
		note := r.Note[0].Text
		lr.Notes = &note
	}
	return lr
}

// ToFHIR builds the FHIR Condition view of d.
func (d *Diagnosis) ToFHIR() *ConditionResource {
	clinicalCode := "active"
	if d.Status == DiagnosisResolved {
		clinicalCode = "resolved"
	}
	r := &ConditionResource{
		ResourceType: "Condition",
		ID:           d.ID.String(),
		Meta:         fhir.NewMeta(d.Version, d.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(d.ID.String())},
		ClinicalStatus: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: systemConditionClinical, Code: clinicalCode}},
		},
		Code:    &fhir.CodeableConcept{Text: d.Description},
		Subject: &fhir.Reference{Reference: fhir.FormatReference("Patient", d.PatientID.String())},
	}
	if d.ICDCode != nil && *d.ICDCode != "" {
		r.Code.Coding = []fhir.Coding{{System: systemICD10, Code: *d.ICDCode, Display: d.Description}}
	}
	if d.DoctorID != nil {
		r.Recorder = &fhir.Reference{Reference: fhir.FormatReference("Practitioner", d.DoctorID.String())}
	}
	if !d.RecordedAt.IsZero() {
		r.RecordedDate = d.RecordedAt.UTC().Format(time.RFC3339)
	}
	if d.Notes != nil && *d.Notes != "" {
		r.Note = []fhir.Annotation{{Text: *d.Notes}}
	}
	return r
}

// DiagnosisFromFHIR maps an inbound Condition resource onto the internal
// model.
func DiagnosisFromFHIR(r *ConditionResource) *Diagnosis {
	d := &Diagnosis{Status: DiagnosisActive}
	if r.Code != nil {
		d.Description = r.Code.Text
		for _, coding := range r.Code.Coding {
			if coding.System == systemICD10 && coding.Code != "" {
				code := coding.Code
				d.ICDCode = &code
				if d.Description == "" {
					d.Description = coding.Display
				}
				break
			}
		}
	}
	if r.ClinicalStatus != nil {
		for _, coding := range r.ClinicalStatus.Coding {
			if coding.Code == "resolved" {
				d.Status = DiagnosisResolved
			}
		}
	}
	if r.Subject != nil {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Subject.Reference)); err == nil {
			d.PatientID = id
		}
	}
	if r.Recorder != nil {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Recorder.Reference)); err == nil {
			d.DoctorID = &id
		}
	}
	if r.RecordedDate != "" {
		if t, err := fhir.ParseFlexDate(r.RecordedDate); err == nil {
			d.RecordedAt = t
		}
	}
	if len(r.Note) > 0 && r.Note[0].Text != "" {
		note := r.Note[0].Text
		d.Notes = &note
	}
	return d
}
