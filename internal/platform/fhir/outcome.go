package fhir

import (
	"errors"
	"fmt"
)

// OperationOutcome is the FHIR resource used to report errors and issues
// instead of a normal resource payload.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Diagnostics string   `json:"diagnostics,omitempty"`
	Expression  []string `json:"expression,omitempty"`
}

// Issue severity levels per FHIR R4.
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// Issue type codes per FHIR R4 (subset in use).
const (
	IssueTypeInvalid      = "invalid"
	IssueTypeStructure    = "structure"
	IssueTypeRequired     = "required"
	IssueTypeValue        = "value"
	IssueTypeNotFound     = "not-found"
	IssueTypeConflict     = "conflict"
	IssueTypeProcessing   = "processing"
	IssueTypeNotSupported = "not-supported"
	IssueTypeException    = "exception"
)

// Sentinel errors returned by services and repositories. Handlers map them
// to HTTP statuses with an OperationOutcome body.
var (
	ErrNotFound = errors.New("resource not found")
	ErrInvalid  = errors.New("invalid resource")
	ErrConflict = errors.New("version conflict")
)

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{Severity: severity, Code: code, Diagnostics: diagnostics},
		},
	}
}

// NotFoundOutcome reports a missing (or soft-deleted) resource.
func NotFoundOutcome(resourceType, id string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound,
		fmt.Sprintf("%s/%s not found", resourceType, id))
}

// InvalidOutcome reports a malformed request.
func InvalidOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeInvalid, diagnostics)
}

// ConflictOutcome reports a version conflict on a conditional update.
func ConflictOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeConflict, diagnostics)
}

// ErrorOutcome reports a generic processing failure.
func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

// ExceptionOutcome reports an unexpected internal failure, used for
// per-entry errors during batch Bundle processing.
func ExceptionOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeException, diagnostics)
}

// OutcomeForError maps a service error to the matching OperationOutcome.
func OutcomeForError(err error, resourceType, id string) *OperationOutcome {
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFoundOutcome(resourceType, id)
	case errors.Is(err, ErrConflict):
		return ConflictOutcome(err.Error())
	case errors.Is(err, ErrInvalid):
		return InvalidOutcome(err.Error())
	default:
		return ExceptionOutcome(err.Error())
	}
}
