package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/clinicore/interop/internal/platform/fhir"
)

func patientEntry(family string) string {
	return fmt.Sprintf(`{
		"resource": {
			"resourceType": "Patient",
			"name": [{"family": %q, "given": ["Lote"]}]
		},
		"request": {"method": "POST", "url": "Patient"}
	}`, family)
}

// A Patient with no name fails service validation.
const invalidPatientEntry = `{
	"resource": {"resourceType": "Patient"},
	"request": {"method": "POST", "url": "Patient"}
}`

func countPatientsByFamily(t *testing.T, family string) int {
	t.Helper()
	var n int
	err := globalDB.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM patient WHERE full_name LIKE '%' || $1 AND deleted_at IS NULL`,
		family).Scan(&n)
	if err != nil {
		t.Fatalf("count patients: %v", err)
	}
	return n
}

func TestTransactionBundleRollsBack(t *testing.T) {
	body := []byte(fmt.Sprintf(`{
		"resourceType": "Bundle",
		"type": "transaction",
		"entry": [%s, %s, %s]
	}`, patientEntry("TxRollbackA"), invalidPatientEntry, patientEntry("TxRollbackB")))

	rec := doRequest(t, http.MethodPost, "/fhir/", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var oo fhir.OperationOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &oo); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if len(oo.Issue) == 0 {
		t.Fatal("outcome has no issues")
	}

	// Nothing from the failed transaction may persist.
	if n := countPatientsByFamily(t, "TxRollbackA"); n != 0 {
		t.Errorf("TxRollbackA rows = %d, want 0", n)
	}
	if n := countPatientsByFamily(t, "TxRollbackB"); n != 0 {
		t.Errorf("TxRollbackB rows = %d, want 0", n)
	}
}

func TestTransactionBundleCommits(t *testing.T) {
	body := []byte(fmt.Sprintf(`{
		"resourceType": "Bundle",
		"type": "transaction",
		"entry": [%s, %s]
	}`, patientEntry("TxCommitA"), patientEntry("TxCommitB")))

	rec := doRequest(t, http.MethodPost, "/fhir/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var bundle fhir.Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Type != "transaction-response" {
		t.Errorf("type = %q", bundle.Type)
	}
	if len(bundle.Entry) != 2 {
		t.Fatalf("entries = %d", len(bundle.Entry))
	}
	for i, entry := range bundle.Entry {
		if entry.Response == nil || entry.Response.Status != "201 Created" {
			t.Errorf("entry %d response = %+v", i, entry.Response)
		}
	}

	if n := countPatientsByFamily(t, "TxCommitA"); n != 1 {
		t.Errorf("TxCommitA rows = %d, want 1", n)
	}
}

func TestBatchBundleIsolatesFailures(t *testing.T) {
	body := []byte(fmt.Sprintf(`{
		"resourceType": "Bundle",
		"type": "batch",
		"entry": [%s, %s, %s]
	}`, patientEntry("BatchKeepA"), invalidPatientEntry, patientEntry("BatchKeepB")))

	rec := doRequest(t, http.MethodPost, "/fhir/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var bundle fhir.Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Type != "batch-response" {
		t.Errorf("type = %q", bundle.Type)
	}
	if len(bundle.Entry) != 3 {
		t.Fatalf("entries = %d", len(bundle.Entry))
	}
	if bundle.Entry[0].Response.Status != "201 Created" {
		t.Errorf("entry 0 = %q", bundle.Entry[0].Response.Status)
	}
	if bundle.Entry[1].Response.Status != "400 Bad Request" {
		t.Errorf("entry 1 = %q", bundle.Entry[1].Response.Status)
	}
	if bundle.Entry[2].Response.Status != "201 Created" {
		t.Errorf("entry 2 = %q", bundle.Entry[2].Response.Status)
	}

	// The failures do not roll back the successes.
	if n := countPatientsByFamily(t, "BatchKeepA"); n != 1 {
		t.Errorf("BatchKeepA rows = %d, want 1", n)
	}
	if n := countPatientsByFamily(t, "BatchKeepB"); n != 1 {
		t.Errorf("BatchKeepB rows = %d, want 1", n)
	}
}
