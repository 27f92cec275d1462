package clinical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/interop/internal/platform/db"
	"github.com/clinicore/interop/internal/platform/fhir"
)

const labResultCols = `id, patient_id, doctor_id, exam_name, value, unit, reference_range,
	is_critical, status, effective_at, notes, version_id, created_at, updated_at, deleted_at`

var labResultSearchConfigs = map[string]fhir.SearchParamConfig{
	"patient": {Type: fhir.SearchParamReference, Column: "patient_id"},
	"date":    {Type: fhir.SearchParamDate, Column: "effective_at"},
	"status":  {Type: fhir.SearchParamToken, Column: "status"},
	"code":    {Type: fhir.SearchParamString, Column: "exam_name"},
}

type pgLabResultRepo struct {
	pool *pgxpool.Pool
}

// NewLabResultRepository returns the Postgres-backed lab result repository.
func NewLabResultRepository(pool *pgxpool.Pool) LabResultRepository {
	return &pgLabResultRepo{pool: pool}
}

func (r *pgLabResultRepo) Create(ctx context.Context, lr *LabResult) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	q := `INSERT INTO lab_result (id, patient_id, doctor_id, exam_name, value, unit,
		reference_range, is_critical, status, effective_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		lr.ID, lr.PatientID, lr.DoctorID, lr.ExamName, lr.Value, lr.Unit,
		lr.ReferenceRange, lr.IsCritical, lr.Status, lr.EffectiveAt, lr.Notes,
	).Scan(&lr.Version, &lr.CreatedAt, &lr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lab result: %w", err)
	}
	return nil
}

func (r *pgLabResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM lab_result WHERE id = $1 AND deleted_at IS NULL`, labResultCols)
	lr, err := scanLabResult(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get lab result: %w", err)
	}
	return lr, nil
}

func (r *pgLabResultRepo) Update(ctx context.Context, lr *LabResult) error {
	q := `UPDATE lab_result SET patient_id = $2, doctor_id = $3, exam_name = $4, value = $5,
		unit = $6, reference_range = $7, is_critical = $8, status = $9, effective_at = $10,
		notes = $11, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		lr.ID, lr.PatientID, lr.DoctorID, lr.ExamName, lr.Value, lr.Unit,
		lr.ReferenceRange, lr.IsCritical, lr.Status, lr.EffectiveAt, lr.Notes,
	).Scan(&lr.Version, &lr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update lab result: %w", err)
	}
	return nil
}

func (r *pgLabResultRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE lab_result SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete lab result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgLabResultRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*LabResult, int, error) {
	query := fhir.NewSearchQuery("lab_result", labResultCols)
	query.ApplyParams(normalizeResultStatusParam(params), labResultSearchConfigs)
	query.ApplySort(sort, "effective_at DESC", labResultSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lab results: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search lab results: %w", err)
	}
	defer rows.Close()

	var out []*LabResult
	for rows.Next() {
		lr, err := scanLabResult(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lab result: %w", err)
		}
		out = append(out, lr)
	}
	return out, total, rows.Err()
}

func (r *pgLabResultRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*LabResult, error) {
	query := fhir.NewSearchQuery("lab_result", labResultCols)
	query.Add("patient_id = $1", patientID)
	if from != nil {
		query.Add(fmt.Sprintf("effective_at >= $%d", len(query.CountArgs())+1), *from)
	}
	if to != nil {
		query.Add(fmt.Sprintf("effective_at <= $%d", len(query.CountArgs())+1), *to)
	}
	query.OrderBy("effective_at ASC")

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query.DataSQL(), query.DataArgs(1000, 0)...)
	if err != nil {
		return nil, fmt.Errorf("list lab results by patient: %w", err)
	}
	defer rows.Close()

	var out []*LabResult
	for rows.Next() {
		lr, err := scanLabResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lab result: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func scanLabResult(row pgx.Row) (*LabResult, error) {
	var lr LabResult
	err := row.Scan(&lr.ID, &lr.PatientID, &lr.DoctorID, &lr.ExamName, &lr.Value, &lr.Unit,
		&lr.ReferenceRange, &lr.IsCritical, &lr.Status, &lr.EffectiveAt, &lr.Notes,
		&lr.Version, &lr.CreatedAt, &lr.UpdatedAt, &lr.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func normalizeResultStatusParam(params map[string]string) map[string]string {
	v, ok := params["status"]
	if !ok {
		return params
	}
	out := make(map[string]string, len(params))
	for k, val := range params {
		out[k] = val
	}
	out["status"] = ResultStatusFromFHIR(v)
	return out
}

const diagnosisCols = `id, patient_id, doctor_id, icd_code, description, status,
	recorded_at, notes, version_id, created_at, updated_at, deleted_at`

var diagnosisSearchConfigs = map[string]fhir.SearchParamConfig{
	"patient": {Type: fhir.SearchParamReference, Column: "patient_id"},
	"code":    {Type: fhir.SearchParamToken, Column: "icd_code"},
}

type pgDiagnosisRepo struct {
	pool *pgxpool.Pool
}

// NewDiagnosisRepository returns the Postgres-backed diagnosis repository.
func NewDiagnosisRepository(pool *pgxpool.Pool) DiagnosisRepository {
	return &pgDiagnosisRepo{pool: pool}
}

func (r *pgDiagnosisRepo) Create(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	q := `INSERT INTO diagnosis (id, patient_id, doctor_id, icd_code, description, status, recorded_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		d.ID, d.PatientID, d.DoctorID, d.ICDCode, d.Description, d.Status, d.RecordedAt, d.Notes,
	).Scan(&d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert diagnosis: %w", err)
	}
	return nil
}

func (r *pgDiagnosisRepo) GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	q := fmt.Sprintf(`SELECT %s FROM diagnosis WHERE id = $1 AND deleted_at IS NULL`, diagnosisCols)
	d, err := scanDiagnosis(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get diagnosis: %w", err)
	}
	return d, nil
}

func (r *pgDiagnosisRepo) Update(ctx context.Context, d *Diagnosis) error {
	q := `UPDATE diagnosis SET patient_id = $2, doctor_id = $3, icd_code = $4, description = $5,
		status = $6, recorded_at = $7, notes = $8, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		d.ID, d.PatientID, d.DoctorID, d.ICDCode, d.Description, d.Status, d.RecordedAt, d.Notes,
	).Scan(&d.Version, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update diagnosis: %w", err)
	}
	return nil
}

func (r *pgDiagnosisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE diagnosis SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete diagnosis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgDiagnosisRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Diagnosis, int, error) {
	query := fhir.NewSearchQuery("diagnosis", diagnosisCols)
	query.ApplyParams(params, diagnosisSearchConfigs)
	query.ApplySort(sort, "recorded_at DESC", diagnosisSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count diagnoses: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search diagnoses: %w", err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan diagnosis: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *pgDiagnosisRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Diagnosis, error) {
	query := fhir.NewSearchQuery("diagnosis", diagnosisCols)
	query.Add("patient_id = $1", patientID)
	if from != nil {
		query.Add(fmt.Sprintf("recorded_at >= $%d", len(query.CountArgs())+1), *from)
	}
	if to != nil {
		query.Add(fmt.Sprintf("recorded_at <= $%d", len(query.CountArgs())+1), *to)
	}
	query.OrderBy("recorded_at ASC")

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query.DataSQL(), query.DataArgs(1000, 0)...)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses by patient: %w", err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.PatientID, &d.DoctorID, &d.ICDCode, &d.Description, &d.Status,
		&d.RecordedAt, &d.Notes, &d.Version, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
