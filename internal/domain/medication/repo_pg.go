package medication

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

const prescriptionCols = `id, patient_id, doctor_id, status, prescribed_at, notes,
	version_id, created_at, updated_at, deleted_at`

var prescriptionSearchConfigs = map[string]fhir.SearchParamConfig{
	"patient":    {Type: fhir.SearchParamReference, Column: "patient_id"},
	"status":     {Type: fhir.SearchParamToken, Column: "status"},
	"authoredon": {Type: fhir.SearchParamDate, Column: "prescribed_at"},
}

type pgPrescriptionRepo struct {
	pool *pgxpool.Pool
}

// NewPrescriptionRepository returns the Postgres-backed prescription
// repository.
func NewPrescriptionRepository(pool *pgxpool.Pool) PrescriptionRepository {
	return &pgPrescriptionRepo{pool: pool}
}

func (r *pgPrescriptionRepo) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	conn := db.Conn(ctx, r.pool)
	q := `INSERT INTO prescription (id, patient_id, doctor_id, status, prescribed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING version_id, created_at, updated_at`
	err := conn.QueryRow(ctx, q,
		p.ID, p.PatientID, p.DoctorID, p.Status, p.PrescribedAt, p.Notes,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	if err := r.insertItems(ctx, conn, p); err != nil {
		return err
	}
	return nil
}

func (r *pgPrescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	conn := db.Conn(ctx, r.pool)
	q := fmt.Sprintf(`SELECT %s FROM prescription WHERE id = $1 AND deleted_at IS NULL`, prescriptionCols)
	p, err := scanPrescription(conn.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	if err := r.loadItems(ctx, conn, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPrescriptionRepo) Update(ctx context.Context, p *Prescription) error {
	conn := db.Conn(ctx, r.pool)
	q := `UPDATE prescription SET patient_id = $2, doctor_id = $3, status = $4,
		prescribed_at = $5, notes = $6, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := conn.QueryRow(ctx, q,
		p.ID, p.PatientID, p.DoctorID, p.Status, p.PrescribedAt, p.Notes,
	).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update prescription: %w", err)
	}
	// Line items are replaced wholesale on update.
	if _, err := conn.Exec(ctx, `DELETE FROM prescription_item WHERE prescription_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear prescription items: %w", err)
	}
	return r.insertItems(ctx, conn, p)
}

func (r *pgPrescriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE prescription SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgPrescriptionRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Prescription, int, error) {
	query := fhir.NewSearchQuery("prescription", prescriptionCols)
	query.ApplyParams(normalizeStatusParam(params), prescriptionSearchConfigs)
	query.ApplySort(sort, "prescribed_at DESC", prescriptionSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search prescriptions: %w", err)
	}
	out, err := collectPrescriptions(rows)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range out {
		if err := r.loadItems(ctx, conn, p); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *pgPrescriptionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Prescription, error) {
	query := fhir.NewSearchQuery("prescription", prescriptionCols)
	query.Add("patient_id = $1", patientID)
	if from != nil {
		query.Add(fmt.Sprintf("prescribed_at >= $%d", len(query.CountArgs())+1), *from)
	}
	if to != nil {
		query.Add(fmt.Sprintf("prescribed_at <= $%d", len(query.CountArgs())+1), *to)
	}
	query.OrderBy("prescribed_at ASC")

	conn := db.Conn(ctx, r.pool)
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(1000, 0)...)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions by patient: %w", err)
	}
	out, err := collectPrescriptions(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		if err := r.loadItems(ctx, conn, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *pgPrescriptionRepo) insertItems(ctx context.Context, conn db.Querier, p *Prescription) error {
	for i := range p.Items {
		item := &p.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.PrescriptionID = p.ID
		if item.Position == 0 {
			item.Position = i + 1
		}
		_, err := conn.Exec(ctx,
			`INSERT INTO prescription_item (id, prescription_id, position, medication_name, dosage_text, instructions)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.PrescriptionID, item.Position, item.MedicationName, item.DosageText, item.Instructions)
		if err != nil {
			return fmt.Errorf("insert prescription item: %w", err)
		}
	}
	return nil
}

func (r *pgPrescriptionRepo) loadItems(ctx context.Context, conn db.Querier, p *Prescription) error {
	rows, err := conn.Query(ctx,
		`SELECT id, prescription_id, position, medication_name, dosage_text, instructions
		FROM prescription_item WHERE prescription_id = $1 ORDER BY position`, p.ID)
	if err != nil {
		return fmt.Errorf("load prescription items: %w", err)
	}
	defer rows.Close()

	p.Items = nil
	for rows.Next() {
		var item PrescriptionItem
		if err := rows.Scan(&item.ID, &item.PrescriptionID, &item.Position,
			&item.MedicationName, &item.DosageText, &item.Instructions); err != nil {
			return fmt.Errorf("scan prescription item: %w", err)
		}
		p.Items = append(p.Items, item)
	}
	return rows.Err()
}

func collectPrescriptions(rows pgx.Rows) ([]*Prescription, error) {
	defer rows.Close()
	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Status, &p.PrescribedAt, &p.Notes,
		&p.Version, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func normalizeStatusParam(params map[string]string) map[string]string {
	v, ok := params["status"]
	if !ok {
		return params
	}
	out := make(map[string]string, len(params))
	for k, val := range params {
		out[k] = val
	}
	out["status"] = StatusFromFHIR(v)
	return out
}
