package scheduling

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

const appointmentCols = `id, patient_id, doctor_id, clinic_id, scheduled_at, ends_at,
	status, reason, version_id, created_at, updated_at, deleted_at`

var appointmentSearchConfigs = map[string]fhir.SearchParamConfig{
	"patient":      {Type: fhir.SearchParamReference, Column: "patient_id"},
	"practitioner": {Type: fhir.SearchParamReference, Column: "doctor_id"},
	"date":         {Type: fhir.SearchParamDate, Column: "scheduled_at"},
	"status":       {Type: fhir.SearchParamToken, Column: "status"},
}

type pgAppointmentRepo struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository returns the Postgres-backed appointment repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &pgAppointmentRepo{pool: pool}
}

func (r *pgAppointmentRepo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	q := `INSERT INTO appointment (id, patient_id, doctor_id, clinic_id, scheduled_at, ends_at, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		a.ID, a.PatientID, a.DoctorID, a.ClinicID, a.ScheduledAt, a.EndsAt, a.Status, a.Reason,
	).Scan(&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *pgAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	q := fmt.Sprintf(`SELECT %s FROM appointment WHERE id = $1 AND deleted_at IS NULL`, appointmentCols)
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *pgAppointmentRepo) Update(ctx context.Context, a *Appointment) error {
	q := `UPDATE appointment SET patient_id = $2, doctor_id = $3, clinic_id = $4, scheduled_at = $5,
		ends_at = $6, status = $7, reason = $8, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		a.ID, a.PatientID, a.DoctorID, a.ClinicID, a.ScheduledAt, a.EndsAt, a.Status, a.Reason,
	).Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (r *pgAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgAppointmentRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Appointment, int, error) {
	query := fhir.NewSearchQuery("appointment", appointmentCols)
	query.ApplyParams(normalizeStatusParam(params), appointmentSearchConfigs)
	query.ApplySort(sort, "scheduled_at DESC", appointmentSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *pgAppointmentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Appointment, error) {
	query := fhir.NewSearchQuery("appointment", appointmentCols)
	query.Add("patient_id = $1", patientID)
	if from != nil {
		query.Add(fmt.Sprintf("scheduled_at >= $%d", len(query.CountArgs())+1), *from)
	}
	if to != nil {
		query.Add(fmt.Sprintf("scheduled_at <= $%d", len(query.CountArgs())+1), *to)
	}
	query.OrderBy("scheduled_at ASC")

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query.DataSQL(), query.DataArgs(1000, 0)...)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ClinicID, &a.ScheduledAt, &a.EndsAt,
		&a.Status, &a.Reason, &a.Version, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// normalizeStatusParam rewrites the FHIR status code into the stored enum so
// the token clause matches the column value.
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
