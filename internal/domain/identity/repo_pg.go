package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/interop/internal/platform/db"
	"github.com/clinicore/interop/internal/platform/fhir"
)

const patientCols = `id, full_name, cpf, cns, gender, birth_date, phone, email,
	address_line, address_city, address_state, address_postal_code,
	version_id, created_at, updated_at, deleted_at`

var patientSearchConfigs = map[string]fhir.SearchParamConfig{
	"name":       {Type: fhir.SearchParamString, Column: "full_name"},
	"identifier": {Type: fhir.SearchParamToken, Column: "cpf"},
	"gender":     {Type: fhir.SearchParamToken, Column: "gender"},
	"birthdate":  {Type: fhir.SearchParamDate, Column: "birth_date"},
}

type pgPatientRepo struct {
	pool *pgxpool.Pool
}

// NewPatientRepository returns the Postgres-backed patient repository.
func NewPatientRepository(pool *pgxpool.Pool) PatientRepository {
	return &pgPatientRepo{pool: pool}
}

func (r *pgPatientRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	q := `INSERT INTO patient (id, full_name, cpf, cns, gender, birth_date, phone, email,
		address_line, address_city, address_state, address_postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		p.ID, p.FullName, p.CPF, p.CNS, p.Gender, p.BirthDate, p.Phone, p.Email,
		p.AddressLine, p.AddressCity, p.AddressState, p.AddressPostalCode,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *pgPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	q := fmt.Sprintf(`SELECT %s FROM patient WHERE id = $1 AND deleted_at IS NULL`, patientCols)
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *pgPatientRepo) Update(ctx context.Context, p *Patient) error {
	q := `UPDATE patient SET full_name = $2, cpf = $3, cns = $4, gender = $5, birth_date = $6,
		phone = $7, email = $8, address_line = $9, address_city = $10, address_state = $11,
		address_postal_code = $12, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		p.ID, p.FullName, p.CPF, p.CNS, p.Gender, p.BirthDate, p.Phone, p.Email,
		p.AddressLine, p.AddressCity, p.AddressState, p.AddressPostalCode,
	).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *pgPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE patient SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgPatientRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Patient, int, error) {
	query := fhir.NewSearchQuery("patient", patientCols)
	query.ApplyParams(normalizeGenderParam(params), patientSearchConfigs)
	query.ApplySort(sort, "created_at DESC", patientSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.CPF, &p.CNS, &p.Gender, &p.BirthDate,
		&p.Phone, &p.Email, &p.AddressLine, &p.AddressCity, &p.AddressState,
		&p.AddressPostalCode, &p.Version, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// normalizeGenderParam rewrites the FHIR gender code into the stored enum so
// the token clause matches the column value.
func normalizeGenderParam(params map[string]string) map[string]string {
	v, ok := params["gender"]
	if !ok {
		return params
	}
	out := make(map[string]string, len(params))
	for k, val := range params {
		out[k] = val
	}
	out["gender"] = fhir.GenderFromFHIR(v)
	return out
}

const doctorCols = `id, full_name, crm, specialty, gender, phone, email,
	version_id, created_at, updated_at, deleted_at`

var doctorSearchConfigs = map[string]fhir.SearchParamConfig{
	"name":       {Type: fhir.SearchParamString, Column: "full_name"},
	"identifier": {Type: fhir.SearchParamToken, Column: "crm"},
}

type pgDoctorRepo struct {
	pool *pgxpool.Pool
}

// NewDoctorRepository returns the Postgres-backed doctor repository.
func NewDoctorRepository(pool *pgxpool.Pool) DoctorRepository {
	return &pgDoctorRepo{pool: pool}
}

func (r *pgDoctorRepo) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	q := `INSERT INTO doctor (id, full_name, crm, specialty, gender, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		d.ID, d.FullName, d.CRM, d.Specialty, d.Gender, d.Phone, d.Email,
	).Scan(&d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *pgDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	q := fmt.Sprintf(`SELECT %s FROM doctor WHERE id = $1 AND deleted_at IS NULL`, doctorCols)
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *pgDoctorRepo) Update(ctx context.Context, d *Doctor) error {
	q := `UPDATE doctor SET full_name = $2, crm = $3, specialty = $4, gender = $5,
		phone = $6, email = $7, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		d.ID, d.FullName, d.CRM, d.Specialty, d.Gender, d.Phone, d.Email,
	).Scan(&d.Version, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

func (r *pgDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctor SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgDoctorRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Doctor, int, error) {
	query := fhir.NewSearchQuery("doctor", doctorCols)
	query.ApplyParams(params, doctorSearchConfigs)
	query.ApplySort(sort, "created_at DESC", doctorSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search doctors: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FullName, &d.CRM, &d.Specialty, &d.Gender,
		&d.Phone, &d.Email, &d.Version, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
