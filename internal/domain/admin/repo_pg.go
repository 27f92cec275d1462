package admin

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

const clinicCols = `id, name, cnpj, phone, email,
	address_line, address_city, address_state, address_postal_code,
	version_id, created_at, updated_at, deleted_at`

var clinicSearchConfigs = map[string]fhir.SearchParamConfig{
	"name":       {Type: fhir.SearchParamString, Column: "name"},
	"identifier": {Type: fhir.SearchParamToken, Column: "cnpj"},
}

type pgClinicRepo struct {
	pool *pgxpool.Pool
}

// NewClinicRepository returns the Postgres-backed clinic repository.
func NewClinicRepository(pool *pgxpool.Pool) ClinicRepository {
	return &pgClinicRepo{pool: pool}
}

func (r *pgClinicRepo) Create(ctx context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	q := `INSERT INTO clinic (id, name, cnpj, phone, email,
		address_line, address_city, address_state, address_postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING version_id, created_at, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Email,
		c.AddressLine, c.AddressCity, c.AddressState, c.AddressPostalCode,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert clinic: %w", err)
	}
	return nil
}

func (r *pgClinicRepo) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	q := fmt.Sprintf(`SELECT %s FROM clinic WHERE id = $1 AND deleted_at IS NULL`, clinicCols)
	c, err := scanClinic(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fhir.ErrNotFound
		}
		return nil, fmt.Errorf("get clinic: %w", err)
	}
	return c, nil
}

func (r *pgClinicRepo) Update(ctx context.Context, c *Clinic) error {
	q := `UPDATE clinic SET name = $2, cnpj = $3, phone = $4, email = $5,
		address_line = $6, address_city = $7, address_state = $8, address_postal_code = $9,
		version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING version_id, updated_at`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Email,
		c.AddressLine, c.AddressCity, c.AddressState, c.AddressPostalCode,
	).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fhir.ErrNotFound
		}
		return fmt.Errorf("update clinic: %w", err)
	}
	return nil
}

func (r *pgClinicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE clinic SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fhir.ErrNotFound
	}
	return nil
}

func (r *pgClinicRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Clinic, int, error) {
	query := fhir.NewSearchQuery("clinic", clinicCols)
	query.ApplyParams(params, clinicSearchConfigs)
	query.ApplySort(sort, "created_at DESC", clinicSearchConfigs)

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, query.CountSQL(), query.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clinics: %w", err)
	}
	rows, err := conn.Query(ctx, query.DataSQL(), query.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search clinics: %w", err)
	}
	defer rows.Close()

	var out []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan clinic: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.CNPJ, &c.Phone, &c.Email,
		&c.AddressLine, &c.AddressCity, &c.AddressState, &c.AddressPostalCode,
		&c.Version, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
