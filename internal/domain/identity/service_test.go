package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

type memPatientRepo struct {
	rows map[uuid.UUID]*Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{rows: map[uuid.UUID]*Patient{}}
}

func (r *memPatientRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.rows[id]
	if !ok || p.DeletedAt != nil {
		return nil, fhir.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPatientRepo) Update(ctx context.Context, p *Patient) error {
	cur, ok := r.rows[p.ID]
	if !ok || cur.DeletedAt != nil {
		return fhir.ErrNotFound
	}
	p.Version = cur.Version + 1
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cur, ok := r.rows[id]
	if !ok || cur.DeletedAt != nil {
		return fhir.ErrNotFound
	}
	now := time.Now().UTC()
	cur.DeletedAt = &now
	return nil
}

func (r *memPatientRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range r.rows {
		if p.DeletedAt == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type memDoctorRepo struct {
	rows map[uuid.UUID]*Doctor
}

func newMemDoctorRepo() *memDoctorRepo {
	return &memDoctorRepo{rows: map[uuid.UUID]*Doctor{}}
}

func (r *memDoctorRepo) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Version = 1
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.rows[d.ID] = &cp
	return nil
}

func (r *memDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := r.rows[id]
	if !ok || d.DeletedAt != nil {
		return nil, fhir.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDoctorRepo) Update(ctx context.Context, d *Doctor) error {
	cur, ok := r.rows[d.ID]
	if !ok || cur.DeletedAt != nil {
		return fhir.ErrNotFound
	}
	d.Version = cur.Version + 1
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	r.rows[d.ID] = &cp
	return nil
}

func (r *memDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cur, ok := r.rows[id]
	if !ok || cur.DeletedAt != nil {
		return fhir.ErrNotFound
	}
	now := time.Now().UTC()
	cur.DeletedAt = &now
	return nil
}

func (r *memDoctorRepo) Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Doctor, int, error) {
	var out []*Doctor
	for _, d := range r.rows {
		if d.DeletedAt == nil {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func newTestService() (*Service, *memPatientRepo, *memDoctorRepo) {
	patients := newMemPatientRepo()
	doctors := newMemDoctorRepo()
	return NewService(patients, doctors, audit.Nop{}), patients, doctors
}

func TestCreatePatientRequiresName(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CreatePatient(context.Background(), &Patient{Gender: fhir.GenderFemale})
	if !errors.Is(err, fhir.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestGetPatientBadIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetPatient(context.Background(), "not-a-uuid")
	if !errors.Is(err, fhir.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePatientVersionConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FullName: "Maria Santos", Gender: fhir.GenderFemale}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdatePatient(ctx, p.ID.String(), &Patient{FullName: "Maria S. Santos"}, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Stale expected version: the record is now at version 2.
	_, err := svc.UpdatePatient(ctx, p.ID.String(), &Patient{FullName: "Maria"}, 1)
	if !errors.Is(err, fhir.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUpdatePatientUnconditional(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FullName: "Maria Santos", Gender: fhir.GenderFemale}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdatePatient(ctx, p.ID.String(), &Patient{FullName: "Maria Souza"}, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
	if updated.FullName != "Maria Souza" {
		t.Errorf("full name = %q", updated.FullName)
	}
}

func TestDeletePatientThenGet(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FullName: "Maria Santos"}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeletePatient(ctx, p.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := svc.GetPatient(ctx, p.ID.String())
	if !errors.Is(err, fhir.ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}
	if err := svc.DeletePatient(ctx, p.ID.String()); !errors.Is(err, fhir.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDoctorLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d := &Doctor{FullName: "Carlos Mota", CRM: strp("123456")}
	if err := svc.CreateDoctor(ctx, d); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetDoctor(ctx, d.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CRM == nil || *got.CRM != "123456" {
		t.Errorf("crm = %v", got.CRM)
	}

	_, err = svc.UpdateDoctor(ctx, d.ID.String(), &Doctor{FullName: "Carlos E. Mota"}, 2)
	if !errors.Is(err, fhir.ErrConflict) {
		t.Fatalf("stale update = %v, want ErrConflict", err)
	}
}
