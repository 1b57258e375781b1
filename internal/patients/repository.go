package patients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klinika-id/klinika/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPatients returns one page of patients plus the total count.
func (r *Repository) ListPatients(ctx context.Context, page, perPage int) ([]Patient, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, medical_record_no, name, birth_date, phone, created_at, updated_at
		 FROM patients ORDER BY id LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.MedicalRecordNo, &p.Name, &p.BirthDate, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// GetPatient fetches a patient by ID.
func (r *Repository) GetPatient(ctx context.Context, id int64) (Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx,
		`SELECT id, medical_record_no, name, birth_date, phone, created_at, updated_at
		 FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.MedicalRecordNo, &p.Name, &p.BirthDate, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, shared.ErrNotFound
		}
		return Patient{}, err
	}
	return p, nil
}
