package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// HRRepository manages HR and Head HR records.
type HRRepository interface {
	GetByPSN(ctx context.Context, psn domain.PSN) (*domain.HRMember, error)
	List(ctx context.Context) ([]domain.HRMember, error)
	Save(ctx context.Context, member *domain.HRMember) error
}

type hrRepository struct {
	pool *pgxpool.Pool
}

// NewHRRepository creates repository.
func NewHRRepository(pool *pgxpool.Pool) HRRepository {
	return &hrRepository{pool: pool}
}

func (r *hrRepository) Save(ctx context.Context, h *domain.HRMember) error {
	const query = `
        INSERT INTO hr_members (psn, name, role, projects_handled)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (psn) DO UPDATE SET name=EXCLUDED.name, role=EXCLUDED.role,
            projects_handled=EXCLUDED.projects_handled, updated_at=NOW()
        RETURNING created_at, updated_at`

	projects := h.ProjectsHandled
	if projects == nil {
		projects = []string{}
	}
	return r.pool.QueryRow(ctx, query, h.PSN, h.Name, h.Role, projects).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *hrRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.HRMember, error) {
	const query = `
        SELECT psn, name, role, projects_handled, created_at, updated_at
        FROM hr_members WHERE psn=$1`
	h, err := scanHRMember(r.pool.QueryRow(ctx, query, psn))
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hrRepository) List(ctx context.Context) ([]domain.HRMember, error) {
	const query = `
        SELECT psn, name, role, projects_handled, created_at, updated_at
        FROM hr_members ORDER BY psn`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HRMember
	for rows.Next() {
		h, err := scanHRMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func scanHRMember(row pgx.Row) (domain.HRMember, error) {
	var h domain.HRMember
	err := row.Scan(&h.PSN, &h.Name, &h.Role, &h.ProjectsHandled, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}
