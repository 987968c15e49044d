package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SupervisorRepository handles persistence for IS, NS, DH and IC Head records.
type SupervisorRepository interface {
	GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Supervisor, error)
	List(ctx context.Context) ([]domain.Supervisor, error)
	Save(ctx context.Context, supervisor *domain.Supervisor) error
}

type supervisorRepository struct {
	pool *pgxpool.Pool
}

// NewSupervisorRepository instantiates the repository.
func NewSupervisorRepository(pool *pgxpool.Pool) SupervisorRepository {
	return &supervisorRepository{pool: pool}
}

const supervisorColumns = `psn, name, title, functional_role, branch_project_id, city_access, created_at, updated_at`

func (r *supervisorRepository) Save(ctx context.Context, s *domain.Supervisor) error {
	const query = `
        INSERT INTO supervisors (psn, name, title, functional_role, branch_project_id, city_access)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (psn) DO UPDATE SET name=EXCLUDED.name, title=EXCLUDED.title,
            functional_role=EXCLUDED.functional_role, branch_project_id=EXCLUDED.branch_project_id,
            city_access=EXCLUDED.city_access, updated_at=NOW()
        RETURNING created_at, updated_at`

	cities := s.CityAccess
	if cities == nil {
		cities = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		s.PSN,
		s.Name,
		s.Title,
		s.FunctionalRole,
		s.BranchProjectID,
		cities,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *supervisorRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Supervisor, error) {
	query := `SELECT ` + supervisorColumns + ` FROM supervisors WHERE psn=$1`
	s, err := scanSupervisor(r.pool.QueryRow(ctx, query, psn))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supervisorRepository) List(ctx context.Context) ([]domain.Supervisor, error) {
	query := `SELECT ` + supervisorColumns + ` FROM supervisors ORDER BY psn`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Supervisor
	for rows.Next() {
		s, err := scanSupervisor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanSupervisor(row pgx.Row) (domain.Supervisor, error) {
	var s domain.Supervisor
	err := row.Scan(
		&s.PSN,
		&s.Name,
		&s.Title,
		&s.FunctionalRole,
		&s.BranchProjectID,
		&s.CityAccess,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}
