package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EmployeeRepository defines persistence access for ticket raising employees.
type EmployeeRepository interface {
	GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	Save(ctx context.Context, employee *domain.Employee) error
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `psn, name, grade, job_code, project_id, is_psn, ns_psn, dh_psn, created_at, updated_at`

func (r *employeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	const query = `
        INSERT INTO employees (psn, name, grade, job_code, project_id, is_psn, ns_psn, dh_psn)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (psn) DO UPDATE SET name=EXCLUDED.name, grade=EXCLUDED.grade, job_code=EXCLUDED.job_code,
            project_id=EXCLUDED.project_id, is_psn=EXCLUDED.is_psn, ns_psn=EXCLUDED.ns_psn, dh_psn=EXCLUDED.dh_psn,
            updated_at=NOW()
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		e.PSN,
		e.Name,
		e.Grade,
		e.JobCode,
		e.ProjectID,
		e.ISPSN,
		e.NSPSN,
		e.DHPSN,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *employeeRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE psn=$1`
	e, err := scanEmployee(r.pool.QueryRow(ctx, query, psn))
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY psn`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanEmployee(row pgx.Row) (domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(
		&e.PSN,
		&e.Name,
		&e.Grade,
		&e.JobCode,
		&e.ProjectID,
		&e.ISPSN,
		&e.NSPSN,
		&e.DHPSN,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}
