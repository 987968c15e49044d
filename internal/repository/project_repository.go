package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ProjectRepository manages projects and their HR assignment.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Save(ctx context.Context, project *domain.Project) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository builds a project repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Save(ctx context.Context, p *domain.Project) error {
	const query = `
        INSERT INTO projects (id, name, city, assigned_hr)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, city=EXCLUDED.city,
            assigned_hr=EXCLUDED.assigned_hr, updated_at=NOW()
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, p.ID, p.Name, p.City, psnStrings(p.AssignedHR)).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `SELECT id, name, city, assigned_hr, created_at, updated_at FROM projects WHERE id=$1`
	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const query = `SELECT id, name, city, assigned_hr, created_at, updated_at FROM projects ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var (
		p  domain.Project
		hr []string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.City, &hr, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	for _, psn := range hr {
		p.AssignedHR = append(p.AssignedHR, domain.PSN(psn))
	}
	return p, nil
}

func psnStrings(psns []domain.PSN) []string {
	out := make([]string, 0, len(psns))
	for _, psn := range psns {
		out = append(out, string(psn))
	}
	return out
}
