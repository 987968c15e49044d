package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CredentialRepository stores password hashes keyed by PSN.
type CredentialRepository interface {
	GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Credential, error)
	Save(ctx context.Context, credential *domain.Credential) error
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository builds repository.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	const query = `
        INSERT INTO credentials (psn, kind, password_hash)
        VALUES ($1,$2,$3)
        ON CONFLICT (psn) DO UPDATE SET kind=EXCLUDED.kind, password_hash=EXCLUDED.password_hash, updated_at=NOW()
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query, c.PSN, c.Kind, c.PasswordHash).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *credentialRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Credential, error) {
	const query = `
        SELECT psn, kind, password_hash, created_at, updated_at
        FROM credentials WHERE psn=$1`
	var c domain.Credential
	if err := r.pool.QueryRow(ctx, query, psn).Scan(
		&c.PSN,
		&c.Kind,
		&c.PasswordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
