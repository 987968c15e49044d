package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketHistoryRepository stores the append-only audit trail.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

const historyColumns = `id, ticket_id, changed_by_psn, changed_by_role, change_type, old_value, new_value, created_at`

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

// Create inserts one entry. Empty value maps are stored as NULL.
func (r *ticketHistoryRepository) Create(ctx context.Context, h *domain.TicketHistory) error {
	query := `INSERT INTO ticket_history (` + historyColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		h.ID, h.TicketID, h.ChangedByPSN, h.ChangedByRole, h.ChangeType,
		nullableJSON(h.OldValue), nullableJSON(h.NewValue), h.CreatedAt,
	)
	return err
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TicketHistory, error) {
		return scanHistory(row)
	})
}

func scanHistory(row pgx.Row) (domain.TicketHistory, error) {
	var h domain.TicketHistory
	err := row.Scan(&h.ID, &h.TicketID, &h.ChangedByPSN, &h.ChangedByRole, &h.ChangeType, &h.OldValue, &h.NewValue, &h.CreatedAt)
	return h, err
}

func nullableJSON(v map[string]any) any {
	if len(v) == 0 {
		return nil
	}
	return v
}
