package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketRepository encapsulates ticket persistence. Tickets are returned
// with their action log and attachments loaded.
type TicketRepository interface {
	// Create stores the ticket together with its action log and any
	// attachments it carries. Either all of them are stored or none.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update persists the ticket if its stored version still equals
	// ticket.Version, appends action entries not yet stored and bumps the
	// version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByEmployee(ctx context.Context, psn domain.PSN) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, employee_psn, employee_name, query, has_follow_up, follow_up_query, priority, status,
       project_id, current_assignee_psn, escalated_to_psn, date_of_query, date_of_response,
       last_status_update_date, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, employee_psn, employee_name, query, has_follow_up, follow_up_query, priority, status,
            project_id, current_assignee_psn, escalated_to_psn, date_of_query, date_of_response,
            last_status_update_date, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1)`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.EmployeePSN,
			ticket.EmployeeName,
			ticket.Query,
			ticket.HasFollowUp,
			ticket.FollowUpQuery,
			ticket.Priority,
			ticket.Status,
			ticket.ProjectID,
			ticket.CurrentAssigneePSN,
			ticket.EscalatedToPSN,
			ticket.DateOfQuery,
			ticket.DateOfResponse,
			ticket.LastStatusUpdateDate,
		); err != nil {
			return err
		}
		if err := insertActions(ctx, tx, ticket.ID, ticket.ActionPerformed); err != nil {
			return err
		}
		for i := range ticket.Attachments {
			if err := insertAttachment(ctx, tx, &ticket.Attachments[i]); err != nil {
				return fmt.Errorf("attachment %s: %w", ticket.Attachments[i].FileName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ticket.Version = 1
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET has_follow_up=$1, follow_up_query=$2, priority=$3, status=$4, current_assignee_psn=$5,
            escalated_to_psn=$6, date_of_response=$7, last_status_update_date=$8, version=version+1
        WHERE id=$9 AND version=$10`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query,
			ticket.HasFollowUp,
			ticket.FollowUpQuery,
			ticket.Priority,
			ticket.Status,
			ticket.CurrentAssigneePSN,
			ticket.EscalatedToPSN,
			ticket.DateOfResponse,
			ticket.LastStatusUpdateDate,
			ticket.ID,
			ticket.Version,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return pgx.ErrNoRows
			}
			return apperrors.ErrVersionConflict
		}
		return insertActions(ctx, tx, ticket.ID, ticket.ActionPerformed)
	})
	if err != nil {
		return err
	}
	ticket.Version++
	return nil
}

// insertActions writes entries whose sequence number is not stored yet. The
// action log is append-only so existing rows are never rewritten.
func insertActions(ctx context.Context, tx pgx.Tx, ticketID string, entries []domain.ActionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
        INSERT INTO ticket_actions (ticket_id, seq, at, actor_psn, actor_role, text)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (ticket_id, seq) DO NOTHING`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, ticketID, e.Seq, e.At, e.ActorPSN, e.ActorRole, e.Text)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	tickets := []domain.Ticket{ticket}
	if err := r.loadChildren(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY date_of_query, id`
	return r.list(ctx, query)
}

func (r *ticketRepository) ListByEmployee(ctx context.Context, psn domain.PSN) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE employee_psn=$1 ORDER BY date_of_query, id`
	return r.list(ctx, query, psn)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadChildren fills action logs and attachments for tickets in two queries.
func (r *ticketRepository) loadChildren(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	byID := make(map[string]*domain.Ticket, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		byID[tickets[i].ID] = &tickets[i]
	}

	rows, err := r.pool.Query(ctx, `
        SELECT ticket_id, seq, at, actor_psn, actor_role, text
        FROM ticket_actions WHERE ticket_id = ANY($1) ORDER BY ticket_id, seq`, ids)
	if err != nil {
		return fmt.Errorf("load actions: %w", err)
	}
	for rows.Next() {
		var (
			ticketID string
			e        domain.ActionEntry
		)
		if err := rows.Scan(&ticketID, &e.Seq, &e.At, &e.ActorPSN, &e.ActorRole, &e.Text); err != nil {
			rows.Close()
			return err
		}
		t := byID[ticketID]
		t.ActionPerformed = append(t.ActionPerformed, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
        SELECT `+attachmentColumns+`
        FROM ticket_attachments WHERE ticket_id = ANY($1) ORDER BY uploaded_at, id`, ids)
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return err
		}
		t := byID[a.TicketID]
		t.Attachments = append(t.Attachments, a)
	}
	return rows.Err()
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID,
		&t.EmployeePSN,
		&t.EmployeeName,
		&t.Query,
		&t.HasFollowUp,
		&t.FollowUpQuery,
		&t.Priority,
		&t.Status,
		&t.ProjectID,
		&t.CurrentAssigneePSN,
		&t.EscalatedToPSN,
		&t.DateOfQuery,
		&t.DateOfResponse,
		&t.LastStatusUpdateDate,
		&t.Version,
	)
	return t, err
}
