package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	DeleteByTicket(ctx context.Context, ticketID string) error
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

const attachmentColumns = `id, ticket_id, file_name, file_type, content_ref, uploaded_at`

func (r *attachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	return insertAttachment(ctx, r.pool, a)
}

func (r *attachmentRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticket_attachments WHERE ticket_id=$1`, ticketID)
	return err
}

func insertAttachment(ctx context.Context, db execer, a *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (id, ticket_id, file_name, file_type, content_ref, uploaded_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := db.Exec(ctx, query,
		a.ID,
		a.TicketID,
		a.FileName,
		a.FileType,
		a.ContentRef,
		a.UploadedAt,
	)
	return err
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1 ORDER BY uploaded_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanAttachment(row pgx.Row) (domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(&a.ID, &a.TicketID, &a.FileName, &a.FileType, &a.ContentRef, &a.UploadedAt)
	return a, err
}
