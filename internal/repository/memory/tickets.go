package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketRepository keeps tickets in insertion order.
type TicketRepository struct {
	mu          sync.RWMutex
	tickets     map[string]*domain.Ticket
	order       []string
	attachments repository.AttachmentRepository
}

// NewTicketRepository creates an empty ticket store. Attachments are written
// to and read from attachments.
func NewTicketRepository(attachments repository.AttachmentRepository) *TicketRepository {
	return &TicketRepository{
		tickets:     make(map[string]*domain.Ticket),
		attachments: attachments,
	}
}

// Create stores a new ticket at version 1 with its attachments. When an
// attachment cannot be written the ticket is not stored.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	if len(ticket.Attachments) > 0 && r.attachments == nil {
		return fmt.Errorf("ticket %s: no attachment store", ticket.ID)
	}
	for i := range ticket.Attachments {
		if err := r.attachments.Create(ctx, &ticket.Attachments[i]); err != nil {
			err = fmt.Errorf("attachment %s: %w", ticket.Attachments[i].FileName, err)
			if i == 0 {
				return err
			}
			return errors.Join(err, r.attachments.DeleteByTicket(context.WithoutCancel(ctx), ticket.ID))
		}
	}
	ticket.Version = 1
	stored := ticket.Clone()
	stored.Attachments = nil
	r.tickets[ticket.ID] = stored
	r.order = append(r.order, ticket.ID)
	return nil
}

// Update replaces the ticket when the caller holds the current version.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tickets[ticket.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Version != ticket.Version {
		return apperrors.ErrVersionConflict
	}
	if len(ticket.ActionPerformed) < len(current.ActionPerformed) {
		return fmt.Errorf("ticket %s: action log cannot shrink", ticket.ID)
	}
	ticket.Version++
	stored := ticket.Clone()
	stored.Attachments = nil
	r.tickets[ticket.ID] = stored
	return nil
}

// GetByID returns a deep copy of the ticket.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	t, ok := r.tickets[id]
	if !ok {
		r.mu.RUnlock()
		return nil, apperrors.ErrNotFound
	}
	out := t.Clone()
	r.mu.RUnlock()

	if err := r.fillAttachments(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every ticket ordered by query date.
func (r *TicketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, func(*domain.Ticket) bool { return true })
}

// ListByEmployee returns tickets raised by psn ordered by query date.
func (r *TicketRepository) ListByEmployee(ctx context.Context, psn domain.PSN) ([]domain.Ticket, error) {
	return r.list(ctx, func(t *domain.Ticket) bool { return t.EmployeePSN == psn })
}

func (r *TicketRepository) list(ctx context.Context, keep func(*domain.Ticket) bool) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]domain.Ticket, 0, len(r.order))
	for _, id := range r.order {
		if t := r.tickets[id]; keep(t) {
			out = append(out, *t.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].DateOfQuery.Before(out[j].DateOfQuery) })
	for i := range out {
		if err := r.fillAttachments(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TicketRepository) fillAttachments(ctx context.Context, t *domain.Ticket) error {
	if r.attachments == nil {
		return nil
	}
	attachments, err := r.attachments.ListByTicket(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Attachments = attachments
	return nil
}

// AttachmentRepository stores attachment metadata per ticket.
type AttachmentRepository struct {
	mu       sync.RWMutex
	byTicket map[string][]domain.Attachment
}

// NewAttachmentRepository creates an empty attachment store.
func NewAttachmentRepository() *AttachmentRepository {
	return &AttachmentRepository{byTicket: make(map[string][]domain.Attachment)}
}

// Create appends the attachment to its ticket.
func (r *AttachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTicket[a.TicketID] = append(r.byTicket[a.TicketID], *a)
	return nil
}

// DeleteByTicket drops every attachment of the ticket.
func (r *AttachmentRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byTicket, ticketID)
	return nil
}

// ListByTicket returns the ticket's attachments in upload order.
func (r *AttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Attachment(nil), r.byTicket[ticketID]...), nil
}

// TicketHistoryRepository stores audit entries per ticket.
type TicketHistoryRepository struct {
	mu       sync.RWMutex
	byTicket map[string][]domain.TicketHistory
}

// NewTicketHistoryRepository creates an empty history store.
func NewTicketHistoryRepository() *TicketHistoryRepository {
	return &TicketHistoryRepository{byTicket: make(map[string][]domain.TicketHistory)}
}

// Create appends an audit entry.
func (r *TicketHistoryRepository) Create(ctx context.Context, h *domain.TicketHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTicket[h.TicketID] = append(r.byTicket[h.TicketID], *h)
	return nil
}

// ListByTicket returns audit entries oldest first.
func (r *TicketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.TicketHistory(nil), r.byTicket[ticketID]...), nil
}
