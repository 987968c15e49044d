package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/routing"
	"github.com/spec-kit/helpdesk-service/internal/suggest"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// MaxAttachmentsPerCall bounds a single attachment upload.
const MaxAttachmentsPerCall = 10

// TicketService coordinates ticket workflows over the routing, lifecycle and
// query packages.
type TicketService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	history     repository.TicketHistoryRepository
	employees   repository.EmployeeRepository
	supervisors repository.SupervisorRepository
	hr          repository.HRRepository
	projects    repository.ProjectRepository
	locker      locking.Locker
	dispatcher  events.Dispatcher
	suggester   suggest.Suggester
	metrics     *observability.Metrics
	logger      *zap.Logger
	timeout     time.Duration
	now         func() time.Time
	newID       func() string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Repos          repository.Repositories
	Locker         locking.Locker
	Dispatcher     events.Dispatcher
	Suggester      suggest.Suggester
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	StorageTimeout time.Duration
	// Now and NewID default to time.Now and NewTicketID.
	Now   func() time.Time
	NewID func() string
}

// AttachmentInput describes one uploaded file.
type AttachmentInput struct {
	FileName   string
	FileType   string
	ContentRef string
}

// Dashboard is a staff member's workload summary.
type Dashboard struct {
	Actor       domain.Actor
	ActingRoles []domain.Role
	Workload    routing.Workload
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:     deps.Repos.Tickets,
		attachments: deps.Repos.Attachments,
		history:     deps.Repos.History,
		employees:   deps.Repos.Employees,
		supervisors: deps.Repos.Supervisors,
		hr:          deps.Repos.HR,
		projects:    deps.Repos.Projects,
		locker:      deps.Locker,
		dispatcher:  deps.Dispatcher,
		suggester:   deps.Suggester,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		timeout:     deps.StorageTimeout,
		now:         deps.Now,
		newID:       deps.NewID,
	}
	if s.locker == nil {
		s.locker = locking.NewLocalLocker()
	}
	if s.suggester == nil {
		s.suggester = suggest.Noop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = NewTicketID
	}
	return s
}

// Submit raises a new ticket for the calling employee and routes it to the
// default assignee.
func (s *TicketService) Submit(ctx context.Context, actor domain.Actor, in lifecycle.SubmitInput, attachments []AttachmentInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleEmployee || actor.Employee == nil {
		return nil, apperrors.NewForbidden("only employees can submit tickets")
	}
	in.Query = apperrors.PlainText(in.Query)
	in.FollowUpQuery = apperrors.PlainText(in.FollowUpQuery)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := validateAttachments(attachments); err != nil {
		return nil, err
	}

	var project *domain.Project
	if !actor.Employee.ISPSN.IsSet() && actor.Employee.ProjectID != "" {
		p, err := storageCall(ctx, s.timeout, "project", func(ctx context.Context) (*domain.Project, error) {
			return s.projects.GetByID(ctx, actor.Employee.ProjectID)
		})
		if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		project = p
	}
	assignee, err := routing.DefaultAssignee(actor.Employee, project)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket, err := lifecycle.NewTicket(s.newID(), actor.Employee, in, assignee, now)
	if err != nil {
		return nil, err
	}
	ticket.Attachments = newAttachments(ticket.ID, attachments, now)
	if err := storageExec(ctx, s.timeout, "ticket", func(ctx context.Context) error {
		return s.tickets.Create(ctx, ticket)
	}); err != nil {
		s.logger.Error("ticket create failed", zap.String("employee_psn", string(actor.PSN)), zap.Error(err))
		return nil, err
	}

	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"status":       ticket.Status,
		"priority":     ticket.Priority,
		"assignee_psn": ticket.CurrentAssigneePSN,
	})
	s.publishEvent(ctx, actor, ticket.ID, events.EventTicketSubmitted, events.TicketSubmittedPayload{
		EmployeePSN:  ticket.EmployeePSN,
		ProjectID:    ticket.ProjectID,
		Priority:     ticket.Priority,
		AssigneePSN:  ticket.CurrentAssigneePSN,
		QueryPreview: apperrors.Preview(ticket.Query, 120),
	})
	return ticket, nil
}

// GetTicketForEmployee returns one of the caller's own tickets.
func (s *TicketService) GetTicketForEmployee(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EmployeePSN != actor.PSN {
		return nil, apperrors.NewForbidden("ticket belongs to another employee")
	}
	return ticket, nil
}

// ListEmployeeTickets returns the caller's tickets narrowed by filter.
func (s *TicketService) ListEmployeeTickets(ctx context.Context, actor domain.Actor, filter query.Filter) ([]domain.Ticket, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, apperrors.NewForbidden("employee required")
	}
	tickets, err := storageCall(ctx, s.timeout, "tickets", func(ctx context.Context) ([]domain.Ticket, error) {
		return s.tickets.ListByEmployee(ctx, actor.PSN)
	})
	if err != nil {
		return nil, err
	}
	return query.Apply(tickets, filter), nil
}

// ListStaffTickets computes the actor's queue: scope, then filter, then page.
func (s *TicketService) ListStaffTickets(ctx context.Context, actor domain.Actor, filter query.Filter, page, pageSize int) (query.Page, error) {
	if !actor.Role.IsStaff() {
		return query.Page{}, apperrors.NewForbidden("staff role required")
	}
	tickets, employees, err := s.snapshot(ctx)
	if err != nil {
		return query.Page{}, err
	}
	scope := routing.TicketsInScope(actor, tickets, employees)
	return query.Paginate(query.Apply(scope, filter), page, pageSize), nil
}

// GetTicketForStaff returns a ticket the actor may see along with its audit history.
func (s *TicketService) GetTicketForStaff(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, []domain.TicketHistory, error) {
	ticket, _, err := s.loadForStaff(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, err
	}
	history, err := storageCall(ctx, s.timeout, "ticket history", func(ctx context.Context) ([]domain.TicketHistory, error) {
		return s.history.ListByTicket(ctx, ticket.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return ticket, history, nil
}

// RecordResponse appends a staff reply and applies an optional status change.
func (s *TicketService) RecordResponse(ctx context.Context, actor domain.Actor, ticketID string, resp lifecycle.Response) (*domain.Ticket, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	resp.Text = apperrors.PlainText(resp.Text)

	var change lifecycle.Change
	ticket, err := s.mutate(ctx, ticketID, func(t *domain.Ticket, owner *domain.Employee) error {
		if !routing.CanAct(actor, t, owner) {
			return apperrors.NewForbidden("ticket outside your scope")
		}
		var err error
		change, err = lifecycle.RecordResponse(t, actor, resp, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if change.Entry != nil {
		s.publishEvent(ctx, actor, ticket.ID, events.EventTicketResponded, events.TicketRespondedPayload{
			EmployeePSN: ticket.EmployeePSN,
			Seq:         change.Entry.Seq,
			TextPreview: apperrors.Preview(change.Entry.Text, 120),
		})
	}
	s.afterStatusChange(ctx, actor, ticket, change)
	return ticket, nil
}

// Escalate hands the ticket to the next authority above the actor. A
// non-empty target must equal the resolved one.
func (s *TicketService) Escalate(ctx context.Context, actor domain.Actor, ticketID string, target domain.PSN, note string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleHR && !actor.Role.IsSupervisory() {
		return nil, apperrors.NewForbidden("only HR or supervisors can escalate")
	}
	note = apperrors.PlainText(note)
	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}

	var (
		change   lifecycle.Change
		previous domain.PSN
		resolved domain.PSN
	)
	ticket, err := s.mutate(ctx, ticketID, func(t *domain.Ticket, owner *domain.Employee) error {
		if !routing.CanAct(actor, t, owner) {
			return apperrors.NewForbidden("ticket outside your scope")
		}
		next, err := routing.NextEscalationTarget(actor, owner, dir)
		if err != nil {
			return err
		}
		if err := routing.ValidateTarget(target, next); err != nil {
			return err
		}
		previous = t.CurrentAssigneePSN
		resolved = next
		change, err = lifecycle.Escalate(t, actor, next, note, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEscalation(string(actor.Role))
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeEscalation,
		map[string]any{"assignee_psn": previous},
		map[string]any{"assignee_psn": resolved, "note": note},
	)
	s.publishEvent(ctx, actor, ticket.ID, events.EventTicketEscalated, events.TicketEscalatedPayload{
		FromPSN: actor.PSN,
		ToPSN:   resolved,
		Note:    note,
	})
	s.afterStatusChange(ctx, actor, ticket, change)
	return ticket, nil
}

// AddFollowUp appends employee text to an open ticket.
func (s *TicketService) AddFollowUp(ctx context.Context, actor domain.Actor, ticketID, text string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, apperrors.NewForbidden("only the raising employee can add a follow-up")
	}
	text = apperrors.PlainText(text)
	ticket, err := s.mutate(ctx, ticketID, func(t *domain.Ticket, _ *domain.Employee) error {
		return lifecycle.AddFollowUp(t, actor.PSN, text, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeFollowUp, nil, map[string]any{"text": text})
	s.publishEvent(ctx, actor, ticket.ID, events.EventFollowUpAdded, events.FollowUpAddedPayload{
		AssigneePSN: ticket.CurrentAssigneePSN,
		TextPreview: apperrors.Preview(text, 120),
	})
	return ticket, nil
}

// AddAttachments stores file metadata against one of the caller's tickets.
func (s *TicketService) AddAttachments(ctx context.Context, actor domain.Actor, ticketID string, files []AttachmentInput) ([]domain.Attachment, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, apperrors.NewForbidden("only the raising employee can attach files")
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("at least one attachment required", nil)
	}
	if err := validateAttachments(files); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer release()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EmployeePSN != actor.PSN {
		return nil, apperrors.NewForbidden("ticket belongs to another employee")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}
	stored, err := s.storeAttachments(ctx, ticket.ID, files, s.now())
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(stored))
	for _, a := range stored {
		ids = append(ids, a.ID)
	}
	s.recordHistory(ctx, actor, ticket.ID, domain.ChangeTypeAttachment, nil, map[string]any{"attachment_ids": ids})
	s.publishEvent(ctx, actor, ticket.ID, events.EventAttachmentsAdded, events.AttachmentsAddedPayload{AttachmentIDs: ids})
	return stored, nil
}

// SuggestForQuery proposes resolution steps for draft text. It never fails.
func (s *TicketService) SuggestForQuery(ctx context.Context, text string) []string {
	steps, err := s.suggester.SuggestResolutionSteps(ctx, apperrors.PlainText(text))
	if err != nil {
		s.logger.Warn("suggestions unavailable", zap.Error(err))
		return []string{}
	}
	if steps == nil {
		return []string{}
	}
	return steps
}

// SuggestForTicket proposes resolution steps for a ticket the actor may see.
func (s *TicketService) SuggestForTicket(ctx context.Context, actor domain.Actor, ticketID string) ([]string, error) {
	ticket, _, err := s.loadForStaff(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	text := ticket.Query
	if ticket.HasFollowUp {
		text += "\n\n" + ticket.FollowUpQuery
	}
	return s.SuggestForQuery(ctx, text), nil
}

// Dashboard summarizes the actor's scope and the tiers they act in.
func (s *TicketService) Dashboard(ctx context.Context, actor domain.Actor) (Dashboard, error) {
	if !actor.Role.IsStaff() {
		return Dashboard{}, apperrors.NewForbidden("staff role required")
	}
	tickets, employees, err := s.snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Actor:       actor,
		ActingRoles: routing.ActingRolesFor(actor.PSN, employees),
		Workload:    routing.WorkloadFor(actor, tickets, employees),
	}, nil
}

// mutate serializes a read-modify-write on one ticket: lock, reload, apply,
// persist with the version check.
func (s *TicketService) mutate(ctx context.Context, ticketID string, apply func(*domain.Ticket, *domain.Employee) error) (*domain.Ticket, error) {
	release, err := s.lock(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer release()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, ticket.EmployeePSN)
	if err != nil {
		return nil, err
	}
	if err := apply(ticket, owner); err != nil {
		return nil, err
	}
	if err := storageExec(ctx, s.timeout, "ticket", func(ctx context.Context) error {
		return s.tickets.Update(ctx, ticket)
	}); err != nil {
		s.logger.Error("ticket update failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) lock(ctx context.Context, ticketID string) (func(), error) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	release, err := s.locker.Lock(lockCtx, locking.TicketKey(ticketID))
	if err != nil {
		s.logger.Warn("ticket lock unavailable", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return release, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket id required", nil)
	}
	return storageCall(ctx, s.timeout, "ticket", func(ctx context.Context) (*domain.Ticket, error) {
		return s.tickets.GetByID(ctx, ticketID)
	})
}

// owner returns nil when the raising employee is no longer in the directory.
func (s *TicketService) owner(ctx context.Context, psn domain.PSN) (*domain.Employee, error) {
	e, err := storageCall(ctx, s.timeout, "employee", func(ctx context.Context) (*domain.Employee, error) {
		return s.employees.GetByPSN(ctx, psn)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, nil
	}
	return e, err
}

func (s *TicketService) loadForStaff(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, *domain.Employee, error) {
	if !actor.Role.IsStaff() {
		return nil, nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.owner(ctx, ticket.EmployeePSN)
	if err != nil {
		return nil, nil, err
	}
	if !routing.CanAct(actor, ticket, owner) {
		return nil, nil, apperrors.NewForbidden("ticket outside your scope")
	}
	return ticket, owner, nil
}

func (s *TicketService) snapshot(ctx context.Context) ([]domain.Ticket, []domain.Employee, error) {
	tickets, err := storageCall(ctx, s.timeout, "tickets", s.tickets.List)
	if err != nil {
		return nil, nil, err
	}
	employees, err := storageCall(ctx, s.timeout, "employees", s.employees.List)
	if err != nil {
		return nil, nil, err
	}
	return tickets, employees, nil
}

func (s *TicketService) directory(ctx context.Context) (routing.Directory, error) {
	supervisors, err := storageCall(ctx, s.timeout, "supervisors", s.supervisors.List)
	if err != nil {
		return routing.Directory{}, err
	}
	hr, err := storageCall(ctx, s.timeout, "hr", s.hr.List)
	if err != nil {
		return routing.Directory{}, err
	}
	return routing.Directory{Supervisors: supervisors, HR: hr}, nil
}

func (s *TicketService) storeAttachments(ctx context.Context, ticketID string, files []AttachmentInput, now time.Time) ([]domain.Attachment, error) {
	stored := newAttachments(ticketID, files, now)
	for i := range stored {
		if err := storageExec(ctx, s.timeout, "attachment", func(ctx context.Context) error {
			return s.attachments.Create(ctx, &stored[i])
		}); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

func newAttachments(ticketID string, files []AttachmentInput, now time.Time) []domain.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, domain.Attachment{
			ID:         uuid.NewString(),
			TicketID:   ticketID,
			FileName:   strings.TrimSpace(f.FileName),
			FileType:   strings.TrimSpace(f.FileType),
			ContentRef: strings.TrimSpace(f.ContentRef),
			UploadedAt: now,
		})
	}
	return out
}

func validateAttachments(files []AttachmentInput) error {
	if len(files) > MaxAttachmentsPerCall {
		return apperrors.NewValidationError("too many attachments", map[string]any{"max": MaxAttachmentsPerCall})
	}
	for i, f := range files {
		if strings.TrimSpace(f.FileName) == "" || strings.TrimSpace(f.ContentRef) == "" {
			return apperrors.NewValidationError("attachment file name and content reference required", map[string]any{"index": i})
		}
	}
	return nil
}

// afterStatusChange records the audit row, metric and event for a status move.
func (s *TicketService) afterStatusChange(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, change lifecycle.Change) {
	if !change.StatusChanged {
		return
	}
	ticketID := ticket.ID
	s.metrics.RecordTransition(string(change.OldStatus), string(change.NewStatus))
	s.recordHistory(ctx, actor, ticketID, domain.ChangeTypeStatus,
		map[string]any{"status": change.OldStatus},
		map[string]any{"status": change.NewStatus},
	)
	s.publishEvent(ctx, actor, ticketID, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		EmployeePSN: ticket.EmployeePSN,
		OldStatus:   change.OldStatus,
		NewStatus:   change.NewStatus,
	})
}

// recordHistory writes an audit row after the ticket has been committed. A
// failure here is logged; the ticket change stands.
func (s *TicketService) recordHistory(ctx context.Context, actor domain.Actor, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		ID:            uuid.NewString(),
		TicketID:      ticketID,
		ChangedByPSN:  actor.PSN,
		ChangedByRole: actor.Role,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
		CreatedAt:     s.now(),
	}
	if err := storageExec(ctx, s.timeout, "ticket history", func(ctx context.Context) error {
		return s.history.Create(ctx, entry)
	}); err != nil {
		s.logger.Warn("ticket history not recorded",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, actor domain.Actor, ticketID string, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{PSN: actor.PSN, Role: actor.Role},
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}
