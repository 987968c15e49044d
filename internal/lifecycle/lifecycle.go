// Package lifecycle validates and applies ticket state changes. Functions
// here are pure over the ticket value; persistence and authorization live in
// the service layer.
package lifecycle

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	MinQueryLength    = 10
	MaxQueryLength    = 1500
	MaxFollowUpLength = 1500
	MaxResponseLength = 4000
)

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusPending, domain.TicketStatusEscalated},
	domain.TicketStatusInProgress: {domain.TicketStatusPending, domain.TicketStatusEscalated, domain.TicketStatusResolved},
	domain.TicketStatusPending:    {domain.TicketStatusInProgress, domain.TicketStatusEscalated, domain.TicketStatusResolved},
	domain.TicketStatusEscalated:  {domain.TicketStatusInProgress, domain.TicketStatusPending, domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

// CanTransition reports whether current may move to next. Staying in the
// same state is not a transition and is always allowed.
func CanTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SubmitInput is the employee supplied part of a new ticket.
type SubmitInput struct {
	Query         string
	Priority      domain.TicketPriority
	HasFollowUp   bool
	FollowUpQuery string
}

// Normalized returns the input with surrounding whitespace removed from both
// query fields.
func (in SubmitInput) Normalized() SubmitInput {
	in.Query = strings.TrimSpace(in.Query)
	in.FollowUpQuery = strings.TrimSpace(in.FollowUpQuery)
	return in
}

// Validate checks the submission constraints against the normalized input.
func (in SubmitInput) Validate() error {
	in = in.Normalized()
	n := utf8.RuneCountInString(in.Query)
	if n < MinQueryLength || n > MaxQueryLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("query must be between %d and %d characters", MinQueryLength, MaxQueryLength),
			map[string]any{"field": "query", "length": n},
		)
	}
	if !in.Priority.Valid() {
		return apperrors.NewValidationError("priority must be one of Low, Medium, High, Urgent",
			map[string]any{"field": "priority", "value": in.Priority})
	}
	if in.HasFollowUp && in.FollowUpQuery == "" {
		return apperrors.NewValidationError("follow-up query required", map[string]any{"field": "followUpQuery"})
	}
	if utf8.RuneCountInString(in.FollowUpQuery) > MaxFollowUpLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("follow-up query must be at most %d characters", MaxFollowUpLength),
			map[string]any{"field": "followUpQuery"},
		)
	}
	return nil
}

// NewTicket builds an Open ticket owned by employee and assigned to assignee.
// The caller supplies the ID.
func NewTicket(id string, employee *domain.Employee, in SubmitInput, assignee domain.PSN, now time.Time) (*domain.Ticket, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ticket := &domain.Ticket{
		ID:                   id,
		EmployeePSN:          employee.PSN,
		EmployeeName:         employee.Name,
		Query:                in.Query,
		Priority:             in.Priority,
		Status:               domain.TicketStatusOpen,
		ProjectID:            employee.ProjectID,
		CurrentAssigneePSN:   assignee,
		DateOfQuery:          now,
		LastStatusUpdateDate: now,
	}
	if in.HasFollowUp {
		ticket.HasFollowUp = true
		ticket.FollowUpQuery = in.FollowUpQuery
	}
	return ticket, nil
}

// Response is a staff reply: a log line, a status change, or both.
type Response struct {
	Text      string
	NewStatus domain.TicketStatus
}

// Change describes what a mutation did, for audit and events.
type Change struct {
	OldStatus     domain.TicketStatus
	NewStatus     domain.TicketStatus
	StatusChanged bool
	Entry         *domain.ActionEntry
}

// RecordResponse appends the response text to the action log and applies the
// status change.
func RecordResponse(t *domain.Ticket, actor domain.Actor, resp Response, now time.Time) (Change, error) {
	change := Change{OldStatus: t.Status, NewStatus: t.Status}
	if resp.Text == "" && resp.NewStatus == "" {
		return change, apperrors.NewValidationError("response text or new status required", nil)
	}
	if utf8.RuneCountInString(resp.Text) > MaxResponseLength {
		return change, apperrors.NewValidationError(
			fmt.Sprintf("response must be at most %d characters", MaxResponseLength),
			map[string]any{"field": "responseText"},
		)
	}
	if t.Status == domain.TicketStatusClosed {
		return change, apperrors.NewValidationError("ticket is closed", map[string]any{"ticket_id": t.ID})
	}
	if resp.NewStatus != "" {
		if !resp.NewStatus.Valid() {
			return change, apperrors.NewValidationError("unknown status", map[string]any{"status": resp.NewStatus})
		}
		if resp.NewStatus == domain.TicketStatusEscalated && t.Status != domain.TicketStatusEscalated {
			return change, apperrors.NewValidationError("use escalation to move a ticket to Escalated", nil)
		}
		if !CanTransition(t.Status, resp.NewStatus) {
			return change, apperrors.NewValidationError("invalid status transition", map[string]any{
				"from": t.Status,
				"to":   resp.NewStatus,
			})
		}
	}

	if resp.Text != "" {
		change.Entry = appendAction(t, actor, resp.Text, now)
	}
	if resp.NewStatus != "" && resp.NewStatus != t.Status {
		t.Status = resp.NewStatus
		change.NewStatus = resp.NewStatus
		change.StatusChanged = true
	}
	respondedAt := now
	t.DateOfResponse = &respondedAt
	t.LastStatusUpdateDate = now
	return change, nil
}

// Escalate moves the ticket to target. A ticket already Escalated may only be
// escalated again by the PSN currently holding it, which lets the supervisor
// chain climb one tier at a time while repeated HR escalations are refused.
func Escalate(t *domain.Ticket, actor domain.Actor, target domain.PSN, note string, now time.Time) (Change, error) {
	change := Change{OldStatus: t.Status, NewStatus: t.Status}
	if t.Status.Terminal() {
		return change, apperrors.NewValidationError("resolved or closed tickets cannot be escalated", map[string]any{
			"ticket_id": t.ID,
			"status":    t.Status,
		})
	}
	if t.Status == domain.TicketStatusEscalated && t.EscalatedToPSN != actor.PSN {
		return change, apperrors.NewValidationError("ticket already escalated", map[string]any{
			"ticket_id":        t.ID,
			"escalated_to_psn": t.EscalatedToPSN,
		})
	}
	if !target.IsSet() {
		return change, apperrors.NewRoutingError("no escalation target", nil)
	}
	if target == actor.PSN {
		return change, apperrors.NewRoutingError("cannot escalate to self", map[string]any{"psn": target})
	}

	text := fmt.Sprintf("Escalated by %s (%s) to %s", actor.PSN, actor.Role, target)
	if note != "" {
		text += ": " + note
	}
	change.Entry = appendAction(t, actor, text, now)
	change.StatusChanged = t.Status != domain.TicketStatusEscalated
	change.NewStatus = domain.TicketStatusEscalated

	t.Status = domain.TicketStatusEscalated
	t.EscalatedToPSN = target
	t.CurrentAssigneePSN = target
	respondedAt := now
	t.DateOfResponse = &respondedAt
	t.LastStatusUpdateDate = now
	return change, nil
}

// AddFollowUp lets the raising employee add text while the ticket is still being worked.
func AddFollowUp(t *domain.Ticket, actorPSN domain.PSN, text string, now time.Time) error {
	if actorPSN != t.EmployeePSN {
		return apperrors.NewForbidden("only the raising employee can add a follow-up")
	}
	if t.Status.Terminal() {
		return apperrors.NewValidationError("ticket is resolved or closed", map[string]any{"status": t.Status})
	}
	if text == "" {
		return apperrors.NewValidationError("follow-up query required", map[string]any{"field": "followUpQuery"})
	}
	combined := text
	if t.FollowUpQuery != "" {
		combined = t.FollowUpQuery + "\n\n" + text
	}
	if utf8.RuneCountInString(combined) > MaxFollowUpLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("follow-up query must be at most %d characters", MaxFollowUpLength),
			map[string]any{"field": "followUpQuery"},
		)
	}
	t.HasFollowUp = true
	t.FollowUpQuery = combined
	t.LastStatusUpdateDate = now
	return nil
}

func appendAction(t *domain.Ticket, actor domain.Actor, text string, now time.Time) *domain.ActionEntry {
	entry := domain.ActionEntry{
		Seq:       len(t.ActionPerformed) + 1,
		At:        now,
		ActorPSN:  actor.PSN,
		ActorRole: actor.Role,
		Text:      text,
	}
	t.ActionPerformed = append(t.ActionPerformed, entry)
	return &entry
}
