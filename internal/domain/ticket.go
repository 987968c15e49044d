package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusEscalated  TicketStatus = "Escalated"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending,
		TicketStatusEscalated, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the working life of a ticket.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates urgency. Priorities are totally ordered.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// Rank orders priorities from 1 (Low) to 4 (Urgent); unknown values rank 0.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityUrgent:
		return 4
	}
	return 0
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	return p.Rank() > 0
}

// ActionEntry is one line of the append-only action log.
type ActionEntry struct {
	Seq       int
	At        time.Time
	ActorPSN  PSN
	ActorRole Role
	Text      string
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID                   string
	EmployeePSN          PSN
	EmployeeName         string
	Query                string
	HasFollowUp          bool
	FollowUpQuery        string
	Priority             TicketPriority
	Status               TicketStatus
	ProjectID            string
	CurrentAssigneePSN   PSN
	EscalatedToPSN       PSN
	ActionPerformed      []ActionEntry
	DateOfQuery          time.Time
	DateOfResponse       *time.Time
	LastStatusUpdateDate time.Time
	Attachments          []Attachment
	Version              int
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.ActionPerformed = append([]ActionEntry(nil), t.ActionPerformed...)
	cp.Attachments = append([]Attachment(nil), t.Attachments...)
	if t.DateOfResponse != nil {
		at := *t.DateOfResponse
		cp.DateOfResponse = &at
	}
	return &cp
}
