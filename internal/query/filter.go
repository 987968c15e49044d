// Package query narrows a role's ticket queue by free-text search, status and
// priority, and pages the result for listings.
package query

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// All disables a status or priority restriction. The empty string does the same.
const All = "all"

// Filter holds the user supplied listing criteria.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

func (f Filter) matchesStatus(s domain.TicketStatus) bool {
	return f.Status == "" || strings.EqualFold(f.Status, All) || string(s) == f.Status
}

func (f Filter) matchesPriority(p domain.TicketPriority) bool {
	return f.Priority == "" || strings.EqualFold(f.Priority, All) || string(p) == f.Priority
}

func matchesSearch(t *domain.Ticket, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{t.ID, t.EmployeeName, string(t.EmployeePSN), t.Query} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FilterTickets returns the tickets of scope that satisfy every criterion, in
// their original order.
func FilterTickets(scope []domain.Ticket, searchTerm, statusFilter, priorityFilter string) []domain.Ticket {
	return Apply(scope, Filter{Search: searchTerm, Status: statusFilter, Priority: priorityFilter})
}

// Apply is FilterTickets with the criteria bundled.
func Apply(scope []domain.Ticket, f Filter) []domain.Ticket {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Ticket, 0, len(scope))
	for i := range scope {
		t := &scope[i]
		if !f.matchesStatus(t.Status) || !f.matchesPriority(t.Priority) {
			continue
		}
		if !matchesSearch(t, term) {
			continue
		}
		out = append(out, *t)
	}
	return out
}
