package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func scope() []domain.Ticket {
	return []domain.Ticket{
		{ID: "TKT001", EmployeePSN: "EMP00001", EmployeeName: "Asha Rao", Query: "VPN drops every hour", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh},
		{ID: "TKT002", EmployeePSN: "EMP00002", EmployeeName: "Vikram Shah", Query: "Salary slip missing", Status: domain.TicketStatusResolved, Priority: domain.TicketPriorityMedium},
		{ID: "TKT003", EmployeePSN: "EMP00003", EmployeeName: "Meera Iyer", Query: "Leave balance wrong", Status: domain.TicketStatusPending, Priority: domain.TicketPriorityLow},
		{ID: "TKT004", EmployeePSN: "EMP00004", EmployeeName: "Rahul Das", Query: "vpn token expired", Status: domain.TicketStatusResolved, Priority: domain.TicketPriorityUrgent},
	}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTickets(t *testing.T) {
	tickets := scope()

	tests := []struct {
		name     string
		search   string
		status   string
		priority string
		want     []string
	}{
		{"no criteria", "", "", "", []string{"TKT001", "TKT002", "TKT003", "TKT004"}},
		{"all sentinels", "", "all", "all", []string{"TKT001", "TKT002", "TKT003", "TKT004"}},
		{"search by id", "TKT002", "", "", []string{"TKT002"}},
		{"search trimmed and case-insensitive", "  tkt002 ", "all", "", []string{"TKT002"}},
		{"search by psn substring", "00003", "", "", []string{"TKT003"}},
		{"search by name", "vikram", "", "", []string{"TKT002"}},
		{"search by query keeps order", "VPN", "", "", []string{"TKT001", "TKT004"}},
		{"status filter", "", "Resolved", "", []string{"TKT002", "TKT004"}},
		{"status and priority anded", "", "Resolved", "Urgent", []string{"TKT004"}},
		{"search and status anded", "vpn", "Resolved", "all", []string{"TKT004"}},
		{"no match", "printer", "", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTickets(tickets, tt.search, tt.status, tt.priority)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterTicketsResolvedOnly(t *testing.T) {
	for _, tk := range FilterTickets(scope(), "", string(domain.TicketStatusResolved), All) {
		assert.Equal(t, domain.TicketStatusResolved, tk.Status)
	}
}

func TestPaginate(t *testing.T) {
	tickets := scope()

	p := Paginate(tickets, 1, 3)
	assert.Equal(t, []string{"TKT001", "TKT002", "TKT003"}, ids(p.Items))
	assert.Equal(t, 4, p.Total)

	p = Paginate(tickets, 2, 3)
	assert.Equal(t, []string{"TKT004"}, ids(p.Items))

	p = Paginate(tickets, 5, 3)
	assert.Empty(t, p.Items)

	p = Paginate(tickets, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Len(t, p.Items, 4)

	p = Paginate(tickets, 1, 1000)
	assert.Equal(t, MaxPageSize, p.PageSize)
}
