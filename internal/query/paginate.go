package query

import "github.com/spec-kit/helpdesk-service/internal/domain"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one window of a filtered listing.
type Page struct {
	Items    []domain.Ticket
	Page     int
	PageSize int
	Total    int
}

// Paginate slices tickets into a 1-based page. Out of range values are
// clamped to the defaults.
func Paginate(tickets []domain.Ticket, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	p := Page{Page: page, PageSize: pageSize, Total: len(tickets), Items: []domain.Ticket{}}
	start := (page - 1) * pageSize
	if start >= len(tickets) {
		return p
	}
	end := start + pageSize
	if end > len(tickets) {
		end = len(tickets)
	}
	p.Items = tickets[start:end]
	return p
}
