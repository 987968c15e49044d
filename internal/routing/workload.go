package routing

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Workload summarizes an actor's scope.
type Workload struct {
	Total    int
	Pending  int
	Resolved int
	ByStatus map[domain.TicketStatus]int
}

// WorkloadFor counts tickets in the actor's scope. Resolved and Closed
// tickets count as resolved, everything else as pending.
func WorkloadFor(actor domain.Actor, tickets []domain.Ticket, employees []domain.Employee) Workload {
	scope := TicketsInScope(actor, tickets, employees)
	w := Workload{Total: len(scope), ByStatus: map[domain.TicketStatus]int{}}
	for i := range scope {
		w.ByStatus[scope[i].Status]++
		if scope[i].Status.Terminal() {
			w.Resolved++
		} else {
			w.Pending++
		}
	}
	return w
}
