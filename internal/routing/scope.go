// Package routing decides which tickets an actor may see and act on, and who
// receives a ticket on escalation.
package routing

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ScopeRule reports whether a ticket raised by owner falls inside the actor's
// authority. owner is nil when the raising employee is missing from the directory.
type ScopeRule func(actor domain.Actor, ticket *domain.Ticket, owner *domain.Employee) bool

// scopeRules maps each role to its visibility predicate. Roles without an
// entry (employees, admins) have an empty staff scope.
var scopeRules = map[domain.Role]ScopeRule{
	domain.RoleICHead: allTickets,
	domain.RoleHeadHR: allTickets,
	domain.RoleDH:     ownerLink(domain.RoleDH),
	domain.RoleNS:     ownerLink(domain.RoleNS),
	domain.RoleIS:     ownerLink(domain.RoleIS),
	domain.RoleHR:     projectHandled,
}

// RuleFor returns the scope rule for role, if any.
func RuleFor(role domain.Role) (ScopeRule, bool) {
	rule, ok := scopeRules[role]
	return rule, ok
}

func allTickets(domain.Actor, *domain.Ticket, *domain.Employee) bool {
	return true
}

func ownerLink(tier domain.Role) ScopeRule {
	return func(actor domain.Actor, _ *domain.Ticket, owner *domain.Employee) bool {
		if owner == nil || !actor.PSN.IsSet() {
			return false
		}
		return owner.SupervisorFor(tier) == actor.PSN
	}
}

func projectHandled(actor domain.Actor, ticket *domain.Ticket, _ *domain.Employee) bool {
	if actor.HR == nil {
		return false
	}
	return actor.HR.Handles(ticket.ProjectID)
}

// EmployeeIndex maps PSN to employee for scope lookups.
type EmployeeIndex map[domain.PSN]*domain.Employee

// IndexEmployees builds an EmployeeIndex.
func IndexEmployees(employees []domain.Employee) EmployeeIndex {
	idx := make(EmployeeIndex, len(employees))
	for i := range employees {
		idx[employees[i].PSN] = &employees[i]
	}
	return idx
}

// TicketsInScope returns the subset of tickets the actor may see, preserving input order.
func TicketsInScope(actor domain.Actor, tickets []domain.Ticket, employees []domain.Employee) []domain.Ticket {
	rule, ok := RuleFor(actor.Role)
	if !ok {
		return []domain.Ticket{}
	}
	idx := IndexEmployees(employees)
	result := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if assignedTo(actor, &tickets[i]) || rule(actor, &tickets[i], idx[tickets[i].EmployeePSN]) {
			result = append(result, tickets[i])
		}
	}
	return result
}

// InScope reports whether a single ticket is visible to the actor.
func InScope(actor domain.Actor, ticket *domain.Ticket, owner *domain.Employee) bool {
	rule, ok := RuleFor(actor.Role)
	if !ok {
		return false
	}
	return assignedTo(actor, ticket) || rule(actor, ticket, owner)
}

// assignedTo admits the staff member currently holding the ticket, whatever
// their role rule says.
func assignedTo(actor domain.Actor, ticket *domain.Ticket) bool {
	return actor.Role.IsStaff() && actor.PSN.IsSet() && ticket.CurrentAssigneePSN == actor.PSN
}

// ActingRolesFor derives the tiers a PSN holds across the directory. A
// supervisor titled NS may still act as IS for some employees.
func ActingRolesFor(psn domain.PSN, employees []domain.Employee) []domain.Role {
	if !psn.IsSet() {
		return nil
	}
	seen := map[domain.Role]bool{}
	for i := range employees {
		for _, tier := range []domain.Role{domain.RoleIS, domain.RoleNS, domain.RoleDH} {
			if employees[i].SupervisorFor(tier) == psn {
				seen[tier] = true
			}
		}
	}
	roles := make([]domain.Role, 0, len(seen))
	for _, tier := range []domain.Role{domain.RoleIS, domain.RoleNS, domain.RoleDH} {
		if seen[tier] {
			roles = append(roles, tier)
		}
	}
	return roles
}

// ActingRoleOver returns the tier the PSN holds in a single employee's chain,
// checking IS first.
func ActingRoleOver(psn domain.PSN, owner *domain.Employee) (domain.Role, bool) {
	if owner == nil || !psn.IsSet() {
		return "", false
	}
	for _, tier := range []domain.Role{domain.RoleIS, domain.RoleNS, domain.RoleDH} {
		if owner.SupervisorFor(tier) == psn {
			return tier, true
		}
	}
	return "", false
}

// CanAct reports whether the actor may mutate the ticket: the ticket is in
// scope (which includes being its current assignee), the actor sits in the
// owner's chain, or the actor currently holds the escalation.
func CanAct(actor domain.Actor, ticket *domain.Ticket, owner *domain.Employee) bool {
	if !actor.Role.IsStaff() {
		return false
	}
	if InScope(actor, ticket, owner) {
		return true
	}
	if actor.Role.IsSupervisory() {
		if _, ok := ActingRoleOver(actor.PSN, owner); ok {
			return true
		}
	}
	return ticket.EscalatedToPSN.IsSet() && ticket.EscalatedToPSN == actor.PSN
}
