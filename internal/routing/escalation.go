package routing

import (
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Directory is the read-only view of personnel records the escalation rules need.
type Directory struct {
	Supervisors []domain.Supervisor
	HR          []domain.HRMember
}

func (d Directory) supervisor(psn domain.PSN) *domain.Supervisor {
	for i := range d.Supervisors {
		if d.Supervisors[i].PSN == psn {
			return &d.Supervisors[i]
		}
	}
	return nil
}

// firstSupervisorWithRole returns the lowest-PSN supervisor holding role.
func (d Directory) firstSupervisorWithRole(role domain.Role) *domain.Supervisor {
	var found []*domain.Supervisor
	for i := range d.Supervisors {
		if d.Supervisors[i].FunctionalRole == role {
			found = append(found, &d.Supervisors[i])
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].PSN < found[j].PSN })
	return found[0]
}

// firstHeadHR returns the lowest-PSN Head HR record.
func (d Directory) firstHeadHR() *domain.HRMember {
	var found []*domain.HRMember
	for i := range d.HR {
		if d.HR[i].Role == domain.RoleHeadHR {
			found = append(found, &d.HR[i])
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].PSN < found[j].PSN })
	return found[0]
}

// nextTier is the single-step escalation ladder for supervisors.
var nextTier = map[domain.Role]domain.Role{
	domain.RoleIS: domain.RoleNS,
	domain.RoleNS: domain.RoleDH,
	domain.RoleDH: domain.RoleICHead,
}

// NextEscalationTarget resolves who receives the ticket when actor escalates
// it. HR hands over to Head HR; supervisors hand over one tier up the
// owner's chain, and DH to the IC Head. The acting tier is derived from the
// owner's chain when the actor holds one there, otherwise from the actor's
// functional role.
func NextEscalationTarget(actor domain.Actor, owner *domain.Employee, dir Directory) (domain.PSN, error) {
	switch {
	case actor.Role == domain.RoleHR:
		head := dir.firstHeadHR()
		if head == nil {
			return "", apperrors.NewRoutingError("no Head HR configured", nil)
		}
		return head.PSN, nil
	case actor.Role == domain.RoleHeadHR, actor.Role == domain.RoleICHead:
		return "", apperrors.NewRoutingError("no higher authority to escalate to", map[string]any{"role": actor.Role})
	case actor.Role.IsSupervisory():
		tier := actor.Role
		if acting, ok := ActingRoleOver(actor.PSN, owner); ok {
			tier = acting
		}
		return nextSupervisor(tier, owner, dir)
	default:
		return "", apperrors.NewForbidden("role cannot escalate tickets")
	}
}

func nextSupervisor(tier domain.Role, owner *domain.Employee, dir Directory) (domain.PSN, error) {
	target, ok := nextTier[tier]
	if !ok {
		return "", apperrors.NewRoutingError("no higher authority to escalate to", map[string]any{"role": tier})
	}
	if target == domain.RoleICHead {
		head := dir.firstSupervisorWithRole(domain.RoleICHead)
		if head == nil {
			return "", apperrors.NewRoutingError("no IC Head configured", nil)
		}
		return head.PSN, nil
	}
	if owner == nil {
		return "", apperrors.NewRoutingError("ticket owner missing from directory", nil)
	}
	psn := owner.SupervisorFor(target)
	if !psn.IsSet() {
		return "", apperrors.NewRoutingError("supervisory link not set", map[string]any{
			"employee_psn": owner.PSN,
			"tier":         target,
		})
	}
	sup := dir.supervisor(psn)
	if sup == nil || sup.FunctionalRole != target {
		return "", apperrors.NewRoutingError("supervisory link does not resolve", map[string]any{
			"employee_psn": owner.PSN,
			"tier":         target,
			"psn":          psn,
		})
	}
	return psn, nil
}

// ValidateTarget checks a caller supplied target against the resolved one.
// An empty requested PSN accepts the resolved target.
func ValidateTarget(requested, resolved domain.PSN) error {
	if !requested.IsSet() || requested == resolved {
		return nil
	}
	return apperrors.NewRoutingError("requested escalation target is not the next authority", map[string]any{
		"requested": requested,
		"expected":  resolved,
	})
}

// DefaultAssignee picks the first owner of a new ticket: the employee's IS,
// falling back to the first HR assigned to the employee's project.
func DefaultAssignee(employee *domain.Employee, project *domain.Project) (domain.PSN, error) {
	if employee.ISPSN.IsSet() {
		return employee.ISPSN, nil
	}
	if project != nil && len(project.AssignedHR) > 0 {
		return project.AssignedHR[0], nil
	}
	return "", apperrors.NewRoutingError("employee has no immediate supervisor or project HR", map[string]any{
		"employee_psn": employee.PSN,
	})
}
