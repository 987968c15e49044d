package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/routing"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DirectoryService manages personnel records. Writes keep the directory
// referentially intact: supervisory links resolve to supervisors of the
// matching tier, and project and HR references exist.
type DirectoryService struct {
	employees   repository.EmployeeRepository
	supervisors repository.SupervisorRepository
	hr          repository.HRRepository
	projects    repository.ProjectRepository
	credentials repository.CredentialRepository
	tickets     repository.TicketRepository
	bcryptCost  int
	timeout     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	Repos          repository.Repositories
	BcryptCost     int
	StorageTimeout time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

// EmployeeInput is an admin upsert of an employee. A non-empty Password
// (re)sets the login credential.
type EmployeeInput struct {
	domain.Employee
	Password string
}

// SupervisorInput is an admin upsert of a supervisor.
type SupervisorInput struct {
	domain.Supervisor
	Password string
}

// HRInput is an admin upsert of an HR member.
type HRInput struct {
	domain.HRMember
	Password string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	s := &DirectoryService{
		employees:   deps.Repos.Employees,
		supervisors: deps.Repos.Supervisors,
		hr:          deps.Repos.HR,
		projects:    deps.Repos.Projects,
		credentials: deps.Repos.Credentials,
		tickets:     deps.Repos.Tickets,
		bcryptCost:  deps.BcryptCost,
		timeout:     deps.StorageTimeout,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SaveEmployee validates and upserts an employee.
func (s *DirectoryService) SaveEmployee(ctx context.Context, actor domain.Actor, in EmployeeInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	e := in.Employee
	e.Name = strings.TrimSpace(e.Name)
	if err := validatePerson(e.PSN, e.Name, in.Password); err != nil {
		return nil, err
	}
	if e.ProjectID != "" {
		if err := s.requireProject(ctx, e.ProjectID); err != nil {
			return nil, err
		}
	}
	for _, tier := range []domain.Role{domain.RoleIS, domain.RoleNS, domain.RoleDH} {
		if err := s.requireSupervisor(ctx, e.SupervisorFor(tier), tier); err != nil {
			return nil, err
		}
	}
	if err := s.checkCredentialKind(ctx, e.PSN, domain.SubjectKindEmployee); err != nil {
		return nil, err
	}

	existing, err := s.lookupEmployee(ctx, e.PSN)
	if err != nil {
		return nil, err
	}
	e.CreatedAt, e.UpdatedAt = s.stamps(existingCreated(existing))
	if err := storageExec(ctx, s.timeout, "employee", func(ctx context.Context) error {
		return s.employees.Save(ctx, &e)
	}); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, e.PSN, domain.SubjectKindEmployee, in.Password); err != nil {
		return nil, err
	}
	s.logger.Info("employee saved", zap.String("psn", string(e.PSN)), zap.String("by", string(actor.PSN)))
	return &e, nil
}

// SaveSupervisor validates and upserts a supervisor.
func (s *DirectoryService) SaveSupervisor(ctx context.Context, actor domain.Actor, in SupervisorInput) (*domain.Supervisor, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	sup := in.Supervisor
	sup.Name = strings.TrimSpace(sup.Name)
	if err := validatePerson(sup.PSN, sup.Name, in.Password); err != nil {
		return nil, err
	}
	if !sup.FunctionalRole.IsSupervisory() {
		return nil, apperrors.NewValidationError("functional role must be one of IS, NS, DH, IC Head",
			map[string]any{"field": "functionalRole", "value": sup.FunctionalRole})
	}
	if sup.BranchProjectID != "" {
		if err := s.requireProject(ctx, sup.BranchProjectID); err != nil {
			return nil, err
		}
	}
	if err := s.checkCredentialKind(ctx, sup.PSN, domain.SubjectKindSupervisor); err != nil {
		return nil, err
	}

	existing, err := storageCall(ctx, s.timeout, "supervisor", func(ctx context.Context) (*domain.Supervisor, error) {
		return s.supervisors.GetByPSN(ctx, sup.PSN)
	})
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}
	var created time.Time
	if existing != nil {
		created = existing.CreatedAt
	}
	sup.CreatedAt, sup.UpdatedAt = s.stamps(created)
	sup.TicketsResolved, sup.TicketsPending = 0, 0
	if err := storageExec(ctx, s.timeout, "supervisor", func(ctx context.Context) error {
		return s.supervisors.Save(ctx, &sup)
	}); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, sup.PSN, domain.SubjectKindSupervisor, in.Password); err != nil {
		return nil, err
	}
	s.logger.Info("supervisor saved", zap.String("psn", string(sup.PSN)), zap.String("by", string(actor.PSN)))
	return &sup, nil
}

// SaveHR validates and upserts an HR member.
func (s *DirectoryService) SaveHR(ctx context.Context, actor domain.Actor, in HRInput) (*domain.HRMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	h := in.HRMember
	h.Name = strings.TrimSpace(h.Name)
	if err := validatePerson(h.PSN, h.Name, in.Password); err != nil {
		return nil, err
	}
	if !h.Role.IsHR() {
		return nil, apperrors.NewValidationError("role must be HR or Head HR", map[string]any{"field": "role", "value": h.Role})
	}
	for _, id := range h.ProjectsHandled {
		if err := s.requireProject(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.checkProjectAssignments(ctx, &h); err != nil {
		return nil, err
	}
	if err := s.checkCredentialKind(ctx, h.PSN, domain.SubjectKindHR); err != nil {
		return nil, err
	}

	existing, err := storageCall(ctx, s.timeout, "hr member", func(ctx context.Context) (*domain.HRMember, error) {
		return s.hr.GetByPSN(ctx, h.PSN)
	})
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}
	var created time.Time
	if existing != nil {
		created = existing.CreatedAt
	}
	h.CreatedAt, h.UpdatedAt = s.stamps(created)
	if err := storageExec(ctx, s.timeout, "hr member", func(ctx context.Context) error {
		return s.hr.Save(ctx, &h)
	}); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, h.PSN, domain.SubjectKindHR, in.Password); err != nil {
		return nil, err
	}
	s.logger.Info("hr member saved", zap.String("psn", string(h.PSN)), zap.String("by", string(actor.PSN)))
	return &h, nil
}

// SaveProject validates and upserts a project.
func (s *DirectoryService) SaveProject(ctx context.Context, actor domain.Actor, p domain.Project) (*domain.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if p.ID == "" || p.Name == "" {
		return nil, apperrors.NewValidationError("project id and name required", nil)
	}
	for _, psn := range p.AssignedHR {
		h, err := storageCall(ctx, s.timeout, "hr member", func(ctx context.Context) (*domain.HRMember, error) {
			return s.hr.GetByPSN(ctx, psn)
		})
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.NewValidationError("assigned HR does not exist", map[string]any{"psn": psn})
		}
		if err != nil {
			return nil, err
		}
		if h.Role != domain.RoleHR {
			return nil, apperrors.NewValidationError("assigned HR must hold the HR role", map[string]any{"psn": psn})
		}
		if !h.Handles(p.ID) {
			return nil, apperrors.NewValidationError("assigned HR does not handle this project", map[string]any{
				"psn":        psn,
				"project_id": p.ID,
			})
		}
	}

	existing, err := storageCall(ctx, s.timeout, "project", func(ctx context.Context) (*domain.Project, error) {
		return s.projects.GetByID(ctx, p.ID)
	})
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}
	var created time.Time
	if existing != nil {
		created = existing.CreatedAt
	}
	p.CreatedAt, p.UpdatedAt = s.stamps(created)
	if err := storageExec(ctx, s.timeout, "project", func(ctx context.Context) error {
		return s.projects.Save(ctx, &p)
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListEmployees returns every employee.
func (s *DirectoryService) ListEmployees(ctx context.Context, actor domain.Actor) ([]domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return storageCall(ctx, s.timeout, "employees", s.employees.List)
}

// ListSupervisors returns every supervisor with resolved and pending counts
// computed over the current ticket set.
func (s *DirectoryService) ListSupervisors(ctx context.Context, actor domain.Actor) ([]domain.Supervisor, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	supervisors, err := storageCall(ctx, s.timeout, "supervisors", s.supervisors.List)
	if err != nil {
		return nil, err
	}
	tickets, err := storageCall(ctx, s.timeout, "tickets", s.tickets.List)
	if err != nil {
		return nil, err
	}
	employees, err := storageCall(ctx, s.timeout, "employees", s.employees.List)
	if err != nil {
		return nil, err
	}
	for i := range supervisors {
		w := routing.WorkloadFor(domain.SupervisorActor(&supervisors[i]), tickets, employees)
		supervisors[i].TicketsResolved = w.Resolved
		supervisors[i].TicketsPending = w.Pending
	}
	return supervisors, nil
}

// ListHR returns every HR member.
func (s *DirectoryService) ListHR(ctx context.Context, actor domain.Actor) ([]domain.HRMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return storageCall(ctx, s.timeout, "hr", s.hr.List)
}

// ListProjects returns every project.
func (s *DirectoryService) ListProjects(ctx context.Context, actor domain.Actor) ([]domain.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return storageCall(ctx, s.timeout, "projects", s.projects.List)
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func validatePerson(psn domain.PSN, name, password string) error {
	if !psn.Valid() {
		return apperrors.NewValidationError("psn must be up to 4 upper-case letters followed by 1-8 digits",
			map[string]any{"field": "psn", "value": psn})
	}
	if name == "" {
		return apperrors.NewValidationError("name required", map[string]any{"field": "name"})
	}
	if password != "" && len(password) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}
	return nil
}

func (s *DirectoryService) requireProject(ctx context.Context, id string) error {
	_, err := storageCall(ctx, s.timeout, "project", func(ctx context.Context) (*domain.Project, error) {
		return s.projects.GetByID(ctx, id)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return apperrors.NewValidationError("project does not exist", map[string]any{"project_id": id})
	}
	return err
}

// checkProjectAssignments rejects an HR write that would leave a project
// listing the member without the member handling it.
func (s *DirectoryService) checkProjectAssignments(ctx context.Context, h *domain.HRMember) error {
	projects, err := storageCall(ctx, s.timeout, "projects", s.projects.List)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if !slices.Contains(p.AssignedHR, h.PSN) {
			continue
		}
		if h.Role != domain.RoleHR || !h.Handles(p.ID) {
			return apperrors.NewValidationError("HR member is still assigned to project", map[string]any{
				"psn":        h.PSN,
				"project_id": p.ID,
			})
		}
	}
	return nil
}

// requireSupervisor accepts an unset link.
func (s *DirectoryService) requireSupervisor(ctx context.Context, psn domain.PSN, tier domain.Role) error {
	if !psn.IsSet() {
		return nil
	}
	sup, err := storageCall(ctx, s.timeout, "supervisor", func(ctx context.Context) (*domain.Supervisor, error) {
		return s.supervisors.GetByPSN(ctx, psn)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return apperrors.NewValidationError("supervisory link does not exist", map[string]any{"tier": tier, "psn": psn})
	}
	if err != nil {
		return err
	}
	if sup.FunctionalRole != tier {
		return apperrors.NewValidationError("supervisory link has the wrong functional role", map[string]any{
			"tier":            tier,
			"psn":             psn,
			"functional_role": sup.FunctionalRole,
		})
	}
	return nil
}

// checkCredentialKind keeps one PSN bound to a single directory table.
func (s *DirectoryService) checkCredentialKind(ctx context.Context, psn domain.PSN, kind domain.SubjectKind) error {
	c, err := storageCall(ctx, s.timeout, "credential", func(ctx context.Context) (*domain.Credential, error) {
		return s.credentials.GetByPSN(ctx, psn)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.Kind != kind {
		return apperrors.NewConflict("psn already registered as another kind", map[string]any{"psn": psn, "kind": c.Kind})
	}
	return nil
}

func (s *DirectoryService) setPassword(ctx context.Context, psn domain.PSN, kind domain.SubjectKind, password string) error {
	if password == "" {
		return nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := s.now()
	return storageExec(ctx, s.timeout, "credential", func(ctx context.Context) error {
		return s.credentials.Save(ctx, &domain.Credential{PSN: psn, Kind: kind, PasswordHash: hash, CreatedAt: now, UpdatedAt: now})
	})
}

func (s *DirectoryService) lookupEmployee(ctx context.Context, psn domain.PSN) (*domain.Employee, error) {
	e, err := storageCall(ctx, s.timeout, "employee", func(ctx context.Context) (*domain.Employee, error) {
		return s.employees.GetByPSN(ctx, psn)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, nil
	}
	return e, err
}

func existingCreated(e *domain.Employee) time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.CreatedAt
}

// stamps returns created and updated times for an upsert.
func (s *DirectoryService) stamps(created time.Time) (time.Time, time.Time) {
	now := s.now()
	if created.IsZero() {
		created = now
	}
	return created, now
}
