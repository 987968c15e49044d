// Package memory provides in-process implementations of the repository
// interfaces. They back the service when no Postgres DSN is configured and
// in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// EmployeeRepository provides an in-memory employee store.
type EmployeeRepository struct {
	mu        sync.RWMutex
	employees map[domain.PSN]domain.Employee
}

// NewEmployeeRepository creates an empty employee store.
func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{employees: make(map[domain.PSN]domain.Employee)}
}

// GetByPSN returns a copy of the employee.
func (r *EmployeeRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[psn]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

// List returns employees ordered by PSN.
func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PSN < out[j].PSN })
	return out, nil
}

// Save inserts or replaces the employee.
func (r *EmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.employees[e.PSN]; ok {
		e.CreatedAt = existing.CreatedAt
	} else {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	r.employees[e.PSN] = *e
	return nil
}

// SupervisorRepository provides an in-memory supervisor store.
type SupervisorRepository struct {
	mu          sync.RWMutex
	supervisors map[domain.PSN]domain.Supervisor
}

// NewSupervisorRepository creates an empty supervisor store.
func NewSupervisorRepository() *SupervisorRepository {
	return &SupervisorRepository{supervisors: make(map[domain.PSN]domain.Supervisor)}
}

// GetByPSN returns a copy of the supervisor.
func (r *SupervisorRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Supervisor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.supervisors[psn]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	s.CityAccess = append([]string(nil), s.CityAccess...)
	return &s, nil
}

// List returns supervisors ordered by PSN.
func (r *SupervisorRepository) List(ctx context.Context) ([]domain.Supervisor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Supervisor, 0, len(r.supervisors))
	for _, s := range r.supervisors {
		s.CityAccess = append([]string(nil), s.CityAccess...)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PSN < out[j].PSN })
	return out, nil
}

// Save inserts or replaces the supervisor.
func (r *SupervisorRepository) Save(ctx context.Context, s *domain.Supervisor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.supervisors[s.PSN]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	stored := *s
	stored.CityAccess = append([]string(nil), s.CityAccess...)
	r.supervisors[s.PSN] = stored
	return nil
}

// HRRepository provides an in-memory HR store.
type HRRepository struct {
	mu      sync.RWMutex
	members map[domain.PSN]domain.HRMember
}

// NewHRRepository creates an empty HR store.
func NewHRRepository() *HRRepository {
	return &HRRepository{members: make(map[domain.PSN]domain.HRMember)}
}

// GetByPSN returns a copy of the HR member.
func (r *HRRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.HRMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.members[psn]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	h.ProjectsHandled = append([]string(nil), h.ProjectsHandled...)
	return &h, nil
}

// List returns HR members ordered by PSN.
func (r *HRRepository) List(ctx context.Context) ([]domain.HRMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.HRMember, 0, len(r.members))
	for _, h := range r.members {
		h.ProjectsHandled = append([]string(nil), h.ProjectsHandled...)
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PSN < out[j].PSN })
	return out, nil
}

// Save inserts or replaces the HR member.
func (r *HRRepository) Save(ctx context.Context, h *domain.HRMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.members[h.PSN]; ok {
		h.CreatedAt = existing.CreatedAt
	} else {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	stored := *h
	stored.ProjectsHandled = append([]string(nil), h.ProjectsHandled...)
	r.members[h.PSN] = stored
	return nil
}

// ProjectRepository provides an in-memory project store.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
}

// NewProjectRepository creates an empty project store.
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{projects: make(map[string]domain.Project)}
}

// GetByID returns a copy of the project.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.AssignedHR = append([]domain.PSN(nil), p.AssignedHR...)
	return &p, nil
}

// List returns projects ordered by ID.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		p.AssignedHR = append([]domain.PSN(nil), p.AssignedHR...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save inserts or replaces the project.
func (r *ProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.projects[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	stored := *p
	stored.AssignedHR = append([]domain.PSN(nil), p.AssignedHR...)
	r.projects[p.ID] = stored
	return nil
}

// CredentialRepository provides an in-memory credential store.
type CredentialRepository struct {
	mu          sync.RWMutex
	credentials map[domain.PSN]domain.Credential
}

// NewCredentialRepository creates an empty credential store.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{credentials: make(map[domain.PSN]domain.Credential)}
}

// GetByPSN returns the stored credential.
func (r *CredentialRepository) GetByPSN(ctx context.Context, psn domain.PSN) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.credentials[psn]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

// Save inserts or replaces the credential.
func (r *CredentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.credentials[c.PSN]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.credentials[c.PSN] = *c
	return nil
}
