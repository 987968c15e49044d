package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EmployeeRequest upserts an employee. Password is optional.
type EmployeeRequest struct {
	PSN       domain.PSN `json:"psn"`
	Name      string     `json:"name"`
	Grade     string     `json:"grade"`
	JobCode   string     `json:"job_code"`
	ProjectID string     `json:"project_id"`
	ISPSN     domain.PSN `json:"is_psn"`
	NSPSN     domain.PSN `json:"ns_psn"`
	DHPSN     domain.PSN `json:"dh_psn"`
	Password  string     `json:"password,omitempty"`
}

// EmployeeResponse payload.
type EmployeeResponse struct {
	PSN       domain.PSN `json:"psn"`
	Name      string     `json:"name"`
	Grade     string     `json:"grade"`
	JobCode   string     `json:"job_code"`
	ProjectID string     `json:"project_id"`
	ISPSN     domain.PSN `json:"is_psn,omitempty"`
	NSPSN     domain.PSN `json:"ns_psn,omitempty"`
	DHPSN     domain.PSN `json:"dh_psn,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SupervisorRequest upserts a supervisor.
type SupervisorRequest struct {
	PSN             domain.PSN  `json:"psn"`
	Name            string      `json:"name"`
	Title           string      `json:"title"`
	FunctionalRole  domain.Role `json:"functional_role"`
	BranchProjectID string      `json:"branch_project_id"`
	CityAccess      []string    `json:"city_access"`
	Password        string      `json:"password,omitempty"`
}

// SupervisorResponse payload. The ticket counts are computed at read time.
type SupervisorResponse struct {
	PSN             domain.PSN  `json:"psn"`
	Name            string      `json:"name"`
	Title           string      `json:"title"`
	FunctionalRole  domain.Role `json:"functional_role"`
	BranchProjectID string      `json:"branch_project_id"`
	CityAccess      []string    `json:"city_access"`
	TicketsResolved int         `json:"tickets_resolved"`
	TicketsPending  int         `json:"tickets_pending"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HRRequest upserts an HR member.
type HRRequest struct {
	PSN             domain.PSN  `json:"psn"`
	Name            string      `json:"name"`
	Role            domain.Role `json:"role"`
	ProjectsHandled []string    `json:"projects_handled"`
	Password        string      `json:"password,omitempty"`
}

// HRResponse payload.
type HRResponse struct {
	PSN             domain.PSN  `json:"psn"`
	Name            string      `json:"name"`
	Role            domain.Role `json:"role"`
	ProjectsHandled []string    `json:"projects_handled"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ProjectRequest upserts a project.
type ProjectRequest struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	City       string       `json:"city"`
	AssignedHR []domain.PSN `json:"assigned_hr"`
}

// ProjectResponse payload.
type ProjectResponse struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	City       string       `json:"city"`
	AssignedHR []domain.PSN `json:"assigned_hr"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
