package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DirectoryHandler exposes admin maintenance of the people directory.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directoryService}
}

// ListEmployees GET /admin/employees.
func (h *DirectoryHandler) ListEmployees(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	employees, err := h.directory.ListEmployees(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		resp = append(resp, employeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SaveEmployee POST /admin/employees.
func (h *DirectoryHandler) SaveEmployee(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	saved, err := h.directory.SaveEmployee(c.UserContext(), actor, service.EmployeeInput{
		Employee: domain.Employee{
			PSN:       req.PSN,
			Name:      req.Name,
			Grade:     req.Grade,
			JobCode:   req.JobCode,
			ProjectID: req.ProjectID,
			ISPSN:     req.ISPSN,
			NSPSN:     req.NSPSN,
			DHPSN:     req.DHPSN,
		},
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(saved)})
}

// ListSupervisors GET /admin/supervisors.
func (h *DirectoryHandler) ListSupervisors(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	supervisors, err := h.directory.ListSupervisors(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.SupervisorResponse, 0, len(supervisors))
	for i := range supervisors {
		resp = append(resp, supervisorResponse(&supervisors[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SaveSupervisor POST /admin/supervisors.
func (h *DirectoryHandler) SaveSupervisor(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SupervisorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	saved, err := h.directory.SaveSupervisor(c.UserContext(), actor, service.SupervisorInput{
		Supervisor: domain.Supervisor{
			PSN:             req.PSN,
			Name:            req.Name,
			Title:           req.Title,
			FunctionalRole:  req.FunctionalRole,
			BranchProjectID: req.BranchProjectID,
			CityAccess:      req.CityAccess,
		},
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": supervisorResponse(saved)})
}

// ListHR GET /admin/hr.
func (h *DirectoryHandler) ListHR(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	members, err := h.directory.ListHR(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.HRResponse, 0, len(members))
	for i := range members {
		resp = append(resp, hrResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SaveHR POST /admin/hr.
func (h *DirectoryHandler) SaveHR(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.HRRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	saved, err := h.directory.SaveHR(c.UserContext(), actor, service.HRInput{
		HRMember: domain.HRMember{
			PSN:             req.PSN,
			Name:            req.Name,
			Role:            req.Role,
			ProjectsHandled: req.ProjectsHandled,
		},
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": hrResponse(saved)})
}

// ListProjects GET /admin/projects.
func (h *DirectoryHandler) ListProjects(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	projects, err := h.directory.ListProjects(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SaveProject POST /admin/projects.
func (h *DirectoryHandler) SaveProject(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	saved, err := h.directory.SaveProject(c.UserContext(), actor, domain.Project{
		ID:         req.ID,
		Name:       req.Name,
		City:       req.City,
		AssignedHR: req.AssignedHR,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(saved)})
}

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		PSN:       e.PSN,
		Name:      e.Name,
		Grade:     e.Grade,
		JobCode:   e.JobCode,
		ProjectID: e.ProjectID,
		ISPSN:     e.ISPSN,
		NSPSN:     e.NSPSN,
		DHPSN:     e.DHPSN,
		UpdatedAt: e.UpdatedAt,
	}
}

func supervisorResponse(s *domain.Supervisor) dto.SupervisorResponse {
	return dto.SupervisorResponse{
		PSN:             s.PSN,
		Name:            s.Name,
		Title:           s.Title,
		FunctionalRole:  s.FunctionalRole,
		BranchProjectID: s.BranchProjectID,
		CityAccess:      s.CityAccess,
		TicketsResolved: s.TicketsResolved,
		TicketsPending:  s.TicketsPending,
		UpdatedAt:       s.UpdatedAt,
	}
}

func hrResponse(h *domain.HRMember) dto.HRResponse {
	return dto.HRResponse{
		PSN:             h.PSN,
		Name:            h.Name,
		Role:            h.Role,
		ProjectsHandled: h.ProjectsHandled,
		UpdatedAt:       h.UpdatedAt,
	}
}

func projectResponse(p *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:         p.ID,
		Name:       p.Name,
		City:       p.City,
		AssignedHR: p.AssignedHR,
		UpdatedAt:  p.UpdatedAt,
	}
}
