package memory

import "github.com/spec-kit/helpdesk-service/internal/repository"

// New returns a complete set of empty in-memory repositories.
func New() repository.Repositories {
	attachments := NewAttachmentRepository()
	return repository.Repositories{
		Employees:   NewEmployeeRepository(),
		Supervisors: NewSupervisorRepository(),
		HR:          NewHRRepository(),
		Projects:    NewProjectRepository(),
		Credentials: NewCredentialRepository(),
		Tickets:     NewTicketRepository(attachments),
		Attachments: attachments,
		History:     NewTicketHistoryRepository(),
	}
}
