package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every store the services depend on. The Directory
// Store is the employee, supervisor, HR, project and credential set.
type Repositories struct {
	Employees   EmployeeRepository
	Supervisors SupervisorRepository
	HR          HRRepository
	Projects    ProjectRepository
	Credentials CredentialRepository
	Tickets     TicketRepository
	Attachments AttachmentRepository
	History     TicketHistoryRepository
}

// NewPostgres wires every repository against one pool.
func NewPostgres(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Employees:   NewEmployeeRepository(pool),
		Supervisors: NewSupervisorRepository(pool),
		HR:          NewHRRepository(pool),
		Projects:    NewProjectRepository(pool),
		Credentials: NewCredentialRepository(pool),
		Tickets:     NewTicketRepository(pool),
		Attachments: NewAttachmentRepository(pool),
		History:     NewTicketHistoryRepository(pool),
	}
}
