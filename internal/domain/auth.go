package domain

import "time"

// SubjectKind differentiates the directory table a login resolves against.
type SubjectKind string

const (
	SubjectKindEmployee   SubjectKind = "EMPLOYEE"
	SubjectKindSupervisor SubjectKind = "SUPERVISOR"
	SubjectKindHR         SubjectKind = "HR"
	SubjectKindAdmin      SubjectKind = "ADMIN"
)

// Credential holds login material for a PSN.
type Credential struct {
	PSN          PSN
	Kind         SubjectKind
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated caller, resolved from the directory. Exactly one
// of Employee, Supervisor or HR is set unless the actor is an admin.
type Actor struct {
	PSN        PSN
	Name       string
	Role       Role
	Employee   *Employee
	Supervisor *Supervisor
	HR         *HRMember
}

// EmployeeActor builds an actor for an employee record.
func EmployeeActor(e *Employee) Actor {
	return Actor{PSN: e.PSN, Name: e.Name, Role: RoleEmployee, Employee: e}
}

// SupervisorActor builds an actor for a supervisor record.
func SupervisorActor(s *Supervisor) Actor {
	return Actor{PSN: s.PSN, Name: s.Name, Role: s.FunctionalRole, Supervisor: s}
}

// HRActor builds an actor for an HR record.
func HRActor(h *HRMember) Actor {
	return Actor{PSN: h.PSN, Name: h.Name, Role: h.Role, HR: h}
}

// AdminActor builds an actor for an administrator.
func AdminActor(psn PSN, name string) Actor {
	return Actor{PSN: psn, Name: name, Role: RoleAdmin}
}
