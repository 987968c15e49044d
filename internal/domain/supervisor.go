package domain

import "time"

// Role enumerates every actor role known to the helpdesk.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleIS       Role = "IS"
	RoleNS       Role = "NS"
	RoleDH       Role = "DH"
	RoleICHead   Role = "IC Head"
	RoleHR       Role = "HR"
	RoleHeadHR   Role = "Head HR"
	RoleAdmin    Role = "Admin"
)

// IsSupervisory reports whether the role is one of the supervisor functional roles.
func (r Role) IsSupervisory() bool {
	switch r {
	case RoleIS, RoleNS, RoleDH, RoleICHead:
		return true
	}
	return false
}

// IsHR reports whether the role belongs to the HR track.
func (r Role) IsHR() bool {
	return r == RoleHR || r == RoleHeadHR
}

// IsStaff reports whether the role may work tickets raised by others.
func (r Role) IsStaff() bool {
	return r.IsSupervisory() || r.IsHR()
}

// Supervisor models an IS, NS, DH or IC Head record. The functional role is
// flat; acting roles over individual employees are derived, not stored.
type Supervisor struct {
	PSN             PSN
	Name            string
	Title           string
	FunctionalRole  Role
	BranchProjectID string
	CityAccess      []string
	TicketsResolved int
	TicketsPending  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
