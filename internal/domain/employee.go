package domain

import (
	"regexp"
	"time"
)

// PSN is the personnel service number identifying anyone in the directory.
type PSN string

var psnPattern = regexp.MustCompile(`^[A-Z]{0,4}[0-9]{1,8}$`)

// Valid reports whether the PSN is an optional short upper-case prefix followed by 1-8 digits.
func (p PSN) Valid() bool {
	return psnPattern.MatchString(string(p))
}

// IsSet reports whether the PSN is non-empty.
func (p PSN) IsSet() bool {
	return p != ""
}

// Employee is a person who raises tickets. The supervisory links are
// back-references to Supervisor records and may be unset.
type Employee struct {
	PSN       PSN
	Name      string
	Grade     string
	JobCode   string
	ProjectID string
	ISPSN     PSN
	NSPSN     PSN
	DHPSN     PSN
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupervisorFor returns the link the employee holds for the given tier.
func (e *Employee) SupervisorFor(role Role) PSN {
	switch role {
	case RoleIS:
		return e.ISPSN
	case RoleNS:
		return e.NSPSN
	case RoleDH:
		return e.DHPSN
	default:
		return ""
	}
}
