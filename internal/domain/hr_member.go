package domain

import "time"

// HRMember is an HR or Head HR record.
type HRMember struct {
	PSN             PSN
	Name            string
	Role            Role
	ProjectsHandled []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Handles reports whether the member is assigned to the project.
func (h *HRMember) Handles(projectID string) bool {
	for _, id := range h.ProjectsHandled {
		if id == projectID {
			return true
		}
	}
	return false
}
