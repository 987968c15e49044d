package domain

import "time"

// Project groups employees geographically and determines default HR assignment.
type Project struct {
	ID         string
	Name       string
	City       string
	AssignedHR []PSN
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
