package domain

import "time"

// IssueCategory classifies tickets and carries their SLA target.
type IssueCategory struct {
	ID          int64
	Code        string
	Name        string
	Description string
	SLAHours    *int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SLADuration returns the category's SLA window length, falling back to the
// system default when no target is set.
func (c *IssueCategory) SLADuration() time.Duration {
	hours := DefaultSLAHours
	if c != nil && c.SLAHours != nil {
		hours = *c.SLAHours
	}
	return time.Duration(hours) * time.Hour
}
