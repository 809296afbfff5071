package domain

import "time"

// Role is the capability class gating which operations a user may trigger.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEngineer Role = "ENGINEER"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// User is the domain model for customers, engineers and managers.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
