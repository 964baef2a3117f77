package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the capability tier of a user.
type Role string

const (
	// RoleAdmin grants the ownership-bypass capability.
	RoleAdmin Role = "admin"
	// RoleUser is the default tier.
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Status is the account lifecycle flag controlling token acceptance.
type Status string

const (
	// StatusActive means tokens for the account are accepted.
	StatusActive Status = "active"
	// StatusDisabled means tokens for the account are rejected at the
	// authorization gate. This is the only revocation mechanism.
	StatusDisabled Status = "disabled"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int64, error)
	SetRole(ctx context.Context, id uuid.UUID, role Role) (User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	Phone        *string
	PasswordHash string
	FullName     string
	Role         Role
	Status       Status
	StorageUsed  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin capability.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ListUsersParams filters and paginates the admin user listing.
// Search matches email, phone and full name case-insensitively.
type ListUsersParams struct {
	Search string
	Page   int
	Limit  int
}
