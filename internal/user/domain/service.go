package domain

import (
	"context"
	"errors"
)

type CreateRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type UpdateRequest struct {
	Role      *string `json:"role,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// Service manages operator accounts. Every mutation requires an admin
// principal and is recorded in the audit trail.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*User, error)
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*User, error)
	Delete(ctx context.Context, id string) error
	// FindByEmail resolves an account for the request authentication
	// layer. It does not require a principal in context.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidID       = errors.New("invalid_id")
	ErrEmailTaken      = errors.New("email_taken")
	ErrNotFound        = errors.New("not_found")
	ErrSelfDeletion    = errors.New("self_deletion")
)
