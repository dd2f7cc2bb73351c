package principal

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role is the closed set of principal roles. Roles are totally ordered:
// viewer < analyst < admin.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

var ErrInvalidRole = errors.New("invalid_role")

// ParseRole validates a raw role value against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleViewer:
		return RoleViewer, nil
	case RoleAnalyst:
		return RoleAnalyst, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID    snowflake.ID
	Email string
	Role  Role
}
