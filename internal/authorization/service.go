// Package authorization evaluates role hierarchy for privileged operations.
package authorization

import (
	"context"
	"errors"

	"github.com/aquametric/ratewise/internal/principal"
)

type Service interface {
	// Allowed reports whether a principal role satisfies the required role.
	// It never errors; unrecognized roles are never authorized.
	Allowed(role, required principal.Role) bool
	// Require resolves the principal from context and enforces the required
	// role. Denials are appended to the audit ledger before returning.
	Require(ctx context.Context, required principal.Role) (principal.Principal, error)
}

var (
	ErrNoPrincipal = errors.New("no_principal")
	ErrForbidden   = errors.New("forbidden")
)

// Ordinal maps a role to its rank in the hierarchy. Unrecognized roles map
// to zero and therefore satisfy nothing.
func Ordinal(role principal.Role) int {
	switch role {
	case principal.RoleViewer:
		return 1
	case principal.RoleAnalyst:
		return 2
	case principal.RoleAdmin:
		return 3
	default:
		return 0
	}
}
