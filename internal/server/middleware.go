package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquametric/ratewise/internal/principal"
)

// HeaderAuthEmail carries the identity asserted by the upstream
// authenticating proxy. Token issuance and verification happen there;
// this layer only resolves the account.
const HeaderAuthEmail = "X-Auth-Request-Email"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(HeaderAuthEmail))
		if email == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.userSvc.FindByEmail(c.Request.Context(), email)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil || !user.IsActive {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := principal.WithPrincipal(c.Request.Context(), principal.Principal{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.RoleValue(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates a route group on the role hierarchy. The denial is
// audited by the authorization service.
func (s *Server) RequireRole(required principal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.authzSvc.Require(c.Request.Context(), required); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
