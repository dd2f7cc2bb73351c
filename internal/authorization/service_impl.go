package authorization

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/principal"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	auditSvc auditdomain.Service
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Allowed(role, required principal.Role) bool {
	principalOrdinal := Ordinal(role)
	if principalOrdinal == 0 {
		return false
	}
	return principalOrdinal >= Ordinal(required)
}

func (s *ServiceImpl) Require(ctx context.Context, required principal.Role) (principal.Principal, error) {
	p, ok := principal.FromContext(ctx)
	if !ok {
		return principal.Principal{}, ErrNoPrincipal
	}

	if !s.Allowed(p.Role, required) {
		s.auditDenied(ctx, p, required)
		return principal.Principal{}, ErrForbidden
	}
	return p, nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, p principal.Principal, required principal.Role) {
	if s.auditSvc == nil {
		return
	}
	id := p.ID
	_, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:      auditdomain.ActionSystemConfig,
		ActorID:     &id,
		ActorEmail:  p.Email,
		Description: "access denied",
		Metadata: map[string]any{
			"decision":      "denied",
			"actor_role":    string(p.Role),
			"required_role": string(required),
		},
	})
	if err != nil {
		s.log.Warn("failed to audit authorization denial",
			zap.String("actor_email", p.Email),
			zap.Error(err),
		)
	}
}
