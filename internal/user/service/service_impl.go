package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/authorization"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/principal"
	"github.com/aquametric/ratewise/internal/user/domain"
	"github.com/aquametric/ratewise/internal/user/password"
	"github.com/aquametric/ratewise/pkg/db"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuthzSvc authorization.Service
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	authzSvc authorization.Service
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("user.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		authzSvc: p.AuthzSvc,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.User, error) {
	if _, err := s.authzSvc.Require(ctx, principal.RoleAdmin); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}
	role, err := principal.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hash,
		Role:         string(role),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &user)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionUserCreate,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Description:  "user account created",
		Metadata: map[string]any{
			"email": user.Email,
			"role":  user.Role,
		},
	}); err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	if _, err := s.authzSvc.Require(ctx, principal.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	if _, err := s.authzSvc.Require(ctx, principal.RoleAdmin); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.User, error) {
	if _, err := s.authzSvc.Require(ctx, principal.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if req.Role != nil {
		role, err := principal.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		user.Role = string(role)
		changed["role"] = user.Role
	}
	if req.FirstName != nil {
		user.FirstName = req.FirstName
		changed["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
		changed["last_name"] = *req.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		changed["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return nil, domain.ErrInvalidPassword
		}
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		changed["password_changed"] = true
	}
	user.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionUserUpdate,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Description:  "user account updated",
		Metadata: map[string]any{
			"email":   user.Email,
			"changed": changed,
		},
	}); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	actor, err := s.authzSvc.Require(ctx, principal.RoleAdmin)
	if err != nil {
		return err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return domain.ErrSelfDeletion
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, user.ID)
	})
	if err != nil {
		return err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionUserDelete,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Description:  "user account deleted",
		Metadata: map[string]any{
			"email": user.Email,
		},
	}); err != nil {
		return err
	}

	return nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}
	return s.repo.FindByEmail(ctx, s.db, email)
}

func (s *Service) load(ctx context.Context, id string) (*domain.User, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
