package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/aquametric/ratewise/internal/config"
	"github.com/aquametric/ratewise/internal/principal"
	userdomain "github.com/aquametric/ratewise/internal/user/domain"
	"github.com/aquametric/ratewise/internal/user/password"
)

const (
	defaultAdminEmail    = "admin@ratewise.local"
	defaultAdminPassword = "changeme123"
)

// EnsureDefaultAdmin creates the bootstrap admin account when no users
// exist. In production an explicit BOOTSTRAP_ADMIN_EMAIL and password
// are required; outside production a local default is seeded.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	pass := cfg.BootstrapAdminPassword
	if email == "" {
		if cfg.IsProduction() {
			return nil
		}
		email = defaultAdminEmail
		pass = defaultAdminPassword
	}
	if pass == "" {
		return errors.New("bootstrap admin password is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&userdomain.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(pass)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		admin := userdomain.User{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: hashed,
			Role:         string(principal.RoleAdmin),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&admin).Error
	})
}
