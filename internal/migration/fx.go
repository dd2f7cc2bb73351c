package migration

import (
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/config"
	forecastdomain "github.com/aquametric/ratewise/internal/forecast/domain"
	"github.com/aquametric/ratewise/internal/seed"
	tariffdomain "github.com/aquametric/ratewise/internal/tariff/domain"
	userdomain "github.com/aquametric/ratewise/internal/user/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&tariffdomain.RateStructure{},
				&billingdomain.Dataset{},
				&billingdomain.Bill{},
				&forecastdomain.Assumption{},
				&forecastdomain.Forecast{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultAdmin(conn, cfg)
	}),
)
