package billing

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/billing/repository"
	"github.com/aquametric/ratewise/internal/billing/service"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
