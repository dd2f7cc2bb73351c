package tariff

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/tariff/repository"
	"github.com/aquametric/ratewise/internal/tariff/service"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
