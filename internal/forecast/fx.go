package forecast

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/forecast/repository"
	"github.com/aquametric/ratewise/internal/forecast/service"
)

var Module = fx.Module("forecast.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
