package analytics

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/analytics/service"
)

var Module = fx.Module("analytics.service",
	fx.Provide(service.NewService),
)
