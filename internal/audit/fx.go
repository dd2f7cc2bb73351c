package audit

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/audit/repository"
	"github.com/aquametric/ratewise/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
