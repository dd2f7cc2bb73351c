package user

import (
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/user/repository"
	"github.com/aquametric/ratewise/internal/user/service"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
