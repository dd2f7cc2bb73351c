package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/config"
	"github.com/aquametric/ratewise/internal/migration"
	"github.com/aquametric/ratewise/internal/observability"
	"github.com/aquametric/ratewise/internal/server"
	"github.com/aquametric/ratewise/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(config.NewRatePolicyHolder),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
