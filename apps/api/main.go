package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/reelgate/internal/auth"
	"github.com/smallbiznis/reelgate/internal/clock"
	"github.com/smallbiznis/reelgate/internal/config"
	"github.com/smallbiznis/reelgate/internal/ledger"
	"github.com/smallbiznis/reelgate/internal/migration"
	"github.com/smallbiznis/reelgate/internal/observability"
	"github.com/smallbiznis/reelgate/internal/ocr"
	"github.com/smallbiznis/reelgate/internal/payment"
	"github.com/smallbiznis/reelgate/internal/ratelimit"
	"github.com/smallbiznis/reelgate/internal/server"
	"github.com/smallbiznis/reelgate/internal/videogen"
	"github.com/smallbiznis/reelgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		auth.Module,
		ledger.Module,
		videogen.Module,
		payment.Module,
		ocr.Module,
		ratelimit.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
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
