package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/churnlabs/churnguard/internal/clock"
	"github.com/churnlabs/churnguard/internal/config"
	"github.com/churnlabs/churnguard/internal/migration"
	"github.com/churnlabs/churnguard/internal/observability"
	"github.com/churnlabs/churnguard/internal/server"
	"github.com/churnlabs/churnguard/pkg/db"
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
