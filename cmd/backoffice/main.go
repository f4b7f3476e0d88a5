package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/clock"
	"github.com/fixwell/backoffice/internal/config"
	"github.com/fixwell/backoffice/internal/migration"
	"github.com/fixwell/backoffice/internal/observability"
	"github.com/fixwell/backoffice/internal/scheduler"
	"github.com/fixwell/backoffice/internal/server"
	"github.com/fixwell/backoffice/pkg/db"
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
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	return node
}
