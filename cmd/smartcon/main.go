package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	"github.com/lovably74/SmartCON-sub001/internal/logger"
	"github.com/lovably74/SmartCON-sub001/internal/migration"
	"github.com/lovably74/SmartCON-sub001/internal/observability"
	"github.com/lovably74/SmartCON-sub001/internal/server"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		observability.Module,
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
