package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scrapline/internal/address"
	"github.com/smallbiznis/scrapline/internal/audit"
	"github.com/smallbiznis/scrapline/internal/booking"
	"github.com/smallbiznis/scrapline/internal/catalog"
	"github.com/smallbiznis/scrapline/internal/clock"
	"github.com/smallbiznis/scrapline/internal/config"
	"github.com/smallbiznis/scrapline/internal/dispatch"
	"github.com/smallbiznis/scrapline/internal/migration"
	"github.com/smallbiznis/scrapline/internal/notification"
	"github.com/smallbiznis/scrapline/internal/observability"
	"github.com/smallbiznis/scrapline/internal/partner"
	"github.com/smallbiznis/scrapline/internal/rating"
	"github.com/smallbiznis/scrapline/internal/scheduler"
	"github.com/smallbiznis/scrapline/internal/server"
	"github.com/smallbiznis/scrapline/internal/settlement"
	"github.com/smallbiznis/scrapline/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		migration.Module,

		// Functional domains
		audit.Module,
		notification.Module,
		catalog.Module,
		partner.Module,
		address.Module,
		booking.Module,
		dispatch.Module,
		settlement.Module,
		rating.Module,

		// Edge
		scheduler.Module,
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
