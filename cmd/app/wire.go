//go:build wireinject
// +build wireinject

package main

import (
	"supportdesk/config"
	"supportdesk/internal/command"
	"supportdesk/internal/cron"
	"supportdesk/internal/database"
	"supportdesk/internal/handler"
	"supportdesk/internal/middleware"
	"supportdesk/internal/router"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// wireApp init application.
func wireApp(*config.Configuration, *zap.Logger) (*App, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			service.ProviderSet,
			handler.ProviderSet,
			middleware.ProviderSet,
			router.ProviderSet,
			cron.ProviderSet,
			newHttpServer,
			telemetry.ProviderSet,
			newApp,
		),
	)
}

// wireCommand init cli commands.
func wireCommand(*config.Configuration, *zap.Logger) (*command.Command, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			service.ProviderSet,
			telemetry.ProviderSet,
			command.ProviderSet,
		),
	)
}
