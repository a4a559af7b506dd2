package main

import (
	"log"

	"go.uber.org/fx"

	"SKCKPortal/internal/bootstrap"
	"SKCKPortal/internal/logger"
	"SKCKPortal/pkg/routes"
)

func main() {
	if err := bootstrap.Loadenv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	app := fx.New(
		routes.EchoModules,
		fx.WithLogger(logger.FxLogger),
	)

	app.Run()
}
