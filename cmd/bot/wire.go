//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/gorilla/mux"

	"github.com/gearsandcogs/tick/cmd/bot/config"
	"github.com/gearsandcogs/tick/pkg/logging"
)

func InitializeApp() (*App, error) {
	wire.Build(
		wire.Value(logging.Name(config.AppName)),
		logging.NewConfig,
		logging.CommonLogger,
		mux.NewRouter,
		NewApp,
	)
	return new(App), nil
}
