package main

import (
	"github.com/go-logr/logr"

	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/logging"
)

func newLogger(cfg *config.Config) logr.Logger {
	return logging.Setup(logging.Options{
		Development: cfg.LogDevelopment,
		Level:       logging.ParseLevel(cfg.LogLevel),
	})
}
