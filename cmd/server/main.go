package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/config"
	"github.com/classlab/gerrymander/internal/httpapi"
	"github.com/classlab/gerrymander/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.Debug)
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	m := server.NewManager(ctx, log.Named("manager"), nil)

	handler := httpapi.SetupRoutes(log.Named("http"), m)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
