package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/nocturne-games/battle-hub/internal/catalog"
	"github.com/nocturne-games/battle-hub/internal/config"
	"github.com/nocturne-games/battle-hub/internal/httpapi"
	"github.com/nocturne-games/battle-hub/internal/linker"
	"github.com/nocturne-games/battle-hub/internal/match"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	cat, err := catalog.Load(cfg.SongsPath)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("path", cfg.SongsPath), zap.Int("tracks", cat.Len()))

	ctx := context.Background()
	manager := match.NewRoomsManager(cat, match.DefaultTiming(), logger)
	registry := linker.NewRegistry(ctx, manager, cfg.LinkerToken, logger)

	handler := httpapi.SetupRoutes(registry, cfg.LinkerToken, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
