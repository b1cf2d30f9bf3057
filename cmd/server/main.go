package main

import (
	"fmt"
	"log"

	"atelier-backend/internal/config"
	"atelier-backend/internal/database"
	"atelier-backend/internal/handlers"
	"atelier-backend/internal/logger"
	"atelier-backend/internal/server"
	"atelier-backend/internal/uploads"
)

func main() {
	cfg := config.Load()
	slogger := logger.New(cfg.AppEnv)

	database.Init(cfg.DBDSN)

	store, err := uploads.NewStore(cfg.UploadDir, cfg.UploadSecret)
	if err != nil {
		log.Fatalf("upload store: %v", err)
	}
	handlers.Setup(cfg, store)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	slogger.Info("starting server", "addr", addr, "env", cfg.AppEnv)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
