package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/config"
	"github.com/ave4ge/findateammatebot/internal/infra/logger"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := pgrepo.OpenSQL(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("open postgres", zap.Error(err))
	}
	defer db.Close()

	applied, err := pgrepo.Migrate(ctx, db)
	if err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}
	log.Info("migrations applied", zap.Strings("files", applied))
}
