package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/wojiaofengzhongzhuifeng/count-number/gen/docs/swagger"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/app"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
)

// @title Count Number API
// @version 1.0
// @description Counters, tasks and preferences with Redis backed caching and rate limiting.
// @BasePath /
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Printf("application stopped: %v", err)
		os.Exit(1)
	}
}
