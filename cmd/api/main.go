package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/arcadia-gg/walletcore/internal/config"
	"github.com/arcadia-gg/walletcore/internal/container"
)

func main() {
	var (
		configPath string
		configName string
	)
	flag.StringVar(&configPath, "config-path", "configs", "Path to configuration directory")
	flag.StringVar(&configName, "config-name", "config", "Configuration file name without extension")
	flag.Parse()

	// .env удобен при локальной разработке; отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg, err := config.Load(configPath, configName)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	c := container.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := c.Initialize(ctx); err != nil {
		cancel()
		log.Fatalf("failed to initialize application: %v", err)
	}
	cancel()

	if err := c.Run(); err != nil {
		c.Logger().Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		c.Logger().Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
