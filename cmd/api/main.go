package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docchat/config"
	"docchat/internal/app"
	"docchat/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the yaml config")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("env: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal(err, "failed to load config")
	}
	logger.Init(string(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal(err, "failed to start")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error(err, "shutdown")
		}
	}()

	router := a.Router()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error(err, "server shutdown")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("%v: listening on %s", config.ModuleServer, addr)
	if err := router.Listen(addr, fiber.ListenConfig{
		DisableStartupMessage: cfg.Server.Mode != "debug",
		EnablePrintRoutes:     cfg.Server.Mode == "debug",
	}); err != nil {
		logger.Error(err, "server error")
	}
}
