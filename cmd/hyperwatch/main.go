package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/config"
	"hyperwatch/internal/core"
	"hyperwatch/internal/handlers"
	"hyperwatch/internal/utils"
	"hyperwatch/web"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := os.MkdirAll(cfg.App.DataPath, 0755); err != nil {
		log.Fatalf("Failed to create data path: %v", err)
	}

	// Initialize logger to write to both file and console
	logFile, err := os.OpenFile(filepath.Join(cfg.App.DataPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := utils.NewLogger(cfg.App.Debug, multiWriter)
	defer logger.Sync()

	// The navigation policy is process-wide and fixed for the lifetime of the server
	policy, err := embed.NewNavigationPolicy(cfg.Player.BaseURL, cfg.Player.Sandbox, cfg.Player.SuppressPopups)
	if err != nil {
		logger.Fatal("Invalid player configuration:", err)
	}
	if err := embed.Install(policy); err != nil {
		logger.Fatal("Failed to install navigation policy:", err)
	}

	templates, err := web.NewTemplates(cfg.App.TemplatesDir, logger)
	if err != nil {
		logger.Fatal("Failed to load templates:", err)
	}

	// Create manager
	manager := core.NewManager(cfg, logger)

	// Start web server
	server := handlers.NewServer(cfg, manager, templates, policy, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := templates.Watch(ctx); err != nil {
			logger.Error("Template watcher stopped:", err)
		}
	}()

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed to start:", err)
		}
	}()

	manager.StartScheduler()

	logger.Info(cfg.App.SiteName, "started successfully on port", cfg.App.Port)

	// Wait for interrupt
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down...")
	cancel()
	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed:", err)
	}
}
