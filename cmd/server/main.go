package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/wrongjunior/eventboard/internal/command"
	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/credentials"
	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/repository"
	"github.com/wrongjunior/eventboard/internal/service"
	transportServer "github.com/wrongjunior/eventboard/internal/transport/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file (YAML or JSON)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	// AWS нужен для DynamoDB и для токена из SSM.
	var awsCfg aws.Config
	if cfg.Store.Driver == config.DriverDynamoDB || credentials.NeedsAWS(cfg.Discord) {
		awsCfg, err = repository.LoadAWSConfig(context.Background(), cfg.Store.Region)
		if err != nil {
			logger.Error("Failed to load AWS configuration", "error", err)
			os.Exit(1)
		}
	}

	repo, closer, err := repository.Open(cfg.Store, awsCfg)
	if err != nil {
		logger.Error("Failed to open event store", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	discordClient := discord.NewClient(discord.ClientConfig{
		BaseURL:       cfg.Discord.APIBaseURL,
		ApplicationID: cfg.Discord.ApplicationID,
		Tokens:        credentials.FromConfig(cfg.Discord, awsCfg),
		RateLimit:     cfg.Discord.RateLimit,
		RateBurst:     cfg.Discord.RateBurst,
		Logger:        logger,
	})

	// Инициализация бизнес-логики сервера.
	feed := transportServer.NewFeed(logger)
	feed.Run()
	events := service.NewEventService(repo, logger)
	dashboards := service.NewDashboardService(repo, discordClient, feed, logger)
	runner := service.NewRunner(logger)
	dispatcher := command.NewDispatcher(events, dashboards, discordClient, logger)

	var resync *service.Resync
	if cfg.Dashboard.RefreshSchedule != "" {
		resync, err = service.NewResync(cfg.Dashboard.RefreshSchedule, dashboards, logger)
		if err != nil {
			logger.Error("Invalid dashboard refresh schedule", "error", err)
			os.Exit(1)
		}
		resync.Start()
	}

	verifier := discord.NewVerifier(cfg.Discord.PublicKey, logger)
	handler := transportServer.NewHandler(verifier, dispatcher, runner, logger)
	router := transportServer.SetupRouter(cfg.Server, handler, feed, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск HTTP-сервера.
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Обработка graceful shutdown.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if resync != nil {
		resync.Stop(ctx)
	}
	// Незавершённые отложенные ответы получают время до дедлайна.
	if err := runner.Shutdown(ctx); err != nil {
		logger.Error("Background tasks did not finish", "error", err)
	}
	feed.Shutdown()
	logger.Info("Server stopped")
}
