package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wrongjunior/eventboard/internal/domain"
	transportClient "github.com/wrongjunior/eventboard/internal/transport/client"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "Dashboard feed URL")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Каждый снимок печатается целиком: он содержит полное состояние дашборда.
	show := func(snap domain.DashboardSnapshot) {
		fmt.Printf("--- %s (%s)\n%s\n\n", snap.Role, snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"), snap.Content)
	}
	ct := transportClient.NewClientTransport(*serverURL, show, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ct.Listen(ctx)
	logger.Info("Client stopped")
}
