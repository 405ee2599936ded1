package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metrics-buffer/internal/server"
	handler "metrics-buffer/internal/server/handlers"
	"metrics-buffer/pkg/logpack"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {

	logger := logpack.NewLogger()
	logger.Info.Printf("Build version: %s\n", buildVersion)
	logger.Info.Printf("Build date: %s\n", buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	cfg := server.DefaultConfig()
	if err := cfg.ParseFlags(os.Args[1:]); err != nil {
		logger.Fatal.Fatalf("could not parse flags: %v\n", err)
	}

	if err := cfg.ReadEnvironment(); err != nil {
		logger.Fatal.Fatalf("could not read environment: %v\n", err)
	}

	logger.Info.Printf("Server config:\n%s", cfg.String())

	store, closeStore, err := cfg.OpenStorage(logger)
	if err != nil {
		logger.Fatal.Fatalf("could not open storage: %v\n", err)
	}

	defer func() {
		if err := closeStore(); err != nil {
			logger.Err.Printf("error close storage: %v\n", err)
		}
	}()

	manager := server.NewManager(store, logger, server.WithSignKey([]byte(cfg.SecretKey)))
	srv := server.NewServer(cfg.Addr, handler.New(manager, logger), logger)
	srv.Start()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Err.Printf("HTTP server Shutdown: %v\n", err)
	}

	logger.Info.Println("server stopped")
}
