package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"metrics-buffer/internal/agent"
	"metrics-buffer/internal/storage/diskstore"
	"metrics-buffer/pkg/logpack"
	"metrics-buffer/pkg/metric"
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

	cfg := agent.DefaultConfig()
	if err := cfg.ParseFlags(os.Args[1:]); err != nil {
		logger.Fatal.Fatalf("could not parse flags: %v\n", err)
	}

	if err := cfg.ReadEnvironment(); err != nil {
		logger.Fatal.Fatalf("could not read environment: %v\n", err)
	}

	logger.Info.Printf("Agent config:\n%s", cfg.String())

	// Буфер метрик, которые не удалось отправить
	buffer, err := diskstore.New(cfg.StorageConfig(), diskstore.WithLogger[metric.Metric](logger))
	if err != nil {
		logger.Fatal.Fatalf("could not open metrics buffer: %v\n", err)
	}

	if count, err := buffer.Count(); err == nil && count > 0 {
		logger.Info.Printf("%d metrics are waiting in buffer %s\n", count, buffer.Dir())
	}

	a := agent.NewAgent(buffer,
		agent.WithAddr(cfg.Addr),
		agent.WithPollInterval(cfg.PollInterval),
		agent.WithReportInterval(cfg.ReportInterval),
		agent.WithReportType(cfg.ReportType),
		agent.WithSignKey([]byte(cfg.SecretKey)),
		agent.WithLogger(logger))

	if err := a.Start(ctx); err != nil {
		logger.Fatal.Fatalf("could not start agent: %v\n", err)
	}

	<-ctx.Done()
	a.Wait()

	logger.Info.Println("agent stopped")
}
