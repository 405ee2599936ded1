package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"metrics-buffer/internal/agent/services/reporter"
	"metrics-buffer/internal/agent/services/scanner"
	"metrics-buffer/internal/storage"
	"metrics-buffer/internal/storage/memstore"
	"metrics-buffer/pkg/logpack"
	"metrics-buffer/pkg/metric"
)

type OptionsAgent func(*Agent)

// Agent Сбор метрик и отправка их на сервер.
// Метрики, которые не удалось отправить, сохраняются в буфер
// и отправляются повторно, в том числе после перезапуска агента.
type Agent struct {
	reportInterval time.Duration
	pollInterval   time.Duration
	addr           string
	reportType     string
	signKey        []byte
	snapshot       *memstore.Storage[metric.Metric]
	buffer         storage.Storage[string, metric.Metric]
	logger         *logpack.LogPack
	wg             sync.WaitGroup
}

// NewAgent Создание экземпляра агента
// Используется паттерн "Функциональные опции"
func NewAgent(buffer storage.Storage[string, metric.Metric], opts ...OptionsAgent) *Agent {
	a := &Agent{
		buffer:         buffer,
		snapshot:       memstore.New[metric.Metric](),
		reportInterval: 10 * time.Second,
		pollInterval:   2 * time.Second,
		reportType:     reporter.ReportAsBatchJSON,
		logger:         logpack.NewLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func WithReportInterval(interval time.Duration) OptionsAgent {
	return func(agent *Agent) {
		agent.reportInterval = interval
	}
}

func WithPollInterval(interval time.Duration) OptionsAgent {
	return func(agent *Agent) {
		agent.pollInterval = interval
	}
}

func WithAddr(addr string) OptionsAgent {
	return func(agent *Agent) {
		agent.addr = addr
	}
}

func WithLogger(logger *logpack.LogPack) OptionsAgent {
	return func(agent *Agent) {
		agent.logger = logger
	}
}

func WithReportType(reportType string) OptionsAgent {
	return func(agent *Agent) {
		agent.reportType = reportType
	}
}

func WithSignKey(key []byte) OptionsAgent {
	return func(agent *Agent) {
		agent.signKey = key
	}
}

// Start Запуск агента для сбора и отправки метрик
func (a *Agent) Start(ctx context.Context) error {

	if a.buffer == nil {
		return fmt.Errorf("could not start agent: not setted buffer storage")
	}

	if len(a.addr) == 0 {
		return fmt.Errorf("could not start agent: not setted report address")
	}

	if len(a.reportType) == 0 {
		return fmt.Errorf("could not start agent: not setted report type")
	}

	if a.pollInterval <= 0 || a.reportInterval <= 0 {
		return fmt.Errorf("could not start agent: intervals must be positive")
	}

	report := reporter.NewReporter(
		a.addr,
		a.buffer,
		a.logger,
		reporter.WithSignKey(a.signKey))

	a.wg.Add(2)
	go a.updateMetrics(ctx)
	go a.reportMetrics(ctx, report)

	return nil
}

// Wait Ожидание завершения агента после отмены контекста
func (a *Agent) Wait() {
	a.wg.Wait()
}

func (a *Agent) updateMetrics(ctx context.Context) {
	defer a.wg.Done()

	scan := scanner.NewScanner(a.snapshot)
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {

		case <-ticker.C:
			if err := scan.Scan(); err != nil {
				a.logger.Err.Printf("scan task failed with error: %v\n", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) reportMetrics(ctx context.Context, report *reporter.Reporter) {
	defer a.wg.Done()

	// Метрики, оставшиеся в буфере от предыдущего запуска
	a.retry(ctx, report)

	ticker := time.NewTicker(a.reportInterval)
	defer ticker.Stop()

	for {
		select {

		case <-ticker.C:
			a.retry(ctx, report)
			a.report(ctx, report)

		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) retry(ctx context.Context, report *reporter.Reporter) {

	sent, err := report.Retry(ctx, a.reportType)
	if err != nil {
		a.logger.Err.Printf("retry buffered metrics failed with error: %v\n", err)
	}

	if sent > 0 {
		a.logger.Info.Printf("resent %d buffered metrics\n", sent)
	}
}

func (a *Agent) report(ctx context.Context, report *reporter.Reporter) {

	metrics, err := a.snapshot.GetAllItems()
	if err != nil {
		a.logger.Err.Printf("could not read metrics snapshot: %v\n", err)
		return
	}

	// Неотправленные метрики уже сохранены в буфер,
	// поэтому PollCount сбрасывается в любом случае
	if err := report.Report(ctx, a.reportType, metrics); err != nil {
		a.logger.Err.Printf("report failed with error: %v\n", err)
	}

	pollCount, _ := metric.CreateMetric(metric.CounterType, scanner.PollCount)
	if err := a.snapshot.Remove(pollCount.Key()); err != nil {
		a.logger.Err.Printf("error delete metric %s after report\n", pollCount.ShotString())
	}
}
