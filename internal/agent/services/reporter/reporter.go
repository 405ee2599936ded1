package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"metrics-buffer/internal/storage"
	"metrics-buffer/pkg/logpack"
	"metrics-buffer/pkg/metric"

	"github.com/go-resty/resty/v2"
)

const (
	ReportAsURL       = "URL"
	ReportAsJSON      = "JSON"
	ReportAsBatchJSON = "BatchJSON"
)

var (
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrRejected Сервер отказался принять метрику (статус 4xx); повторная отправка бесполезна
	ErrRejected = errors.New("metric rejected by server")
)

type (
	OptionReporter func(*Reporter)

	// Reporter Отправка метрик на сервер.
	// Метрики, которые не удалось отправить, сохраняются в буфер
	// и отправляются повторно методом Retry.
	Reporter struct {
		addr    string
		signKey []byte
		client  *resty.Client
		buffer  storage.Storage[string, metric.Metric]
		logger  *logpack.LogPack
	}
)

func NewReporter(addr string, buffer storage.Storage[string, metric.Metric], logger *logpack.LogPack, opts ...OptionReporter) *Reporter {

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	r := &Reporter{
		addr:   strings.TrimSuffix(addr, "/"),
		client: resty.New(),
		buffer: buffer,
		logger: logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func WithSignKey(key []byte) OptionReporter {
	return func(reporter *Reporter) {
		reporter.signKey = key
	}
}

func WithClient(client *resty.Client) OptionReporter {
	return func(reporter *Reporter) {
		reporter.client = client
	}
}

// Report Отправка метрик. Неотправленные метрики сохраняются в буфер.
func (r Reporter) Report(ctx context.Context, reportType string, metrics []metric.Metric) error {

	var errReport error

	switch reportType {
	case ReportAsURL, ReportAsJSON:
		for i, m := range metrics {
			err := r.send(ctx, reportType, m)
			if err == nil {
				continue
			}

			errReport = err
			if errors.Is(err, ErrRejected) {
				r.logger.Err.Printf("metric %s is dropped: %v\n", m.ShotString(), err)
				continue
			}

			r.keep(metrics[i:])
			break
		}

	case ReportAsBatchJSON:
		if len(metrics) == 0 {
			return nil
		}

		if err := r.sendBatch(ctx, metrics); err != nil {
			errReport = err
			r.keep(metrics)
		}

	default:
		return fmt.Errorf("could not report metrics: %w", ErrUnknownReportType)
	}

	return errReport
}

// Retry Повторная отправка метрик из буфера, последние сохраненные - первыми.
// Успешно отправленные метрики удаляются из буфера.
// Возвращается количество отправленных метрик.
func (r Reporter) Retry(ctx context.Context, reportType string) (int, error) {

	switch reportType {
	case ReportAsURL, ReportAsJSON:
		return r.drain(ctx, reportType)

	case ReportAsBatchJSON:
		metrics, err := r.buffer.GetAllItems()
		if err != nil {
			return 0, fmt.Errorf("could not retry metrics: %w", err)
		}

		if len(metrics) == 0 {
			return 0, nil
		}

		if err := r.sendBatch(ctx, metrics); err != nil {
			if !errors.Is(err, ErrRejected) {
				return 0, err
			}

			// Пакет отклонен целиком: отправляем по одной, чтобы отбросить только отклоненные
			r.logger.Err.Printf("batch is rejected, resend buffered metrics one by one: %v\n", err)
			return r.drain(ctx, ReportAsJSON)
		}

		if err := r.buffer.RemoveAll(); err != nil {
			return len(metrics), fmt.Errorf("could not clear buffer after retry: %w", err)
		}

		return len(metrics), nil

	default:
		return 0, fmt.Errorf("could not retry metrics: %w", ErrUnknownReportType)
	}
}

// drain Отправка метрик буфера по одной. Отклоненные сервером метрики удаляются из буфера,
// на ошибке доставки отправка прерывается.
func (r Reporter) drain(ctx context.Context, reportType string) (int, error) {
	return storage.Drain(r.buffer, metric.Metric.Key, func(m metric.Metric) error {
		err := r.send(ctx, reportType, m)
		if errors.Is(err, ErrRejected) {
			r.logger.Err.Printf("buffered metric %s is dropped: %v\n", m.ShotString(), err)
			return fmt.Errorf("%w: %v", storage.ErrDiscard, err)
		}
		return err
	})
}

// keep Сохранение неотправленных метрик в буфер.
// Значения счетчиков суммируются с уже сохраненными, значения gauge заменяются.
func (r Reporter) keep(metrics []metric.Metric) {

	for _, m := range metrics {

		if m.MType == metric.CounterType {
			prev, ok, err := r.buffer.Item(m.Key())
			if err != nil {
				r.logger.Err.Printf("could not read buffered metric %s: %v\n", m.Key(), err)
			}

			if ok {
				m = m.Merge(prev)
			}
		}

		m.Hash = ""
		if err := r.buffer.Set(m, m.Key()); err != nil {
			r.logger.Err.Printf("could not keep metric %s for retry: %v\n", m.ShotString(), err)
		}
	}
}

func (r Reporter) send(ctx context.Context, reportType string, m metric.Metric) error {
	switch reportType {
	case ReportAsURL:
		return r.sendURL(ctx, m)
	case ReportAsJSON:
		return r.sendJSON(ctx, m)
	}

	return fmt.Errorf("could not report metric: %w", ErrUnknownReportType)
}

// sendURL Отправка метрики через URL
func (r Reporter) sendURL(ctx context.Context, m metric.Metric) error {

	resp, err := r.client.R().
		SetHeader("Content-Type", "text/plain").
		SetPathParams(m.Map()).
		SetContext(ctx).
		Post(r.addr + "/update/{type}/{name}/{value}")

	if err != nil {
		return fmt.Errorf("could not send metric as URL: %w", err)
	}

	return checkStatus(resp.StatusCode(), "update metric as URL")
}

// sendJSON Отправка метрики в виде JSON
func (r Reporter) sendJSON(ctx context.Context, m metric.Metric) error {

	signed, err := r.sign(m)
	if err != nil {
		return err
	}

	data, err := json.Marshal(&signed)
	if err != nil {
		return fmt.Errorf("error encode metric to JSON: %w", err)
	}

	resp, err := r.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		SetContext(ctx).
		Post(r.addr + "/update")

	if err != nil {
		return fmt.Errorf("could not send metric as JSON: %w", err)
	}

	return checkStatus(resp.StatusCode(), "update metric as JSON")
}

// sendBatch Отправка метрик в виде JSON одним запросом
func (r Reporter) sendBatch(ctx context.Context, metrics []metric.Metric) error {

	signed := make([]metric.Metric, len(metrics))

	for i, m := range metrics {
		s, err := r.sign(m)
		if err != nil {
			return err
		}
		signed[i] = s
	}

	data, err := json.Marshal(&signed)
	if err != nil {
		return fmt.Errorf("error encode metrics to JSON: %w", err)
	}

	resp, err := r.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		SetContext(ctx).
		Post(r.addr + "/updates")

	if err != nil {
		return fmt.Errorf("could not send metrics as Batch-JSON: %w", err)
	}

	return checkStatus(resp.StatusCode(), "update metrics as Batch-JSON")
}

// checkStatus Ответ 4xx означает отказ сервера принять метрики, остальные не 200 - сбой доставки
func checkStatus(status int, action string) error {

	switch {
	case status == http.StatusOK:
		return nil
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return fmt.Errorf("server return status %d on %s: %w", status, action, ErrRejected)
	default:
		return fmt.Errorf("server return no success status on %s: %d", action, status)
	}
}

func (r Reporter) sign(m metric.Metric) (metric.Metric, error) {

	sign, err := m.Sign(r.signKey)
	if err != nil {
		return m, fmt.Errorf("could not sign metric %s: %w", m.ShotString(), err)
	}

	m.Hash = sign
	return m, nil
}
