package reporter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"metrics-buffer/internal/storage/diskstore"
	"metrics-buffer/pkg/errs"
	"metrics-buffer/pkg/logpack"
	"metrics-buffer/pkg/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer Сервер, который запоминает полученные запросы
// и отвечает 400 на запросы с метриками из rejected
type stubServer struct {
	mu       sync.Mutex
	status   int
	rejected map[string]bool
	paths    []string
	received []metric.Metric
}

func newStubServer(t *testing.T) (*stubServer, *httptest.Server) {
	t.Helper()

	stub := &stubServer{
		status:   http.StatusOK,
		rejected: make(map[string]bool),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()

		stub.paths = append(stub.paths, r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		status := stub.status

		var metrics []metric.Metric

		switch r.URL.Path {
		case "/update":
			var m metric.Metric
			if err := json.Unmarshal(body, &m); err == nil {
				metrics = append(metrics, m)
			}
		case "/updates":
			_ = json.Unmarshal(body, &metrics)
		default:
			// /update/{type}/{name}/{value}
			if parts := strings.Split(r.URL.Path, "/"); len(parts) == 5 && stub.rejected[parts[3]] {
				status = http.StatusBadRequest
			}
		}

		for _, m := range metrics {
			if stub.rejected[m.ID] {
				status = http.StatusBadRequest
			}
		}

		if status == http.StatusOK {
			stub.received = append(stub.received, metrics...)
		}

		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return stub, server
}

func (stub *stubServer) reject(id string) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.rejected[id] = true
}

func (stub *stubServer) setStatus(status int) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.status = status
}

func newBuffer(t *testing.T) *diskstore.Store[metric.Metric] {
	t.Helper()

	current := time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC)
	buffer, err := diskstore.New(diskstore.Config{Dir: t.TempDir()},
		diskstore.WithLogger[metric.Metric](logpack.Discard()),
		diskstore.WithClock[metric.Metric](func() time.Time {
			current = current.Add(time.Second)
			return current
		}))
	require.NoError(t, err)

	return buffer
}

func gauge(t *testing.T, name string, value float64) metric.Metric {
	t.Helper()
	m, err := metric.CreateMetric(metric.GaugeType, name, metric.WithValueFloat(value))
	require.NoError(t, err)
	return m
}

func counter(t *testing.T, name string, delta int64) metric.Metric {
	t.Helper()
	m, err := metric.CreateMetric(metric.CounterType, name, metric.WithValueInt(delta))
	require.NoError(t, err)
	return m
}

func bufferCount(t *testing.T, buffer *diskstore.Store[metric.Metric]) int {
	t.Helper()
	count, err := buffer.Count()
	require.NoError(t, err)
	return count
}

func TestReporter_Report(t *testing.T) {

	for _, reportType := range []string{ReportAsURL, ReportAsJSON, ReportAsBatchJSON} {
		t.Run(reportType+" => [OK]", func(t *testing.T) {
			stub, server := newStubServer(t)
			buffer := newBuffer(t)

			r := NewReporter(server.URL, buffer, logpack.Discard(), WithSignKey([]byte("key")))

			metrics := []metric.Metric{gauge(t, "Alloc", 1.5), counter(t, "PollCount", 3)}
			require.NoError(t, r.Report(context.Background(), reportType, metrics))

			assert.Equal(t, 0, bufferCount(t, buffer))
			assert.NotEmpty(t, stub.paths)
		})
	}
}

func TestReporter_ReportFailedKeepsMetrics(t *testing.T) {

	for _, reportType := range []string{ReportAsURL, ReportAsJSON, ReportAsBatchJSON} {
		t.Run(reportType+" => [ERROR]", func(t *testing.T) {
			stub, server := newStubServer(t)
			stub.setStatus(http.StatusInternalServerError)
			buffer := newBuffer(t)

			r := NewReporter(server.URL, buffer, logpack.Discard())

			metrics := []metric.Metric{gauge(t, "Alloc", 1.5), counter(t, "PollCount", 3)}
			assert.Error(t, r.Report(context.Background(), reportType, metrics))

			assert.Equal(t, 2, bufferCount(t, buffer))

			kept, ok, err := buffer.Item(metrics[0].Key())
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, metrics[0].Equal(kept))
		})
	}
}

func TestReporter_ReportUnreachable(t *testing.T) {
	_, server := newStubServer(t)
	server.Close()

	buffer := newBuffer(t)
	r := NewReporter(server.URL, buffer, logpack.Discard())

	err := r.Report(context.Background(), ReportAsJSON, []metric.Metric{gauge(t, "Alloc", 1)})
	assert.Error(t, err)
	assert.Equal(t, 1, bufferCount(t, buffer))
}

func TestReporter_KeepSumsCounters(t *testing.T) {
	stub, server := newStubServer(t)
	stub.setStatus(http.StatusServiceUnavailable)
	buffer := newBuffer(t)

	r := NewReporter(server.URL, buffer, logpack.Discard())

	assert.Error(t, r.Report(context.Background(), ReportAsBatchJSON, []metric.Metric{counter(t, "PollCount", 3), gauge(t, "Alloc", 1)}))
	assert.Error(t, r.Report(context.Background(), ReportAsBatchJSON, []metric.Metric{counter(t, "PollCount", 4), gauge(t, "Alloc", 2)}))

	pollCount, ok, err := buffer.Item(counter(t, "PollCount", 0).Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), *pollCount.Delta)

	alloc, ok, err := buffer.Item(gauge(t, "Alloc", 0).Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, *alloc.Value)
}

func TestReporter_Retry(t *testing.T) {

	for _, reportType := range []string{ReportAsURL, ReportAsJSON, ReportAsBatchJSON} {
		t.Run(reportType, func(t *testing.T) {
			stub, server := newStubServer(t)
			buffer := newBuffer(t)

			r := NewReporter(server.URL, buffer, logpack.Discard())

			first := gauge(t, "First", 1)
			second := gauge(t, "Second", 2)
			require.NoError(t, buffer.Set(first, first.Key()))
			require.NoError(t, buffer.Set(second, second.Key()))

			stub.setStatus(http.StatusBadGateway)
			sent, err := r.Retry(context.Background(), reportType)
			assert.Error(t, err)
			assert.Equal(t, 0, sent)
			assert.Equal(t, 2, bufferCount(t, buffer))

			stub.setStatus(http.StatusOK)
			sent, err = r.Retry(context.Background(), reportType)
			require.NoError(t, err)
			assert.Equal(t, 2, sent)
			assert.Equal(t, 0, bufferCount(t, buffer))

			if reportType != ReportAsURL {
				require.Len(t, stub.received, 2)
				assert.Equal(t, "Second", stub.received[0].ID, "newest first")
				assert.Equal(t, "First", stub.received[1].ID)
			}

			sent, err = r.Retry(context.Background(), reportType)
			require.NoError(t, err)
			assert.Equal(t, 0, sent)
		})
	}
}

func TestReporter_UnknownType(t *testing.T) {
	r := NewReporter("localhost:8080", newBuffer(t), logpack.Discard())

	assert.ErrorIs(t, r.Report(context.Background(), "XML", nil), ErrUnknownReportType)

	_, err := r.Retry(context.Background(), "XML")
	assert.ErrorIs(t, err, ErrUnknownReportType)
}

// Метрика, которую сервер отклоняет, не должна блокировать отправку остальных
func TestReporter_RetrySkipsRejected(t *testing.T) {

	for _, reportType := range []string{ReportAsURL, ReportAsJSON, ReportAsBatchJSON} {
		t.Run(reportType+" => [OK]", func(t *testing.T) {
			stub, server := newStubServer(t)
			stub.reject("Broken")
			buffer := newBuffer(t)

			r := NewReporter(server.URL, buffer, logpack.Discard())

			alloc := gauge(t, "Alloc", 1)
			broken := gauge(t, "Broken", 2)
			require.NoError(t, buffer.Set(alloc, alloc.Key()))
			require.NoError(t, buffer.Set(broken, broken.Key()))

			sent, err := r.Retry(context.Background(), reportType)
			require.NoError(t, err)
			assert.Equal(t, 1, sent)
			assert.Equal(t, 0, bufferCount(t, buffer), "rejected metric is dropped")

			if reportType != ReportAsURL {
				require.Len(t, stub.received, 1)
				assert.Equal(t, "Alloc", stub.received[0].ID)
			}
		})
	}
}

// Посторонний файл в каталоге буфера не является метрикой и не мешает повторной отправке
func TestReporter_RetryIgnoresForeignFile(t *testing.T) {

	for _, reportType := range []string{ReportAsJSON, ReportAsBatchJSON} {
		t.Run(reportType+" => [OK]", func(t *testing.T) {
			stub, server := newStubServer(t)
			buffer := newBuffer(t)

			r := NewReporter(server.URL, buffer, logpack.Discard())

			alloc := gauge(t, "Alloc", 1)
			require.NoError(t, buffer.Set(alloc, alloc.Key()))
			require.NoError(t, os.WriteFile(buffer.FilePath("zz_foreign"), []byte(`{}`), 0o644))

			_, _, err := buffer.Item("zz_foreign")
			require.ErrorIs(t, err, errs.ErrDecoding)

			for i := 0; i < 2; i++ {
				_, err := r.Retry(context.Background(), reportType)
				require.NoError(t, err)
			}

			require.Len(t, stub.received, 1)
			assert.True(t, alloc.Equal(stub.received[0]))

			_, ok, err := buffer.Item(alloc.Key())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestReporter_ReportDropsRejected(t *testing.T) {
	stub, server := newStubServer(t)
	stub.reject("Broken")
	buffer := newBuffer(t)

	r := NewReporter(server.URL, buffer, logpack.Discard())

	metrics := []metric.Metric{gauge(t, "Broken", 1), gauge(t, "Alloc", 2)}
	err := r.Report(context.Background(), ReportAsJSON, metrics)
	assert.ErrorIs(t, err, ErrRejected)

	assert.Equal(t, 0, bufferCount(t, buffer))
	require.Len(t, stub.received, 1)
	assert.Equal(t, "Alloc", stub.received[0].ID)
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, checkStatus(http.StatusOK, "update"))
	assert.ErrorIs(t, checkStatus(http.StatusBadRequest, "update"), ErrRejected)
	assert.ErrorIs(t, checkStatus(http.StatusUnauthorized, "update"), ErrRejected)

	err := checkStatus(http.StatusBadGateway, "update")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}
