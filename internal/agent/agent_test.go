package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"metrics-buffer/internal/agent/services/reporter"
	"metrics-buffer/internal/storage/diskstore"
	"metrics-buffer/pkg/logpack"
	"metrics-buffer/pkg/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgent_Start(t *testing.T) {
	tests := []struct {
		name    string
		agent   *Agent
		wantErr bool
	}{
		{
			name:    "Without address => [ERROR]",
			agent:   NewAgent(nil, WithAddr("")),
			wantErr: true,
		},
		{
			name:    "Without buffer => [ERROR]",
			agent:   NewAgent(nil, WithAddr("localhost:8080")),
			wantErr: true,
		},
		{
			name:    "Zero poll interval => [ERROR]",
			agent:   NewAgent(nil, WithAddr("localhost:8080"), WithPollInterval(0)),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.agent.Start(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Метрики, оставшиеся в буфере после "падения" агента, отправляются
// новым экземпляром агента сразу после запуска.
func TestAgent_RetriesBufferAfterRestart(t *testing.T) {

	var (
		mu       sync.Mutex
		received []metric.Metric
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var metrics []metric.Metric
		if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		mu.Lock()
		received = append(received, metrics...)
		mu.Unlock()
	}))
	defer server.Close()

	dir := t.TempDir()

	crashed, err := diskstore.New(diskstore.Config{Dir: dir}, diskstore.WithLogger[metric.Metric](logpack.Discard()))
	require.NoError(t, err)

	lost, _ := metric.CreateMetric(metric.GaugeType, "Alloc", metric.WithValueFloat(42))
	require.NoError(t, crashed.Set(lost, lost.Key()))

	buffer, err := diskstore.New(diskstore.Config{Dir: dir}, diskstore.WithLogger[metric.Metric](logpack.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewAgent(buffer,
		WithAddr(server.URL),
		WithReportType(reporter.ReportAsBatchJSON),
		WithPollInterval(time.Hour),
		WithReportInterval(time.Hour),
		WithLogger(logpack.Discard()))

	require.NoError(t, a.Start(ctx))

	require.Eventually(t, func() bool {
		count, err := buffer.Count()
		return err == nil && count == 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	a.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.True(t, lost.Equal(received[0]))
}

func TestConfig_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "Default address => [OK]",
			want: "127.0.0.1:8080",
		},
		{
			name: "Localhost => [OK]",
			args: []string{"-a", "localhost:9090", "-s", "/tmp/buffer"},
			want: "localhost:9090",
		},
		{
			name: "Empty host => [OK]",
			args: []string{"-a", ":8080"},
			want: ":8080",
		},
		{
			name:    "Without port => [ERROR]",
			args:    []string{"-a", "127.0.0.1"},
			wantErr: true,
		},
		{
			name:    "Invalid ip => [ERROR]",
			args:    []string{"-a", "host.invalid:80"},
			wantErr: true,
		},
		{
			name:    "Invalid port => [ERROR]",
			args:    []string{"-a", "127.0.0.1:port"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ParseFlags(tt.args)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Addr)
		})
	}
}

func TestConfig_ReadEnvironment(t *testing.T) {
	t.Setenv("ADDRESS", " 127.0.0.1:9000 ")
	t.Setenv("REPORT_INTERVAL", "5s")
	t.Setenv("STORE_DIR", "/tmp/agent-buffer")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ReadEnvironment())

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ReportInterval)

	storeCfg := cfg.StorageConfig()
	assert.Equal(t, "/tmp/agent-buffer", storeCfg.Dir)
	assert.Equal(t, diskstore.DefaultNickname, storeCfg.Nickname)
	assert.Contains(t, cfg.String(), "STORE_DIR")
}
