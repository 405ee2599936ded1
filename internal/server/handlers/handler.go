package handler

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"metrics-buffer/pkg/logpack"
	metricPkg "metrics-buffer/pkg/metric"
)

const (
	ContentType     = "Content-Type"
	ContentEncoding = "Content-Encoding"
	ApplicationJSON = "application/json"
	TextPlain       = "text/plain"
	TextHTML        = "text/html"
)

// MetricsStore Хранилище полученных метрик
type MetricsStore interface {
	Upsert(metric metricPkg.Metric) error
	UpsertSlice(metrics []metricPkg.Metric) error
	Get(metric metricPkg.Metric) (metricPkg.Metric, error)
	GetSlice() ([]metricPkg.Metric, error)
	CheckHealth() bool
}

type Handler struct {
	store  MetricsStore
	logger *logpack.LogPack
}

func New(store MetricsStore, logger *logpack.LogPack) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// DecompressRequest Распаковка тела запроса в формате gzip
func (h Handler) DecompressRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if !strings.Contains(r.Header.Get(ContentEncoding), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		reader, err := gzip.NewReader(r.Body)
		if err != nil {
			h.logger.Err.Printf("could not create gzip reader: %v\n", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		defer func() {
			if err := reader.Close(); err != nil {
				h.logger.Err.Printf("error close gzip reader: %v\n", err)
			}
		}()

		r.Body = io.NopCloser(reader)
		r.Header.Del(ContentEncoding)
		next.ServeHTTP(w, r)
	})
}

func (h Handler) readBody(r *http.Request) ([]byte, error) {

	defer func() {
		if err := r.Body.Close(); err != nil {
			h.logger.Err.Printf("error close body: %v\n", err)
		}
	}()

	return io.ReadAll(r.Body)
}
