package server

import (
	"context"
	"errors"
	"net/http"

	handler "metrics-buffer/internal/server/handlers"
	"metrics-buffer/pkg/logpack"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

type MetricsServer struct {
	HTTP   *http.Server
	logger *logpack.LogPack
}

// NewRouter Маршруты сервера приема метрик
func NewRouter(h *handler.Handler) http.Handler {

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.DecompressRequest)
	r.Use(middleware.Compress(5, handler.TextHTML, handler.TextPlain, handler.ApplicationJSON))

	r.Get("/ping", h.Ping())
	r.Get("/", h.GetMetrics())

	r.Route("/value", func(r chi.Router) {
		r.Post("/", h.GetAsJSON())
		r.Get("/{type}/{name}", h.GetAsText())
	})

	r.Route("/update", func(r chi.Router) {
		r.Post("/", h.UpdateJSON())
		r.Post("/{type}/{name}/{value}", h.UpdateURL())
	})

	r.Post("/updates", h.UpdateDataJSON())
	r.Post("/updates/", h.UpdateDataJSON())

	return r
}

func NewServer(addr string, h *handler.Handler, logger *logpack.LogPack) *MetricsServer {

	return &MetricsServer{
		HTTP: &http.Server{
			Addr:    addr,
			Handler: NewRouter(h),
		},
		logger: logger,
	}
}

func (serv *MetricsServer) Start() {
	go func() {
		if err := serv.HTTP.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serv.logger.Err.Printf("HTTP server ListenAndServe: %v\n", err)
		}
	}()
}

func (serv *MetricsServer) Shutdown(ctx context.Context) error {
	return serv.HTTP.Shutdown(ctx)
}
