package handler

import (
	"encoding/json"
	"net/http"

	"metrics-buffer/pkg/errs"
	metricPkg "metrics-buffer/pkg/metric"

	"github.com/go-chi/chi"
)

// UpdateURL Обновление метрики из URL: /update/{type}/{name}/{value}
func (h Handler) UpdateURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set(ContentType, TextPlain)

		metric, err := metricPkg.CreateMetric(
			chi.URLParam(r, "type"),
			chi.URLParam(r, "name"),
			metricPkg.WithValue(chi.URLParam(r, "value")),
		)

		if err != nil {
			h.logger.Err.Printf("error create metric: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		if err := h.store.Upsert(metric); err != nil {
			h.logger.Err.Printf("error upsert metric: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// UpdateJSON Обновление метрики из тела запроса в формате JSON
func (h Handler) UpdateJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set(ContentType, TextPlain)

		if r.Header.Get(ContentType) != ApplicationJSON {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}

		data, err := h.readBody(r)
		if err != nil {
			h.logger.Err.Printf("error read body request: %v\n", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var metric metricPkg.Metric
		if err := json.Unmarshal(data, &metric); err != nil {
			h.logger.Err.Printf("error decode JSON body: %v\n", err)
			http.Error(w, errs.ErrInvalidJSON.Error(), http.StatusBadRequest)
			return
		}

		if err := h.store.Upsert(metric); err != nil {
			h.logger.Err.Printf("error update metric: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// UpdateDataJSON Обновление набора метрик из тела запроса в формате JSON
func (h Handler) UpdateDataJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set(ContentType, TextPlain)

		if r.Header.Get(ContentType) != ApplicationJSON {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}

		data, err := h.readBody(r)
		if err != nil {
			h.logger.Err.Printf("error read body request: %v\n", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var metrics []metricPkg.Metric
		if err := json.Unmarshal(data, &metrics); err != nil {
			h.logger.Err.Printf("error decode JSON body: %v\n", err)
			http.Error(w, errs.ErrInvalidJSON.Error(), http.StatusBadRequest)
			return
		}

		if err := h.store.UpsertSlice(metrics); err != nil {
			h.logger.Err.Printf("error update metrics: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
