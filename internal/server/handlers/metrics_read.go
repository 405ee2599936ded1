package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"metrics-buffer/pkg/errs"
	metricPkg "metrics-buffer/pkg/metric"

	"github.com/go-chi/chi"
)

// GetAsText Значение метрики: /value/{type}/{name}
func (h Handler) GetAsText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set(ContentType, TextPlain)

		metric, err := metricPkg.CreateMetric(chi.URLParam(r, "type"), chi.URLParam(r, "name"))
		if err != nil {
			h.logger.Err.Printf("could not create metric: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		metric, err = h.store.Get(metric)
		if err != nil {
			h.logger.Err.Printf("error read metric from storage: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		if _, err := w.Write([]byte(metric.StringValue())); err != nil {
			h.logger.Err.Printf("error write response: %v\n", err)
		}
	}
}

// GetAsJSON Метрика целиком по id и type из тела запроса
func (h Handler) GetAsJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if r.Header.Get(ContentType) != ApplicationJSON {
			h.logger.Err.Printf("request with unsupported Content-Type: %s\n", r.Header.Get(ContentType))
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}

		data, errBody := h.readBody(r)
		if errBody != nil {
			h.logger.Err.Printf("error read body: %v\n", errBody)
			http.Error(w, errBody.Error(), http.StatusBadRequest)
			return
		}

		var metric metricPkg.Metric
		if err := json.Unmarshal(data, &metric); err != nil {
			h.logger.Err.Printf("error decode body to JSON: %v\n", err)
			http.Error(w, errs.ErrInvalidJSON.Error(), http.StatusBadRequest)
			return
		}

		metric, errStorage := h.store.Get(metric)
		if errStorage != nil {
			h.logger.Err.Printf("could not get metric from storage: %v\n", errStorage)
			http.Error(w, errStorage.Error(), errs.ErrorHTTP(errStorage))
			return
		}

		encode, errEncode := json.Marshal(&metric)
		if errEncode != nil {
			h.logger.Err.Printf("error encode metric to JSON: %v\n", errEncode)
			http.Error(w, errEncode.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set(ContentType, ApplicationJSON)
		if _, err := w.Write(encode); err != nil {
			h.logger.Err.Printf("error write response: %v\n", err)
		}
	}
}

// GetMetrics Все метрики в виде HTML, последние обновленные - первыми
func (h Handler) GetMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		w.Header().Set(ContentType, TextHTML)

		metrics, err := h.store.GetSlice()
		if err != nil {
			h.logger.Err.Printf("could not get all metrics from storage: %v\n", err)
			http.Error(w, err.Error(), errs.ErrorHTTP(err))
			return
		}

		builder := strings.Builder{}
		for _, metric := range metrics {
			builder.WriteString(metric.ShotString())
			builder.WriteString("<br/>")
		}

		if _, err := w.Write([]byte(builder.String())); err != nil {
			h.logger.Err.Printf("error write response: %v\n", err)
		}
	}
}
