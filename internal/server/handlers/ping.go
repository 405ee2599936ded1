package handler

import (
	"net/http"
)

// Ping Проверка доступности хранилища метрик
func (h Handler) Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {

		w.Header().Set(ContentType, TextPlain)

		if !h.store.CheckHealth() {
			h.logger.Err.Println("storage is unavailable")
			http.Error(w, "storage is unavailable", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
