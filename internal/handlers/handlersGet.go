package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/logger"
)

// HandleGet перенаправляет с короткой ссылки на исходный адрес.
// Каждый переход увеличивает счётчик на стороне сервиса.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "Invalid URL ID", http.StatusBadRequest)
		return
	}

	target, err := h.api.GetOriginalURL(r.Context(), code)
	if errors.Is(err, client.ErrNotFound) {
		http.Error(w, "URL not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.Error("Failed to resolve short URL", zap.String("shortCode", code), zap.Error(err))
		http.Error(w, "Failed to redirect. URL might be expired or invalid.", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandlePing проверяет, что сервис отвечает.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if _, err := h.api.GetAllShortURLs(r.Context()); err != nil {
		logger.Log.Warn("backend ping failed", zap.Error(err))
		http.Error(w, "Backend connection error", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
