// Package logger предоставляет общий логгер приложения на базе zap
// и middleware для логирования входящих HTTP-запросов.
package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Log - глобальный логгер. До вызова Initialize это no-op логгер,
// поэтому пакеты могут писать в него и в тестах.
var Log = zap.NewNop()

// Initialize настраивает глобальный логгер с указанным уровнем ("debug", "info", ...).
// Возвращает ошибку, если уровень некорректен или логгер не удалось собрать.
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

// RequestLogger оборачивает обработчик и пишет в лог путь, метод, статус,
// размер ответа и длительность каждого запроса.
func RequestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r)

		Log.Info("got incoming HTTP request",
			zap.String("path", r.RequestURI),
			zap.String("method", r.Method),
			zap.Int("status", ww.Status()),
			zap.Int("size", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
