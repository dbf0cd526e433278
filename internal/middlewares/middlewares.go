// Package middlewares содержит промежуточные обработчики веб-интерфейса:
// сжатие ответов, заголовки безопасности, cookie посетителя
// и ограничение доступа по подсети.
package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/cmd/gzip"
	"github.com/sol1corejz/linkly/internal/auth"
	"github.com/sol1corejz/linkly/internal/logger"
)

// GzipMiddleware сжимает ответ, если клиент это поддерживает,
// и распаковывает сжатое тело запроса.
func GzipMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ow := w

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			cw := gzip.NewCompressWriter(w)
			ow = cw
			defer cw.Close()
		}

		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			cr, err := gzip.NewCompressReader(r.Body)
			if err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			r.Body = cr
			r.Header.Del("Content-Encoding")
			defer cr.Close()
		}

		h.ServeHTTP(ow, r)
	})
}

// SecurityHeaders добавляет заголовки, которые запрещают встраивание
// страниц в чужие фреймы и угадывание типа содержимого.
func SecurityHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Frame-Options", "SAMEORIGIN")
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("Referrer-Policy", "origin-when-cross-origin")
		h.ServeHTTP(w, r)
	})
}

type visitorKey struct{}

// VisitorID возвращает идентификатор посетителя, установленный VisitorMiddleware.
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}

// WithVisitorID кладёт идентификатор посетителя в контекст.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey{}, id)
}

// VisitorMiddleware читает токен посетителя из cookie. Если токена нет
// или он недействителен, выдаётся новый.
func VisitorMiddleware(secret []byte, secure bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(auth.CookieName); err == nil {
				if id, err := auth.GetVisitorID(c.Value, secret); err == nil {
					h.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
					return
				}
				logger.Log.Debug("Invalid token", zap.String("path", r.URL.Path))
			}

			token, id, err := auth.BuildJWTString(secret)
			if err != nil {
				logger.Log.Error("Failed to generate token", zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     auth.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(auth.TokenExp.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			h.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
		})
	}
}

// TrustedSubnetMiddleware пропускает только запросы, у которых IP из заголовка
// X-Real-IP или адрес соединения входит в подсеть. Пустая или некорректная
// подсеть закрывает доступ полностью.
func TrustedSubnetMiddleware(subnet string) func(http.Handler) http.Handler {
	_, trustedNet, err := net.ParseCIDR(subnet)

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err != nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ip := net.ParseIP(clientIP(r))
			if ip == nil || !trustedNet.Contains(ip) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
