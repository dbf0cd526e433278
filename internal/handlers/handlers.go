// Package handlers реализует веб-интерфейс: страницу с формой сокращения
// и историей ссылок, действия над записями, публичный редирект по короткому
// коду и прокси к сервису.
package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/middlewares"
	"github.com/sol1corejz/linkly/internal/platform"
	"github.com/sol1corejz/linkly/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options - настройки веб-интерфейса.
type Options struct {
	// BackendURL - адрес сервиса, на который проксируются /shorten и /api.
	BackendURL string
	// SiteURL - публичный адрес интерфейса, из него строятся короткие ссылки.
	SiteURL       string
	NoticeTTL     time.Duration
	Secret        []byte
	SecureCookie  bool
	TrustedSubnet string
}

// Handler обслуживает веб-интерфейс.
type Handler struct {
	api   client.API
	store storage.Storage
	opts  Options
	tmpl  *template.Template
	proxy *httputil.ReverseProxy
	now   func() time.Time
}

// New создаёт обработчик. api используется для публичного редиректа
// и проверки доступности сервиса, store хранит состояние посетителей.
func New(api client.API, store storage.Storage, opts Options) (*Handler, error) {
	backend, err := url.Parse(opts.BackendURL)
	if err != nil {
		return nil, err
	}
	if backend.Scheme == "" || backend.Host == "" {
		return nil, errors.New("backend url must be absolute")
	}

	h := &Handler{
		api:   api,
		store: store,
		opts:  opts,
		proxy: newProxy(backend),
		now:   time.Now,
	}

	h.tmpl, err = template.New("").Funcs(template.FuncMap{
		"date":     formatDate,
		"shortURL": h.shortURL,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Router собирает маршруты.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.SecurityHeaders)
	r.Use(middlewares.GzipMiddleware)

	r.Get("/ping", h.HandlePing)

	r.Handle("/shorten", h.proxy)
	r.Handle("/shorten/*", h.proxy)
	r.Handle("/api/*", h.proxy)

	r.With(middlewares.TrustedSubnetMiddleware(h.opts.TrustedSubnet)).Mount("/debug", middleware.Profiler())

	r.Group(func(r chi.Router) {
		r.Use(middlewares.VisitorMiddleware(h.opts.Secret, h.opts.SecureCookie))

		r.Get("/", h.HandlePage)

		r.Route("/ui", func(r chi.Router) {
			r.Post("/shorten", h.HandleShorten)
			r.Post("/clear", h.HandleClear)
			r.Post("/refresh", h.HandleRefresh)
			r.Post("/sort/{field}", h.HandleSort)

			r.Route("/links/{code}", func(r chi.Router) {
				r.Post("/edit", h.HandleEdit)
				r.Post("/save", h.HandleSave)
				r.Post("/cancel", h.HandleCancel)
				r.Get("/delete", h.HandleConfirmDelete)
				r.Post("/delete", h.HandleDelete)
				r.Get("/open", h.HandleOpen)
			})
		})
	})

	r.Get("/{code}", h.HandleGet)

	return r
}

func (h *Handler) shortURL(code string) string {
	return platform.ShortURL(h.opts.SiteURL, code)
}

// visitor возвращает состояние текущего посетителя или nil,
// если хранилище уже закрыто.
func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) *storage.Visitor {
	v := h.store.Get(middlewares.VisitorID(r.Context()))
	if v == nil {
		http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
	}
	return v
}

func backToPage(w http.ResponseWriter, r *http.Request, fragment string) {
	target := "/"
	if fragment != "" {
		target += "#" + fragment
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func newProxy(backend *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Log.Error("proxy request failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
}
