package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/session"
)

const (
	tabHistory = "history"
	tabStats   = "stats"
)

type column struct {
	Field  collection.SortField
	Label  string
	Active bool
	Desc   bool
}

var columnLabels = map[collection.SortField]string{
	collection.SortShortCode:   "Short Link",
	collection.SortOriginalURL: "Original Link",
	collection.SortAccessCount: "Clicks",
	collection.SortCreatedAt:   "Date",
	collection.SortUpdatedAt:   "Updated",
}

type pageData struct {
	Tab        string
	Shorten    session.State
	ShowResult bool
	ShowError  bool
	ShowNotice bool
	ResultURL  string
	Alerts     []string
	Links      collection.View
	Columns    []column
	StatsCode  string
	Stats      *models.LinkRecord
	StatsError string
}

// HandlePage отображает страницу. При первом посещении загружает историю.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	data := pageData{Tab: tabHistory}
	if r.URL.Query().Get("tab") == tabStats {
		data.Tab = tabStats
	}

	if snap := v.Links.Snapshot(); !snap.Loaded && !snap.Loading && snap.Error == "" {
		if err := v.Links.Refresh(r.Context()); err != nil {
			logger.Log.Debug("initial list fetch failed", zap.Error(err))
		}
	}

	data.Shorten = v.Session.Snapshot()
	now := h.now()
	fresh := data.Shorten.Fresh(now, h.opts.NoticeTTL)
	data.ShowResult = fresh && data.Shorten.Phase == session.PhaseSuccess && data.Shorten.Result != nil
	data.ShowError = fresh && data.Shorten.Phase == session.PhaseError
	data.ShowNotice = data.Shorten.Phase == session.PhaseSuccess || data.Shorten.Phase == session.PhaseError
	if data.ShowResult {
		data.ResultURL = h.shortURL(data.Shorten.Result.ShortCode)
	}

	if data.Tab == tabStats {
		data.StatsCode = strings.TrimSpace(r.URL.Query().Get("code"))
		if data.StatsCode != "" {
			data.Stats, data.StatsError = h.stats(r.Context(), v.Links, data.StatsCode)
		}
	}

	data.Alerts = v.Alerts.Drain()
	data.Links = v.Links.Snapshot()
	data.Columns = columns(data.Links.Sort)

	h.render(w, "page", http.StatusOK, data)
}

func (h *Handler) stats(ctx context.Context, links *collection.Collection, code string) (*models.LinkRecord, string) {
	rec, err := links.Stats(ctx, code)
	switch {
	case err == nil:
		return rec, ""
	case errors.Is(err, client.ErrNotFound):
		return nil, "Short URL not found"
	default:
		return nil, client.Message(err, collection.MsgFetchFailed)
	}
}

func columns(cfg collection.SortConfig) []column {
	cols := make([]column, 0, len(collection.SortFields))
	for _, f := range collection.SortFields {
		cols = append(cols, column{
			Field:  f,
			Label:  columnLabels[f],
			Active: cfg.Active(f),
			Desc:   cfg.Active(f) && cfg.Direction == collection.Descending,
		})
	}
	return cols
}

// render выполняет шаблон в буфер, чтобы ошибка шаблона не оставила
// клиенту половину страницы.
func (h *Handler) render(w http.ResponseWriter, name string, status int, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Log.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
