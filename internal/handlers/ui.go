package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/session"
)

// HandleShorten принимает форму сокращения. Результат отображается
// на странице, куда посетитель перенаправляется после запроса.
func (h *Handler) HandleShorten(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	_, err := v.Session.Shorten(r.Context(), r.FormValue("url"))
	switch {
	case err == nil:
		if err := v.Links.Refresh(r.Context()); err != nil {
			logger.Log.Debug("refresh after shorten failed", zap.Error(err))
		}
	case errors.Is(err, session.ErrStale):
		// результат вытеснен более новой отправкой того же посетителя
	default:
		logger.Log.Info("shorten failed", zap.Error(err))
	}

	backToPage(w, r, "")
}

// HandleClear скрывает результат сокращения.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}
	v.Session.Clear()
	backToPage(w, r, "")
}

// HandleRefresh перезагружает историю. Ошибка отображается на странице.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}
	if err := v.Links.Refresh(r.Context()); err != nil {
		logger.Log.Info("refresh failed", zap.Error(err))
	}
	backToPage(w, r, "")
}

func (h *Handler) HandleSort(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	field, err := collection.ParseSortField(chi.URLParam(r, "field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := v.Links.RequestSort(field); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	backToPage(w, r, "")
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	code := chi.URLParam(r, "code")
	if err := v.Links.BeginEdit(code); err != nil {
		if errors.Is(err, collection.ErrUnknownCode) {
			http.Error(w, "URL not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	backToPage(w, r, "row-"+code)
}

// HandleSave сохраняет адрес из формы. Ошибка сохранения оставляет
// запись в режиме редактирования и показывается уведомлением.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	code := chi.URLParam(r, "code")
	if err := v.Links.SetEditBuffer(code, r.FormValue("url")); err != nil {
		if errors.Is(err, collection.ErrNotEditing) {
			http.Error(w, "Record is not being edited", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	if _, err := v.Links.SaveEdit(r.Context(), code); err != nil {
		logger.Log.Info("save failed", zap.String("shortCode", code), zap.Error(err))
	}
	backToPage(w, r, "row-"+code)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}
	v.Links.CancelEdit()
	backToPage(w, r, "row-"+chi.URLParam(r, "code"))
}

type confirmData struct {
	Prompt string
	Code   string
}

// HandleConfirmDelete показывает диалог подтверждения удаления.
func (h *Handler) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.render(w, "confirm", http.StatusOK, confirmData{
		Prompt: collection.MsgConfirmDelete,
		Code:   chi.URLParam(r, "code"),
	})
}

// HandleDelete удаляет запись. Без confirm=yes удаление считается отменённым.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	ctx := r.Context()
	if r.FormValue("confirm") == "yes" {
		ctx = collection.WithConfirmation(ctx)
	}

	code := chi.URLParam(r, "code")
	if err := v.Links.Delete(ctx, code); err != nil && !errors.Is(err, collection.ErrCancelled) {
		logger.Log.Info("delete failed", zap.String("shortCode", code), zap.Error(err))
	}
	backToPage(w, r, "")
}

// HandleOpen перенаправляет на исходный адрес записи.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	v := h.visitor(w, r)
	if v == nil {
		return
	}

	target, err := v.Links.OpenOriginal(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		backToPage(w, r, "")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
