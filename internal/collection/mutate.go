package collection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/validation"
)

// BeginEdit переводит запись в режим редактирования. Буфер заполняется
// текущим адресом. Одновременно редактируется не больше одной записи:
// начатое ранее редактирование другой записи отменяется.
func (c *Collection) BeginEdit(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	i := c.indexLocked(code)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}

	c.editSession++
	c.editing = code
	c.buffer = c.data[i].OriginalURL
	return nil
}

// SetEditBuffer заменяет содержимое буфера редактирования.
func (c *Collection) SetEditBuffer(code, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.editing == "" || c.editing != code {
		return ErrNotEditing
	}
	c.buffer = value
	return nil
}

// CancelEdit выходит из режима редактирования без изменений.
func (c *Collection) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editing == "" {
		return
	}
	c.editSession++
	c.editing, c.buffer = "", ""
}

// SaveEdit отправляет содержимое буфера в сервис.
//
// При успехе запись обновляется на месте, режим редактирования закрывается
// и показывается уведомление. При ошибке режим и буфер сохраняются.
// Если для того же кода уже отправлено более новое сохранение,
// результат этого запроса отбрасывается и возвращается ErrStale.
func (c *Collection) SaveEdit(ctx context.Context, code string) (*models.LinkRecord, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.editing == "" || c.editing != code {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}

	target, verr := validation.URL(c.buffer)
	if verr != nil {
		c.mu.Unlock()
		c.alert(verr.Error())
		return nil, verr
	}

	c.saveCounter++
	token := c.saveCounter
	c.saveSeq[code] = token
	editSession := c.editSession
	c.mu.Unlock()

	reqCtx, cancel := c.bind(ctx)
	rec, err := c.api.UpdateShortURL(reqCtx, code, target)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.saveSeq[code] != token {
		c.mu.Unlock()
		logger.Log.Debug("discarding stale save result", zap.String("shortCode", code))
		return nil, ErrStale
	}
	delete(c.saveSeq, code)
	current := c.editSession == editSession && c.editing == code

	if err != nil {
		c.mu.Unlock()
		logger.Log.Error("Error updating URL", zap.String("shortCode", code), zap.Error(err))
		if current {
			c.alert(MsgUpdateFailed)
		}
		return nil, err
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = c.now()
	}
	c.patchLocked(code, func(r *models.LinkRecord) {
		r.OriginalURL = target
		r.UpdatedAt = updatedAt
		if rec.AccessCount > r.AccessCount {
			r.AccessCount = rec.AccessCount
		}
	})
	c.mutations++

	if current {
		c.editSession++
		c.editing, c.buffer = "", ""
	}
	c.mu.Unlock()

	if current {
		c.alert(MsgUpdated)
	}
	return rec, nil
}

// Delete удаляет запись после подтверждения пользователя.
// Отказ от подтверждения возвращает ErrCancelled без обращения к сети.
// Запись исчезает из списка только после успешного ответа сервиса.
func (c *Collection) Delete(ctx context.Context, code string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	known := c.indexLocked(code) >= 0
	c.mu.Unlock()

	if !known {
		c.alert(MsgDeleteFailed)
		return fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}

	if c.confirm == nil || !c.confirm.Confirm(ctx, MsgConfirmDelete) {
		return ErrCancelled
	}

	reqCtx, cancel := c.bind(ctx)
	err := c.api.DeleteShortURL(reqCtx, code)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		logger.Log.Error("Error deleting entry", zap.String("shortCode", code), zap.Error(err))
		c.alert(MsgDeleteFailed)
		return err
	}

	c.removeLocked(code)
	c.mutations++
	if c.editing == code {
		c.editSession++
		c.editing, c.buffer = "", ""
	}
	delete(c.saveSeq, code)
	c.mu.Unlock()

	c.alert(MsgDeleted)
	return nil
}

// OpenOriginal получает исходный адрес и открывает его через платформу.
func (c *Collection) OpenOriginal(ctx context.Context, code string) (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	reqCtx, cancel := c.bind(ctx)
	target, err := c.api.GetOriginalURL(reqCtx, code)
	cancel()

	c.mu.Lock()
	closed = c.closed
	c.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	if err != nil {
		logger.Log.Error("Error redirecting", zap.String("shortCode", code), zap.Error(err))
		c.alert(MsgRedirectFailed)
		return "", err
	}

	if err := c.platform.Open(target); err != nil {
		logger.Log.Warn("platform could not open url", zap.String("url", target), zap.Error(err))
	}
	return target, nil
}

// Stats запрашивает статистику записи и обновляет счётчик переходов в кэше.
// Счётчик никогда не уменьшается.
func (c *Collection) Stats(ctx context.Context, code string) (*models.LinkRecord, error) {
	reqCtx, cancel := c.bind(ctx)
	rec, err := c.api.GetURLStats(reqCtx, code)
	cancel()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	c.patchLocked(code, func(r *models.LinkRecord) {
		if rec.AccessCount > r.AccessCount {
			r.AccessCount = rec.AccessCount
		}
	})
	return rec, nil
}

// patchLocked применяет fn к записи в обоих представлениях и
// восстанавливает порядок отображения.
func (c *Collection) patchLocked(code string, fn func(*models.LinkRecord)) {
	found := false
	for i := range c.data {
		if c.data[i].ShortCode == code {
			fn(&c.data[i])
			found = true
		}
	}
	if !found {
		return
	}
	for i := range c.view {
		if c.view[i].ShortCode == code {
			fn(&c.view[i])
		}
	}
	c.view = sortRecords(c.view, c.sort)
}

func (c *Collection) removeLocked(code string) {
	c.data = removeCode(c.data, code)
	c.view = removeCode(c.view, code)
}

func removeCode(recs []models.LinkRecord, code string) []models.LinkRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.ShortCode != code {
			out = append(out, r)
		}
	}
	return out
}

// IsNotFound сообщает, что сервис не знает запрошенный код.
func IsNotFound(err error) bool {
	return errors.Is(err, client.ErrNotFound)
}
