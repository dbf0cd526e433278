// Package collection - локальный кэш списка коротких ссылок с сортировкой,
// редактированием и удалением.
//
// Кэш не является источником истины: любое изменение сначала отправляется
// в сервис и применяется локально только после успешного ответа. Исключение:
// сортировка, которая меняет лишь порядок отображения и в сеть не ходит.
//
// Все методы безопасны для конкурентного вызова. Блокировка не удерживается
// во время сетевых запросов; перед применением результата каждая операция
// заново проверяет, что коллекция не закрыта и что её запрос всё ещё актуален.
package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/platform"
)

// Сообщения, которые видит пользователь.
const (
	MsgConfirmDelete  = "Are you sure you want to delete this short URL?"
	MsgDeleted        = "Entry deleted successfully"
	MsgDeleteFailed   = "Failed to delete entry. Please try again."
	MsgUpdated        = "URL updated successfully"
	MsgUpdateFailed   = "Failed to update entry. Please try again."
	MsgRedirectFailed = "Failed to redirect. URL might be expired or invalid."
	MsgFetchFailed    = "Failed to fetch data"
)

var (
	ErrCancelled   = errors.New("action cancelled by user")
	ErrUnknownCode = errors.New("short code is not in the list")
	ErrNotEditing  = errors.New("record is not in edit mode")
	ErrStale       = errors.New("result superseded by a newer request")
	ErrClosed      = errors.New("collection is closed")
)

// Confirmer запрашивает у пользователя подтверждение разрушительного действия.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc позволяет использовать функцию как Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type confirmedKey struct{}

// WithConfirmation помечает контекст как уже подтверждённый пользователем,
// например после отправки формы подтверждения.
func WithConfirmation(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmedKey{}, true)
}

// Confirmed сообщает, подтверждён ли контекст через WithConfirmation.
func Confirmed(ctx context.Context) bool {
	ok, _ := ctx.Value(confirmedKey{}).(bool)
	return ok
}

// ContextConfirmer подтверждает только контексты, помеченные WithConfirmation.
var ContextConfirmer = ConfirmFunc(func(ctx context.Context, _ string) bool {
	return Confirmed(ctx)
})

// Notifier показывает пользователю уведомление об итоге действия.
type Notifier interface {
	Alert(msg string)
}

// NotifyFunc позволяет использовать функцию как Notifier.
type NotifyFunc func(msg string)

func (f NotifyFunc) Alert(msg string) {
	f(msg)
}

type logNotifier struct{}

func (logNotifier) Alert(msg string) {
	logger.Log.Info("collection alert", zap.String("message", msg))
}

// View - снимок состояния для отображения.
type View struct {
	Records     []models.LinkRecord
	Loading     bool
	Loaded      bool
	Error       string
	Sort        SortConfig
	EditingCode string
	EditBuffer  string
}

// Editing сообщает, редактируется ли запись с данным кодом.
func (v View) Editing(code string) bool {
	return v.EditingCode != "" && v.EditingCode == code
}

// Option настраивает Collection.
type Option func(*Collection)

// WithConfirmer задаёт способ подтверждения удаления.
func WithConfirmer(c Confirmer) Option {
	return func(col *Collection) {
		col.confirm = c
	}
}

// WithNotifier задаёт получателя уведомлений.
func WithNotifier(n Notifier) Option {
	return func(col *Collection) {
		col.notify = n
	}
}

// WithPlatform задаёт окружение для открытия ссылок.
func WithPlatform(p platform.Platform) Option {
	return func(col *Collection) {
		col.platform = p
	}
}

// WithRefreshInterval включает периодическую перезагрузку списка.
func WithRefreshInterval(d time.Duration) Option {
	return func(col *Collection) {
		col.refreshEvery = d
	}
}

// Collection - кэш списка ссылок.
type Collection struct {
	api      client.API
	confirm  Confirmer
	notify   Notifier
	platform platform.Platform
	now      func() time.Time

	refreshEvery time.Duration

	root   context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu      sync.Mutex
	data    []models.LinkRecord
	view    []models.LinkRecord
	loading bool
	loaded  bool
	err     string
	sort    SortConfig

	editing     string
	buffer      string
	editSession uint64

	saveCounter uint64
	saveSeq     map[string]uint64
	mutations   uint64
	closed      bool
}

// New создаёт пустую коллекцию. Данные загружаются вызовом Refresh.
func New(api client.API, opts ...Option) *Collection {
	root, cancel := context.WithCancel(context.Background())
	c := &Collection{
		api:      api,
		confirm:  ContextConfirmer,
		notify:   logNotifier{},
		platform: platform.Static{},
		now:      time.Now,
		root:     root,
		cancel:   cancel,
		saveSeq:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.StartAutoRefresh(c.refreshEvery)
	return c
}

// Snapshot возвращает копию состояния.
func (c *Collection) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{
		Records:     append([]models.LinkRecord(nil), c.view...),
		Loading:     c.loading,
		Loaded:      c.loaded,
		Error:       c.err,
		Sort:        c.sort,
		EditingCode: c.editing,
		EditBuffer:  c.buffer,
	}
}

// Len возвращает число записей в кэше.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Refresh загружает список из сервиса и заменяет им кэш.
// Одновременные вызовы разделяют один запрос. Ошибка сохраняется в состоянии,
// повторить загрузку можно повторным вызовом Refresh.
func (c *Collection) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loading = true
	c.mu.Unlock()

	ch := c.group.DoChan("list", func() (any, error) {
		c.mu.Lock()
		gen := c.mutations
		c.mu.Unlock()

		recs, err := c.api.GetAllShortURLs(c.root)
		c.applyFetch(gen, recs, err)
		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Collection) applyFetch(gen uint64, recs []models.LinkRecord, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.loading = false

	if err != nil {
		c.err = client.Message(err, MsgFetchFailed)
		logger.Log.Error("Error fetching data", zap.Error(err))
		return
	}

	if gen != c.mutations {
		// За время загрузки кэш изменился подтверждёнными правками,
		// полученный список может их не содержать.
		logger.Log.Debug("discarding list fetched before a local change")
		return
	}

	c.err = ""
	c.loaded = true
	c.data = append([]models.LinkRecord(nil), recs...)
	c.view = sortRecords(c.data, c.sort)

	if c.editing != "" && c.indexLocked(c.editing) < 0 {
		c.editing, c.buffer = "", ""
	}
}

// StartAutoRefresh периодически перезагружает список, устраняя расхождение
// кэша с сервисом. Останавливается при Close. При interval <= 0 ничего не делает.
func (c *Collection) StartAutoRefresh(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.root.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(c.root); err != nil && !errors.Is(err, ErrClosed) && c.root.Err() == nil {
					logger.Log.Warn("auto refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Close отменяет выполняющиеся запросы. После Close состояние больше не меняется.
func (c *Collection) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// bind ограничивает контекст вызова временем жизни коллекции.
func (c *Collection) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.root, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Collection) indexLocked(code string) int {
	for i := range c.data {
		if c.data[i].ShortCode == code {
			return i
		}
	}
	return -1
}

func (c *Collection) alert(msg string) {
	if c.notify != nil {
		c.notify.Alert(msg)
	}
}
