// Package session хранит состояние одного запроса на сокращение ссылки:
// ожидание, загрузка, успех или ошибка.
//
// Одновременно учитывается только последний отправленный запрос. Новая отправка
// отменяет контекст предыдущей, а результат устаревшего запроса отбрасывается
// и состояние не меняет.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/validation"
)

// MsgShortenFailed показывается, если ошибка сервиса не содержит текста.
const MsgShortenFailed = "Failed to shorten URL"

var (
	// ErrStale возвращается запросу, который был вытеснен более новым.
	ErrStale = errors.New("shorten request superseded by a newer one")
	// ErrClosed возвращается после Close.
	ErrClosed = errors.New("session is closed")
)

// Phase - стадия запроса.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	}
	return "idle"
}

// State - снимок состояния для отображения.
type State struct {
	Phase     Phase
	Result    *models.LinkRecord
	Error     string
	ChangedAt time.Time
}

// IsLoading сообщает, выполняется ли запрос.
func (s State) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// Fresh сообщает, что результат или ошибка появились не раньше ttl назад.
// Используется для автоматического скрытия уведомлений.
func (s State) Fresh(now time.Time, ttl time.Duration) bool {
	if s.Phase != PhaseSuccess && s.Phase != PhaseError {
		return false
	}
	return ttl <= 0 || now.Sub(s.ChangedAt) < ttl
}

// Session - состояние формы сокращения. Безопасна для конкурентного использования.
type Session struct {
	api client.API
	now func() time.Time

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
	closed bool
}

// New создаёт сессию в состоянии ожидания.
func New(api client.API) *Session {
	s := &Session{api: api, now: time.Now}
	s.state.ChangedAt = s.now()
	return s
}

// Shorten проверяет ввод и отправляет запрос на создание короткой ссылки.
// Неверный ввод сразу переводит сессию в ошибку без обращения к сети.
// Если за время запроса была отправлена новая ссылка, результат
// отбрасывается и возвращается ErrStale.
func (s *Session) Shorten(ctx context.Context, raw string) (*models.LinkRecord, error) {
	target, verr := validation.URL(raw)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if verr != nil {
		s.setLocked(State{Phase: PhaseError, Error: verr.Error()})
		s.mu.Unlock()
		return nil, verr
	}

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.setLocked(State{Phase: PhaseLoading})
	s.mu.Unlock()

	rec, err := s.api.CreateShortURL(reqCtx, target)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.seq {
		logger.Log.Debug("discarding stale shorten result", zap.Uint64("seq", seq))
		return nil, ErrStale
	}
	s.cancel = nil

	if err != nil {
		s.setLocked(State{Phase: PhaseError, Error: client.Message(err, MsgShortenFailed)})
		return nil, err
	}

	s.setLocked(State{Phase: PhaseSuccess, Result: rec})
	return rec, nil
}

// Clear сбрасывает результат и ошибку. Выполняющийся запрос не затрагивается:
// пока он идёт, сессия остаётся в состоянии загрузки.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseLoading || s.state.Phase == PhaseIdle {
		return
	}
	s.setLocked(State{Phase: PhaseIdle})
}

// Snapshot возвращает копию текущего состояния.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.Result != nil {
		rec := *st.Result
		st.Result = &rec
	}
	return st
}

// Close отменяет выполняющийся запрос; после Close состояние не меняется.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) setLocked(st State) {
	st.ChangedAt = s.now()
	s.state = st
}
