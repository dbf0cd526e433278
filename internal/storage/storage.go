// Package storage хранит состояние посетителей веб-интерфейса в памяти:
// форму сокращения, список ссылок и очередь уведомлений каждого браузера.
package storage

import (
	"sync"

	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/session"
)

// Storage - хранилище посетителей, которым пользуются обработчики.
type Storage interface {
	Get(visitorID string) *Visitor
	Len() int
	Close()
}

// Visitor - состояние одного посетителя.
type Visitor struct {
	ID      string
	Session *session.Session
	Links   *collection.Collection
	Alerts  *Flash
}

func (v *Visitor) close() {
	v.Session.Close()
	v.Links.Close()
}

// Factory создаёт сессию и список ссылок нового посетителя.
// Уведомления списка нужно направлять в alerts.
type Factory func(visitorID string, alerts *Flash) (*session.Session, *collection.Collection)

const maxAlerts = 10

// Flash - очередь уведомлений, которые показываются один раз.
type Flash struct {
	mu   sync.Mutex
	msgs []string
}

// Alert добавляет уведомление. Хранятся только последние сообщения.
func (f *Flash) Alert(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.msgs = append(f.msgs, msg)
	if len(f.msgs) > maxAlerts {
		f.msgs = f.msgs[len(f.msgs)-maxAlerts:]
	}
}

// Drain возвращает накопленные уведомления и очищает очередь.
func (f *Flash) Drain() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.msgs
	f.msgs = nil
	return msgs
}
