package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/logger"
)

type entry struct {
	visitor  *Visitor
	lastSeen time.Time
}

// MemoryStorage держит посетителей в памяти и удаляет тех,
// кто не заходил дольше idleTTL.
type MemoryStorage struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*entry
	closed   bool
}

// NewMemoryStorage создаёт хранилище. При idleTTL <= 0 посетители не удаляются.
func NewMemoryStorage(factory Factory, idleTTL time.Duration) *MemoryStorage {
	return &MemoryStorage{
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		visitors: make(map[string]*entry),
	}
}

// Get возвращает посетителя, создавая его при первом обращении.
// После Close возвращает nil.
func (ms *MemoryStorage) Get(visitorID string) *Visitor {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil
	}

	if e, ok := ms.visitors[visitorID]; ok {
		e.lastSeen = ms.now()
		return e.visitor
	}

	alerts := &Flash{}
	sess, links := ms.factory(visitorID, alerts)
	v := &Visitor{ID: visitorID, Session: sess, Links: links, Alerts: alerts}
	ms.visitors[visitorID] = &entry{visitor: v, lastSeen: ms.now()}

	logger.Log.Debug("new visitor", zap.String("visitor", visitorID))
	return v
}

// Len возвращает число посетителей.
func (ms *MemoryStorage) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.visitors)
}

// Sweep закрывает и удаляет неактивных посетителей, возвращает их число.
func (ms *MemoryStorage) Sweep() int {
	if ms.idleTTL <= 0 {
		return 0
	}

	ms.mu.Lock()
	var idle []*Visitor
	deadline := ms.now().Add(-ms.idleTTL)
	for id, e := range ms.visitors {
		if e.lastSeen.Before(deadline) {
			idle = append(idle, e.visitor)
			delete(ms.visitors, id)
		}
	}
	ms.mu.Unlock()

	for _, v := range idle {
		v.close()
	}
	return len(idle)
}

// Run периодически вызывает Sweep, пока не отменён ctx.
func (ms *MemoryStorage) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ms.Sweep(); n > 0 {
				logger.Log.Info("evicted idle visitors", zap.Int("count", n))
			}
		}
	}
}

// Close закрывает всех посетителей.
func (ms *MemoryStorage) Close() {
	ms.mu.Lock()
	visitors := ms.visitors
	ms.visitors = make(map[string]*entry)
	ms.closed = true
	ms.mu.Unlock()

	for _, e := range visitors {
		e.visitor.close()
	}
}
