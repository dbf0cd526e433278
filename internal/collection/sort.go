package collection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sol1corejz/linkly/internal/models"
)

// SortField - поле, по которому упорядочивается список.
type SortField string

const (
	SortShortCode   SortField = "shortCode"
	SortOriginalURL SortField = "originalUrl"
	SortAccessCount SortField = "accessCount"
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
)

// SortFields перечисляет поля в порядке колонок таблицы.
var SortFields = []SortField{SortShortCode, SortOriginalURL, SortAccessCount, SortCreatedAt, SortUpdatedAt}

// ParseSortField разбирает имя поля без учёта регистра.
func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Direction - направление сортировки.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// SortConfig - текущая сортировка. Пустое поле означает порядок сервиса.
type SortConfig struct {
	Field     SortField
	Direction Direction
}

// Active сообщает, что список отсортирован по полю f.
func (s SortConfig) Active(f SortField) bool {
	return s.Field != "" && s.Field == f
}

// next возвращает сортировку после выбора поля: повторный выбор поля,
// отсортированного по возрастанию, меняет направление на убывание,
// во всех остальных случаях устанавливается возрастание.
func (s SortConfig) next(f SortField) SortConfig {
	if s.Field == f && s.Direction == Ascending {
		return SortConfig{Field: f, Direction: Descending}
	}
	return SortConfig{Field: f, Direction: Ascending}
}

// RequestSort меняет порядок отображения. Сетевых запросов не выполняет.
func (c *Collection) RequestSort(field SortField) error {
	if _, err := ParseSortField(string(field)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.sort = c.sort.next(field)
	c.view = sortRecords(c.view, c.sort)
	return nil
}

// SetSort устанавливает сортировку напрямую.
func (c *Collection) SetSort(cfg SortConfig) error {
	if cfg.Field != "" {
		if _, err := ParseSortField(string(cfg.Field)); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.sort = cfg
	if cfg.Field == "" {
		c.view = append([]models.LinkRecord(nil), c.data...)
	} else {
		c.view = sortRecords(c.view, c.sort)
	}
	return nil
}

// sortRecords возвращает устойчиво отсортированную копию recs.
func sortRecords(recs []models.LinkRecord, cfg SortConfig) []models.LinkRecord {
	out := append([]models.LinkRecord(nil), recs...)
	if cfg.Field == "" {
		return out
	}

	slices.SortStableFunc(out, func(a, b models.LinkRecord) int {
		n := compare(a, b, cfg.Field)
		if cfg.Direction == Descending {
			return -n
		}
		return n
	})
	return out
}

func compare(a, b models.LinkRecord, f SortField) int {
	switch f {
	case SortShortCode:
		return strings.Compare(a.ShortCode, b.ShortCode)
	case SortOriginalURL:
		return strings.Compare(a.OriginalURL, b.OriginalURL)
	case SortAccessCount:
		switch {
		case a.AccessCount < b.AccessCount:
			return -1
		case a.AccessCount > b.AccessCount:
			return 1
		}
		return 0
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}
