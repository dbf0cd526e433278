// Package models описывает записи коротких ссылок и форматы обмена
// с сервисом сокращения ссылок.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status - информационный статус ссылки, клиентом не проверяется.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// LinkRecord - одна сокращённая ссылка.
// ShortCode является естественным ключом для обновления, удаления и поиска,
// ID используется только для идентификации строк при отображении.
type LinkRecord struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	AccessCount int64     `json:"accessCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Status      Status    `json:"status,omitempty"`
}

// wireRecord принимает обе версии ответа сервиса: id/_id и url/originalUrl.
type wireRecord struct {
	ID          string    `json:"id"`
	MongoID     string    `json:"_id"`
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	URL         string    `json:"url"`
	AccessCount int64     `json:"accessCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Status      Status    `json:"status"`
}

// UnmarshalJSON приводит ответ сервиса к единому виду LinkRecord.
func (r *LinkRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = LinkRecord{
		ID:          w.ID,
		ShortCode:   w.ShortCode,
		OriginalURL: w.OriginalURL,
		AccessCount: w.AccessCount,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Status:      w.Status,
	}
	if r.ID == "" {
		r.ID = w.MongoID
	}
	if r.OriginalURL == "" {
		r.OriginalURL = w.URL
	}
	if r.AccessCount < 0 {
		r.AccessCount = 0
	}
	return nil
}

// LinkList - список ссылок из ответа GET /shorten. Сервис отдаёт либо
// массив, либо объект с массивом в поле data, urls или items.
type LinkList []LinkRecord

// UnmarshalJSON принимает обе формы ответа. null даёт пустой список.
func (l *LinkList) UnmarshalJSON(data []byte) error {
	var recs []LinkRecord
	if err := json.Unmarshal(data, &recs); err == nil {
		*l = recs
		return nil
	}

	var envelope struct {
		Data  []LinkRecord `json:"data"`
		URLs  []LinkRecord `json:"urls"`
		Items []LinkRecord `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode link list: %w", err)
	}
	switch {
	case envelope.Data != nil:
		*l = envelope.Data
	case envelope.URLs != nil:
		*l = envelope.URLs
	default:
		*l = envelope.Items
	}
	return nil
}

// Key возвращает ключ строки для отображения: ID, а при его отсутствии ShortCode.
func (r LinkRecord) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.ShortCode
}

// BodyField определяет имя поля с URL в теле запросов создания и обновления.
type BodyField string

const (
	BodyFieldURL         BodyField = "url"
	BodyFieldOriginalURL BodyField = "originalUrl"
)

// ParseBodyField проверяет значение из конфигурации.
func ParseBodyField(s string) (BodyField, error) {
	switch BodyField(s) {
	case BodyFieldURL, BodyFieldOriginalURL:
		return BodyField(s), nil
	}
	return "", fmt.Errorf("unknown body field %q: want %q or %q", s, BodyFieldURL, BodyFieldOriginalURL)
}

// URLRequest формирует тело запроса вида {"url": ...} или {"originalUrl": ...}.
func URLRequest(field BodyField, url string) map[string]string {
	if field == "" {
		field = BodyFieldOriginalURL
	}
	return map[string]string{string(field): url}
}

// ErrorBody - тело ошибки сервиса.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
