// Package client - типизированный HTTP-клиент сервиса сокращения ссылок.
//
// Каждая операция выполняет ровно один HTTP-запрос без повторов и приводит
// ответ к models.LinkRecord. Неуспешный статус возвращается как *RequestError,
// сбой транспорта - как *NetworkError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
)

// API - операции сервиса, которыми пользуются сессия и список ссылок.
type API interface {
	CreateShortURL(ctx context.Context, url string) (*models.LinkRecord, error)
	GetAllShortURLs(ctx context.Context) ([]models.LinkRecord, error)
	GetOriginalURL(ctx context.Context, shortCode string) (string, error)
	UpdateShortURL(ctx context.Context, shortCode, newURL string) (*models.LinkRecord, error)
	DeleteShortURL(ctx context.Context, shortCode string) error
	GetURLStats(ctx context.Context, shortCode string) (*models.LinkRecord, error)
}

const maxBodySize = 1 << 20

// Client реализует API поверх net/http.
type Client struct {
	base      *url.URL
	http      *http.Client
	bodyField models.BodyField
	timeout   time.Duration
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client, например на клиент httptest-сервера.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBodyField выбирает имя поля с URL в теле запросов: "url" или "originalUrl".
func WithBodyField(f models.BodyField) Option {
	return func(c *Client) {
		c.bodyField = f
	}
}

// WithTimeout ограничивает время одного запроса.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New создаёт клиент для сервиса по адресу baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: 10 * time.Second},
		bodyField: models.BodyFieldOriginalURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL возвращает адрес сервиса.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// CreateShortURL создаёт короткую ссылку (POST /shorten).
func (c *Client) CreateShortURL(ctx context.Context, rawURL string) (*models.LinkRecord, error) {
	var rec models.LinkRecord
	err := c.do(ctx, "create short url", http.MethodPost, c.path(), models.URLRequest(c.bodyField, rawURL), &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetAllShortURLs возвращает все ссылки (GET /shorten).
func (c *Client) GetAllShortURLs(ctx context.Context) ([]models.LinkRecord, error) {
	var list models.LinkList
	if err := c.do(ctx, "list short urls", http.MethodGet, c.path(), nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return []models.LinkRecord{}, nil
	}
	return list, nil
}

// GetOriginalURL возвращает текущий целевой адрес короткой ссылки (GET /shorten/{code}).
func (c *Client) GetOriginalURL(ctx context.Context, shortCode string) (string, error) {
	var rec models.LinkRecord
	if err := c.do(ctx, "get original url", http.MethodGet, c.path(shortCode), nil, &rec); err != nil {
		return "", err
	}
	if rec.OriginalURL == "" {
		return "", fmt.Errorf("get original url: %w", ErrNotFound)
	}
	return rec.OriginalURL, nil
}

// UpdateShortURL меняет целевой адрес (PUT /shorten/{code}).
func (c *Client) UpdateShortURL(ctx context.Context, shortCode, newURL string) (*models.LinkRecord, error) {
	var rec models.LinkRecord
	err := c.do(ctx, "update short url", http.MethodPut, c.path(shortCode), models.URLRequest(c.bodyField, newURL), &rec)
	if err != nil {
		return nil, err
	}
	if rec.ShortCode == "" {
		rec.ShortCode = shortCode
	}
	if rec.OriginalURL == "" {
		rec.OriginalURL = newURL
	}
	return &rec, nil
}

// DeleteShortURL удаляет ссылку (DELETE /shorten/{code}).
func (c *Client) DeleteShortURL(ctx context.Context, shortCode string) error {
	return c.do(ctx, "delete short url", http.MethodDelete, c.path(shortCode), nil, nil)
}

// GetURLStats возвращает запись вместе со счётчиком переходов (GET /shorten/{code}/stats).
func (c *Client) GetURLStats(ctx context.Context, shortCode string) (*models.LinkRecord, error) {
	var rec models.LinkRecord
	if err := c.do(ctx, "get url stats", http.MethodGet, c.path(shortCode, "stats"), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) path(segments ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/shorten"
	u.RawPath = ""
	for _, s := range segments {
		u.Path += "/" + s
	}
	return u.String()
}

// do выполняет запрос и декодирует JSON-ответ в out, если out не nil.
func (c *Client) do(ctx context.Context, op, method, target string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.Debug("backend request failed",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	logger.Log.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRequestError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// IsRequestError сообщает, вернул ли сервис неуспешный статус.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
