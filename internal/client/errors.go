package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sol1corejz/linkly/internal/models"
)

// ErrNotFound сопоставляется с RequestError при статусе 404.
var ErrNotFound = errors.New("short url not found")

// RequestError - ответ сервиса с неуспешным статусом.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is позволяет проверять 404 через errors.Is(err, ErrNotFound).
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NetworkError - запрос не дошёл до сервиса или ответ не удалось прочитать.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// newRequestError извлекает сообщение из тела ответа: поле message,
// затем error, затем сам текст, а если и его нет - общее сообщение по коду.
func newRequestError(status int, body []byte) *RequestError {
	var eb models.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return &RequestError{StatusCode: status, Message: eb.Message}
		}
		if eb.Error != "" {
			return &RequestError{StatusCode: status, Message: eb.Error}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return &RequestError{StatusCode: status, Message: text}
	}

	return &RequestError{
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP error! status: %d", status),
	}
}

// Message возвращает текст ошибки для показа пользователю.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
