// Package platform скрывает возможности окружения, которыми пользуется
// интерфейс: буфер обмена, собственный адрес приложения и открытие ссылок.
package platform

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrUnsupported - окружение не умеет выполнять операцию.
var ErrUnsupported = errors.New("operation is not supported by this platform")

// Platform - возможности окружения.
type Platform interface {
	CopyText(text string) error
	CurrentOrigin() string
	Open(url string) error
}

// ShortURL собирает публичный адрес короткой ссылки.
func ShortURL(origin, shortCode string) string {
	return strings.TrimRight(origin, "/") + "/" + shortCode
}

// Static - окружение веб-интерфейса: адрес задан конфигурацией,
// буфер обмена и открытие ссылок выполняет браузер.
type Static struct {
	Origin string
}

func (s Static) CopyText(string) error { return ErrUnsupported }
func (s Static) CurrentOrigin() string  { return s.Origin }
func (s Static) Open(string) error      { return nil }

// Terminal - окружение консольного клиента. Копирование выполняется
// escape-последовательностью OSC 52, которую понимают большинство терминалов.
type Terminal struct {
	Origin string

	mu  sync.Mutex
	out io.Writer
}

// NewTerminal создаёт окружение, пишущее в out.
func NewTerminal(origin string, out io.Writer) *Terminal {
	return &Terminal{Origin: origin, out: out}
}

func (t *Terminal) CopyText(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out == nil {
		return ErrUnsupported
	}
	_, err := fmt.Fprintf(t.out, "\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}

func (t *Terminal) CurrentOrigin() string {
	return t.Origin
}

// Open печатает адрес: консольный клиент не запускает браузер сам.
func (t *Terminal) Open(url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out == nil {
		return ErrUnsupported
	}
	_, err := fmt.Fprintln(t.out, url)
	return err
}
