// Package gzip сжимает ответы веб-интерфейса и распаковывает сжатые тела
// запросов. Писатели gzip переиспользуются через пул.
package gzip

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var writers = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// compressible - типы содержимого, которые имеет смысл сжимать.
var compressible = []string{
	"text/html",
	"text/plain",
	"text/css",
	"application/json",
	"application/javascript",
}

// CompressWriter - http.ResponseWriter, сжимающий тело ответа.
// Решение о сжатии принимается при записи заголовка по Content-Type
// и статусу ответа.
type CompressWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

// NewCompressWriter оборачивает w.
func NewCompressWriter(w http.ResponseWriter) *CompressWriter {
	return &CompressWriter{w: w}
}

func (c *CompressWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CompressWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.zw == nil {
		return c.w.Write(p)
	}
	return c.zw.Write(p)
}

// WriteHeader включает сжатие для успешных ответов сжимаемого типа,
// у которых ещё не задан Content-Encoding.
func (c *CompressWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	h := c.w.Header()
	if statusCode < 300 && statusCode != http.StatusNoContent &&
		h.Get("Content-Encoding") == "" && isCompressible(h.Get("Content-Type")) {
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")

		zw := writers.Get().(*gzip.Writer)
		zw.Reset(c.w)
		c.zw = zw
	}
	c.w.WriteHeader(statusCode)
}

// Flush сбрасывает сжатые данные клиенту.
func (c *CompressWriter) Flush() {
	if c.zw != nil {
		c.zw.Flush()
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Close завершает поток gzip и возвращает писатель в пул.
func (c *CompressWriter) Close() error {
	if c.zw == nil {
		return nil
	}
	err := c.zw.Close()
	writers.Put(c.zw)
	c.zw = nil
	return err
}

// Compressed сообщает, сжимается ли ответ.
func (c *CompressWriter) Compressed() bool {
	return c.zw != nil
}

func isCompressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, prefix := range compressible {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// CompressReader распаковывает сжатое тело запроса.
type CompressReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// NewCompressReader создаёт CompressReader. Возвращает ошибку,
// если поток не начинается с заголовка gzip.
func NewCompressReader(r io.ReadCloser) (*CompressReader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	return &CompressReader{
		r:  r,
		zr: zr,
	}, nil
}

func (c *CompressReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

// Close закрывает оба потока.
func (c *CompressReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}
