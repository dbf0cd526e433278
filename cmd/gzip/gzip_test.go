package gzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressWriter(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		compressed  bool
	}{
		{name: "html", contentType: "text/html; charset=utf-8", status: http.StatusOK, compressed: true},
		{name: "json", contentType: "application/json", status: http.StatusCreated, compressed: true},
		{name: "image", contentType: "image/png", status: http.StatusOK, compressed: false},
		{name: "redirect", contentType: "text/html", status: http.StatusFound, compressed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			cw := NewCompressWriter(rec)
			cw.Header().Set("Content-Type", tt.contentType)
			cw.WriteHeader(tt.status)
			_, err := cw.Write([]byte("hello linkly"))
			require.NoError(t, err)
			require.NoError(t, cw.Close())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.compressed, rec.Header().Get("Content-Encoding") == "gzip")

			body := rec.Body.Bytes()
			if tt.compressed {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(zr)
				require.NoError(t, err)
			}
			assert.Equal(t, "hello linkly", string(body))
		})
	}
}

func TestCompressReader(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"originalUrl":"https://example.com"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	cr, err := NewCompressReader(io.NopCloser(&buf))
	require.NoError(t, err)
	data, err := io.ReadAll(cr)
	require.NoError(t, err)
	require.NoError(t, cr.Close())
	assert.Equal(t, `{"originalUrl":"https://example.com"}`, string(data))

	_, err = NewCompressReader(io.NopCloser(bytes.NewReader([]byte("plain"))))
	assert.Error(t, err)
}
