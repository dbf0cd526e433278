package platform

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/abc123", ShortURL("http://localhost:3000", "abc123"))
	assert.Equal(t, "http://localhost:3000/abc123", ShortURL("http://localhost:3000/", "abc123"))
}

func TestStatic(t *testing.T) {
	var p Platform = Static{Origin: "https://linkly.dev"}
	assert.Equal(t, "https://linkly.dev", p.CurrentOrigin())
	assert.ErrorIs(t, p.CopyText("x"), ErrUnsupported)
	assert.NoError(t, p.Open("https://go.dev"))
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewTerminal("http://localhost:3000", &buf)

	require.NoError(t, p.CopyText("hi"))
	assert.Equal(t, "\x1b]52;c;aGk=\x07", buf.String())

	buf.Reset()
	require.NoError(t, p.Open("https://go.dev"))
	assert.Equal(t, "https://go.dev\n", buf.String())

	assert.ErrorIs(t, NewTerminal("", nil).CopyText("x"), ErrUnsupported)
}
