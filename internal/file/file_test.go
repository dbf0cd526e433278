package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sol1corejz/linkly/internal/models"
)

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.jsonl")
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []models.LinkRecord{
		{ID: "1", ShortCode: "abc123", OriginalURL: "https://www.example.com/some/long/url", AccessCount: 42, CreatedAt: created, UpdatedAt: created},
		{ID: "2", ShortCode: "def456", OriginalURL: "https://www.anotherexample.com/different/path", AccessCount: 18, CreatedAt: created, UpdatedAt: created},
	}

	p, err := NewProducer(path)
	require.NoError(t, err)
	n, err := p.WriteAll(recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, p.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 2)

	c, err := NewConsumer(path)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestNewConsumer_Missing(t *testing.T) {
	_, err := NewConsumer(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
