package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexcarousel/internal/fetch"
)

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("# list\nhttps://a.example\n\n  https://b.example  \n"), 0o644))

	urls, err := readURLs(path, []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, urls)
}

func TestReadURLsFromArgs(t *testing.T) {
	urls, err := readURLs("", []string{"https://a.example"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example"}, urls)
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	failed, err := writeJSONL(&buf, []fetch.BatchResult{
		{URL: "https://a.example", Title: "A", Text: "body"},
		{URL: "https://b.example", Err: "unexpected status 404"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"url":"https://a.example","title":"A","text":"body"}`, lines[0])
	assert.JSONEq(t, `{"url":"https://b.example","error":"unexpected status 404"}`, lines[1])
}
