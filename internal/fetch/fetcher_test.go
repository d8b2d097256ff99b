package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAndExtract(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title> Hello </title></head><body><script>x()</script><article><p>Body &amp; soul</p></article></body></html>`))
	}))
	defer srv.Close()

	res, err := NewFetcher(time.Second, 0).FetchAndExtract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "text/html", gotContentType)
	assert.Equal(t, "Hello", res.Title)
	assert.Equal(t, "Body & soul", res.Text)
}

func TestFetchAndExtractDecodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<title>Caf\xe9</title><main>cr\xe8me</main>"))
	}))
	defer srv.Close()

	res, err := NewFetcher(time.Second, 0).FetchAndExtract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Café", res.Title)
	assert.Equal(t, "crème", res.Text)
}

func TestFetchAndExtractNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(time.Second, 0).FetchAndExtract(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchAndExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewFetcher(50*time.Millisecond, 0).FetchAndExtract(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchAndExtractUnsupportedScheme(t *testing.T) {
	_, err := NewFetcher(time.Second, 0).FetchAndExtract(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}

func TestFetchAndExtractBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>" + strings.Repeat("a", 100) + "</p>"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 0)
	f.MaxBody = 13
	res, err := f.FetchAndExtract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 10), res.Text)
}

func TestDefaultBodyCapLeavesTruncationToExtractor(t *testing.T) {
	f := NewFetcher(0, 0)
	assert.Equal(t, int64(10<<20), f.MaxBody)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + strings.Repeat("b", 60000) + "</p>"))
	}))
	defer srv.Close()

	res, err := f.FetchAndExtract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.Text, 50003)
	assert.True(t, strings.HasSuffix(res.Text, "..."))
}
