package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<title>" + r.URL.Path + "</title><p>page</p>"))
	}))
	defer srv.Close()

	urls := []string{
		srv.URL + "/a",
		srv.URL + "/missing",
		"  ",
		srv.URL + "/a/#top",
		srv.URL + "/b",
	}
	res := NewFetcher(time.Second, 0).Batch(context.Background(), urls, 2)

	require.Len(t, res, 3)
	assert.Equal(t, int32(3), hits.Load())

	assert.Equal(t, srv.URL+"/a", res[0].URL)
	assert.Equal(t, "/a", res[0].Title)
	assert.Empty(t, res[0].Err)

	assert.Equal(t, srv.URL+"/missing", res[1].URL)
	assert.Contains(t, res[1].Err, "404")
	assert.Empty(t, res[1].Text)

	assert.Equal(t, "/b", res[2].Title)
}

func TestBatchEmpty(t *testing.T) {
	assert.Empty(t, NewFetcher(time.Second, 0).Batch(context.Background(), nil, 0))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, normalizeKey("HTTPS://Example.com/Post/"), normalizeKey("https://example.com/Post#intro"))
	assert.NotEqual(t, normalizeKey("https://example.com/post"), normalizeKey("https://example.com/Post"))
}
