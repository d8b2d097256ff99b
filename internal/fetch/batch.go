package fetch

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent downloads in Batch.
const DefaultWorkers = 4

// BatchResult is the outcome for one input URL. Err is set instead of
// Text/Title when that page could not be fetched.
type BatchResult struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Batch fetches every distinct URL with at most workers requests in flight.
// A failing page is reported in its result and does not stop the others.
// Results keep input order; duplicates (by normalized key) are fetched once.
func (f *Fetcher) Batch(ctx context.Context, urls []string, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	seen := make(map[string]bool, len(urls))
	var unique []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		key := normalizeKey(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, u)
	}

	results := make([]BatchResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range unique {
		g.Go(func() error {
			res := BatchResult{URL: u}
			ext, err := f.FetchAndExtract(gctx, u)
			if err != nil {
				f.logger().Warn("batch fetch failed", zap.String("url", u), zap.Error(err))
				res.Err = err.Error()
			} else {
				res.Title, res.Text = ext.Title, ext.Text
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// normalizeKey treats URLs differing only in scheme/host case, a trailing
// slash or a fragment as the same page.
func normalizeKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
