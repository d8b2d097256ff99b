// Package fetch downloads a web page and runs it through the text extractor.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"apexcarousel/internal/extract"
	"apexcarousel/pkg/models"
)

const (
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBody caps how much of a page is read before extraction; the
	// remainder is dropped without error.
	DefaultMaxBody int64 = 10 << 20
)

// Fetcher issues a single GET per call. No retries.
type Fetcher struct {
	Client  *http.Client
	MaxBody int64
	Log     *zap.Logger
}

func NewFetcher(timeout time.Duration, maxBody int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Fetcher{
		Client:  &http.Client{Timeout: timeout},
		MaxBody: maxBody,
		Log:     zap.NewNop(),
	}
}

// FetchAndExtract downloads rawURL and returns the extracted text and title.
// Network errors, timeouts and non-2xx statuses all come back as errors.
func (f *Fetcher) FetchAndExtract(ctx context.Context, rawURL string) (models.ExtractionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	defer resp.Body.Close()

	f.logger().Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ExtractionResult{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := readBody(resp, f.MaxBody)
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("read body: %w", err)
	}
	return extract.Extract(body), nil
}

// readBody decodes the body to UTF-8 using the declared or sniffed charset.
func readBody(resp *http.Response, max int64) (string, error) {
	var r io.Reader = resp.Body
	if max > 0 {
		r = io.LimitReader(r, max)
	}
	utf8Reader, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		// unknown charset label; fall back to the raw bytes
		utf8Reader = r
	}
	b, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}
