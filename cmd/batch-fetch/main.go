package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"apexcarousel/internal/fetch"
	"apexcarousel/pkg/logging"
)

// batch-fetch extracts many pages at once and writes one JSON object per line,
// ready to be fed into generation jobs.
func main() {
	in := flag.String("in", "", "file with one URL per line (default: arguments, or stdin)")
	out := flag.String("out", "", "output JSONL path (default stdout)")
	workers := flag.Int("workers", fetch.DefaultWorkers, "concurrent downloads")
	timeout := flag.Duration("timeout", fetch.DefaultTimeout, "per-page timeout")
	flag.Parse()

	log, err := logging.New("info")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	urls, err := readURLs(*in, flag.Args())
	if err != nil {
		log.Fatal("read urls", zap.Error(err))
	}

	var dst io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal("create output", zap.Error(err))
		}
		defer f.Close()
		dst = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fetcher := fetch.NewFetcher(*timeout, fetch.DefaultMaxBody)
	fetcher.Log = log.Named("fetch")
	results := fetcher.Batch(ctx, urls, *workers)

	failed, err := writeJSONL(dst, results)
	if err != nil {
		log.Fatal("write results", zap.Error(err))
	}
	log.Info("batch done", zap.Int("pages", len(results)), zap.Int("failed", failed))
}

func readURLs(path string, args []string) ([]string, error) {
	if path == "" && len(args) > 0 {
		return args, nil
	}
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func writeJSONL(w io.Writer, results []fetch.BatchResult) (failed int, err error) {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if r.Err != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return failed, err
		}
	}
	return failed, nil
}
