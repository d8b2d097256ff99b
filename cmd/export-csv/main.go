package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"apexcarousel/internal/generations"
	"apexcarousel/pkg/database"
	"apexcarousel/pkg/logging"
	"apexcarousel/pkg/models"
)

var header = []string{
	"id", "owner", "style", "slide_count", "caption", "pinned_comment", "hooks",
	"has_pdf", "input_chars", "created", "updated",
}

func main() {
	out := flag.String("out", "data/generations.csv", "output CSV path")
	dbPath := flag.String("db", database.DefaultConfig().Path, "sqlite database path")
	flag.Parse()

	log, err := logging.New("info")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.Config{Path: *dbPath}, log)
	defer db.Close()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal("create output dir", zap.Error(err))
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal("create output file", zap.Error(err))
	}
	defer f.Close()

	n, err := writeGenerations(ctx, generations.NewRepo(db), f)
	if err != nil {
		log.Fatal("export generations failed", zap.Error(err))
	}
	log.Info("exported generations", zap.Int("rows", n), zap.String("path", *out))
}

func writeGenerations(ctx context.Context, repo *generations.Repo, dst io.Writer) (int, error) {
	w := csv.NewWriter(dst)
	if err := w.Write(header); err != nil {
		return 0, err
	}

	n := 0
	err := repo.Each(ctx, func(g models.Generation) error {
		n++
		return w.Write([]string{
			g.ID,
			g.Owner,
			string(g.Style),
			strconv.Itoa(len(g.Slides)),
			g.Caption,
			g.PinnedComment,
			strings.Join(g.Hooks, " | "),
			strconv.FormatBool(g.CarouselPDF != ""),
			strconv.Itoa(len([]rune(g.InputText))),
			g.Created.UTC().Format(time.RFC3339),
			g.Updated.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return n, err
	}

	w.Flush()
	return n, w.Error()
}
