// Package storage keeps uploaded files (carousel PDFs, brand images) on local disk.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrContentType = errors.New("unsupported content type")
	ErrBadKey      = errors.New("invalid storage key")
	ErrNotFound    = errors.New("file not found")
)

var extByType = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
}

var keyRe = regexp.MustCompile(`^[a-z]+/[0-9a-f-]{36}\.[a-z]+$`)

type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// Save sniffs the content type from the first bytes of r, rejects anything
// not in allowed, and writes at most max bytes under kind/. It returns the
// storage key and the detected type.
func (s *Local) Save(kind string, r io.Reader, max int64, allowed ...string) (key, contentType string, err error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	contentType = http.DetectContentType(head)
	if !slices.Contains(allowed, contentType) {
		return "", "", fmt.Errorf("%w: %s", ErrContentType, contentType)
	}

	key = kind + "/" + uuid.NewString() + extByType[contentType]
	path, err := s.path(key)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("create %s dir: %w", kind, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(br, max+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > max {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", "", err
		}
		return "", "", fmt.Errorf("write file: %w", err)
	}
	return key, contentType, nil
}

// Open returns the file behind key. The caller closes it.
func (s *Local) Open(key string) (*os.File, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes key. Deleting a missing file is not an error.
func (s *Local) Delete(key string) error {
	if key == "" {
		return nil
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// ContentType maps a key's extension back to its MIME type.
func ContentType(key string) string {
	ext := filepath.Ext(key)
	for ct, e := range extByType {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

func (s *Local) path(key string) (string, error) {
	if !keyRe.MatchString(key) {
		return "", ErrBadKey
	}
	return filepath.Join(s.Dir, filepath.FromSlash(key)), nil
}
