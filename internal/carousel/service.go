package carousel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"apexcarousel/internal/llm"
	"apexcarousel/internal/prompt"
	"apexcarousel/pkg/models"
)

const DefaultTimeout = 30 * time.Second

type URLFetcher interface {
	FetchAndExtract(ctx context.Context, url string) (models.ExtractionResult, error)
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	Fetcher   URLFetcher
	Generator llm.Generator
	Log       *zap.Logger
	// Timeout bounds the AI call. Page fetches are bounded by the fetcher's client.
	Timeout time.Duration
}

func NewService(f URLFetcher, g llm.Generator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Fetcher: f, Generator: g, Log: log, Timeout: DefaultTimeout}
}

// FetchURL downloads url and returns its extracted text. An empty title
// becomes "Untitled".
func (s *Service) FetchURL(ctx context.Context, url string) (res models.FetchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("fetch-url panic", zap.Any("panic", r), zap.String("url", url))
			err = internal(fmt.Sprintf("Internal server error: %v", r), nil)
		}
	}()

	if url == "" {
		return models.FetchResult{}, badRequest(MsgURLRequired)
	}

	out, ferr := s.Fetcher.FetchAndExtract(ctx, url)
	if ferr != nil {
		s.Log.Warn("fetch failed", zap.String("url", url), zap.Error(ferr))
		return models.FetchResult{}, internal("Failed to fetch URL: "+ferr.Error(), ferr)
	}

	title := out.Title
	if title == "" {
		title = "Untitled"
	}
	return models.FetchResult{Text: out.Text, Title: title, URL: url}, nil
}

// Validate checks a generation request in the order callers rely on:
// required fields first, then the style enum.
func Validate(req models.GenerationRequest) error {
	if req.InputText == "" || req.Style == "" {
		return badRequest(MsgFieldsRequired)
	}
	if !req.Style.Valid() {
		return badRequest(MsgInvalidStyle)
	}
	return nil
}

// Generate builds the prompt, makes one AI call and parses the result.
// Every failure is an *Error.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (content *models.CarouselContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("generate-carousel panic", zap.Any("panic", r))
			content, err = nil, internal(MsgInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := Validate(req); err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := prompt.Build(req.InputText, req.Style, req.UserVoiceSamples)
	start := time.Now()
	raw, gerr := s.Generator.Generate(callCtx, p)
	if gerr != nil {
		return nil, s.upstreamError(gerr)
	}
	s.Log.Info("ai response received",
		zap.String("style", string(req.Style)),
		zap.Int("length", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)

	parsed, perr := Parse(raw)
	if perr != nil {
		s.Log.Warn("ai response rejected", zap.Error(perr))
		return nil, internal(MsgParseFailed, perr)
	}
	return parsed, nil
}

func (s *Service) upstreamError(err error) error {
	var se *llm.StatusError
	if !errors.As(err, &se) {
		s.Log.Error("ai call failed", zap.Error(err))
		return internal(MsgInternal, err)
	}
	s.Log.Error("ai service error", zap.Int("status", se.StatusCode), zap.String("detail", se.Message))
	switch se.StatusCode {
	case http.StatusUnauthorized:
		return internal(MsgAuthFailed, err)
	case http.StatusTooManyRequests:
		return &Error{Status: http.StatusTooManyRequests, Message: MsgBusy, Err: err}
	default:
		return internal(MsgGenerateFailed, err)
	}
}
