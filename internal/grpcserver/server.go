package grpcserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"apexcarousel/internal/carousel"
	"apexcarousel/pkg/models"
)

type Server struct {
	Svc *carousel.Service
}

func NewServer(svc *carousel.Service) *Server {
	return &Server{Svc: svc}
}

func (s *Server) FetchURL(ctx context.Context, req *FetchURLRequest) (*models.FetchResult, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, carousel.MsgURLRequired)
	}
	res, err := s.Svc.FetchURL(ctx, req.URL)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *Server) GenerateCarousel(ctx context.Context, req *models.GenerationRequest) (*GenerateCarouselResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, carousel.MsgFieldsRequired)
	}
	content, err := s.Svc.Generate(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GenerateCarouselResponse{Content: content}, nil
}

func toStatus(err error) error {
	var ce *carousel.Error
	if !errors.As(err, &ce) {
		return status.Error(codes.Internal, carousel.MsgInternal)
	}
	switch ce.Status {
	case http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, ce.Message)
	case http.StatusTooManyRequests:
		return status.Error(codes.ResourceExhausted, ce.Message)
	default:
		return status.Error(codes.Internal, ce.Message)
	}
}

// LoggingInterceptor logs one line per unary call.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Warn("grpc call", fields...)
		} else {
			log.Info("grpc call", fields...)
		}
		return resp, err
	}
}
