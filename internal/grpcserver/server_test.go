package grpcserver

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"apexcarousel/internal/carousel"
	"apexcarousel/internal/llm"
	"apexcarousel/pkg/models"
)

type stubFetcher struct{}

func (stubFetcher) FetchAndExtract(_ context.Context, url string) (models.ExtractionResult, error) {
	return models.ExtractionResult{Text: "text of " + url, Title: "A page"}, nil
}

func dial(t *testing.T, gen llm.Generator) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(zap.NewNop())))
	Register(srv, NewServer(carousel.NewService(stubFetcher{}, gen, nil)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestFetchURL(t *testing.T) {
	c := dial(t, nil)

	res, err := c.FetchURL(context.Background(), &FetchURLRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "text of https://example.com", res.Text)
	assert.Equal(t, "A page", res.Title)
	assert.Equal(t, "https://example.com", res.URL)

	_, err = c.FetchURL(context.Background(), &FetchURLRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, carousel.MsgURLRequired, status.Convert(err).Message())
}

func TestGenerateCarousel(t *testing.T) {
	want := models.CarouselContent{
		Slides:        []models.CarouselSlide{{SlideNumber: 1, Title: "T", Content: "C"}},
		Caption:       "cap",
		PinnedComment: "pin",
		Hooks:         []string{"h"},
	}
	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) {
		b, _ := json.Marshal(want)
		return string(b), nil
	})
	c := dial(t, gen)

	resp, err := c.GenerateCarousel(context.Background(), &models.GenerationRequest{InputText: "abc", Style: models.StyleKoe})
	require.NoError(t, err)
	assert.Equal(t, want, *resp.Content)

	_, err = c.GenerateCarousel(context.Background(), &models.GenerationRequest{InputText: "abc", Style: "bogus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, carousel.MsgInvalidStyle, status.Convert(err).Message())
}

func TestGenerateCarouselUpstreamCodes(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{&llm.StatusError{StatusCode: 429}, codes.ResourceExhausted, carousel.MsgBusy},
		{&llm.StatusError{StatusCode: 401}, codes.Internal, carousel.MsgAuthFailed},
		{context.DeadlineExceeded, codes.Internal, carousel.MsgInternal},
	}
	for _, tc := range cases {
		c := dial(t, llm.GeneratorFunc(func(context.Context, string) (string, error) { return "", tc.err }))
		_, err := c.GenerateCarousel(context.Background(), &models.GenerationRequest{InputText: "abc", Style: models.StyleWelsh})
		assert.Equal(t, tc.code, status.Code(err))
		assert.Equal(t, tc.msg, status.Convert(err).Message())
	}
}
