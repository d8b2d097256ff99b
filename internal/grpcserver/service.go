package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"apexcarousel/pkg/models"
)

const serviceName = "apexcarousel.CarouselService"

type FetchURLRequest struct {
	URL string `json:"url"`
}

type GenerateCarouselResponse struct {
	Content *models.CarouselContent `json:"content"`
}

type CarouselServer interface {
	FetchURL(context.Context, *FetchURLRequest) (*models.FetchResult, error)
	GenerateCarousel(context.Context, *models.GenerationRequest) (*GenerateCarouselResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CarouselServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchURL", Handler: fetchURLHandler},
		{MethodName: "GenerateCarousel", Handler: generateCarouselHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "apexcarousel/carousel",
}

func Register(s grpc.ServiceRegistrar, srv CarouselServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fetchURLHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FetchURLRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarouselServer).FetchURL(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FetchURL"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CarouselServer).FetchURL(ctx, req.(*FetchURLRequest))
	})
}

func generateCarouselHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.GenerationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CarouselServer).GenerateCarousel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GenerateCarousel"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CarouselServer).GenerateCarousel(ctx, req.(*models.GenerationRequest))
	})
}

// Client calls CarouselService using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) FetchURL(ctx context.Context, in *FetchURLRequest, opts ...grpc.CallOption) (*models.FetchResult, error) {
	out := new(models.FetchResult)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/FetchURL", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GenerateCarousel(ctx context.Context, in *models.GenerationRequest, opts ...grpc.CallOption) (*GenerateCarouselResponse, error) {
	out := new(GenerateCarouselResponse)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GenerateCarousel", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
