package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(codec{})
}

const serviceName = "tysketch.SketchService"

// SketchServiceServer is the interface implementers of SketchService must
// satisfy.
type SketchServiceServer interface {
	BuildSketches(context.Context, *FixtureBatch) (*SketchBatch, error)
}

func buildSketchesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(FixtureBatch)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SketchServiceServer).BuildSketches(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/BuildSketches"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SketchServiceServer).BuildSketches(ctx, req.(*FixtureBatch))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is the hand-written grpc.ServiceDesc for SketchService,
// standing in for a .proto-generated one.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SketchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BuildSketches", Handler: buildSketchesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpc/service.go",
}

// RegisterSketchServiceServer registers srv on s.
func RegisterSketchServiceServer(s *grpc.Server, srv SketchServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// SketchServiceClient calls a remote SketchService over conn.
type SketchServiceClient struct {
	conn *grpc.ClientConn
}

// NewSketchServiceClient wraps an established connection.
func NewSketchServiceClient(conn *grpc.ClientConn) *SketchServiceClient {
	return &SketchServiceClient{conn: conn}
}

// BuildSketches invokes the remote BuildSketches method using this
// package's wire codec.
func (c *SketchServiceClient) BuildSketches(ctx context.Context, req *FixtureBatch) (*SketchBatch, error) {
	reply := new(SketchBatch)
	err := c.conn.Invoke(ctx, "/"+serviceName+"/BuildSketches", req, reply, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	return reply, nil
}
