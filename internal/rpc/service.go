// Package rpc describes the DocumentStore gRPC service shared by the server
// and the client. Messages are google.protobuf.Struct envelopes, so the
// service descriptor is maintained by hand instead of generated from .proto
// files.
//
// Request envelope:  {"path": string, "fields": object, "version": number}
// Document envelope: {"path": string, "fields": object, "version": number}
// List envelope:     {"documents": [document envelope, ...]}
// Push reply:        {"id": string}
// Write reply:       {"version": number}
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "dmoclinic.store.DocumentStore"

// Method names, also used as metric labels.
const (
	MethodPing          = "Ping"
	MethodGet           = "Get"
	MethodSet           = "Set"
	MethodUpdate        = "Update"
	MethodCompareAndSet = "CompareAndSet"
	MethodPush          = "Push"
	MethodList          = "List"
)

// FullMethod returns the "/service/method" form used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// DocumentStoreServer is implemented by the server-side handler.
type DocumentStoreServer interface {
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Set(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareAndSet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Push(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterDocumentStoreServer registers srv with s.
func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for DocumentStore.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodPing, Handler: pingHandler},
		structMethod(MethodGet, DocumentStoreServer.Get),
		structMethod(MethodSet, DocumentStoreServer.Set),
		structMethod(MethodUpdate, DocumentStoreServer.Update),
		structMethod(MethodCompareAndSet, DocumentStoreServer.CompareAndSet),
		structMethod(MethodPush, DocumentStoreServer.Push),
		structMethod(MethodList, DocumentStoreServer.List),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dmoclinic/store/document_store",
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(MethodPing)}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentStoreServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func structMethod(name string, call func(DocumentStoreServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DocumentStoreServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DocumentStoreServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DocumentStoreClient is the client stub for DocumentStore.
type DocumentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) *DocumentStoreClient {
	return &DocumentStoreClient{cc: cc}
}

func (c *DocumentStoreClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(MethodPing), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Call invokes one of the Struct-typed methods.
func (c *DocumentStoreClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
