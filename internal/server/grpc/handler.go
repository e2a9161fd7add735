package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"status": structpb.NewStringValue("OK"),
	}}, nil
}

func (s *GRPCServer) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	doc, err := s.documents.Get(ctx, identityFromContext(ctx), r.Path)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	resp, err := rpc.EncodeDocument(doc)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) Set(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	v, err := s.documents.Set(ctx, identityFromContext(ctx), r.Path, r.Fields)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return rpc.EncodeVersion(v), nil
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	v, err := s.documents.Update(ctx, identityFromContext(ctx), r.Path, r.Fields)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return rpc.EncodeVersion(v), nil
}

func (s *GRPCServer) CompareAndSet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	v, err := s.documents.CompareAndSet(ctx, identityFromContext(ctx), r.Path, r.Fields, r.Version)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return rpc.EncodeVersion(v), nil
}

func (s *GRPCServer) Push(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	id, err := s.documents.Push(ctx, identityFromContext(ctx), r.Path, r.Fields)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return rpc.EncodeID(id), nil
}

func (s *GRPCServer) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRequest(req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	docs, err := s.documents.List(ctx, identityFromContext(ctx), r.Path)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	resp, err := rpc.EncodeDocuments(docs)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return resp, nil
}

// mapError converts service errors to gRPC statuses. Unexpected errors are
// logged and reported as Internal without details.
func (s *GRPCServer) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
