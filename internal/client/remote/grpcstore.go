// Package remote implements store.Store on top of the DocumentStore gRPC
// service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/rpc"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ store.Store = (*GRPCStore)(nil)

// GRPCStore is a remote document store client. Every call carries the
// access token and is bounded by the configured timeout.
type GRPCStore struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *rpc.DocumentStoreClient
	accessToken string
	timeout     time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCStore) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCStore connects lazily to endpointURL. Extra dial options are
// appended after the defaults, which use insecure transport credentials.
func NewGRPCStore(endpointURL, accessToken string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCStore, error) {
	s := &GRPCStore{endpointURL: endpointURL, accessToken: accessToken, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.client = rpc.NewDocumentStoreClient(conn)
	return s, nil
}

func (s *GRPCStore) Close() error {
	return s.conn.Close()
}

func (s *GRPCStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx)
	if err != nil {
		return mapError(err)
	}
	if resp.AsMap()["status"] != "OK" {
		return common.ErrRemoteUnavailable
	}
	return nil
}

func (s *GRPCStore) call(ctx context.Context, method string, r rpc.Request) (*structpb.Struct, error) {
	req, err := rpc.EncodeRequest(r)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Call(ctx, method, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCStore) Get(ctx context.Context, path string) (*store.Document, error) {
	resp, err := s.call(ctx, rpc.MethodGet, rpc.Request{Path: path})
	if err != nil {
		return nil, err
	}
	return rpc.DecodeDocument(resp)
}

func (s *GRPCStore) Set(ctx context.Context, path string, fields map[string]any) (int64, error) {
	resp, err := s.call(ctx, rpc.MethodSet, rpc.Request{Path: path, Fields: fields})
	if err != nil {
		return 0, err
	}
	return rpc.DecodeVersion(resp), nil
}

func (s *GRPCStore) Update(ctx context.Context, path string, fields map[string]any) (int64, error) {
	resp, err := s.call(ctx, rpc.MethodUpdate, rpc.Request{Path: path, Fields: fields})
	if err != nil {
		return 0, err
	}
	return rpc.DecodeVersion(resp), nil
}

func (s *GRPCStore) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	resp, err := s.call(ctx, rpc.MethodCompareAndSet, rpc.Request{Path: path, Fields: fields, Version: version})
	if err != nil {
		return 0, err
	}
	return rpc.DecodeVersion(resp), nil
}

func (s *GRPCStore) Push(ctx context.Context, parent string, fields map[string]any) (string, error) {
	resp, err := s.call(ctx, rpc.MethodPush, rpc.Request{Path: parent, Fields: fields})
	if err != nil {
		return "", err
	}
	return rpc.DecodeID(resp), nil
}

func (s *GRPCStore) List(ctx context.Context, parent string) ([]*store.Document, error) {
	resp, err := s.call(ctx, rpc.MethodList, rpc.Request{Path: parent})
	if err != nil {
		return nil, err
	}
	return rpc.DecodeDocuments(resp)
}

// mapError converts gRPC statuses to the common sentinels. Errors that are
// not statuses are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.Aborted:
		return fmt.Errorf("%w: %s", common.ErrVersionConflict, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrForbidden, st.Message())
	case codes.Canceled:
		return errors.Join(context.Canceled, common.ErrRemoteUnavailable)
	default:
		return fmt.Errorf("%w: %s", common.ErrRemoteUnavailable, st.Message())
	}
}
