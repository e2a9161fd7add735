package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/rpc"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"google.golang.org/grpc"
)

// documentSvc is the policy-enforcing document service the handlers call.
type documentSvc interface {
	Get(ctx context.Context, id authx.Identity, path string) (*store.Document, error)
	List(ctx context.Context, id authx.Identity, parent string) ([]*store.Document, error)
	Set(ctx context.Context, id authx.Identity, path string, fields map[string]any) (int64, error)
	Update(ctx context.Context, id authx.Identity, path string, fields map[string]any) (int64, error)
	CompareAndSet(ctx context.Context, id authx.Identity, path string, fields map[string]any, version int64) (int64, error)
	Push(ctx context.Context, id authx.Identity, parent string, fields map[string]any) (string, error)
}

type GRPCServer struct {
	address      string
	documents    documentSvc
	logger       logging.Logger
	jwtSecret    []byte
	interceptors []grpc.UnaryServerInterceptor
}

var _ rpc.DocumentStoreServer = (*GRPCServer)(nil)

// NewGRPCServer builds the server. Extra interceptors run before the access
// token check, so metrics also see rejected calls.
func NewGRPCServer(a string, l logging.Logger, ds documentSvc, secretKey string, interceptors ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		documents:    ds,
		jwtSecret:    []byte(secretKey),
		interceptors: interceptors,
	}
}

// NewServer creates a grpc.Server with the interceptor chain and the
// DocumentStore service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	chain := append(append([]grpc.UnaryServerInterceptor{}, s.interceptors...), s.accessTokenInterceptor)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	rpc.RegisterDocumentStoreServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(l); err != nil {
		return err
	}

	return nil
}
