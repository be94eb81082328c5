package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.Server = (*GRPCServer)(nil)

// GRPCServer runs a gRPC server on a fixed address.
type GRPCServer struct {
	server *grpc.Server
	addr   string
}

func NewGRPCServer(server *grpc.Server, addr string) *GRPCServer {
	return &GRPCServer{server: server, addr: addr}
}

// Start listens through securityLayer and serves until Stop is called.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	if err := s.server.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop drains in-flight calls and force-closes the rest once ctx is done.
// Open approval watch streams only end on the forced close.
func (s *GRPCServer) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-done
		return fmt.Errorf("forced shutdown: %w", ctx.Err())
	}
}

func (s *GRPCServer) Address() string {
	return s.addr
}
