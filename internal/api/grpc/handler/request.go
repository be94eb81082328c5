package handler

import (
	"context"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/dtroode/securemail-server/internal/model"
)

// clientInfo describes the connection behind ctx for the security log.
func clientInfo(ctx context.Context) model.ClientInfo {
	var info model.ClientInfo
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := md.Get("user-agent"); len(ua) > 0 {
			info.UserAgent = ua[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		info.IPAddress = hostOnly(p.Addr.String())
	}
	return info
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s: must be a uuid", field)
	}
	return id, nil
}

func requireCaller(ctx context.Context, cm model.ContextManager) (model.Caller, error) {
	caller, ok := cm.GetCallerFromContext(ctx)
	if !ok {
		return model.Caller{}, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return caller, nil
}
