package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener the server accepts on, with or without TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with a graceful stop bounded by ctx.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
