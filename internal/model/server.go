package model

import (
	"context"
	"net"
)

// SecurityLayer produces the network listener the server binds to,
// either plain TCP or TLS depending on deployment configuration.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a transport server with a lifecycle.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
