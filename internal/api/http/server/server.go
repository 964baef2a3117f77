package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
)

const readHeaderTimeout = 30 * time.Second

// HTTPServer wraps http.Server behind the transport-server lifecycle.
type HTTPServer struct {
	server *http.Server
	addr   string
	logger *logger.Logger
}

var _ model.Server = (*HTTPServer)(nil)

// NewHTTPServer creates a new HTTPServer serving h on addr.
func NewHTTPServer(h http.Handler, addr string, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		addr:   addr,
		logger: logger,
	}
}

// Start binds through the security layer and serves until Stop is
// called. A clean shutdown returns nil.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.logger.Info("HTTP server listening", "address", s.addr)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// up to the context deadline.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.addr
}
