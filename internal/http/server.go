// Package http arma y corre el servidor del servicio.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/workplane/internal/observability/logger"
)

// Server envuelve http.Server con arranque y apagado controlados.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start bloquea hasta que el listener cierre.
func (s *Server) Start() error {
	logger.Named("http").Info("server listening", logger.Any("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drena las conexiones en curso y cierra.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Named("http").Info("server shutting down")
	return s.srv.Shutdown(ctx)
}
