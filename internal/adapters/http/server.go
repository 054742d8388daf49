// Package http is the gin adapter of the dealflow API: server lifecycle,
// routing and the middleware chain.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/JxWayne890/dealflow/internal/platform/config"
)

const defaultDrainTimeout = 10 * time.Second

// Server owns the gin engine and the listener in front of it.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	drain  time.Duration
	logger *slog.Logger
}

// New builds a server from cfg. Routes are mounted on Engine afterwards.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(limitBody(cfg.MaxRequestSize))

	drain := cfg.ShutdownTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           engine,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		drain:  drain,
		logger: logger,
	}
}

// Engine is the router routes are registered on.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests. A deduplication pass still running when the drain
// window closes sees its context cancelled and reports what it finished.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening",
			slog.String("addr", s.srv.Addr),
			slog.Duration("write_timeout", s.srv.WriteTimeout),
		)

		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
		defer cancel()

		return s.Shutdown(drainCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("http server stopped")

	return nil
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
