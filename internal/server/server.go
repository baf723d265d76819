// Package server exposes the conversion core over HTTP: upload a document,
// stream back the converted artifact. The request layer applies no
// concurrency control of its own; the converter's fixed worker pool is the
// sole backpressure point.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	docconv "github.com/alnah/go-docconv"
	"github.com/alnah/go-docconv/internal/config"
)

// DocumentConverter is the slice of the conversion core the HTTP layer
// needs. Tests substitute a stub.
type DocumentConverter interface {
	Convert(ctx context.Context, filename string, payload []byte) (*docconv.Result, error)
	ConvertBatch(ctx context.Context, items []docconv.BatchItem) []docconv.Outcome
	Workers() int
	InputFormats() []string
	OutputFormat() string
	MaxFileSize() int64
}

// Server serves the conversion API.
type Server struct {
	cfg    config.ServerConfig
	conv   DocumentConverter
	logger *zap.Logger
	http   *http.Server
}

// New wires a Server around a converter.
func New(cfg config.ServerConfig, conv DocumentConverter, logger *zap.Logger) *Server {
	s := &Server{cfg: cfg, conv: conv, logger: logger}
	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

// Run listens until the context is canceled, then shuts down gracefully:
// in-flight requests (and their conversions) get the configured shutdown
// window to finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", time.Duration(s.cfg.ShutdownTimeout)*time.Second))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
