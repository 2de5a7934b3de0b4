package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"net"
	"net/http"
	"strconv"
	"time"
)

//go:generate mockgen -destination=./server_mock.go -package=server -source=server.go

const (
	serverName      = "LiteTable metrics server"
	shutdownTimeout = 5 * time.Second
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Server exposes the call metrics at /metrics and a liveness probe at /health.
type Server struct {
	address string
	port    int
	server  httpServer
}

type Config struct {
	Address string
	Port    int
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

func (c *Config) validate() error {
	var errGrp []error

	if c.Address == "" {
		errGrp = append(errGrp, errors.New("address is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errGrp = append(errGrp, errors.New("port must be between 1 and 65535"))
	}

	return errors.Join(errGrp...)
}

// New returns a metrics server. Nothing is listening until Start is called.
func New(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", health)

	return &Server{
		address: cfg.Address,
		port:    cfg.Port,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Int("port", s.port).Msg("metrics server listening")
	err := s.server.ListenAndServe()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("metrics server: %w", err)
}

// Stop waits for in-flight requests to finish.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}
	return nil
}

// Name returns the name of the server.
func (s *Server) Name() string {
	return serverName
}
