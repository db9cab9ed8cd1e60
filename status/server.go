package status

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/vi-orbit/core"
)

// ServiceName identifies the metrics endpoint in the service hub
const ServiceName = "metrics"

// Server exposes a Registry on /metrics in the Prometheus text format
type Server struct {
	addr    string
	handler http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewServer builds the endpoint; addr is a host:port, port 0 picks a free one
func NewServer(addr string, reg *Registry) *Server {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		NewCollector("vi_orbit", reg),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	return &Server{addr: addr, handler: mux}
}

func (s *Server) Name() string           { return ServiceName }
func (s *Server) Dependencies() []string { return nil }

// Handler returns the HTTP handler, usable without Start
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.addr, err)
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	s.srv, s.listener = srv, ln

	core.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[METRICS] serve: %v", err)
		}
	})
	log.Printf("[METRICS] listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, empty before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down; safe to call repeatedly
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
