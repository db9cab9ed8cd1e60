// Package control accepts simulation commands over a websocket
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/core"
	"github.com/lixenwraith/vi-orbit/event"
	"github.com/lixenwraith/vi-orbit/status"
)

// ServiceName identifies the control endpoint in the service hub
const ServiceName = "control"

// Sink receives commands; engine.Simulation satisfies it
type Sink interface {
	Push(cmd event.Command)
	Speed() float64
}

// Options tune a Server; zero fields take the package defaults
type Options struct {
	Rate         float64 // Commands per second per connection
	Burst        int
	ReplyTimeout time.Duration
	Status       *status.Registry
}

// Server serves /ws; each connection gets its own rate limiter and is answered in order
type Server struct {
	addr    string
	sink    Sink
	opts    Options
	handler http.Handler

	upgrader websocket.Upgrader
	rejected *atomic.Int64

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	conns    map[*websocket.Conn]struct{}
	done     chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewServer builds the endpoint; addr is a host:port, port 0 picks a free one
func NewServer(addr string, sink Sink, opts Options) *Server {
	if opts.Rate <= 0 {
		opts.Rate = constant.ControlRateLimit
	}
	if opts.Burst < 1 {
		opts.Burst = constant.ControlBurst
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = constant.ControlReplyTimeout
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}

	s := &Server{
		addr: addr,
		sink: sink,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rejected: opts.Status.Ints.Get(status.KeyControlRejected),
		conns:    make(map[*websocket.Conn]struct{}),
		done:     make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.handler = mux
	return s
}

func (s *Server) Name() string           { return ServiceName }
func (s *Server) Dependencies() []string { return []string{"simulation"} }

// Handler returns the HTTP handler, usable without Start
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil
	}
	if s.closed {
		return fmt.Errorf("control: server stopped")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control listen %s: %w", s.addr, err)
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	s.srv, s.listener = srv, ln

	core.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[CONTROL] serve: %v", err)
		}
	})
	log.Printf("[CONTROL] listening on %s", ln.Addr())
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

// Stop closes the listener and every open connection, then waits for their handlers
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.listener = nil, nil
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// track registers a live connection; false once the server is stopping
func (s *Server) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[CONTROL] upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	log.Printf("[CONTROL] client %s connected", r.RemoteAddr)
	s.session(conn)
	log.Printf("[CONTROL] client %s disconnected", r.RemoteAddr)
}

// session reads requests until the peer leaves, answering each one in order
func (s *Server) session(conn *websocket.Conn) {
	conn.SetReadLimit(constant.ControlReadLimit)
	limiter := rate.NewLimiter(rate.Limit(s.opts.Rate), s.opts.Burst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[CONTROL] read: %v", err)
			}
			return
		}

		err = s.handle(limiter, data)
		reply := Reply{OK: err == nil, Speed: s.sink.Speed()}
		if err != nil {
			reply.Error = err.Error()
		}

		conn.SetWriteDeadline(time.Now().Add(constant.ControlWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("[CONTROL] write: %v", err)
			return
		}
	}
}

// handle runs one request through the limiter and the simulation
func (s *Server) handle(limiter *rate.Limiter, data []byte) error {
	if !limiter.Allow() {
		s.rejected.Add(1)
		return ErrRateLimited
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	cmd, err := req.ToCommand()
	if err != nil {
		return err
	}

	reply := make(chan error, 1)
	cmd.Reply = reply
	s.sink.Push(cmd)

	timer := time.NewTimer(s.opts.ReplyTimeout)
	defer timer.Stop()

	select {
	case err := <-reply:
		return err
	case <-timer.C:
		return ErrTimeout
	case <-s.done:
		return ErrTimeout
	}
}
