package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	connTimeout        = 5 * time.Second
	maxConcurrentConns = 8
)

// Server accepts activation requests on a per-user local endpoint: a named
// pipe on Windows, a unix socket elsewhere.
type Server struct {
	address string
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listener  net.Listener
	started   bool
	wg        sync.WaitGroup
	connSlots chan struct{}
}

// NewServer creates a server for address. An empty address selects
// DefaultAddress.
func NewServer(address string, handler Handler) *Server {
	if address == "" {
		address = DefaultAddress()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address:   address,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		connSlots: make(chan struct{}, maxConcurrentConns),
	}
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.address
}

// Start begins accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("ipc server already started")
	}
	if s.handler == nil {
		return errors.New("ipc server requires a handler")
	}

	listener, err := listen(s.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.address, err)
	}
	s.listener = listener
	s.started = true
	s.wg.Go(s.acceptLoop)
	slog.Debug("[ipc] server listening", "address", s.address)
	return nil
}

// Stop closes the listener and waits for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	failures := 0
	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			failures++
			if failures > 10 {
				slog.Warn("[ipc] accept keeps failing", "error", err, "count", failures)
				time.Sleep(500 * time.Millisecond)
			}
			continue
		}
		failures = 0

		select {
		case s.connSlots <- struct{}{}:
		default:
			slog.Warn("[ipc] too many concurrent clients, rejecting")
			_ = writeFrame(conn, ErrorResponse("server busy"))
			_ = conn.Close()
			continue
		}
		s.wg.Go(func() {
			defer func() { <-s.connSlots }()
			s.serve(conn)
		})
	}
}

// serve handles one request per connection.
func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		slog.Debug("[ipc] failed to set connection deadline", "error", err)
	}

	raw, err := readFrame(newFrameReader(conn))
	if errors.Is(err, io.EOF) {
		return
	}
	var resp Response
	if err != nil {
		resp = ErrorResponse("invalid request: %v", err)
	} else if req, decodeErr := decodeRequest(raw); decodeErr != nil {
		resp = ErrorResponse("invalid request: %v", decodeErr)
	} else {
		slog.Debug("[ipc] request received", "command", req.Command)
		resp = s.handler.Handle(req)
	}

	if err := writeFrame(conn, resp); err != nil {
		slog.Debug("[ipc] failed to write response", "error", err)
	}
}
