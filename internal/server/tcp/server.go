// Package tcp serves the main file-sharing protocol and the notification
// side-channel over framed TCP connections.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/dmitrijs2005/gophshare/internal/logging"
)

// Server runs one goroutine per accepted connection. Connections of both
// listeners are tracked so shutdown can close them.
type Server struct {
	svc    *Services
	logger logging.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(svc *Services, l logging.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: l.With("module", "tcp_server"),
		conns:  make(map[net.Conn]struct{}),
	}
}

// ServeProtocol accepts main-port clients on ln until ctx ends.
func (s *Server) ServeProtocol(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, ln, "protocol", s.handleClient)
}

// ServeNotify accepts notification clients on ln until ctx ends.
func (s *Server) ServeNotify(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, ln, "notify", s.handleNotifier)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, name string, handle func(context.Context, net.Conn)) error {
	log := s.logger.With("listener", name)
	log.Info(ctx, "Starting listener", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info(ctx, "Listener stopped")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			defer conn.Close()

			handle(ctx, conn)
		}()
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Shutdown closes every live connection and waits for their tasks to
// finish or for ctx to end. No new connections are accepted afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	s.svc.Hub.CloseAll()
	for c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
