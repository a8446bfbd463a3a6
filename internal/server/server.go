// Package server implements the Connection Acceptor: it listens for ingestion
// connections, serves each on its own goroutine and runs the pattern scanner
// alongside them.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dreamware/bookd/internal/ingest"
	"github.com/dreamware/bookd/internal/logger"
	"github.com/dreamware/bookd/internal/metrics"
	"github.com/dreamware/bookd/internal/scanner"
)

// maxAcceptDelay caps the backoff after transient accept errors
const maxAcceptDelay = time.Second

// ConnHandler serves one connection and closes it.
type ConnHandler interface {
	Handle(conn net.Conn) ingest.Summary
}

// Server accepts connections and dispatches them to a ConnHandler.
//
// Lifecycle:
//
//	srv := server.New(":9000", handler, sc)
//	if err := srv.Listen(); err != nil { ... }   // bind failure is fatal
//	err := srv.Serve(ctx)                         // blocks until ctx ends or accept fails
//	srv.Shutdown()                                // close conns, stop scanner, join
type Server struct {
	addr     string
	handler  ConnHandler
	scanner  *scanner.Scanner
	log      *logrus.Entry
	mu       sync.Mutex            // Protects listener and conns
	listener net.Listener
	conns    map[net.Conn]struct{} // Open connections
	wg       sync.WaitGroup        // Connection goroutines
	scanWG   sync.WaitGroup        // Scanner goroutine
	scanOnce sync.Once
}

// New creates a server for addr (host:port). sc may be nil to run without a scanner.
func New(addr string, handler ConnHandler, sc *scanner.Scanner) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		scanner: sc,
		log:     logger.GetLogger("server"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listening on %s", s.addr)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Infof("Server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve starts the scanner once and accepts connections until ctx is canceled
// (returns nil) or accepting fails with a non-transient error (returns it).
// Listen must have been called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return pkgerrors.New("server is not listening")
	}

	s.startScanner(ctx)

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if isTransient(err) {
				delay = backoff(delay)
				metrics.AcceptErrors.Inc()
				s.log.WithError(err).Warnf("Accept failed, retrying in %v", delay)
				time.Sleep(delay)
				continue
			}
			return pkgerrors.Wrap(err, "accepting connection")
		}
		delay = 0

		metrics.ConnectionsTotal.Inc()
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handler.Handle(conn)
		}()
	}
}

// Shutdown closes the listener and every open connection, stops the scanner
// and waits for connection goroutines. Handlers still export what they
// received before their connection was closed.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if s.scanner != nil {
		s.scanner.Stop()
	}
	s.scanWG.Wait()
	s.wg.Wait()
	s.log.Info("Server stopped")
}

func (s *Server) startScanner(ctx context.Context) {
	if s.scanner == nil {
		return
	}
	s.scanOnce.Do(func() {
		s.scanWG.Add(1)
		go func() {
			defer s.scanWG.Done()
			s.scanner.Start(ctx)
		}()
	})
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// isTransient reports whether an accept error affects only one attempt.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET)
}

func backoff(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}
	delay *= 2
	if delay > maxAcceptDelay {
		delay = maxAcceptDelay
	}
	return delay
}
