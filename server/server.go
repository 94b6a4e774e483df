// Package server implements the async Diameter server: each accepted
// connection is served by its own goroutine, strictly sequential by
// default (read request, dispatch to the handler, write response, repeat).
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/direrr"
	"github.com/cariboulabs/diameter/message"
	"github.com/cariboulabs/diameter/state"
	"github.com/cariboulabs/diameter/transport"
)

const defaultServerAddr = "localhost:3868"

// Handler processes one decoded request and returns the response to write
// back, or an error. A nil, nil return is a deliberate no-response (the
// connection keeps waiting for the next request without writing anything).
type Handler func(req *message.DiameterMessage) (*message.DiameterMessage, error)

// ErrorSink receives handler and transport errors that aren't otherwise
// returned to a caller, keyed by the offending connection's remote address.
type ErrorSink func(remoteAddr string, err error)

type ServerOption func(*serverOptions)

type serverOptions struct {
	serverAddr string
	network    transport.Network
	tlsConfig  *tls.Config
	dict       *dictionary.Dictionary
	logger     log.Logger
	errorSink  ErrorSink
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		serverAddr: defaultServerAddr,
		network:    transport.NetworkTCP,
		logger:     log.NewNopLogger(),
		errorSink:  func(string, error) {},
	}
}

func WithServerAddr(addr string) ServerOption {
	return func(o *serverOptions) { o.serverAddr = addr }
}

func WithSCTP() ServerOption {
	return func(o *serverOptions) { o.network = transport.NetworkSCTP }
}

func WithTCP() ServerOption {
	return func(o *serverOptions) { o.network = transport.NetworkTCP }
}

// WithTLS enables TLS for the listener, handshaking immediately after
// accept. cfg must carry a server identity (certificate).
func WithTLS(cfg *tls.Config) ServerOption {
	return func(o *serverOptions) { o.tlsConfig = cfg }
}

// WithDictionary supplies the AVP dictionary used to decode requests.
// Defaults to dictionary.Base() when not set.
func WithDictionary(d *dictionary.Dictionary) ServerOption {
	return func(o *serverOptions) { o.dict = d }
}

func WithLogger(logger log.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = logger }
}

// WithErrorSink configures where handler and per-connection transport
// errors are surfaced; it defaults to a no-op.
func WithErrorSink(sink ErrorSink) ServerOption {
	return func(o *serverOptions) { o.errorSink = sink }
}

// Server accepts Diameter connections and dispatches each decoded request
// to a Handler. The zero value is not usable; construct with NewServer.
type Server struct {
	serverOptions

	mu       sync.Mutex
	listener *transport.Listener
	conns    map[*transport.Conn]struct{}
}

func NewServer(opts ...ServerOption) *Server {
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{serverOptions: o, conns: make(map[*transport.Conn]struct{})}
}

// Listen binds the listening socket without serving it, so a caller can
// read the bound Addr() (e.g. to discover an ephemeral port) before
// connections start arriving. Serve calls this automatically if the server
// isn't already listening; ListenAndServe always calls it, so it returns
// ErrAlreadyServing after an earlier Listen. Calling Listen twice on the
// same Server returns ErrAlreadyServing.
func (s *Server) Listen() error {
	s.mu.Lock()
	alreadyListening := s.listener != nil
	s.mu.Unlock()
	if alreadyListening {
		return ErrAlreadyServing
	}

	if s.dict == nil {
		d, err := dictionary.Base()
		if err != nil {
			return fmt.Errorf("server: loading base dictionary: %w", err)
		}
		s.dict = d
	}

	ln, err := transport.Listen(s.network, s.serverAddr, s.tlsConfig, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Serve runs the accept loop against the bound listener (calling Listen
// first if none is bound) until ctx is cancelled. Cancelling ctx stops
// accepting new connections and closes every connection's socket once its
// current handler invocation (if any) returns; Serve then returns nil. A
// listener-level failure returns its error once the connections already
// being served have ended; those connections are not closed by Serve.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.listener
		s.mu.Unlock()
	}
	defer ln.Close()

	shuttingDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(shuttingDown)
		ln.Close()
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			select {
			case <-shuttingDown:
				return nil
			default:
				return err
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(conn, handler)
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
	}
}

// ListenAndServe is Listen followed by Serve; most callers that don't need
// to observe the bound address before serving can call this directly.
func (s *Server) ListenAndServe(ctx context.Context, handler Handler) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx, handler)
}

// serveConn runs the Accepted -> Reading-Header -> Reading-Body ->
// Dispatching -> Writing -> Reading-Header cycle for one connection until a
// transport error or a closed socket ends it.
func (s *Server) serveConn(conn *transport.Conn, handler Handler) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	level.Debug(s.logger).Log("msg", "connection accepted", "remote_addr", remote)

	fsm := state.NewConnectionFSM()
	s.trigger(fsm, state.EventAccepted, remote)

	for {
		s.trigger(fsm, state.EventBeginRead, remote)

		req, err := conn.ReadMessage(s.dict)
		if err != nil {
			if direrr.KindOf(err) != direrr.KindConnectionClosed {
				s.errorSink(remote, err)
			}
			fsm.SetState(state.StateClosed)
			return
		}
		s.trigger(fsm, state.EventHeaderParsed, remote)
		s.trigger(fsm, state.EventBodyParsed, remote)

		resp, err := handler(req)
		s.trigger(fsm, state.EventHandled, remote)
		if err != nil {
			s.errorSink(remote, err)
			continue
		}

		if resp == nil {
			continue
		}
		if resp.Header.HopByHopID == 0 {
			resp.Header.HopByHopID = req.Header.HopByHopID
		}
		if resp.Header.EndToEndID == 0 {
			resp.Header.EndToEndID = req.Header.EndToEndID
		}
		if err := conn.WriteMessage(resp); err != nil {
			s.errorSink(remote, err)
			return
		}
	}
}

func (s *Server) trigger(fsm *state.ConnectionFSM, event state.Event, remote string) {
	if _, err := fsm.Trigger(context.Background(), event, nil); err != nil {
		level.Warn(s.logger).Log("msg", "unexpected connection state transition", "remote_addr", remote, "event", event, "err", err)
	}
}

// Addr returns the bound listener address, or nil before ListenAndServe
// has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
