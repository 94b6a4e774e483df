package transport

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/ishidawataru/sctp"
)

// Listener accepts incoming Diameter connections, performing the TLS
// handshake (when configured) before handing a Conn back to the caller.
type Listener struct {
	listener      net.Listener
	network       Network
	tlsConfig     *tls.Config
	acceptTimeout time.Duration
	logger        log.Logger
}

// Listen opens a listening socket on addr over network. tlsConfig == nil
// disables TLS; otherwise every accepted connection is handshaken as a TLS
// server before being returned.
func Listen(network Network, addr string, tlsConfig *tls.Config, logger log.Logger) (*Listener, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	var ln net.Listener
	var err error
	switch network {
	case NetworkTCP, "":
		ln, err = net.Listen("tcp", addr)
	case NetworkSCTP:
		var laddr *sctp.SCTPAddr
		laddr, err = sctp.ResolveSCTPAddr("sctp", addr)
		if err == nil {
			ln, err = sctp.ListenSCTP("sctp", laddr)
		}
	default:
		return nil, ErrUnsupportedNetwork
	}
	if err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "listening", "addr", addr, "network", network)
	return &Listener{listener: ln, network: network, tlsConfig: tlsConfig, logger: logger}, nil
}

// SetAcceptTimeout bounds how long Accept waits for a pending connection.
// Zero (the default) blocks indefinitely.
func (l *Listener) SetAcceptTimeout(d time.Duration) { l.acceptTimeout = d }

// Accept waits for and returns the next incoming connection. Per the
// server contract, a TLS handshake failure closes that connection, logs it,
// and Accept transparently waits for the next one rather than returning the
// failure to the caller; only listener-level failures (closed listener,
// accept timeout) are returned as errors.
func (l *Listener) Accept() (*Conn, error) {
	for {
		raw, err := l.acceptRaw()
		if err != nil {
			return nil, err
		}

		if l.tlsConfig == nil {
			return &Conn{Conn: raw, logger: l.logger}, nil
		}

		tlsConn := tls.Server(raw, l.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			level.Error(l.logger).Log("msg", "tls handshake failed", "remote_addr", raw.RemoteAddr(), "err", err)
			raw.Close()
			continue
		}
		level.Debug(l.logger).Log("msg", "tls handshake complete", "remote_addr", raw.RemoteAddr())
		return &Conn{Conn: tlsConn, logger: l.logger}, nil
	}
}

func (l *Listener) acceptRaw() (net.Conn, error) {
	if l.network == NetworkSCTP {
		return l.acceptSCTP()
	}

	if l.acceptTimeout > 0 {
		if tcpListener, ok := l.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(time.Now().Add(l.acceptTimeout))
		}
	}
	return l.listener.Accept()
}

// acceptSCTP drives Accept() with a goroutine-and-channel timeout, since
// sctp.SCTPListener exposes no SetDeadline.
func (l *Listener) acceptSCTP() (net.Conn, error) {
	if l.acceptTimeout <= 0 {
		return l.listener.Accept()
	}

	type result struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := l.listener.Accept()
		resultCh <- result{conn, err}
	}()

	select {
	case r := <-resultCh:
		return r.conn, r.err
	case <-time.After(l.acceptTimeout):
		return nil, ErrAcceptTimeout
	}
}

// Close stops the listener from accepting further connections.
func (l *Listener) Close() error {
	level.Info(l.logger).Log("msg", "closing listener", "addr", l.listener.Addr())
	return l.listener.Close()
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr { return l.listener.Addr() }
