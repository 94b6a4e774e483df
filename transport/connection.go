// Package transport frames Diameter messages over a byte-stream socket
// (TCP or SCTP, optionally wrapped in TLS) and owns the read/write timeouts
// and per-connection logging around that socket.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/ishidawataru/sctp"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/direrr"
	"github.com/cariboulabs/diameter/message"
)

// Network selects the byte-stream transport carrying Diameter frames. TCP
// is the default; SCTP is wired through the same framing for deployments
// that need multi-homed associations.
type Network string

const (
	NetworkTCP  Network = "tcp"
	NetworkSCTP Network = "sctp"
)

// Conn is a Diameter-framed connection: a net.Conn plus the read/write
// timeouts and the mutex that serializes writes (spec's one-writer-at-a-time
// rule, so concurrent senders never interleave a partial frame).
type Conn struct {
	net.Conn
	logger       log.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration

	writeMu sync.Mutex

	messagesRead    atomic.Uint64
	messagesWritten atomic.Uint64
	decodeErrors    atomic.Uint64
}

// Stats is a point-in-time snapshot of a Conn's traffic counters, readable
// by a caller-supplied exporter without synchronizing with the read/write
// goroutines driving the connection.
type Stats struct {
	MessagesRead    uint64
	MessagesWritten uint64
	DecodeErrors    uint64
}

// Stats reports how many messages this connection has read and written,
// and how many reads failed to decode (distinct from a closed connection).
func (c *Conn) Stats() Stats {
	return Stats{
		MessagesRead:    c.messagesRead.Load(),
		MessagesWritten: c.messagesWritten.Load(),
		DecodeErrors:    c.decodeErrors.Load(),
	}
}

// Dial opens a connection to addr over network, optionally wrapping it in
// TLS (tlsConfig == nil disables TLS). The TLS handshake, if any, completes
// before Dial returns.
func Dial(ctx context.Context, network Network, addr string, tlsConfig *tls.Config, logger log.Logger) (*Conn, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	raw, err := dialRaw(ctx, network, addr)
	if err != nil {
		level.Error(logger).Log("msg", "dial failed", "addr", addr, "network", network, "err", err)
		return nil, fmt.Errorf("transport: dial %s %s: %w", network, addr, err)
	}

	level.Debug(logger).Log("msg", "dialed", "addr", addr, "network", network)

	if tlsConfig != nil {
		tlsConn := tls.Client(raw, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			raw.Close()
			level.Error(logger).Log("msg", "tls handshake failed", "addr", addr, "err", err)
			return nil, fmt.Errorf("transport: tls handshake with %s: %w", addr, err)
		}
		level.Debug(logger).Log("msg", "tls handshake complete", "addr", addr)
		raw = tlsConn
	}

	return &Conn{Conn: raw, logger: logger}, nil
}

func dialRaw(ctx context.Context, network Network, addr string) (net.Conn, error) {
	switch network {
	case NetworkTCP, "":
		var dialer net.Dialer
		return dialer.DialContext(ctx, "tcp", addr)
	case NetworkSCTP:
		raddr, err := sctp.ResolveSCTPAddr("sctp", addr)
		if err != nil {
			return nil, err
		}
		return sctp.DialSCTP("sctp", nil, raddr)
	default:
		return nil, ErrUnsupportedNetwork
	}
}

// SetTimeouts sets the read and write deadlines applied around every
// subsequent ReadMessage/WriteMessage call. Zero disables the corresponding
// deadline.
func (c *Conn) SetTimeouts(readTimeout, writeTimeout time.Duration) {
	c.readTimeout = readTimeout
	c.writeTimeout = writeTimeout
}

// ReadMessage performs the two-phase streaming decode: exactly HeaderLength
// bytes, then exactly MessageLength-HeaderLength more, resolved against
// dict. EOF encountered before any header bytes arrive, or mid-frame,
// surfaces as ErrConnectionClosed; any other socket failure surfaces as a
// Kind-IO error wrapping the underlying cause.
func (c *Conn) ReadMessage(dict *dictionary.Dictionary) (*message.DiameterMessage, error) {
	if c.readTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	headerBuf := make([]byte, message.HeaderLength)
	if _, err := io.ReadFull(c, headerBuf); err != nil {
		return nil, classifyReadErr(err)
	}

	header, err := message.DecodeHeader(headerBuf)
	if err != nil {
		c.decodeErrors.Add(1)
		return nil, err
	}

	bodyBuf := make([]byte, header.MessageLength-message.HeaderLength)
	if len(bodyBuf) > 0 {
		if _, err := io.ReadFull(c, bodyBuf); err != nil {
			return nil, classifyReadErr(err)
		}
	}

	avps, err := message.DecodeBody(bodyBuf, dict, header.ApplicationID)
	if err != nil {
		c.decodeErrors.Add(1)
		return nil, err
	}

	c.messagesRead.Add(1)
	level.Debug(c.logger).Log("msg", "read message", "command_code", header.CommandCode, "hop_by_hop_id", header.HopByHopID)
	return &message.DiameterMessage{Header: header, AVPs: avps}, nil
}

// WriteMessage serializes msg and writes it whole. Concurrent callers are
// serialized on writeMu so one frame is never interleaved with another.
func (c *Conn) WriteMessage(msg *message.DiameterMessage) error {
	encoded, err := msg.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		c.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.Write(encoded); err != nil {
		return fmt.Errorf("transport: write: %w", classifyReadErr(err))
	}

	c.messagesWritten.Add(1)
	level.Debug(c.logger).Log("msg", "wrote message", "command_code", msg.Header.CommandCode, "hop_by_hop_id", msg.Header.HopByHopID)
	return nil
}

func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return fmt.Errorf("transport: %w: %w", direrr.New(direrr.KindIO, "i/o failure"), err)
}
