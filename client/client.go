// Package client implements the async Diameter client: NewClient establishes
// a transport session and hands ownership of the read half to a background
// goroutine, which demultiplexes answers to SendMessage callers by
// hop-by-hop id.
package client

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/direrr"
	"github.com/cariboulabs/diameter/message"
	"github.com/cariboulabs/diameter/transport"
)

const (
	defaultConnectionTimeout = 5 * time.Second
	defaultServerAddr        = "localhost:3868"
)

type ClientOption func(*clientOptions)

type clientOptions struct {
	serverAddr        string
	network           transport.Network
	connectionTimeout time.Duration
	tlsConfig         *tls.Config
	dict              *dictionary.Dictionary
	logger            log.Logger
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		serverAddr:        defaultServerAddr,
		network:           transport.NetworkTCP,
		connectionTimeout: defaultConnectionTimeout,
		logger:            log.NewNopLogger(),
	}
}

func WithServerAddr(addr string) ClientOption {
	return func(o *clientOptions) { o.serverAddr = addr }
}

func WithSCTP() ClientOption {
	return func(o *clientOptions) { o.network = transport.NetworkSCTP }
}

func WithTCP() ClientOption {
	return func(o *clientOptions) { o.network = transport.NetworkTCP }
}

func WithConnectionTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.connectionTimeout = d }
}

// WithTLS enables TLS for the client connection. cfg.InsecureSkipVerify
// corresponds to the verify_cert=false configuration knob.
func WithTLS(cfg *tls.Config) ClientOption {
	return func(o *clientOptions) { o.tlsConfig = cfg }
}

// WithDictionary supplies the AVP dictionary used to decode responses.
// Defaults to dictionary.Base() when not set.
func WithDictionary(d *dictionary.Dictionary) ClientOption {
	return func(o *clientOptions) { o.dict = d }
}

func WithLogger(logger log.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

type pendingResult struct {
	msg *message.DiameterMessage
	err error
}

// Client is a connected Diameter peer. A background goroutine owns the read
// half of the socket; SendMessage callers share the write half, serialized
// by transport.Conn itself.
type Client struct {
	clientOptions
	conn *transport.Conn

	hopCounter uint32

	mu      sync.Mutex
	pending map[uint32]chan pendingResult
	closed  bool

	readLoopDone chan struct{}
}

// NewClient applies opts over the defaults and dials the server
// immediately. The returned Client owns conn until Close is called.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.dict == nil {
		d, err := dictionary.Base()
		if err != nil {
			return nil, fmt.Errorf("client: loading base dictionary: %w", err)
		}
		o.dict = d
	}

	dialCtx, cancel := context.WithTimeout(ctx, o.connectionTimeout)
	defer cancel()
	conn, err := transport.Dial(dialCtx, o.network, o.serverAddr, o.tlsConfig, o.logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		clientOptions: o,
		conn:          conn,
		hopCounter:    randomSeed(),
		pending:       make(map[uint32]chan pendingResult),
		readLoopDone:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// randomSeed draws a crypto/rand seed for the hop-by-hop counter so
// concurrently-started client instances don't correlate ids.
func randomSeed() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(buf[:])
}

func (c *Client) nextHopByHopID() uint32 {
	return atomic.AddUint32(&c.hopCounter, 1)
}

// SendMessage assigns (or honors) req's hop-by-hop id, registers a pending
// slot, writes req, and blocks until the matching answer arrives, ctx is
// done, or the connection closes. A dropped/cancelled send removes its slot
// from the pending table; a later-arriving answer for that id is then
// silently discarded by readLoop.
func (c *Client) SendMessage(ctx context.Context, req *message.DiameterMessage) (*message.DiameterMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}

	hopByHopID := req.Header.HopByHopID
	if hopByHopID == 0 {
		hopByHopID = c.nextHopByHopID()
	} else if _, taken := c.pending[hopByHopID]; taken {
		c.mu.Unlock()
		return nil, ErrDuplicateHopByHop
	}
	req.Header.HopByHopID = hopByHopID

	slot := make(chan pendingResult, 1)
	c.pending[hopByHopID] = slot
	c.mu.Unlock()

	if err := c.conn.WriteMessage(req); err != nil {
		c.removePending(hopByHopID)
		return nil, err
	}

	select {
	case res := <-slot:
		return res.msg, res.err
	case <-ctx.Done():
		c.removePending(hopByHopID)
		return nil, ctx.Err()
	case <-c.readLoopDone:
		// readLoop already failed every pending slot before closing this
		// channel; give the delivered result, if any, priority.
		select {
		case res := <-slot:
			return res.msg, res.err
		default:
			return nil, direrr.New(direrr.KindConnectionClosed, "client: connection closed")
		}
	}
}

// PendingCount reports how many requests are currently awaiting an answer,
// for a caller-supplied exporter to expose as a gauge.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) removePending(hopByHopID uint32) {
	c.mu.Lock()
	delete(c.pending, hopByHopID)
	c.mu.Unlock()
}

// readLoop owns the read half of the connection for the client's lifetime.
// It demultiplexes answers to pending SendMessage callers by hop-by-hop id,
// drops server-initiated requests (out of scope for this core) and unmatched
// answers, and on any read failure fails every outstanding slot.
func (c *Client) readLoop() {
	defer close(c.readLoopDone)

	for {
		msg, err := c.conn.ReadMessage(c.dict)
		if err != nil {
			level.Info(c.logger).Log("msg", "read loop exiting", "err", err)
			c.failPending(err)
			return
		}

		if msg.Header.IsRequest() {
			level.Debug(c.logger).Log("msg", "dropping server-initiated request", "command_code", msg.Header.CommandCode)
			continue
		}

		c.mu.Lock()
		slot, ok := c.pending[msg.Header.HopByHopID]
		if ok {
			delete(c.pending, msg.Header.HopByHopID)
		}
		c.mu.Unlock()

		if !ok {
			level.Warn(c.logger).Log("msg", "no pending request for hop-by-hop id", "hop_by_hop_id", msg.Header.HopByHopID)
			continue
		}
		slot <- pendingResult{msg: msg}
	}
}

func (c *Client) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, slot := range c.pending {
		slot <- pendingResult{err: direrr.New(direrr.KindConnectionClosed, "client: "+err.Error())}
		delete(c.pending, id)
	}
}

// Close closes the underlying connection, which in turn causes readLoop to
// fail every outstanding SendMessage with ConnectionClosed and exit.
func (c *Client) Close() error {
	return c.conn.Close()
}
