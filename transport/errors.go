package transport

import "github.com/cariboulabs/diameter/direrr"

var (
	// ErrAcceptTimeout is returned by Listener.Accept when no connection
	// arrives before the configured accept timeout elapses.
	ErrAcceptTimeout = direrr.New(direrr.KindIO, "transport: accept timed out")
	// ErrUnsupportedNetwork is returned by Dial/Listen for a Network value
	// other than NetworkTCP or NetworkSCTP.
	ErrUnsupportedNetwork = direrr.New(direrr.KindIO, "transport: unsupported network")
	// ErrConnectionClosed is returned by ReadMessage once the connection
	// has been closed, including a peer that closes it mid-frame. A frame
	// whose header fails to decode returns the message package's decode
	// error instead.
	ErrConnectionClosed = direrr.New(direrr.KindConnectionClosed, "transport: connection closed")
)
