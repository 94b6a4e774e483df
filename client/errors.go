package client

import "github.com/cariboulabs/diameter/direrr"

// ErrDuplicateHopByHop is returned by SendMessage when the caller supplied
// a HopByHopID that is already outstanding on this connection.
var ErrDuplicateHopByHop = direrr.New(direrr.KindDuplicateHopByHop, "client: hop-by-hop id already outstanding")

// ErrNotConnected is returned by SendMessage when called after the
// connection has already closed.
var ErrNotConnected = direrr.New(direrr.KindIO, "client: not connected")
