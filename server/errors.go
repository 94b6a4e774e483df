package server

import "github.com/cariboulabs/diameter/direrr"

// ErrAlreadyServing is returned by Listen (and so by ListenAndServe) if the
// Server is already bound to a listening socket.
var ErrAlreadyServing = direrr.New(direrr.KindIO, "server: already serving")
