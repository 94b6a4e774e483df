// Package metrics is the internal counter registry SPEC_FULL.md's
// observability component describes: plain atomic counters an
// external Prometheus (or any other) exporter can poll, with no
// exporter dependency of its own.
package metrics

import "sync/atomic"

// Registry accumulates process-wide decode-path counters. The zero value
// is ready to use; Global is the instance the message package increments.
type Registry struct {
	messagesDecoded atomic.Uint64
	unknownAVPs     atomic.Uint64
}

// Global counts every successful message.Decode/DecodeBody call and every
// AVP decoded as Unknown, independent of which transport.Conn or
// dictionary.Dictionary is in use.
var Global = &Registry{}

func (r *Registry) IncMessagesDecoded() { r.messagesDecoded.Add(1) }
func (r *Registry) IncUnknownAVP()      { r.unknownAVPs.Add(1) }

// Snapshot is a point-in-time read of Registry's counters.
type Snapshot struct {
	MessagesDecoded uint64
	UnknownAVPs     uint64
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		MessagesDecoded: r.messagesDecoded.Load(),
		UnknownAVPs:     r.unknownAVPs.Load(),
	}
}
