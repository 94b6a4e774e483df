// Package direrr classifies the errors this module surfaces into the fixed
// set of kinds a caller needs to branch on (timeout handling, retry vs.
// give-up, diagnostics). Every exported sentinel elsewhere in the module
// wraps one of these kinds so that both errors.Is(err, SentinelX) and
// direrr.KindOf(err) == KindInvalidData keep working after wrapping.
package direrr

import "errors"

// ErrorKind is the closed set of error categories spec.md §7 requires
// callers to be able to distinguish.
type ErrorKind int

const (
	// KindUnknown is the zero value; never intentionally returned.
	KindUnknown ErrorKind = iota
	// KindInvalidVersion signals a Diameter header version field != 1.
	KindInvalidVersion
	// KindInvalidLength signals a declared length inconsistent with the
	// bytes available, or with the fixed header size.
	KindInvalidLength
	// KindInvalidData signals value bytes that do not decode under their
	// declared type (bad UTF-8, wrong address family, wrong width, ...).
	KindInvalidData
	// KindDictionaryLoad signals malformed dictionary XML, or XML that
	// references an unknown AVP type.
	KindDictionaryLoad
	// KindIO signals an underlying socket or TLS error.
	KindIO
	// KindConnectionClosed signals the peer closed mid-stream, or closed
	// before a pending answer arrived.
	KindConnectionClosed
	// KindDuplicateHopByHop signals a caller-chosen hop-by-hop ID that
	// was already outstanding on the connection.
	KindDuplicateHopByHop
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidVersion:
		return "invalid_version"
	case KindInvalidLength:
		return "invalid_length"
	case KindInvalidData:
		return "invalid_data"
	case KindDictionaryLoad:
		return "dictionary_load"
	case KindIO:
		return "io"
	case KindConnectionClosed:
		return "connection_closed"
	case KindDuplicateHopByHop:
		return "duplicate_hop_by_hop"
	default:
		return "unknown"
	}
}

// Classified is implemented by every error this package creates. Callers
// that already have a concrete error in hand can call Kind() directly;
// KindOf below additionally walks an Unwrap chain to find one.
type Classified interface {
	error
	Kind() ErrorKind
}

// kindError pairs an ErrorKind with a sentinel error value so that the
// sentinel remains usable with errors.Is/errors.As while also being
// classifiable by Kind() without string matching.
type kindError struct {
	kind ErrorKind
	msg  string
}

func (e *kindError) Error() string   { return e.msg }
func (e *kindError) Kind() ErrorKind { return e.kind }

// New creates a new sentinel error of the given kind and message. Use this
// to define package-level sentinels, e.g.:
//
//	var ErrInvalidVersion = direrr.New(direrr.KindInvalidVersion, "diameter: invalid version")
func New(kind ErrorKind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf walks err's Unwrap chain looking for a Classified error and
// returns its Kind, or KindUnknown if none is found.
func KindOf(err error) ErrorKind {
	var ke Classified
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindUnknown
}

// Is reports whether err is classified as kind, anywhere in its chain.
func Is(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
