package message

import (
	"fmt"

	"github.com/cariboulabs/diameter/direrr"
)

// Sentinel errors, classified per spec.md §7 so callers can either compare
// with errors.Is against these values directly, or branch on
// direrr.KindOf(err) without depending on message text.
var (
	ErrInvalidVersion = direrr.New(direrr.KindInvalidVersion, "diameter: header version must be 1")
	ErrInvalidLength  = direrr.New(direrr.KindInvalidLength, "diameter: declared length inconsistent with available bytes")
	ErrInvalidData    = direrr.New(direrr.KindInvalidData, "diameter: value bytes do not decode under the declared type")

	// ErrVendorIDRequired is returned by NewAvp when the VENDOR_FLAG is set
	// but no vendor-id was supplied.
	ErrVendorIDRequired = direrr.New(direrr.KindInvalidData, "diameter: vendor-id is required when the V flag is set")
	// ErrVendorIDWithoutFlag is returned when a nonzero vendor-id is
	// supplied without the V flag (spec boundary check: "AVP with V flag
	// clear but vendor_id != 0 supplied by builder -> rejected at encode").
	ErrVendorIDWithoutFlag = direrr.New(direrr.KindInvalidData, "diameter: vendor-id set without the V flag")
)

func invalidLengthf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidLength, fmt.Sprintf(format, args...))
}

func invalidDataf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}
