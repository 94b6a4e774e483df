// AVP struct, encoding/decoding functions
package message

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/internal/wire"
	"github.com/cariboulabs/diameter/metrics"
)

const (
	AVPHeaderLength      = 8
	AVPHeaderLengthWithV = 12
)

// AVP Flags (spec.md §3): bit 7 V (vendor-present), bit 6 M (mandatory),
// bit 5 P (protected). Others reserved/zero.
const (
	VENDOR_FLAG    = 0x80
	MANDATORY_FLAG = 0x40
	PROTECTED_FLAG = 0x20
)

// Avp represents a Diameter Attribute-Value Pair: an 8- or 12-byte header
// (12 when VENDOR_FLAG is set) followed by a type-tagged Value.
type Avp struct {
	Code     uint32
	Flags    uint8
	VendorID uint32
	// Name is the symbolic name the dictionary resolved for Code, or ""
	// when the dictionary had no entry (Value.Type is then Unknown).
	Name  string
	Value Value
}

func (a *Avp) String() string {
	name := a.Name
	if name == "" {
		name = GetAVPNameFromCode(a.Code)
	}
	if a.Flags&VENDOR_FLAG != 0 {
		return fmt.Sprintf(
			"\tAVP{Code: %d, Flags: %#x, VendorID: %d (%s), Name: %q, Value: %s}",
			a.Code, a.Flags, a.VendorID, VendorName(a.VendorID), name, a.Value.String(),
		)
	}
	return fmt.Sprintf(
		"\tAVP{Code: %d, Flags: %#x, VendorID: %d, Name: %q, Value: %s}",
		a.Code, a.Flags, a.VendorID, name, a.Value.String(),
	)
}

func (a *Avp) headerLength() int {
	if a.Flags&VENDOR_FLAG != 0 {
		return AVPHeaderLengthWithV
	}
	return AVPHeaderLength
}

// Encode serializes the AVP header, its value, and 0-3 trailing pad bytes
// so the next AVP in the enclosing frame starts on a 4-byte boundary.
func (a *Avp) Encode() ([]byte, error) {
	if a.Flags&VENDOR_FLAG == 0 && a.VendorID != 0 {
		return nil, ErrVendorIDWithoutFlag
	}

	payload, err := encodeValue(a.Value)
	if err != nil {
		return nil, err
	}

	headerLen := a.headerLength()
	length := uint32(headerLen + len(payload))

	buf := make([]byte, headerLen, headerLen+len(payload)+3)
	binary.BigEndian.PutUint32(buf[0:4], a.Code)
	buf[4] = a.Flags
	wire.PutUint24(buf[5:8], length)
	if a.Flags&VENDOR_FLAG != 0 {
		binary.BigEndian.PutUint32(buf[8:12], a.VendorID)
	}

	out := append(buf, payload...)
	if pad := wire.Padding(len(out)); pad > 0 {
		out = append(out, make([]byte, pad)...)
	}
	return out, nil
}

// decodeAvp decodes a single AVP from the front of data, resolving its
// value type through dict under applicationID's scope (spec.md §4.3). It
// returns the number of bytes consumed, including trailing padding, so
// callers can advance to the next AVP.
func decodeAvp(data []byte, dict *dictionary.Dictionary, applicationID uint32) (*Avp, int, error) {
	if len(data) < AVPHeaderLength {
		return nil, 0, invalidLengthf("avp header needs %d bytes, have %d", AVPHeaderLength, len(data))
	}

	code := binary.BigEndian.Uint32(data[0:4])
	flags := data[4]
	length := wire.Uint24(data[5:8])

	headerLen := AVPHeaderLength
	vendorID := uint32(0)
	if flags&VENDOR_FLAG != 0 {
		headerLen = AVPHeaderLengthWithV
		if len(data) < headerLen {
			return nil, 0, invalidLengthf("vendor avp code %d: header needs %d bytes, have %d", code, headerLen, len(data))
		}
		vendorID = binary.BigEndian.Uint32(data[8:12])
	}

	if int(length) < headerLen {
		return nil, 0, invalidLengthf("avp code %d: declared length %d shorter than header %d", code, length, headerLen)
	}
	if len(data) < int(length) {
		return nil, 0, invalidLengthf("avp code %d: declared length %d exceeds %d available bytes", code, length, len(data))
	}

	payload := data[headerLen:length]

	typ, name, ok := dict.Lookup(applicationID, vendorID, code)
	if !ok {
		typ = dictionary.Unknown
		metrics.Global.IncUnknownAVP()
	}
	if dictionary.IsAddress(typ) {
		resolved, err := addressFamilyFromWire(payload)
		if err != nil {
			return nil, 0, err
		}
		typ = resolved
	}

	value, err := decodeValue(typ, payload, dict, applicationID)
	if err != nil {
		return nil, 0, err
	}

	consumed := int(length) + wire.Padding(int(length))
	if consumed > len(data) {
		return nil, 0, invalidLengthf("avp code %d: padding extends past available data", code)
	}

	return &Avp{Code: code, Flags: flags, VendorID: vendorID, Name: name, Value: value}, consumed, nil
}

// decodeAvpList decodes a concatenated, padded run of AVPs until data is
// exhausted — used both for a message body and for a Grouped AVP's payload.
func decodeAvpList(data []byte, dict *dictionary.Dictionary, applicationID uint32) ([]*Avp, error) {
	avps := make([]*Avp, 0)
	offset := 0
	for offset < len(data) {
		avp, consumed, err := decodeAvp(data[offset:], dict, applicationID)
		if err != nil {
			return nil, err
		}
		avps = append(avps, avp)
		offset += consumed
	}
	return avps, nil
}

func encodeAvpList(avps []*Avp) ([]byte, error) {
	out := make([]byte, 0)
	for _, a := range avps {
		encoded, err := a.Encode()
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
	}
	return out, nil
}

// NewAvp builds an Avp of the given dictionary type from value, setting
// flags and an optional vendor-id. T is constrained to the Go types each
// AvpValue variant can be built from; buildValue rejects any (typ, value)
// combination that doesn't agree.
func NewAvp[T constraints.Ordered | net.IP | time.Time](
	code uint32,
	typ dictionary.ValueType,
	value T,
	flags uint8,
	vendorID ...uint32,
) (*Avp, error) {
	val, err := buildValue(typ, value)
	if err != nil {
		return nil, err
	}

	vID := uint32(0)
	if flags&VENDOR_FLAG != 0 {
		if len(vendorID) == 0 {
			return nil, ErrVendorIDRequired
		}
		vID = vendorID[0]
	} else if len(vendorID) > 0 && vendorID[0] != 0 {
		return nil, ErrVendorIDWithoutFlag
	}

	return &Avp{Code: code, Flags: flags, VendorID: vID, Value: val}, nil
}

func buildValue[T constraints.Ordered | net.IP | time.Time](typ dictionary.ValueType, value T) (Value, error) {
	switch v := any(value).(type) {
	case string:
		switch typ {
		case dictionary.UTF8String:
			return NewUTF8StringValue(v)
		case dictionary.Identity:
			return NewIdentityValue(v), nil
		case dictionary.DiameterURI:
			return NewDiameterURIValue(v), nil
		case dictionary.OctetString:
			return NewOctetStringValue([]byte(v)), nil
		default:
			return Value{}, invalidDataf("type %s cannot be built from a string", typ)
		}
	case int32:
		switch typ {
		case dictionary.Integer32:
			return NewInteger32Value(v), nil
		case dictionary.Enumerated:
			return NewEnumeratedValue(v), nil
		default:
			return Value{}, invalidDataf("type %s cannot be built from an int32", typ)
		}
	case int64:
		if typ != dictionary.Integer64 {
			return Value{}, invalidDataf("type %s cannot be built from an int64", typ)
		}
		return NewInteger64Value(v), nil
	case uint32:
		if typ != dictionary.Unsigned32 {
			return Value{}, invalidDataf("type %s cannot be built from a uint32", typ)
		}
		return NewUnsigned32Value(v), nil
	case uint64:
		if typ != dictionary.Unsigned64 {
			return Value{}, invalidDataf("type %s cannot be built from a uint64", typ)
		}
		return NewUnsigned64Value(v), nil
	case float32:
		if typ != dictionary.Float32 {
			return Value{}, invalidDataf("type %s cannot be built from a float32", typ)
		}
		return NewFloat32Value(v), nil
	case float64:
		if typ != dictionary.Float64 {
			return Value{}, invalidDataf("type %s cannot be built from a float64", typ)
		}
		return NewFloat64Value(v), nil
	case net.IP:
		val, err := NewAddressValue(v)
		if err != nil {
			return Value{}, err
		}
		if val.Type != typ && !dictionary.IsAddress(typ) {
			return Value{}, invalidDataf("type %s cannot be built from net.IP %s", typ, v)
		}
		return val, nil
	case time.Time:
		if typ != dictionary.Time {
			return Value{}, invalidDataf("type %s cannot be built from a time.Time", typ)
		}
		return NewTimeValue(v), nil
	default:
		return Value{}, invalidDataf("unsupported builder value type %T", value)
	}
}
