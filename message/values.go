package message

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"time"
	"unicode/utf8"

	"github.com/cariboulabs/diameter/dictionary"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC).
const ntpEpochOffset = 2208988800

const (
	addressFamilyIPv4 = 1
	addressFamilyIPv6 = 2
)

// Value is a decoded AVP payload tagged with the dictionary.ValueType that
// produced it (design note: the value space is a closed set fixed by the
// RFC, so dispatch is by tag rather than open polymorphism).
//
// Raw always holds the exact, unpadded payload bytes for every type except
// Grouped, whose children live in Group; this is what lets an AVP decoded
// under one dictionary re-encode byte-identical even when its declared type
// turns out to be Unknown.
type Value struct {
	Type  dictionary.ValueType
	Raw   []byte
	Group []*Avp
}

func (v Value) String() string {
	switch v.Type {
	case dictionary.Identity, dictionary.DiameterURI, dictionary.OctetString, dictionary.UTF8String:
		return string(v.Raw)
	case dictionary.AddressIPv4, dictionary.AddressIPv6:
		ip, err := v.Address()
		if err != nil {
			return fmt.Sprintf("% x", v.Raw)
		}
		return ip.String()
	case dictionary.Integer32, dictionary.Enumerated:
		i, _ := v.Integer32()
		return fmt.Sprintf("%d", i)
	case dictionary.Integer64:
		i, _ := v.Integer64()
		return fmt.Sprintf("%d", i)
	case dictionary.Unsigned32:
		u, _ := v.Unsigned32()
		return fmt.Sprintf("%d", u)
	case dictionary.Unsigned64:
		u, _ := v.Unsigned64()
		return fmt.Sprintf("%d", u)
	case dictionary.Float32:
		f, _ := v.Float32()
		return fmt.Sprintf("%f", f)
	case dictionary.Float64:
		f, _ := v.Float64()
		return fmt.Sprintf("%f", f)
	case dictionary.Time:
		t, _ := v.Time()
		return t.UTC().Format(time.RFC3339)
	case dictionary.Grouped:
		return fmt.Sprintf("Grouped(%d avps)", len(v.Group))
	default:
		return fmt.Sprintf("% x", v.Raw)
	}
}

// Constructors. Each produces a Value whose Raw already holds the encoded
// wire bytes, so encodeValue for every non-Grouped type is a plain copy.

func NewOctetStringValue(b []byte) Value {
	return Value{Type: dictionary.OctetString, Raw: append([]byte(nil), b...)}
}

func NewIdentityValue(s string) Value {
	return Value{Type: dictionary.Identity, Raw: []byte(s)}
}

func NewDiameterURIValue(s string) Value {
	return Value{Type: dictionary.DiameterURI, Raw: []byte(s)}
}

func NewUTF8StringValue(s string) (Value, error) {
	if !utf8.ValidString(s) {
		return Value{}, fmt.Errorf("%w: utf8string: invalid UTF-8", ErrInvalidData)
	}
	return Value{Type: dictionary.UTF8String, Raw: []byte(s)}, nil
}

func NewInteger32Value(i int32) Value {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, uint32(i))
	return Value{Type: dictionary.Integer32, Raw: raw}
}

func NewEnumeratedValue(i int32) Value {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, uint32(i))
	return Value{Type: dictionary.Enumerated, Raw: raw}
}

func NewInteger64Value(i int64) Value {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(i))
	return Value{Type: dictionary.Integer64, Raw: raw}
}

func NewUnsigned32Value(u uint32) Value {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, u)
	return Value{Type: dictionary.Unsigned32, Raw: raw}
}

func NewUnsigned64Value(u uint64) Value {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, u)
	return Value{Type: dictionary.Unsigned64, Raw: raw}
}

func NewFloat32Value(f float32) Value {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, math.Float32bits(f))
	return Value{Type: dictionary.Float32, Raw: raw}
}

func NewFloat64Value(f float64) Value {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, math.Float64bits(f))
	return Value{Type: dictionary.Float64, Raw: raw}
}

// NewTimeValue encodes t as NTP seconds-since-1900 per spec.md §3/§4.1.
// Dates before the NTP epoch cannot be represented.
func NewTimeValue(t time.Time) Value {
	secs := t.Unix() + ntpEpochOffset
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, uint32(secs))
	return Value{Type: dictionary.Time, Raw: raw}
}

// NewAddressValue builds an AddressIPv4 or AddressIPv6 value depending on
// whether ip has a 4-byte form.
func NewAddressValue(ip net.IP) (Value, error) {
	if v4 := ip.To4(); v4 != nil {
		raw := make([]byte, 2+net.IPv4len)
		raw[1] = addressFamilyIPv4
		copy(raw[2:], v4)
		return Value{Type: dictionary.AddressIPv4, Raw: raw}, nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return Value{}, fmt.Errorf("%w: address: not a valid IPv4 or IPv6 address", ErrInvalidData)
	}
	raw := make([]byte, 2+net.IPv6len)
	raw[1] = addressFamilyIPv6
	copy(raw[2:], v6)
	return Value{Type: dictionary.AddressIPv6, Raw: raw}, nil
}

func NewGroupedValue(avps []*Avp) Value {
	return Value{Type: dictionary.Grouped, Group: avps}
}

// Accessors. Each fails with ErrInvalidData if called against a Value whose
// Type doesn't match the requested shape.

func (v Value) Bytes() []byte { return v.Raw }

func (v Value) Integer32() (int32, error) {
	if v.Type != dictionary.Integer32 && v.Type != dictionary.Enumerated {
		return 0, fmt.Errorf("%w: value is %s, not Integer32", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 4 {
		return 0, invalidLengthf("integer32: want 4 bytes, got %d", len(v.Raw))
	}
	return int32(binary.BigEndian.Uint32(v.Raw)), nil
}

func (v Value) Integer64() (int64, error) {
	if v.Type != dictionary.Integer64 {
		return 0, fmt.Errorf("%w: value is %s, not Integer64", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 8 {
		return 0, invalidLengthf("integer64: want 8 bytes, got %d", len(v.Raw))
	}
	return int64(binary.BigEndian.Uint64(v.Raw)), nil
}

func (v Value) Unsigned32() (uint32, error) {
	if v.Type != dictionary.Unsigned32 {
		return 0, fmt.Errorf("%w: value is %s, not Unsigned32", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 4 {
		return 0, invalidLengthf("unsigned32: want 4 bytes, got %d", len(v.Raw))
	}
	return binary.BigEndian.Uint32(v.Raw), nil
}

func (v Value) Unsigned64() (uint64, error) {
	if v.Type != dictionary.Unsigned64 {
		return 0, fmt.Errorf("%w: value is %s, not Unsigned64", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 8 {
		return 0, invalidLengthf("unsigned64: want 8 bytes, got %d", len(v.Raw))
	}
	return binary.BigEndian.Uint64(v.Raw), nil
}

func (v Value) Float32() (float32, error) {
	if v.Type != dictionary.Float32 {
		return 0, fmt.Errorf("%w: value is %s, not Float32", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 4 {
		return 0, invalidLengthf("float32: want 4 bytes, got %d", len(v.Raw))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(v.Raw)), nil
}

func (v Value) Float64() (float64, error) {
	if v.Type != dictionary.Float64 {
		return 0, fmt.Errorf("%w: value is %s, not Float64", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 8 {
		return 0, invalidLengthf("float64: want 8 bytes, got %d", len(v.Raw))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(v.Raw)), nil
}

func (v Value) Time() (time.Time, error) {
	if v.Type != dictionary.Time {
		return time.Time{}, fmt.Errorf("%w: value is %s, not Time", ErrInvalidData, v.Type)
	}
	if len(v.Raw) != 4 {
		return time.Time{}, invalidLengthf("time: want 4 bytes, got %d", len(v.Raw))
	}
	secs := int64(binary.BigEndian.Uint32(v.Raw)) - ntpEpochOffset
	return time.Unix(secs, 0).UTC(), nil
}

func (v Value) Address() (net.IP, error) {
	switch v.Type {
	case dictionary.AddressIPv4:
		if len(v.Raw) != 2+net.IPv4len {
			return nil, invalidLengthf("addressipv4: want %d bytes, got %d", 2+net.IPv4len, len(v.Raw))
		}
		return net.IP(append([]byte(nil), v.Raw[2:]...)), nil
	case dictionary.AddressIPv6:
		if len(v.Raw) != 2+net.IPv6len {
			return nil, invalidLengthf("addressipv6: want %d bytes, got %d", 2+net.IPv6len, len(v.Raw))
		}
		return net.IP(append([]byte(nil), v.Raw[2:]...)), nil
	default:
		return nil, fmt.Errorf("%w: value is %s, not an address", ErrInvalidData, v.Type)
	}
}

func (v Value) Grouped() ([]*Avp, error) {
	if v.Type != dictionary.Grouped {
		return nil, fmt.Errorf("%w: value is %s, not Grouped", ErrInvalidData, v.Type)
	}
	return v.Group, nil
}

// decodeValue interprets raw payload bytes under typ. dict and
// applicationID are only consulted for Grouped, whose children are looked
// up in the enclosing message's application scope (spec.md §4.3 step 4-5,
// applied recursively).
func decodeValue(typ dictionary.ValueType, raw []byte, dict *dictionary.Dictionary, applicationID uint32) (Value, error) {
	switch typ {
	case dictionary.AddressIPv4:
		if len(raw) != 2+net.IPv4len {
			return Value{}, invalidLengthf("addressipv4: want %d bytes, got %d", 2+net.IPv4len, len(raw))
		}
		if raw[0] != 0 || raw[1] != addressFamilyIPv4 {
			return Value{}, fmt.Errorf("%w: addressipv4: family tag mismatch", ErrInvalidData)
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.AddressIPv6:
		if len(raw) != 2+net.IPv6len {
			return Value{}, invalidLengthf("addressipv6: want %d bytes, got %d", 2+net.IPv6len, len(raw))
		}
		if raw[0] != 0 || raw[1] != addressFamilyIPv6 {
			return Value{}, fmt.Errorf("%w: addressipv6: family tag mismatch", ErrInvalidData)
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Identity, dictionary.DiameterURI, dictionary.OctetString:
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.UTF8String:
		if !utf8.Valid(raw) {
			return Value{}, fmt.Errorf("%w: utf8string: invalid UTF-8", ErrInvalidData)
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Integer32, dictionary.Enumerated:
		if len(raw) != 4 {
			return Value{}, invalidLengthf("%s: want 4 bytes, got %d", typ, len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Integer64:
		if len(raw) != 8 {
			return Value{}, invalidLengthf("integer64: want 8 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Unsigned32:
		if len(raw) != 4 {
			return Value{}, invalidLengthf("unsigned32: want 4 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Unsigned64:
		if len(raw) != 8 {
			return Value{}, invalidLengthf("unsigned64: want 8 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Float32:
		if len(raw) != 4 {
			return Value{}, invalidLengthf("float32: want 4 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Float64:
		if len(raw) != 8 {
			return Value{}, invalidLengthf("float64: want 8 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Time:
		if len(raw) != 4 {
			return Value{}, invalidLengthf("time: want 4 bytes, got %d", len(raw))
		}
		return Value{Type: typ, Raw: append([]byte(nil), raw...)}, nil

	case dictionary.Grouped:
		children, err := decodeAvpList(raw, dict, applicationID)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: dictionary.Grouped, Group: children}, nil

	default:
		return Value{Type: dictionary.Unknown, Raw: append([]byte(nil), raw...)}, nil
	}
}

// encodeValue returns the wire payload for v, excluding padding (the
// caller — Avp.Encode — pads to the next 4-byte boundary).
func encodeValue(v Value) ([]byte, error) {
	if v.Type == dictionary.Grouped {
		return encodeAvpList(v.Group)
	}
	return append([]byte(nil), v.Raw...), nil
}

// addressFamilyFromWire resolves a dictionary-declared family-agnostic
// Address AVP to its concrete family by inspecting the 2-byte tag, per
// spec.md §3's AddressIPv4/AddressIPv6 wire forms.
func addressFamilyFromWire(payload []byte) (dictionary.ValueType, error) {
	if len(payload) < 2 {
		return dictionary.Unknown, invalidLengthf("address: payload too short to carry a family tag")
	}
	switch {
	case payload[0] == 0 && payload[1] == addressFamilyIPv4:
		return dictionary.AddressIPv4, nil
	case payload[0] == 0 && payload[1] == addressFamilyIPv6:
		return dictionary.AddressIPv6, nil
	default:
		return dictionary.Unknown, fmt.Errorf("%w: address: unrecognized family tag % x", ErrInvalidData, payload[:2])
	}
}
