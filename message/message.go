// Diameter message struct, encoding/decoding logic
package message

import (
	"encoding/binary"
	"fmt"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/internal/wire"
	"github.com/cariboulabs/diameter/metrics"
)

const (
	HeaderLength    = 20
	DiameterVersion = 1
)

// Command Flags (spec.md §3).
const (
	FLAG_REQUEST       = 0x80
	FLAG_PROXYABLE     = 0x40
	FLAG_ERROR         = 0x20
	FLAG_RETRANSMITTED = 0x10
)

// DiameterHeader is the fixed 20-byte header every Diameter message opens
// with: version, 24-bit length, flags, 24-bit command-code, and three
// 32-bit fields (application-id and the two correlation IDs).
type DiameterHeader struct {
	Version       uint8
	MessageLength uint32
	CommandFlags  uint8
	CommandCode   uint32
	ApplicationID uint32
	HopByHopID    uint32
	EndToEndID    uint32
}

func (h *DiameterHeader) IsRequest() bool { return h.CommandFlags&FLAG_REQUEST != 0 }

func (h *DiameterHeader) String() string {
	name := GetCommandNameFromCode(h.CommandCode)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf(
		"Version: %d\nMessageLength: %d\nCommandFlags: %#x\nCommandCode: %d (%s)\nApplicationID: %d\nHopByHopID: %#x\nEndToEndID: %#x\n",
		h.Version, h.MessageLength, h.CommandFlags, h.CommandCode, name, h.ApplicationID, h.HopByHopID, h.EndToEndID,
	)
}

func (h *DiameterHeader) encode() []byte {
	buf := make([]byte, HeaderLength)
	buf[0] = h.Version
	wire.PutUint24(buf[1:4], h.MessageLength)
	buf[4] = h.CommandFlags
	wire.PutUint24(buf[5:8], h.CommandCode)
	binary.BigEndian.PutUint32(buf[8:12], h.ApplicationID)
	binary.BigEndian.PutUint32(buf[12:16], h.HopByHopID)
	binary.BigEndian.PutUint32(buf[16:20], h.EndToEndID)
	return buf
}

// DecodeHeader parses exactly the first HeaderLength bytes of a message.
// Transports read these first, then exactly MessageLength-HeaderLength more
// bytes to pass to DecodeBody (spec.md §4.4's two-phase streaming decode).
func DecodeHeader(data []byte) (*DiameterHeader, error) {
	if len(data) != HeaderLength {
		return nil, invalidLengthf("header needs exactly %d bytes, got %d", HeaderLength, len(data))
	}

	version := data[0]
	if version != DiameterVersion {
		return nil, fmt.Errorf("%w: got version %d", ErrInvalidVersion, version)
	}

	length := wire.Uint24(data[1:4])
	if length < HeaderLength {
		return nil, invalidLengthf("message length %d shorter than the header itself", length)
	}

	return &DiameterHeader{
		Version:       version,
		MessageLength: length,
		CommandFlags:  data[4],
		CommandCode:   wire.Uint24(data[5:8]),
		ApplicationID: binary.BigEndian.Uint32(data[8:12]),
		HopByHopID:    binary.BigEndian.Uint32(data[12:16]),
		EndToEndID:    binary.BigEndian.Uint32(data[16:20]),
	}, nil
}

// DiameterMessage is a decoded header plus its ordered AVP list. AVP order
// is preserved across decode/encode (spec.md §3).
type DiameterMessage struct {
	Header *DiameterHeader
	AVPs   []*Avp
}

// GetAvp returns the first AVP with the given code, or nil.
func (m *DiameterMessage) GetAvp(code uint32) *Avp {
	for _, a := range m.AVPs {
		if a.Code == code {
			return a
		}
	}
	return nil
}

func (m *DiameterMessage) String() string {
	var avps string
	for _, avp := range m.AVPs {
		avps += avp.String() + "\n"
	}
	return fmt.Sprintf("DiameterMessage{\nHeader: %s\nAVPs: %s}", m.Header.String(), avps)
}

// Encode serializes the header followed by every AVP in insertion order,
// filling in Header.MessageLength from the actual encoded size as it goes
// (spec.md §4.4: the length field MUST be filled in after AVPs are
// serialized).
func (m *DiameterMessage) Encode() ([]byte, error) {
	body, err := encodeAvpList(m.AVPs)
	if err != nil {
		return nil, err
	}
	m.Header.MessageLength = uint32(HeaderLength + len(body))
	return append(m.Header.encode(), body...), nil
}

// DecodeBody decodes an ordered AVP list from exactly body's bytes
// (typically MessageLength-HeaderLength bytes read from a stream),
// resolving each AVP's type under dict scoped to applicationID. Every
// successful call counts one decoded message against metrics.Global,
// independent of how many AVPs it held; a failed decode is not counted.
func DecodeBody(body []byte, dict *dictionary.Dictionary, applicationID uint32) ([]*Avp, error) {
	avps, err := decodeAvpList(body, dict, applicationID)
	if err != nil {
		return nil, err
	}
	metrics.Global.IncMessagesDecoded()
	return avps, nil
}

// Decode decodes a complete message from data, which must hold exactly the
// number of bytes the header's length field declares.
func Decode(data []byte, dict *dictionary.Dictionary) (*DiameterMessage, error) {
	if len(data) < HeaderLength {
		return nil, invalidLengthf("message needs at least %d bytes, got %d", HeaderLength, len(data))
	}
	header, err := DecodeHeader(data[:HeaderLength])
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != header.MessageLength {
		return nil, invalidLengthf("declared length %d does not match %d available bytes", header.MessageLength, len(data))
	}
	avps, err := DecodeBody(data[HeaderLength:], dict, header.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &DiameterMessage{Header: header, AVPs: avps}, nil
}
