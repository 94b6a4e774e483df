package message_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/direrr"
	"github.com/cariboulabs/diameter/message"
	"github.com/cariboulabs/diameter/metrics"
)

func mustDict(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d, err := dictionary.Base()
	require.NoError(t, err)
	return d
}

// Scenario A — CCR header round-trip.
func TestScenarioA_HeaderRoundTrip(t *testing.T) {
	want := []byte{
		0x01, 0x00, 0x00, 0x14,
		0x80, 0x00, 0x01, 0x10,
		0x00, 0x00, 0x00, 0x04,
		0x42, 0xF0, 0xA5, 0x93,
		0xB8, 0xE7, 0xCB, 0x5B,
	}

	msg := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       1,
			CommandFlags:  message.FLAG_REQUEST,
			CommandCode:   272,
			ApplicationID: 4,
			HopByHopID:    0x42F0A593,
			EndToEndID:    0xB8E7CB5B,
		},
	}

	got, err := msg.Encode()
	require.NoError(t, err)
	require.Equal(t, want, got)

	header, err := message.DecodeHeader(want[:message.HeaderLength])
	require.NoError(t, err)
	require.Equal(t, uint8(1), header.Version)
	require.Equal(t, uint32(0x14), header.MessageLength)
	require.Equal(t, uint8(message.FLAG_REQUEST), header.CommandFlags)
	require.Equal(t, uint32(272), header.CommandCode)
	require.Equal(t, uint32(4), header.ApplicationID)
	require.Equal(t, uint32(0x42F0A593), header.HopByHopID)
	require.Equal(t, uint32(0xB8E7CB5B), header.EndToEndID)
}

// Scenario B — Unsigned32 AVP.
func TestScenarioB_Unsigned32Avp(t *testing.T) {
	want := []byte{
		0x00, 0x00, 0x01, 0xA0,
		0x40, 0x00, 0x00, 0x0C,
		0x00, 0x00, 0x00, 0x01,
	}

	avp := &message.Avp{
		Code:  416,
		Flags: message.MANDATORY_FLAG,
		Value: message.NewUnsigned32Value(1),
	}

	got, err := avp.Encode()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// Scenario C — UTF8String with and without padding.
func TestScenarioC_UTF8StringPadding(t *testing.T) {
	val, err := message.NewUTF8StringValue("ses;12345888")
	require.NoError(t, err)
	avp := &message.Avp{Code: 263, Flags: message.MANDATORY_FLAG, Value: val}
	encoded, err := avp.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 20)

	val, err = message.NewUTF8StringValue("ses;1234588")
	require.NoError(t, err)
	avp = &message.Avp{Code: 263, Flags: message.MANDATORY_FLAG, Value: val}
	encoded, err = avp.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 20)
	require.Equal(t, byte(0), encoded[19])
}

// Scenario D — Unknown AVP preservation.
func TestScenarioD_UnknownAvpPreservation(t *testing.T) {
	d := mustDict(t)

	header := []byte{0x00, 0x0F, 0x42, 0x3F} // code 999999
	flagsLen := []byte{0x00, 0x00, 0x00, 0x0E} // flags 0, length 14 (8 + 6 payload)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xCA, 0xFE}
	frame := append(append(header, flagsLen...), payload...)
	frame = append(frame, 0x00, 0x00) // 2 bytes padding to reach 16

	avps, err := message.DecodeBody(frame, d, 0)
	require.NoError(t, err)
	require.Len(t, avps, 1)
	require.Equal(t, dictionary.Unknown, avps[0].Value.Type)
	require.Equal(t, payload, avps[0].Value.Bytes())

	encoded, err := avps[0].Encode()
	require.NoError(t, err)
	require.Equal(t, frame, encoded)
}

// DecodeBody counts one decoded message and one Unknown AVP against the
// shared metrics registry, on top of the decode itself.
func TestDecodeBodyIncrementsMetrics(t *testing.T) {
	d := mustDict(t)
	before := metrics.Global.Snapshot()

	header := []byte{0x00, 0x0F, 0x42, 0x3F}
	flagsLen := []byte{0x00, 0x00, 0x00, 0x0E}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xCA, 0xFE}
	frame := append(append(header, flagsLen...), payload...)
	frame = append(frame, 0x00, 0x00)

	_, err := message.DecodeBody(frame, d, 0)
	require.NoError(t, err)

	after := metrics.Global.Snapshot()
	require.Equal(t, before.MessagesDecoded+1, after.MessagesDecoded)
	require.Equal(t, before.UnknownAVPs+1, after.UnknownAVPs)
}

// Round-trip law 1: decode(encode(M)) == M for AVPs the dictionary knows.
func TestRoundTrip_KnownMessage(t *testing.T) {
	d := mustDict(t)

	sessionID, err := message.NewUTF8StringValue("example.com;1;2")
	require.NoError(t, err)
	avp1 := &message.Avp{Code: message.AVP_CODE_SESSION_ID, Flags: message.MANDATORY_FLAG, Value: sessionID}
	avp2 := &message.Avp{Code: message.AVP_CODE_RESULT_CODE, Flags: message.MANDATORY_FLAG, Value: message.NewUnsigned32Value(uint32(message.DIAMETER_SUCCESS))}

	msg := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       1,
			CommandFlags:  0,
			CommandCode:   272,
			ApplicationID: 4,
			HopByHopID:    7,
			EndToEndID:    8,
		},
		AVPs: []*message.Avp{avp1, avp2},
	}

	encoded, err := msg.Encode()
	require.NoError(t, err)
	require.True(t, len(encoded)%4 == 0)
	require.Equal(t, msg.Header.MessageLength, uint32(len(encoded)))

	decoded, err := message.Decode(encoded, d)
	require.NoError(t, err)
	require.Len(t, decoded.AVPs, 2)

	require.Equal(t, []byte("example.com;1;2"), decoded.AVPs[0].Value.Bytes())

	rc, err := decoded.AVPs[1].Value.Unsigned32()
	require.NoError(t, err)
	require.Equal(t, uint32(message.DIAMETER_SUCCESS), rc)

	reencoded, err := decoded.Encode()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}

// Round-trip law 3: an AVP whose code the dictionary omits decodes as
// Unknown and re-encodes byte-identical.
func TestRoundTrip_UnknownCodePreservesBytes(t *testing.T) {
	d := mustDict(t)

	avp := &message.Avp{Code: 555555, Flags: 0, Value: message.Value{Type: dictionary.OctetString, Raw: []byte("abc")}}
	encoded, err := avp.Encode()
	require.NoError(t, err)

	avps, err := message.DecodeBody(encoded, d, 0)
	require.NoError(t, err)
	require.Len(t, avps, 1)
	require.Equal(t, dictionary.Unknown, avps[0].Value.Type)

	reencoded, err := avps[0].Encode()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded)
}

func TestHeaderInvalidVersion(t *testing.T) {
	data := make([]byte, message.HeaderLength)
	data[0] = 2
	_, err := message.DecodeHeader(data)
	require.Error(t, err)
	require.Equal(t, direrr.KindInvalidVersion, direrr.KindOf(err))
}

func TestHeaderLengthTooShort(t *testing.T) {
	data := make([]byte, message.HeaderLength)
	data[0] = 1
	// length field (bytes 1-3) left at zero, which is < HeaderLength
	_, err := message.DecodeHeader(data)
	require.Error(t, err)
	require.Equal(t, direrr.KindInvalidLength, direrr.KindOf(err))
}

func TestGroupedAvpRoundTrip(t *testing.T) {
	d := mustDict(t)

	child := &message.Avp{Code: message.AVP_CODE_VENDOR_ID, Flags: message.MANDATORY_FLAG, Value: message.NewUnsigned32Value(10415)}
	group := &message.Avp{
		Code:  260, // Vendor-Specific-Application-Id
		Flags: message.MANDATORY_FLAG,
		Value: message.NewGroupedValue([]*message.Avp{child}),
	}

	encoded, err := group.Encode()
	require.NoError(t, err)

	avps, err := message.DecodeBody(encoded, d, 0)
	require.NoError(t, err)
	require.Len(t, avps, 1)
	children, err := avps[0].Value.Grouped()
	require.NoError(t, err)
	require.Len(t, children, 1)
	v, err := children[0].Value.Unsigned32()
	require.NoError(t, err)
	require.Equal(t, uint32(10415), v)
}

func TestDecodeBodyRejectsInvalidUTF8(t *testing.T) {
	d := mustDict(t)

	avp := &message.Avp{Code: message.AVP_CODE_SESSION_ID, Flags: message.MANDATORY_FLAG, Value: message.Value{Type: dictionary.OctetString, Raw: []byte{0xff, 0xfe}}}
	encoded, err := avp.Encode()
	require.NoError(t, err)

	_, err = message.DecodeBody(encoded, d, 0)
	require.Error(t, err)
	require.Equal(t, direrr.KindInvalidData, direrr.KindOf(err))
}

func TestVendorFlagMismatchRejectedAtEncode(t *testing.T) {
	avp := &message.Avp{Code: 1, Flags: 0, VendorID: 10415, Value: message.NewUnsigned32Value(1)}
	_, err := avp.Encode()
	require.ErrorIs(t, err, message.ErrVendorIDWithoutFlag)
}

func TestAddressRoundTrip(t *testing.T) {
	d := mustDict(t)

	v4, err := message.NewAddressValue(net.ParseIP("192.0.2.10"))
	require.NoError(t, err)
	avp := &message.Avp{Code: message.AVP_CODE_HOST_IP_ADDRESS, Flags: message.MANDATORY_FLAG, Value: v4}
	encoded, err := avp.Encode()
	require.NoError(t, err)

	avps, err := message.DecodeBody(encoded, d, 0)
	require.NoError(t, err)
	ip, err := avps[0].Value.Address()
	require.NoError(t, err)
	require.Equal(t, "192.0.2.10", ip.String())
}
