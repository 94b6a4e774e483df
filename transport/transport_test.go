package transport_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariboulabs/diameter/dictionary"
	"github.com/cariboulabs/diameter/message"
	"github.com/cariboulabs/diameter/transport"
)

func TestDialListenRoundTripsAMessage(t *testing.T) {
	dict, err := dictionary.Base()
	require.NoError(t, err)

	ln, err := transport.Listen(transport.NetworkTCP, "127.0.0.1:0", nil, nil)
	require.NoError(t, err)
	defer ln.Close()

	serverMsg := make(chan *message.DiameterMessage, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		msg, err := conn.ReadMessage(dict)
		if err != nil {
			return
		}
		serverMsg <- msg
	}()

	conn, err := transport.Dial(context.Background(), transport.NetworkTCP, ln.Addr().String(), nil, nil)
	require.NoError(t, err)
	defer conn.Close()

	req := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       message.DiameterVersion,
			CommandFlags:  message.FLAG_REQUEST,
			CommandCode:   272,
			ApplicationID: 4,
			HopByHopID:    1,
			EndToEndID:    2,
		},
		AVPs: []*message.Avp{
			{Code: message.AVP_CODE_RESULT_CODE, Flags: message.MANDATORY_FLAG, Value: message.NewUnsigned32Value(uint32(message.DIAMETER_SUCCESS))},
		},
	}
	require.NoError(t, conn.WriteMessage(req))

	got := <-serverMsg
	require.Equal(t, req.Header.CommandCode, got.Header.CommandCode)
	require.Equal(t, req.Header.HopByHopID, got.Header.HopByHopID)
	rc, err := got.AVPs[0].Value.Unsigned32()
	require.NoError(t, err)
	require.Equal(t, uint32(message.DIAMETER_SUCCESS), rc)

	stats := conn.Stats()
	require.Equal(t, uint64(1), stats.MessagesWritten)
	require.Equal(t, uint64(0), stats.MessagesRead)
}

func TestConnStatsCountReadsAndDecodeErrors(t *testing.T) {
	dict, err := dictionary.Base()
	require.NoError(t, err)

	ln, err := transport.Listen(transport.NetworkTCP, "127.0.0.1:0", nil, nil)
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan *transport.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.ReadMessage(dict)
		conn.ReadMessage(dict) // second read sees the malformed frame below
		serverDone <- conn
	}()

	conn, err := transport.Dial(context.Background(), transport.NetworkTCP, ln.Addr().String(), nil, nil)
	require.NoError(t, err)
	defer conn.Close()

	good := &message.DiameterMessage{
		Header: &message.DiameterHeader{Version: message.DiameterVersion, CommandCode: 272, ApplicationID: 4},
	}
	require.NoError(t, conn.WriteMessage(good))

	// A header declaring an invalid (too-short) message length.
	_, err = conn.Write([]byte{0x01, 0x00, 0x00, 0x05, 0x80, 0x00, 0x01, 0x10, 0, 0, 0, 4, 0, 0, 0, 1, 0, 0, 0, 2})
	require.NoError(t, err)

	serverConn := <-serverDone
	stats := serverConn.Stats()
	require.Equal(t, uint64(1), stats.MessagesRead)
	require.Equal(t, uint64(1), stats.DecodeErrors)
}

func TestReadMessageOnClosedConnReturnsConnectionClosed(t *testing.T) {
	dict, err := dictionary.Base()
	require.NoError(t, err)

	ln, err := transport.Listen(transport.NetworkTCP, "127.0.0.1:0", nil, nil)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		close(accepted)
		conn.Close()
	}()

	conn, err := transport.Dial(context.Background(), transport.NetworkTCP, ln.Addr().String(), nil, nil)
	require.NoError(t, err)
	defer conn.Close()

	<-accepted
	_, err = conn.ReadMessage(dict)
	require.Error(t, err)
	require.ErrorIs(t, err, transport.ErrConnectionClosed)
}
