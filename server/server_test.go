package server_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cariboulabs/diameter/client"
	"github.com/cariboulabs/diameter/message"
	"github.com/cariboulabs/diameter/server"
)

var errHandlerFailed = errors.New("handler intentionally failed")

func echoHandler(req *message.DiameterMessage) (*message.DiameterMessage, error) {
	resp := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       message.DiameterVersion,
			CommandCode:   req.Header.CommandCode,
			ApplicationID: req.Header.ApplicationID,
			EndToEndID:    req.Header.EndToEndID,
		},
		AVPs: []*message.Avp{
			{Code: message.AVP_CODE_RESULT_CODE, Flags: message.MANDATORY_FLAG, Value: message.NewUnsigned32Value(uint32(message.DIAMETER_SUCCESS))},
		},
	}
	return resp, nil
}

func startEchoServer(t *testing.T) (*server.Server, func()) {
	t.Helper()
	s := server.NewServer(server.WithServerAddr("127.0.0.1:0"))
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, echoHandler)
	}()

	return s, func() {
		cancel()
		<-done
	}
}

func TestServerEchoesResponse(t *testing.T) {
	s, stop := startEchoServer(t)
	defer stop()

	ctx := context.Background()
	c, err := client.NewClient(ctx, client.WithServerAddr(s.Addr().String()))
	require.NoError(t, err)
	defer c.Close()

	req := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       message.DiameterVersion,
			CommandFlags:  message.FLAG_REQUEST,
			CommandCode:   272,
			ApplicationID: 4,
		},
	}

	resp, err := c.SendMessage(ctx, req)
	require.NoError(t, err)
	rc, ok := message.ResultCodeOf(resp)
	require.True(t, ok)
	require.Equal(t, message.DIAMETER_SUCCESS, rc)
}

func TestServerHandlesConcurrentRequestsWithDistinctHopByHopIDs(t *testing.T) {
	s, stop := startEchoServer(t)
	defer stop()

	ctx := context.Background()
	c, err := client.NewClient(ctx, client.WithServerAddr(s.Addr().String()))
	require.NoError(t, err)
	defer c.Close()

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			req := &message.DiameterMessage{
				Header: &message.DiameterHeader{
					Version:       message.DiameterVersion,
					CommandFlags:  message.FLAG_REQUEST,
					CommandCode:   272,
					ApplicationID: 4,
				},
			}
			_, err := c.SendMessage(ctx, req)
			errs <- err
		}()
	}

	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
}

func TestServerErrorSinkReceivesHandlerFailure(t *testing.T) {
	sinkCh := make(chan error, 1)
	s := server.NewServer(
		server.WithServerAddr("127.0.0.1:0"),
		server.WithErrorSink(func(remoteAddr string, err error) { sinkCh <- err }),
	)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, func(req *message.DiameterMessage) (*message.DiameterMessage, error) {
			return nil, errHandlerFailed
		})
	}()
	defer func() {
		cancel()
		<-done
	}()

	c, err := client.NewClient(ctx, client.WithServerAddr(s.Addr().String()))
	require.NoError(t, err)
	defer c.Close()

	req := &message.DiameterMessage{
		Header: &message.DiameterHeader{
			Version:       message.DiameterVersion,
			CommandFlags:  message.FLAG_REQUEST,
			CommandCode:   272,
			ApplicationID: 4,
		},
	}

	sendCtx, sendCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer sendCancel()
	_, err = c.SendMessage(sendCtx, req)
	require.Error(t, err) // no response is ever written for a failed handler

	select {
	case sunk := <-sinkCh:
		require.ErrorIs(t, sunk, errHandlerFailed)
	case <-time.After(time.Second):
		t.Fatal("error sink never received the handler failure")
	}
}
