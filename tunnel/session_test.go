package tunnel

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/graylogic-labs/knxnetip/cemi"
	"github.com/graylogic-labs/knxnetip/knxip"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a minimal UDP KNXnet/IP peer standing in for the
// gateway side of a tunnelling session, driven entirely by the
// per-test onFrame callback.
type fakeGateway struct {
	conn    *net.UDPConn
	onFrame func(fg *fakeGateway, serviceType knxip.ServiceType, body []byte, from *net.UDPAddr)

	mu         sync.Mutex
	clientAddr *net.UDPAddr
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	fg := &fakeGateway{conn: conn}
	t.Cleanup(func() { conn.Close() })
	go fg.run()
	return fg
}

func (fg *fakeGateway) addr() string { return fg.conn.LocalAddr().String() }

func (fg *fakeGateway) client() *net.UDPAddr {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	return fg.clientAddr
}

func (fg *fakeGateway) run() {
	buf := make([]byte, 1024)
	for {
		n, from, err := fg.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		fg.mu.Lock()
		if fg.clientAddr == nil {
			fg.clientAddr = from
		}
		fg.mu.Unlock()
		h, err := knxip.DecodeHeader(buf[:n])
		if err != nil {
			continue
		}
		body := append([]byte(nil), buf[knxip.HeaderSize:n]...)
		if fg.onFrame != nil {
			fg.onFrame(fg, h.ServiceType, body, from)
		}
	}
}

func (fg *fakeGateway) send(serviceType knxip.ServiceType, body []byte, to *net.UDPAddr) {
	fg.conn.WriteToUDP(knxip.BuildFrame(serviceType, body), to)
}

func connectResponseBody(channelID byte, status knxip.Status, assignedAddr uint16) []byte {
	body := []byte{channelID, byte(status)}
	body = append(body, knxip.RouteBack(knxip.ProtocolUDP4).Encode()...)
	crd := knxip.CRD{Type: knxip.TunnelConnection, AssignedAddress: assignedAddr}
	body = append(body, crd.Encode()...)
	return body
}

func TestSessionConnectAndWrite(t *testing.T) {
	fg := newFakeGateway(t)
	fg.onFrame = func(fg *fakeGateway, st knxip.ServiceType, body []byte, from *net.UDPAddr) {
		switch st {
		case knxip.ConnectRequest:
			fg.send(knxip.ConnectResponse, connectResponseBody(1, knxip.StatusNoError, 0x1101), from)
		case knxip.TunnellingRequest:
			seq := body[2]
			fg.send(knxip.TunnellingAck, []byte{0x04, 1, seq, byte(knxip.StatusNoError)}, from)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := Connect(ctx, Config{Gateway: fg.addr()})
	require.NoError(t, err)
	defer sess.Disconnect(context.Background())

	require.Equal(t, Connected, sess.State())

	require.NoError(t, sess.Write(ctx, "1/1/1", []byte{0x01}))
	require.EqualValues(t, 1, sess.Stats().TelegramsTx)
}

func TestSessionAckTimeoutRetransmits(t *testing.T) {
	fg := newFakeGateway(t)
	var requests int
	fg.onFrame = func(fg *fakeGateway, st knxip.ServiceType, body []byte, from *net.UDPAddr) {
		switch st {
		case knxip.ConnectRequest:
			fg.send(knxip.ConnectResponse, connectResponseBody(1, knxip.StatusNoError, 0x1101), from)
		case knxip.TunnellingRequest:
			requests++
			if requests == 1 {
				return // drop the first attempt to force a retry
			}
			seq := body[2]
			fg.send(knxip.TunnellingAck, []byte{0x04, 1, seq, byte(knxip.StatusNoError)}, from)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := Connect(ctx, Config{Gateway: fg.addr(), AckTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer sess.Disconnect(context.Background())

	require.NoError(t, sess.Write(ctx, "1/1/1", []byte{0x01}))
	require.EqualValues(t, 2, sess.Stats().TelegramsTx)
}

func TestSessionDuplicateIndicationNotRedelivered(t *testing.T) {
	fg := newFakeGateway(t)
	fg.onFrame = func(fg *fakeGateway, st knxip.ServiceType, body []byte, from *net.UDPAddr) {
		if st == knxip.ConnectRequest {
			fg.send(knxip.ConnectResponse, connectResponseBody(1, knxip.StatusNoError, 0x1101), from)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := Connect(ctx, Config{Gateway: fg.addr()})
	require.NoError(t, err)
	defer sess.Disconnect(context.Background())

	_, events := sess.Subscribe(8)

	frame := cemi.DataFrame{
		MessageCode: cemi.MCLDataInd,
		Control1:    cemi.DefaultControlField1(),
		Control2:    cemi.DefaultControlField2Group(),
		Source:      0x1101,
		Destination: 0x0901,
		TPDU:        []byte{0x00, 0x80},
	}
	cemiBytes, err := frame.Encode()
	require.NoError(t, err)

	indicationBody := append([]byte{0x04, 1, 0x00, 0x00}, cemiBytes...)
	// Deliver the same sequence number twice.
	fg.send(knxip.TunnellingRequest, indicationBody, fg.client())
	time.Sleep(50 * time.Millisecond)
	fg.send(knxip.TunnellingRequest, indicationBody, fg.client())

	var indications int
	deadline := time.After(time.Second)
	for indications == 0 {
		select {
		case ev := <-events:
			if _, ok := ev.(Indication); ok {
				indications++
			}
		case <-deadline:
			t.Fatal("timed out waiting for indication")
		}
	}

	// Give the duplicate a chance to (wrongly) arrive before asserting
	// it didn't.
	select {
	case ev := <-events:
		if _, ok := ev.(Indication); ok {
			t.Fatal("duplicate indication was redelivered")
		}
	case <-time.After(200 * time.Millisecond):
	}
}
