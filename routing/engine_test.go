package routing

import (
	"context"
	"testing"
	"time"

	"github.com/graylogic-labs/knxnetip/cemi"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		// Use a distinct multicast group per test process run is not
		// possible on a shared loopback, so tests that need isolation
		// set their own addr/port.
		MulticastAddr: DefaultMulticastAddr,
		Port:          0,
		QueueCapacity: 3,
		PaceInterval:  5 * time.Millisecond,
	}
}

func groupFrame(hop uint8) cemi.DataFrame {
	return cemi.DataFrame{
		MessageCode: cemi.MCLDataReq,
		Control1:    cemi.DefaultControlField1(),
		Control2:    cemi.ControlField2{AddressType: cemi.AddressGroup, HopCount: hop},
		Source:      0,
		Destination: 0x0901, // 1/1/1
		TPDU:        []byte{0x00, 0x80},
	}
}

func TestEngineSendDropsZeroHopFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 36710
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer e.Disconnect(context.Background())

	err = e.Send(ctx, groupFrame(0))
	require.ErrorIs(t, err, ErrHopCountZero)
	require.Zero(t, e.Stats().TelegramsTx)
}

func TestEngineHopCountSevenUnchanged(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 36711
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer e.Disconnect(context.Background())

	err = e.Send(ctx, groupFrame(7))
	require.NoError(t, err)

	deadline := time.After(500 * time.Millisecond)
	for e.Stats().TelegramsTx == 0 {
		select {
		case <-deadline:
			t.Fatal("frame was never transmitted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestEngineQueueOverflowEmitsEvent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 36712
	cfg.PaceInterval = time.Hour // freeze the pump so the queue actually fills
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer e.Disconnect(context.Background())

	_, events := e.Subscribe(8)

	// The first Send always dequeues immediately (nothing paced against
	// yet), so cfg.QueueCapacity+1 sends fill the queue before the next
	// one overflows it.
	for i := 0; i < cfg.QueueCapacity+1; i++ {
		require.NoError(t, e.Send(ctx, groupFrame(6)))
	}
	err = e.Send(ctx, groupFrame(6))
	require.ErrorIs(t, err, ErrQueueOverflow)
	require.EqualValues(t, 1, e.Stats().QueueOverflows)

	select {
	case ev := <-events:
		_, ok := ev.(QueueOverflow)
		require.True(t, ok, "expected a QueueOverflow event, got %T", ev)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for QueueOverflow event")
	}
}

func TestEngineDisconnectClosesEventStream(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 36713
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, err := Connect(ctx, cfg)
	require.NoError(t, err)

	_, events := e.Subscribe(1)
	require.NoError(t, e.Disconnect(ctx))

	select {
	case _, ok := <-events:
		require.False(t, ok, "event channel should be closed after Disconnect")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event channel to close")
	}
}
