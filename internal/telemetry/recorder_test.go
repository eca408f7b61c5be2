package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graylogic-labs/knxnetip/cemi"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/routing"
)

func TestNewRecorder_RequiresExactlyOneSource(t *testing.T) {
	_, err := NewRecorder(Deps{Logger: xlog.Default()})
	require.ErrorIs(t, err, ErrMutuallyExclusiveSource)
}

func TestNewRecorder_RequiresLogger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	eng, err := routing.Connect(ctx, routing.Config{Port: 37040})
	require.NoError(t, err)
	defer eng.Disconnect(context.Background())

	_, err = NewRecorder(Deps{Routing: eng})
	require.Error(t, err)
}

func TestRecorderSamplesRoutingStatsAndServesPrometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	eng, err := routing.Connect(ctx, routing.Config{Port: 37041})
	require.NoError(t, err)
	defer eng.Disconnect(context.Background())

	rec, err := NewRecorder(Deps{SiteID: "test-site", Logger: xlog.Default(), Routing: eng})
	require.NoError(t, err)
	rec.interval = 30 * time.Millisecond // fast sampling for the test

	require.NoError(t, rec.Start(ctx))
	defer rec.Close()

	frame := cemi.DataFrame{
		MessageCode: cemi.MCLDataReq,
		Control1:    cemi.DefaultControlField1(),
		Control2:    cemi.ControlField2{AddressType: cemi.AddressGroup, HopCount: 6},
		Destination: 0x0901,
		TPDU:        []byte{0x00, 0x80},
	}
	require.NoError(t, eng.Send(ctx, frame))

	// Only the transmit counter is checked: the looped-back copy is an
	// L_Data.req, which the receive path rejects (it decodes
	// ROUTING_INDICATION bodies as L_Data.ind), so the receive counter
	// stays at zero.
	require.Eventually(t, func() bool {
		ts := httptest.NewServer(rec.Handler())
		defer ts.Close()
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(body), "knxnetip_telegrams_tx_total 1")
	}, time.Second, 20*time.Millisecond)
}
