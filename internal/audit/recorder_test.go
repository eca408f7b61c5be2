package audit

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/knxip"
	"github.com/graylogic-labs/knxnetip/routing"
)

func TestNewRecorder_RequiresExactlyOneSource(t *testing.T) {
	_, err := NewRecorder(Deps{Repo: &SQLiteRepository{}, Logger: xlog.Default()})
	require.Error(t, err)
}

func TestRecorderWritesLostMessageEvent(t *testing.T) {
	const port = 37050
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	eng, err := routing.Connect(ctx, routing.Config{Port: port})
	require.NoError(t, err)
	defer eng.Disconnect(context.Background())

	repo := openTestRepo(t)
	rec, err := NewRecorder(Deps{Repo: repo, SiteID: "site-001", Logger: xlog.Default(), Routing: eng})
	require.NoError(t, err)
	rec.Start(ctx)
	defer rec.Close()

	// Craft a raw ROUTING_LOST_MESSAGE and send it to the multicast group;
	// multicast loopback delivers it back to the engine's own socket.
	packet := knxip.BuildFrame(knxip.RoutingLostMessage, []byte{0x00, 0x05})
	conn, err := net.Dial("udp4", fmt.Sprintf("%s:%d", routing.DefaultMulticastAddr, port))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(packet)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		result, err := repo.List(context.Background(), Filter{Action: "lost_message"})
		return err == nil && result.Total == 1
	}, time.Second, 20*time.Millisecond)
}
