package sockopt

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConfigureMulticastOnRealSocket exercises the real syscalls against
// a real UDP4 socket bound to an ephemeral port. It is skipped only where
// no UDP4 socket can be opened; a failing sockopt call fails the test.
func TestConfigureMulticastOnRealSocket(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		t.Skipf("no UDP4 socket available: %v", err)
	}
	defer conn.Close()

	err = ConfigureMulticast(conn, Config{ReuseAddr: true, TTL: DefaultMulticastTTL, Loopback: true})
	require.NoError(t, err)
}
