// Package sockopt applies the low-level socket options the routing
// engine needs on its multicast UDP socket (SO_REUSEADDR so more than
// one process can join the same group, IP_MULTICAST_TTL, and
// IP_MULTICAST_LOOP) directly on the file descriptor behind a
// net.PacketConn, the way sockstats's exporter pulls the fd out of a
// net.Conn to read TCP_INFO.
package sockopt

import (
	"fmt"
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// DefaultMulticastTTL is the hop count routed KNXnet/IP frames are sent
// with.
const DefaultMulticastTTL = 128

// Config selects which options ConfigureMulticast applies.
type Config struct {
	ReuseAddr bool
	TTL       int  // 0 leaves the OS default in place
	Loopback  bool // whether this host should receive its own multicast sends
}

// ConfigureMulticast applies cfg to the file descriptor behind conn.
// Pass the *net.UDPConn returned by net.ListenUDP/net.ListenMulticastUDP
// — it satisfies net.Conn as well as net.PacketConn.
func ConfigureMulticast(conn net.Conn, cfg Config) error {
	fd := netfd.GetFdFromConn(conn)
	if fd < 0 {
		return fmt.Errorf("sockopt: could not obtain file descriptor from %T", conn)
	}

	if cfg.ReuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fmt.Errorf("sockopt: SO_REUSEADDR: %w", err)
		}
	}
	if cfg.TTL > 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, cfg.TTL); err != nil {
			return fmt.Errorf("sockopt: IP_MULTICAST_TTL: %w", err)
		}
	}
	loop := 0
	if cfg.Loopback {
		loop = 1
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, loop); err != nil {
		return fmt.Errorf("sockopt: IP_MULTICAST_LOOP: %w", err)
	}
	return nil
}
