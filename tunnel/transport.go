package tunnel

import (
	"bufio"
	"fmt"
	"net"

	"github.com/graylogic-labs/knxnetip/knxip"
)

// transport abstracts the UDP-datagram vs TCP-stream framing difference:
// TCP framing accumulates a receive buffer until a full frame arrives.
// Every frame ReadFrame returns (and every frame passed to WriteFrame)
// is a complete KNXnet/IP header+body sequence.
type transport interface {
	WriteFrame(frame []byte) error
	ReadFrame() ([]byte, error)
	LocalHPAI(protocol knxip.HostProtocol) (knxip.HPAI, error)
	Close() error
}

const maxFrameSize = 1024

type udpTransport struct {
	conn *net.UDPConn
}

func dialUDP(gateway string) (*udpTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp4", gateway)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrTransport, gateway, err)
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, gateway, err)
	}
	return &udpTransport{conn: conn}, nil
}

func (t *udpTransport) WriteFrame(frame []byte) error {
	_, err := t.conn.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

func (t *udpTransport) ReadFrame() ([]byte, error) {
	buf := make([]byte, maxFrameSize)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return buf[:n], nil
}

func (t *udpTransport) LocalHPAI(protocol knxip.HostProtocol) (knxip.HPAI, error) {
	addr, ok := t.conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return knxip.HPAI{}, fmt.Errorf("%w: unexpected local address type", ErrTransport)
	}
	return knxip.NewHPAI(protocol, addr.IP, uint16(addr.Port))
}

func (t *udpTransport) Close() error { return t.conn.Close() }

type tcpTransport struct {
	conn *net.TCPConn
	r    *bufio.Reader
}

func dialTCP(gateway string) (*tcpTransport, error) {
	raddr, err := net.ResolveTCPAddr("tcp4", gateway)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrTransport, gateway, err)
	}
	conn, err := net.DialTCP("tcp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, gateway, err)
	}
	return &tcpTransport{conn: conn, r: bufio.NewReaderSize(conn, maxFrameSize)}, nil
}

func (t *tcpTransport) WriteFrame(frame []byte) error {
	_, err := t.conn.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// ReadFrame accumulates bytes until a complete frame (per the header's
// total-length field at offset 4) is available, then returns exactly
// that frame.
func (t *tcpTransport) ReadFrame() ([]byte, error) {
	header, err := t.r.Peek(knxip.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	h, err := knxip.DecodeHeader(header)
	if err != nil {
		// Desync: discard one byte and return the error. Session's read
		// loop stops on any ReadFrame error, so the session closes; the
		// stream is not resynchronised.
		t.r.Discard(1)
		return nil, err
	}

	frame := make([]byte, h.TotalLength)
	if _, err := readFull(t.r, frame); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return frame, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *tcpTransport) LocalHPAI(protocol knxip.HostProtocol) (knxip.HPAI, error) {
	addr, ok := t.conn.LocalAddr().(*net.TCPAddr)
	if !ok {
		return knxip.HPAI{}, fmt.Errorf("%w: unexpected local address type", ErrTransport)
	}
	return knxip.NewHPAI(protocol, addr.IP, uint16(addr.Port))
}

func (t *tcpTransport) Close() error { return t.conn.Close() }
