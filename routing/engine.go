package routing

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/graylogic-labs/knxnetip/address"
	"github.com/graylogic-labs/knxnetip/cemi"
	"github.com/graylogic-labs/knxnetip/internal/events"
	"github.com/graylogic-labs/knxnetip/internal/sched"
	"github.com/graylogic-labs/knxnetip/internal/sockopt"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/knxip"
)

// Stats is a snapshot of an Engine's counters.
type Stats struct {
	TelegramsTx    uint64
	TelegramsRx    uint64
	QueueOverflows uint64
	LostToIP       uint64 // multicast send errors, the queue-overflow-to-IP counter
}

type commandKind int

const (
	cmdSend commandKind = iota
	cmdDisconnect
)

type command struct {
	kind   commandKind
	body   []byte
	result chan error
}

type rxResult struct {
	frame []byte
	from  *net.UDPAddr
	err   error
}

type queueItem struct {
	body []byte
}

// Engine is a KNXnet/IP routing peer: a UDP multicast socket with the
// protocol's flow-control state machine layered on top. All state is
// owned by a single goroutine (loop).
type Engine struct {
	cfg       Config
	conn      *net.UDPConn
	groupAddr *net.UDPAddr
	logger    *xlog.Logger

	sched *sched.Scheduler
	bus   *events.Bus[Event]

	cmdCh  chan *command
	rxCh   chan rxResult
	doneCh chan struct{}
	closed atomic.Bool

	telegramsTx    atomic.Uint64
	telegramsRx    atomic.Uint64
	queueOverflows atomic.Uint64
	lostToIP       atomic.Uint64

	// loop-owned
	queue        []queueItem
	busy         bool
	busyCounter  int
	haveLastBusy bool
	lastBusyTime time.Time
	haveLastSend bool
	lastSendTime time.Time

	pumpToken  sched.Token
	busyToken  sched.Token
	decayToken sched.Token
}

// Connect opens the multicast socket and starts the engine's event loop.
func Connect(ctx context.Context, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()

	groupAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", cfg.MulticastAddr, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve multicast group: %w", ErrTransport, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, groupAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: join multicast group: %w", ErrTransport, err)
	}
	if err := sockopt.ConfigureMulticast(conn, sockopt.Config{
		ReuseAddr: true,
		TTL:       cfg.MulticastTTL,
		Loopback:  true,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	e := &Engine{
		cfg:       cfg,
		conn:      conn,
		groupAddr: groupAddr,
		logger:    cfg.Logger,
		sched:     sched.New(),
		bus:       events.NewBus[Event](),
		cmdCh:     make(chan *command),
		rxCh:      make(chan rxResult, 16),
		doneCh:    make(chan struct{}),
	}

	go e.readLoop()
	go e.loop()

	return e, nil
}

func (e *Engine) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, from, err := e.conn.ReadFromUDP(buf)
		var frame []byte
		if err == nil {
			frame = append([]byte(nil), buf[:n]...)
		}
		select {
		case e.rxCh <- rxResult{frame: frame, from: from, err: err}:
		case <-e.doneCh:
			return
		}
		if err != nil {
			return
		}
	}
}

func (e *Engine) loop() {
	defer func() {
		e.conn.Close()
		e.bus.Close()
		close(e.doneCh)
	}()

	for !e.closed.Load() {
		var timerC <-chan time.Time
		if d, ok := e.sched.NextDeadline(); ok {
			timerC = time.After(time.Until(d))
		}

		select {
		case res := <-e.rxCh:
			if res.err != nil {
				e.shutdown()
				continue
			}
			e.handleFrame(res.frame, res.from)
		case cmd := <-e.cmdCh:
			e.handleCommand(cmd)
		case t := <-timerC:
			e.sched.RunDue(t)
		}
	}
}

// Subscribe returns a channel delivering this engine's events.
func (e *Engine) Subscribe(capacity int) (id int, ch <-chan Event) {
	return e.bus.Subscribe(capacity)
}

// Unsubscribe removes a subscription created with Subscribe.
func (e *Engine) Unsubscribe(id int) { e.bus.Unsubscribe(id) }

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		TelegramsTx:    e.telegramsTx.Load(),
		TelegramsRx:    e.telegramsRx.Load(),
		QueueOverflows: e.queueOverflows.Load(),
		LostToIP:       e.lostToIP.Load(),
	}
}

// Send decrements frame's hop count per the routing rule and enqueues
// it as a ROUTING_INDICATION. Returns ErrHopCountZero (frame dropped,
// not an error condition the caller need act on) when the hop count was
// already zero, and ErrQueueOverflow when the bounded send queue is full.
func (e *Engine) Send(ctx context.Context, frame cemi.DataFrame) error {
	newHop, ok := cemi.DecrementHopCount(frame.Control2.HopCount)
	if !ok {
		return ErrHopCountZero
	}
	frame.Control2.HopCount = newHop

	body, err := frame.Encode()
	if err != nil {
		return err
	}

	cmd := &command{kind: cmdSend, body: body, result: make(chan error, 1)}
	select {
	case e.cmdCh <- cmd:
	case <-e.doneCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect leaves the multicast group, closes the socket, and clears
// all pending timers.
func (e *Engine) Disconnect(ctx context.Context) error {
	cmd := &command{kind: cmdDisconnect, result: make(chan error, 1)}
	select {
	case e.cmdCh <- cmd:
	case <-e.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.result:
		return nil
	case <-e.doneCh:
		return nil
	}
}

// --- loop-goroutine-only methods below ---

func (e *Engine) handleCommand(cmd *command) {
	switch cmd.kind {
	case cmdSend:
		e.enqueue(cmd.body, cmd.result)
	case cmdDisconnect:
		cmd.result <- nil
		e.shutdown()
	}
}

func (e *Engine) enqueue(body []byte, result chan error) {
	if len(e.queue) >= e.cfg.QueueCapacity {
		e.queueOverflows.Add(1)
		e.sendLostMessage()
		e.bus.Publish(QueueOverflow{DiscardedFrame: body})
		result <- ErrQueueOverflow
		return
	}
	e.queue = append(e.queue, queueItem{body: body})
	result <- nil
	e.pumpQueue()
}

func (e *Engine) pumpQueue() {
	if e.busy || len(e.queue) == 0 {
		return
	}

	now := time.Now()
	if e.haveLastSend {
		elapsed := now.Sub(e.lastSendTime)
		if elapsed < e.cfg.PaceInterval {
			e.sched.Cancel(e.pumpToken)
			e.pumpToken = e.sched.Schedule(now, e.cfg.PaceInterval-elapsed, e.pumpQueue)
			return
		}
	}

	item := e.queue[0]
	e.queue = e.queue[1:]
	e.transmit(item.body)
	e.lastSendTime = time.Now()
	e.haveLastSend = true

	if len(e.queue) > 0 {
		e.pumpToken = e.sched.Schedule(time.Now(), e.cfg.PaceInterval, e.pumpQueue)
	}
}

func (e *Engine) transmit(body []byte) {
	packet := knxip.BuildFrame(knxip.RoutingIndication, body)
	if _, err := e.conn.WriteToUDP(packet, e.groupAddr); err != nil {
		e.lostToIP.Add(1)
		e.bus.Publish(Error{Err: fmt.Errorf("%w: %w", ErrTransport, err)})
		return
	}
	e.telegramsTx.Add(1)
}

func (e *Engine) sendLostMessage() {
	body := []byte{0x00, 0x01} // device-state=0, count=1
	packet := knxip.BuildFrame(knxip.RoutingLostMessage, body)
	if _, err := e.conn.WriteToUDP(packet, e.groupAddr); err != nil {
		e.lostToIP.Add(1)
		e.bus.Publish(Error{Err: fmt.Errorf("%w: %w", ErrTransport, err)})
	}
}

func (e *Engine) shutdown() {
	if e.closed.Load() {
		return
	}
	e.closed.Store(true)
	e.queue = nil
}

func (e *Engine) handleFrame(raw []byte, from *net.UDPAddr) {
	h, err := knxip.DecodeHeader(raw)
	if err != nil {
		e.bus.Publish(Error{Err: err})
		return
	}
	body := raw[knxip.HeaderSize:]

	switch h.ServiceType {
	case knxip.RoutingIndication:
		e.handleRoutingIndication(body)
	case knxip.RoutingBusy:
		e.handleRoutingBusy(body)
	case knxip.RoutingLostMessage:
		e.handleLostMessage(body)
	case knxip.RoutingSystemBroadcast:
		e.bus.Publish(SystemBroadcast{Body: append([]byte(nil), body...)})
	case knxip.SearchRequest:
		e.handleSearchRequest(body, from)
	case knxip.DescriptionRequest:
		e.handleDescriptionRequest(body, from)
	default:
		// Not a routing-relevant service type; ignored.
	}
}

func (e *Engine) handleRoutingIndication(body []byte) {
	frame, err := cemi.DecodeDataFrame(body, cemi.MCLDataInd)
	if err != nil {
		e.bus.Publish(Error{Err: err})
		return
	}
	e.telegramsRx.Add(1)
	e.bus.Publish(RawIndication{Bytes: append([]byte(nil), body...)})
	e.bus.Publish(Indication{Frame: frame})
}

func (e *Engine) handleLostMessage(body []byte) {
	if len(body) < 2 {
		return
	}
	e.bus.Publish(LostMessage{DeviceState: body[0], LostCount: body[1]})
}

// handleRoutingBusy implements the ROUTING_BUSY flow-control handling: the
// busy-counter increment (gated by a 10ms re-arrival window), the
// wait-time computation and pause for a control-field-0 (generic busy)
// frame, and (re)starting the counter's decay schedule.
func (e *Engine) handleRoutingBusy(body []byte) {
	if len(body) < 4 {
		return
	}
	waitTime := uint16(body[1])<<8 | uint16(body[2])
	controlField := body[3]

	now := time.Now()
	if !e.haveLastBusy || now.Sub(e.lastBusyTime) > DefaultBusyGapWindow {
		e.busyCounter++
	}
	e.lastBusyTime = now
	e.haveLastBusy = true

	if controlField == 0 {
		jitter := time.Duration(rand.Int63n(int64(time.Duration(e.busyCounter)*50*time.Millisecond) + 1))
		waitTotal := time.Duration(waitTime)*time.Millisecond + jitter
		e.busy = true
		e.sched.Cancel(e.busyToken)
		e.busyToken = e.sched.Schedule(now, waitTotal, e.onBusyTimeout)
	}

	e.bus.Publish(RoutingBusy{WaitTime: waitTime, ControlField: controlField, BusyCounter: e.busyCounter})
	e.scheduleBusyDecay(now)
}

func (e *Engine) onBusyTimeout() {
	e.busy = false
	e.bus.Publish(RoutingReady{})
	e.pumpQueue()
}

func (e *Engine) scheduleBusyDecay(now time.Time) {
	e.sched.Cancel(e.decayToken)
	if e.busyCounter <= 0 {
		return
	}
	tSlow := time.Duration(e.busyCounter) * DefaultBusyDecayUnit
	e.decayToken = e.sched.Schedule(now, tSlow, e.decayTick)
}

func (e *Engine) decayTick() {
	if e.busyCounter <= 0 {
		return
	}
	e.busyCounter--
	if e.busyCounter > 0 {
		e.decayToken = e.sched.Schedule(time.Now(), DefaultBusyTickEvery, e.decayTick)
	}
}

func (e *Engine) localHPAI() knxip.HPAI {
	addr, ok := e.conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsUnspecified() {
		return knxip.RouteBack(knxip.ProtocolUDP4)
	}
	hpai, err := knxip.NewHPAI(knxip.ProtocolUDP4, addr.IP, uint16(addr.Port))
	if err != nil {
		return knxip.RouteBack(knxip.ProtocolUDP4)
	}
	return hpai
}

func (e *Engine) replyAddr(reqHPAI knxip.HPAI, from *net.UDPAddr) *net.UDPAddr {
	if reqHPAI.IsRouteBack() {
		return from
	}
	return &net.UDPAddr{IP: reqHPAI.IP(), Port: int(reqHPAI.Port)}
}

func (e *Engine) deviceInfoDIB() knxip.DeviceInfo {
	var indivAddr uint16
	if e.cfg.IndividualAddress != "" {
		indivAddr, _ = address.Pack(e.cfg.IndividualAddress, address.Individual)
	}
	var mcast [4]byte
	if ip := e.groupAddr.IP.To4(); ip != nil {
		copy(mcast[:], ip)
	}
	return knxip.DeviceInfo{
		Medium:            knxip.MediumIP,
		IndividualAddress: indivAddr,
		ProjectInstallID:  e.cfg.ProjectInstallID,
		Serial:            e.cfg.Serial,
		MulticastAddr:     mcast,
		MAC:               e.cfg.MAC,
		FriendlyName:      e.cfg.FriendlyName,
	}
}

func (e *Engine) handleSearchRequest(body []byte, from *net.UDPAddr) {
	reqHPAI, err := knxip.DecodeHPAI(body)
	if err != nil {
		e.bus.Publish(Error{Err: err})
		return
	}
	resp := append(e.localHPAI().Encode(), e.deviceInfoDIB().Encode()...)
	resp = append(resp, knxip.DefaultSupportedServices().Encode()...)
	e.conn.WriteToUDP(knxip.BuildFrame(knxip.SearchResponse, resp), e.replyAddr(reqHPAI, from))
}

func (e *Engine) handleDescriptionRequest(body []byte, from *net.UDPAddr) {
	reqHPAI, err := knxip.DecodeHPAI(body)
	if err != nil {
		e.bus.Publish(Error{Err: err})
		return
	}
	resp := append(e.deviceInfoDIB().Encode(), knxip.DefaultSupportedServices().Encode()...)
	e.conn.WriteToUDP(knxip.BuildFrame(knxip.DescriptionResponse, resp), e.replyAddr(reqHPAI, from))
}
