package tunnel

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/graylogic-labs/knxnetip/address"
	"github.com/graylogic-labs/knxnetip/cemi"
	"github.com/graylogic-labs/knxnetip/internal/events"
	"github.com/graylogic-labs/knxnetip/internal/sched"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/knxip"
)

// Stats is a snapshot of a Session's counters, safe to read concurrently
// with the session's own event loop.
type Stats struct {
	TelegramsTx uint64
	TelegramsRx uint64
	Errors      uint64
}

type commandKind int

const (
	cmdSend commandKind = iota
	cmdDisconnect
	cmdAbort
	cmdFeatureGet
)

type command struct {
	kind      commandKind
	frame     cemi.DataFrame
	featureID byte
	abortErr  error
	result    chan error
	featureCh chan featureResult
}

type featureResult struct {
	value []byte
	err   error
}

type rxResult struct {
	frame []byte
	err   error
}

// Session is a tunnelling connection to one KNXnet/IP gateway. All
// protocol state is owned by a single goroutine (loop); every exported
// method communicates with it over a channel.
type Session struct {
	cfg      Config
	tr       transport
	protocol knxip.HostProtocol
	logger   *xlog.Logger

	sched *sched.Scheduler
	bus   *events.Bus[Event]

	cmdCh chan *command
	rxCh  chan rxResult
	doneCh chan struct{}

	connectDone     chan error
	connectSignaled bool

	telegramsTx atomic.Uint64
	telegramsRx atomic.Uint64
	errorsTotal atomic.Uint64
	stateAtomic atomic.Int32 // mirror of state, for State()'s concurrent reads

	// loop-owned, touched only by the loop goroutine
	state      State
	channelID  byte
	txSeq      uint8
	rxSeq      uint8
	haveRxSeq  bool

	sendQueue []*command
	inFlight  *command
	retried   bool
	ackToken  sched.Token

	connectToken     sched.Token
	heartbeatToken   sched.Token
	hbTimeoutToken   sched.Token
	hbFailures       int

	disconnectCmd   *command
	disconnectToken sched.Token

	pendingFeature *command
	featureToken   sched.Token
}

// Connect opens a tunnelling session to cfg.Gateway and blocks until the
// handshake succeeds, is rejected, or ctx is done.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	var tr transport
	var protocol knxip.HostProtocol
	var err error
	switch cfg.Mode {
	case ModeTCP:
		tr, err = dialTCP(cfg.Gateway)
		protocol = knxip.ProtocolTCP4
	default:
		tr, err = dialUDP(cfg.Gateway)
		protocol = knxip.ProtocolUDP4
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:         cfg,
		tr:          tr,
		protocol:    protocol,
		logger:      cfg.Logger,
		sched:       sched.New(),
		bus:         events.NewBus[Event](),
		cmdCh:       make(chan *command),
		rxCh:        make(chan rxResult, 16),
		doneCh:      make(chan struct{}),
		connectDone: make(chan error, 1),
		state:       Connecting,
	}
	s.stateAtomic.Store(int32(Connecting))

	go s.readLoop()
	go s.loop()

	select {
	case err := <-s.connectDone:
		if err != nil {
			return nil, err
		}
		return s, nil
	case <-ctx.Done():
		s.abort(ctx.Err())
		return nil, ctx.Err()
	}
}

// abort forces the session closed, used when the caller's context is
// cancelled before the handshake resolves.
func (s *Session) abort(reason error) {
	cmd := &command{kind: cmdAbort, abortErr: reason, result: make(chan error, 1)}
	select {
	case s.cmdCh <- cmd:
		<-cmd.result
	case <-s.doneCh:
	}
}

func (s *Session) readLoop() {
	for {
		frame, err := s.tr.ReadFrame()
		select {
		case s.rxCh <- rxResult{frame: frame, err: err}:
		case <-s.doneCh:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) loop() {
	defer func() {
		s.tr.Close()
		s.bus.Close()
		close(s.doneCh)
	}()

	s.doConnectAttempt()

	for s.state != Closed {
		var timerC <-chan time.Time
		if d, ok := s.sched.NextDeadline(); ok {
			timerC = time.After(time.Until(d))
		}

		select {
		case res := <-s.rxCh:
			if res.err != nil {
				s.onTransportError(res.err)
				continue
			}
			s.handleFrame(res.frame)
		case cmd := <-s.cmdCh:
			s.handleCommand(cmd)
		case t := <-timerC:
			s.sched.RunDue(t)
		}
	}
}

// Subscribe returns a channel delivering this session's events.
func (s *Session) Subscribe(capacity int) (id int, ch <-chan Event) {
	return s.bus.Subscribe(capacity)
}

// Unsubscribe removes a subscription created with Subscribe.
func (s *Session) Unsubscribe(id int) { s.bus.Unsubscribe(id) }

// State returns the session's current lifecycle state, or Closed once
// the session has torn down. Callers needing a transition's exact
// ordering relative to other events should subscribe instead.
func (s *Session) State() State {
	return State(s.stateAtomic.Load())
}

// setState updates both the loop-owned state and its atomic mirror.
// Must only be called from the loop goroutine.
func (s *Session) setState(st State) {
	s.state = st
	s.stateAtomic.Store(int32(st))
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		TelegramsTx: s.telegramsTx.Load(),
		TelegramsRx: s.telegramsRx.Load(),
		Errors:      s.errorsTotal.Load(),
	}
}

// Send transmits a pre-built cEMI L_Data frame and waits for its
// TUNNELLING_ACK (or the final AckTimeout).
func (s *Session) Send(ctx context.Context, frame cemi.DataFrame) error {
	cmd := &command{kind: cmdSend, frame: frame, result: make(chan error, 1)}
	select {
	case s.cmdCh <- cmd:
	case <-s.doneCh:
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

// Write builds an L_Data.req writing value to the given group address
// and sends it. value is an opaque DPT-encoded payload — encoding it is
// the caller's (or an external DPT library's) responsibility.
func (s *Session) Write(ctx context.Context, group string, value []byte) error {
	return s.sendGroupValue(ctx, group, cemi.GroupValueWrite, value)
}

// Read builds a GroupValue_Read L_Data.req for the given group address
// and sends it; the response arrives later as an Indication event.
func (s *Session) Read(ctx context.Context, group string) error {
	return s.sendGroupValue(ctx, group, cemi.GroupValueRead, nil)
}

func (s *Session) sendGroupValue(ctx context.Context, group string, apci cemi.APCI, value []byte) error {
	dst, err := address.Pack(group, address.Group3Level)
	if err != nil {
		return err
	}
	tpdu, _, err := cemi.EncodeAPDU(cemi.TPCIDataGroup, apci, value)
	if err != nil {
		return err
	}
	frame := cemi.DataFrame{
		MessageCode: cemi.MCLDataReq,
		Control1:    cemi.DefaultControlField1(),
		Control2:    cemi.DefaultControlField2Group(),
		Source:      0,
		Destination: dst,
		TPDU:        tpdu,
	}
	return s.Send(ctx, frame)
}

// GetFeature issues a TUNNELLING_FEATURE_GET and waits for its response.
func (s *Session) GetFeature(ctx context.Context, featureID byte) ([]byte, error) {
	cmd := &command{kind: cmdFeatureGet, featureID: featureID, result: make(chan error, 1), featureCh: make(chan featureResult, 1)}
	select {
	case s.cmdCh <- cmd:
	case <-s.doneCh:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-cmd.featureCh:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect emits DISCONNECT_REQUEST and waits for its response (or the
// 1 s forced-close timeout).
func (s *Session) Disconnect(ctx context.Context) error {
	cmd := &command{kind: cmdDisconnect, result: make(chan error, 1)}
	select {
	case s.cmdCh <- cmd:
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.result:
		return err
	case <-s.doneCh:
		return nil
	}
}

// --- loop-goroutine-only methods below ---

func (s *Session) handleCommand(cmd *command) {
	switch cmd.kind {
	case cmdSend:
		if s.state != Connected {
			cmd.result <- ErrClosed
			return
		}
		s.sendQueue = append(s.sendQueue, cmd)
		s.pumpSendQueue()
	case cmdDisconnect:
		s.beginDisconnect(cmd)
	case cmdAbort:
		cmd.result <- nil
		s.transitionClosed(cmd.abortErr)
	case cmdFeatureGet:
		s.beginFeatureGet(cmd)
	}
}

func (s *Session) signalConnect(err error) {
	if s.connectSignaled {
		return
	}
	s.connectSignaled = true
	select {
	case s.connectDone <- err:
	default:
	}
}

func (s *Session) doConnectAttempt() {
	if err := s.sendConnectRequest(); err != nil {
		s.signalConnect(err)
		s.setState(Closed)
		return
	}
	s.connectToken = s.sched.Schedule(time.Now(), s.cfg.ConnectTimeout, s.onConnectTimeout)
}

func (s *Session) sendConnectRequest() error {
	hpai, err := s.tr.LocalHPAI(s.protocol)
	if err != nil {
		return err
	}
	cri := knxip.CRI{Type: s.cfg.ConnectionType, Layer: s.cfg.Layer}
	body := append(append(hpai.Encode(), hpai.Encode()...), cri.Encode()...)
	return s.tr.WriteFrame(knxip.BuildFrame(knxip.ConnectRequest, body))
}

func (s *Session) onConnectTimeout() {
	s.bus.Publish(Error{Err: ErrConnectTimeout})
	s.connectToken = s.sched.Schedule(time.Now(), DefaultConnectBackoff, s.doConnectAttempt)
}

func (s *Session) onTransportError(err error) {
	s.errorsTotal.Add(1)
	wrapped := fmt.Errorf("%w: %w", ErrTransport, err)
	s.signalConnect(wrapped)
	s.transitionClosed(wrapped)
}

func (s *Session) handleFrame(raw []byte) {
	h, err := knxip.DecodeHeader(raw)
	if err != nil {
		s.errorsTotal.Add(1)
		s.bus.Publish(Error{Err: err})
		return
	}
	body := raw[knxip.HeaderSize:]

	switch h.ServiceType {
	case knxip.ConnectResponse:
		s.handleConnectResponse(body)
	case knxip.ConnectionStateRequest:
		s.handleConnectionStateRequest(body)
	case knxip.ConnectionStateResponse:
		s.handleConnectionStateResponse(body)
	case knxip.TunnellingRequest, knxip.DeviceConfigurationRequest:
		s.handleInboundRequest(body)
	case knxip.TunnellingAck, knxip.DeviceConfigurationAck:
		s.handleAck(body)
	case knxip.DisconnectRequest:
		s.handleDisconnectRequest(body)
	case knxip.DisconnectResponse:
		s.handleDisconnectResponse(body)
	case knxip.TunnellingFeatureResponse:
		s.handleFeatureResponse(body)
	case knxip.TunnellingFeatureInfo:
		s.handleFeatureInfo(body)
	default:
		// Unknown/irrelevant service type for a tunnelling session; ignored.
	}
}

func (s *Session) handleConnectResponse(body []byte) {
	if s.state != Connecting || len(body) < 2 {
		return
	}
	channelID := body[0]
	status := knxip.Status(body[1])
	if status != knxip.StatusNoError {
		err := fmt.Errorf("%w: status %s", ErrConnectRejected, status)
		s.signalConnect(err)
		s.transitionClosed(err)
		return
	}

	s.channelID = channelID
	s.txSeq = 0
	s.rxSeq = 0
	s.haveRxSeq = false
	s.sched.Cancel(s.connectToken)
	s.setState(Connected)

	indivAddr := ""
	if len(body) >= knxip.HPAISize+2+4 {
		crd, err := knxip.DecodeCRD(body[knxip.HPAISize+2:])
		if err == nil && crd.Type == knxip.TunnelConnection {
			if addr, unpackErr := address.Unpack(crd.AssignedAddress, address.Individual); unpackErr == nil {
				indivAddr = addr
			}
		}
	}

	s.bus.Publish(Connected{ChannelID: channelID, IndividualAddress: indivAddr})
	s.signalConnect(nil)
	s.scheduleHeartbeat()
	s.pumpSendQueue()
}

func (s *Session) scheduleHeartbeat() {
	s.heartbeatToken = s.sched.Schedule(time.Now(), s.cfg.HeartbeatPeriod, s.sendHeartbeat)
}

func (s *Session) sendHeartbeat() {
	hpai, err := s.tr.LocalHPAI(s.protocol)
	if err != nil {
		return
	}
	body := append([]byte{s.channelID, 0x00}, hpai.Encode()...)
	if err := s.tr.WriteFrame(knxip.BuildFrame(knxip.ConnectionStateRequest, body)); err != nil {
		s.onTransportError(err)
		return
	}
	s.hbTimeoutToken = s.sched.Schedule(time.Now(), s.cfg.HeartbeatTimeout, s.onHeartbeatTimeout)
}

func (s *Session) onHeartbeatTimeout() {
	s.hbFailures++
	if s.hbFailures >= s.cfg.HeartbeatStrikes {
		s.transitionClosed(ErrHeartbeatFailed)
		return
	}
	s.sendHeartbeat()
}

func (s *Session) handleConnectionStateRequest(body []byte) {
	if len(body) < 1 || body[0] != s.channelID {
		return
	}
	resp := []byte{s.channelID, byte(knxip.StatusNoError)}
	s.tr.WriteFrame(knxip.BuildFrame(knxip.ConnectionStateResponse, resp))
}

func (s *Session) handleConnectionStateResponse(body []byte) {
	if len(body) < 2 || body[0] != s.channelID {
		return
	}
	if knxip.Status(body[1]) != knxip.StatusNoError {
		return
	}
	s.sched.Cancel(s.hbTimeoutToken)
	s.hbFailures = 0
	s.scheduleHeartbeat()
}

func (s *Session) pumpSendQueue() {
	if s.inFlight != nil || len(s.sendQueue) == 0 || s.state != Connected {
		return
	}
	cmd := s.sendQueue[0]
	s.sendQueue = s.sendQueue[1:]
	s.inFlight = cmd
	s.retried = false
	s.transmitInFlight()
}

func (s *Session) transmitInFlight() {
	cemiBytes, err := s.inFlight.frame.Encode()
	if err != nil {
		s.inFlight.result <- err
		s.inFlight = nil
		s.pumpSendQueue()
		return
	}

	connHeader := []byte{0x04, s.channelID, s.txSeq, 0x00}
	body := append(connHeader, cemiBytes...)
	service := knxip.TunnellingRequest
	if s.cfg.ConnectionType == knxip.DeviceManagementConnection {
		service = knxip.DeviceConfigurationRequest
	}
	if err := s.tr.WriteFrame(knxip.BuildFrame(service, body)); err != nil {
		cmd := s.inFlight
		s.inFlight = nil
		cmd.result <- fmt.Errorf("%w: %w", ErrTransport, err)
		s.onTransportError(err)
		return
	}
	s.telegramsTx.Add(1)
	s.ackToken = s.sched.Schedule(time.Now(), s.cfg.AckTimeout, s.onAckTimeout)
}

func (s *Session) onAckTimeout() {
	if s.inFlight == nil {
		return
	}
	if !s.retried {
		s.retried = true
		s.transmitInFlight()
		return
	}

	cmd := s.inFlight
	s.inFlight = nil
	cmd.result <- ErrAckTimeout
	s.failAllQueued(ErrAckTimeout)
	s.transitionClosed(ErrAckTimeout)
}

func (s *Session) handleAck(body []byte) {
	if len(body) < 4 {
		return
	}
	channelID, seq, status := body[1], body[2], knxip.Status(body[3])
	if channelID != s.channelID || s.inFlight == nil || seq != s.txSeq {
		return
	}

	s.sched.Cancel(s.ackToken)
	cmd := s.inFlight
	s.inFlight = nil
	s.txSeq++

	if status != knxip.StatusNoError {
		cmd.result <- fmt.Errorf("%w: ack status %s", ErrTransport, status)
	} else {
		cmd.result <- nil
	}
	s.pumpSendQueue()
}

func (s *Session) handleInboundRequest(body []byte) {
	if len(body) < 4 {
		return
	}
	channelID, seq := body[1], body[2]
	if channelID != s.channelID {
		return
	}
	cemiBytes := body[4:]

	switch {
	case !s.haveRxSeq || seq == s.rxSeq:
		s.sendAck(seq, knxip.StatusNoError)
		s.rxSeq = seq + 1
		s.haveRxSeq = true
		s.deliverIndication(cemiBytes)
	case seq == s.rxSeq-1:
		s.sendAck(seq, knxip.StatusNoError) // duplicate: re-ack, no indication
	default:
		// out of sequence, silently dropped
	}
}

func (s *Session) deliverIndication(cemiBytes []byte) {
	frame, err := cemi.DecodeDataFrame(cemiBytes, cemi.MCLDataInd)
	if err != nil {
		s.errorsTotal.Add(1)
		s.bus.Publish(Error{Err: err})
		return
	}
	s.telegramsRx.Add(1)
	s.bus.Publish(RawMessage{Bytes: cemiBytes})
	s.bus.Publish(Indication{Frame: frame})
}

func (s *Session) sendAck(seq byte, status knxip.Status) {
	service := knxip.TunnellingAck
	if s.cfg.ConnectionType == knxip.DeviceManagementConnection {
		service = knxip.DeviceConfigurationAck
	}
	body := []byte{0x04, s.channelID, seq, byte(status)}
	s.tr.WriteFrame(knxip.BuildFrame(service, body))
}

func (s *Session) beginDisconnect(cmd *command) {
	if s.state == Closed || s.state == Disconnecting {
		cmd.result <- ErrClosed
		return
	}
	s.setState(Disconnecting)
	hpai, _ := s.tr.LocalHPAI(s.protocol)
	body := append([]byte{s.channelID, 0x00}, hpai.Encode()...)
	s.tr.WriteFrame(knxip.BuildFrame(knxip.DisconnectRequest, body))
	s.disconnectCmd = cmd
	s.disconnectToken = s.sched.Schedule(time.Now(), s.cfg.DisconnectWait, func() {
		s.finishDisconnect()
	})
}

func (s *Session) handleDisconnectRequest(body []byte) {
	if len(body) < 1 || body[0] != s.channelID {
		return
	}
	resp := []byte{s.channelID, byte(knxip.StatusNoError)}
	s.tr.WriteFrame(knxip.BuildFrame(knxip.DisconnectResponse, resp))
	s.transitionClosed(nil)
}

func (s *Session) handleDisconnectResponse(body []byte) {
	if len(body) < 1 || body[0] != s.channelID {
		return
	}
	s.finishDisconnect()
}

func (s *Session) finishDisconnect() {
	s.sched.Cancel(s.disconnectToken)
	if s.disconnectCmd != nil {
		s.disconnectCmd.result <- nil
		s.disconnectCmd = nil
	}
	s.transitionClosed(nil)
}

func (s *Session) beginFeatureGet(cmd *command) {
	if s.state != Connected {
		cmd.featureCh <- featureResult{err: ErrClosed}
		return
	}
	body := []byte{0x04, s.channelID, 0x00, 0x00, cmd.featureID}
	if err := s.tr.WriteFrame(knxip.BuildFrame(knxip.TunnellingFeatureGet, body)); err != nil {
		cmd.featureCh <- featureResult{err: fmt.Errorf("%w: %w", ErrTransport, err)}
		return
	}
	s.pendingFeature = cmd
	s.featureToken = s.sched.Schedule(time.Now(), s.cfg.FeatureTimeout, s.onFeatureTimeout)
}

func (s *Session) onFeatureTimeout() {
	if s.pendingFeature == nil {
		return
	}
	cmd := s.pendingFeature
	s.pendingFeature = nil
	cmd.featureCh <- featureResult{err: ErrFeatureTimeout}
}

func (s *Session) handleFeatureResponse(body []byte) {
	if len(body) < 5 || s.pendingFeature == nil {
		return
	}
	channelID, featureID, status := body[1], body[4], knxip.Status(body[3])
	if channelID != s.channelID || featureID != s.pendingFeature.featureID {
		return
	}
	s.sched.Cancel(s.featureToken)
	cmd := s.pendingFeature
	s.pendingFeature = nil

	if status != knxip.StatusNoError {
		cmd.featureCh <- featureResult{err: fmt.Errorf("%w: status %s", ErrFeatureRejected, status)}
		return
	}
	value := append([]byte(nil), body[5:]...)
	cmd.featureCh <- featureResult{value: value}
}

func (s *Session) handleFeatureInfo(body []byte) {
	if len(body) < 5 {
		return
	}
	featureID := body[4]
	value := append([]byte(nil), body[5:]...)
	s.bus.Publish(FeatureInfo{FeatureID: featureID, Value: value})
}

func (s *Session) failAllQueued(reason error) {
	for _, cmd := range s.sendQueue {
		cmd.result <- reason
	}
	s.sendQueue = nil
}

func (s *Session) transitionClosed(reason error) {
	if s.state == Closed {
		return
	}
	s.setState(Closed)
	s.failAllQueued(ErrClosed)
	if s.inFlight != nil {
		s.inFlight.result <- ErrClosed
		s.inFlight = nil
	}
	if s.pendingFeature != nil {
		s.pendingFeature.featureCh <- featureResult{err: ErrClosed}
		s.pendingFeature = nil
	}
	if s.disconnectCmd != nil {
		s.disconnectCmd.result <- reason
		s.disconnectCmd = nil
	}
	s.bus.Publish(Disconnected{Reason: reason})
}
