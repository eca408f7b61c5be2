package audit

import (
	"context"
	"fmt"

	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/routing"
	"github.com/graylogic-labs/knxnetip/tunnel"
)

// Deps holds the dependencies required by a Recorder. Exactly one of
// Tunnel or Routing must be set.
type Deps struct {
	Repo   Repository
	SiteID string
	Logger *xlog.Logger

	Tunnel  *tunnel.Session
	Routing *routing.Engine
}

// Recorder subscribes to whichever transport is active and writes an
// audit Event for each occurrence worth keeping: lost messages, queue
// overflows, ROUTING_BUSY throttling, disconnects, and non-fatal
// errors. Routine Indications are not audited.
type Recorder struct {
	repo   Repository
	siteID string
	logger *xlog.Logger

	tunnelSess *tunnel.Session
	routingEng *routing.Engine

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecorder validates Deps and builds a Recorder. Start must be called
// to start consuming events.
func NewRecorder(deps Deps) (*Recorder, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("audit: repo is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("audit: logger is required")
	}
	if (deps.Tunnel == nil) == (deps.Routing == nil) {
		return nil, fmt.Errorf("audit: exactly one of Tunnel or Routing is required")
	}

	return &Recorder{
		repo:       deps.Repo,
		siteID:     deps.SiteID,
		logger:     deps.Logger,
		tunnelSess: deps.Tunnel,
		routingEng: deps.Routing,
	}, nil
}

// Start launches the background subscriber. It does not block.
func (r *Recorder) Start(ctx context.Context) {
	var runCtx context.Context
	runCtx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(runCtx)
}

// Close stops the subscriber and waits for it to exit.
func (r *Recorder) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
	return nil
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)

	switch {
	case r.tunnelSess != nil:
		id, ch := r.tunnelSess.Subscribe(32)
		defer r.tunnelSess.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				r.recordTunnelEvent(ctx, ev)
			}
		}
	case r.routingEng != nil:
		id, ch := r.routingEng.Subscribe(32)
		defer r.routingEng.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				r.recordRoutingEvent(ctx, ev)
			}
		}
	}
}

func (r *Recorder) recordTunnelEvent(ctx context.Context, ev tunnel.Event) {
	var audEv *Event
	switch e := ev.(type) {
	case tunnel.Disconnected:
		details := map[string]any{}
		if e.Reason != nil {
			details["reason"] = e.Reason.Error()
		}
		audEv = &Event{Action: "disconnected", Transport: "tunnel", SiteID: r.siteID, Details: details}
	case tunnel.Error:
		audEv = &Event{Action: "error", Transport: "tunnel", SiteID: r.siteID,
			Details: map[string]any{"error": e.Err.Error()}}
	default:
		return
	}
	r.create(ctx, audEv)
}

func (r *Recorder) recordRoutingEvent(ctx context.Context, ev routing.Event) {
	var audEv *Event
	switch e := ev.(type) {
	case routing.LostMessage:
		audEv = &Event{Action: "lost_message", Transport: "routing", SiteID: r.siteID,
			Details: map[string]any{"device_state": e.DeviceState, "lost_count": e.LostCount}}
	case routing.QueueOverflow:
		audEv = &Event{Action: "queue_overflow", Transport: "routing", SiteID: r.siteID,
			Details: map[string]any{"discarded_bytes": len(e.DiscardedFrame)}}
	case routing.RoutingBusy:
		audEv = &Event{Action: "routing_busy", Transport: "routing", SiteID: r.siteID,
			Details: map[string]any{"wait_time_ms": e.WaitTime, "busy_counter": e.BusyCounter}}
	case routing.Error:
		audEv = &Event{Action: "error", Transport: "routing", SiteID: r.siteID,
			Details: map[string]any{"error": e.Err.Error()}}
	default:
		return
	}
	r.create(ctx, audEv)
}

func (r *Recorder) create(ctx context.Context, ev *Event) {
	if err := r.repo.Create(ctx, ev); err != nil {
		r.logger.Error("writing audit event", "action", ev.Action, "error", err)
	}
}
