package httpapi

import (
	"fmt"

	"github.com/graylogic-labs/knxnetip/routing"
	"github.com/graylogic-labs/knxnetip/tunnel"
)

// tunnelEventPayload converts a tunnel.Event into a JSON-friendly map for
// WebSocket broadcast. The "type" field names the concrete event so
// clients can discriminate without reflection.
func tunnelEventPayload(ev tunnel.Event) map[string]any {
	switch e := ev.(type) {
	case tunnel.Connected:
		return map[string]any{
			"type":               "connected",
			"channel_id":         e.ChannelID,
			"individual_address": e.IndividualAddress,
		}
	case tunnel.Disconnected:
		payload := map[string]any{"type": "disconnected"}
		if e.Reason != nil {
			payload["reason"] = e.Reason.Error()
		}
		return payload
	case tunnel.Indication:
		return map[string]any{
			"type":        "indication",
			"source":      fmt.Sprintf("0x%04X", e.Frame.Source),
			"destination": fmt.Sprintf("0x%04X", e.Frame.Destination),
		}
	case tunnel.FeatureInfo:
		return map[string]any{"type": "feature_info", "feature_id": e.FeatureID}
	case tunnel.Error:
		return map[string]any{"type": "error", "error": e.Err.Error()}
	default:
		return map[string]any{"type": "unknown"}
	}
}

// routingEventPayload converts a routing.Event into a JSON-friendly map.
func routingEventPayload(ev routing.Event) map[string]any {
	switch e := ev.(type) {
	case routing.Indication:
		return map[string]any{
			"type":        "indication",
			"source":      fmt.Sprintf("0x%04X", e.Frame.Source),
			"destination": fmt.Sprintf("0x%04X", e.Frame.Destination),
		}
	case routing.RoutingBusy:
		return map[string]any{
			"type":         "routing_busy",
			"wait_time_ms": e.WaitTime,
			"busy_counter": e.BusyCounter,
		}
	case routing.RoutingReady:
		return map[string]any{"type": "routing_ready"}
	case routing.LostMessage:
		return map[string]any{
			"type":         "lost_message",
			"device_state": e.DeviceState,
			"lost_count":   e.LostCount,
		}
	case routing.QueueOverflow:
		return map[string]any{"type": "queue_overflow"}
	case routing.SystemBroadcast:
		return map[string]any{"type": "system_broadcast"}
	case routing.Error:
		return map[string]any{"type": "error", "error": e.Err.Error()}
	default:
		return map[string]any{"type": "unknown"}
	}
}
