package knxip

// ServiceType is the 16-bit big-endian field at bytes 2-3 of a KNXnet/IP
// header, identifying the payload that follows.
type ServiceType uint16

// Service types the core transports use.
const (
	SearchRequest         ServiceType = 0x0201
	SearchResponse        ServiceType = 0x0202
	SearchRequestExtended ServiceType = 0x020B
	SearchResponseExtended ServiceType = 0x020C

	DescriptionRequest  ServiceType = 0x0203
	DescriptionResponse ServiceType = 0x0204

	ConnectRequest  ServiceType = 0x0205
	ConnectResponse ServiceType = 0x0206

	ConnectionStateRequest  ServiceType = 0x0207
	ConnectionStateResponse ServiceType = 0x0208

	DisconnectRequest  ServiceType = 0x0209
	DisconnectResponse ServiceType = 0x020A

	DeviceConfigurationRequest ServiceType = 0x0310
	DeviceConfigurationAck     ServiceType = 0x0311

	TunnellingRequest ServiceType = 0x0420
	TunnellingAck     ServiceType = 0x0421

	TunnellingFeatureGet      ServiceType = 0x0422
	TunnellingFeatureResponse ServiceType = 0x0423
	TunnellingFeatureInfo     ServiceType = 0x0425

	RoutingIndication    ServiceType = 0x0530
	RoutingLostMessage   ServiceType = 0x0531
	RoutingBusy          ServiceType = 0x0532
	RoutingSystemBroadcast ServiceType = 0x0533
)

// String returns the service type's mnemonic name for logging.
func (s ServiceType) String() string {
	switch s {
	case SearchRequest:
		return "SEARCH_REQUEST"
	case SearchResponse:
		return "SEARCH_RESPONSE"
	case SearchRequestExtended:
		return "SEARCH_REQUEST_EXTENDED"
	case SearchResponseExtended:
		return "SEARCH_RESPONSE_EXTENDED"
	case DescriptionRequest:
		return "DESCRIPTION_REQUEST"
	case DescriptionResponse:
		return "DESCRIPTION_RESPONSE"
	case ConnectRequest:
		return "CONNECT_REQUEST"
	case ConnectResponse:
		return "CONNECT_RESPONSE"
	case ConnectionStateRequest:
		return "CONNECTIONSTATE_REQUEST"
	case ConnectionStateResponse:
		return "CONNECTIONSTATE_RESPONSE"
	case DisconnectRequest:
		return "DISCONNECT_REQUEST"
	case DisconnectResponse:
		return "DISCONNECT_RESPONSE"
	case DeviceConfigurationRequest:
		return "DEVICE_CONFIGURATION_REQUEST"
	case DeviceConfigurationAck:
		return "DEVICE_CONFIGURATION_ACK"
	case TunnellingRequest:
		return "TUNNELLING_REQUEST"
	case TunnellingAck:
		return "TUNNELLING_ACK"
	case TunnellingFeatureGet:
		return "TUNNELLING_FEATURE_GET"
	case TunnellingFeatureResponse:
		return "TUNNELLING_FEATURE_RESPONSE"
	case TunnellingFeatureInfo:
		return "TUNNELLING_FEATURE_INFO"
	case RoutingIndication:
		return "ROUTING_INDICATION"
	case RoutingLostMessage:
		return "ROUTING_LOST_MESSAGE"
	case RoutingBusy:
		return "ROUTING_BUSY"
	case RoutingSystemBroadcast:
		return "ROUTING_SYSTEM_BROADCAST"
	default:
		return "UNKNOWN"
	}
}
