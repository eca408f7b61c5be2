// Package routing implements a KNXnet/IP routing engine: a UDP
// multicast peer that forwards cEMI frames between the IP multicast
// group and a local consumer, enforcing the protocol's flow-control
// rules (pacing, ROUTING_BUSY backoff, queue-overflow notification) and
// answering discovery requests.
package routing
