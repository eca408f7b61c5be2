// Package tunnel implements a KNXnet/IP tunnelling session: the
// unicast, connection-oriented transport that carries cEMI frames over
// a UDP or TCP connection to a single gateway.
//
// A Session owns its transport exclusively and runs the connect,
// heartbeat, and send/ack state machine on a single goroutine — network
// reads, timer firings and caller-requested sends are all serialized
// onto that one task, so no internal state needs locking. Callers
// interact with a Session through Send, Read, Write, Disconnect and a
// subscription to its typed Event stream.
package tunnel
