// Package knxip implements the KNXnet/IP wire envelope shared by the
// tunnelling and routing transports: the 6-byte header, HPAI (host
// protocol address information), CRI/CRD connection negotiation blocks,
// description information blocks (DIBs), and the service-type and
// error-code tables.
//
// This package has no knowledge of cEMI or of connection state; it only
// turns these structures into bytes and back.
package knxip
