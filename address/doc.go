// Package address packs and unpacks the 16-bit KNX addresses carried by a
// cEMI frame: individual (physical device) addresses and the two group
// address notations used on the bus.
//
// A KNX address is always 16 bits on the wire; which of the three bit
// layouts applies is not self-describing and must be supplied by the
// caller (it follows from the address-type bit of the enclosing cEMI
// control field).
package address
