package address

import "encoding/binary"

// PackBytes is Pack followed by a big-endian byte encoding, the form cEMI
// frames carry addresses in.
func PackBytes(s string, form Form) ([2]byte, error) {
	v, err := Pack(s, form)
	if err != nil {
		return [2]byte{}, err
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b, nil
}

// UnpackBytes is Unpack over a big-endian 2-byte buffer.
func UnpackBytes(b []byte, form Form) (string, error) {
	if len(b) < 2 {
		return "", ErrInvalidAddress
	}
	return Unpack(binary.BigEndian.Uint16(b), form)
}
