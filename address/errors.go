package address

import "errors"

// ErrInvalidAddress is returned when an address string or its numeric
// components fall outside the range its Form allows.
var ErrInvalidAddress = errors.New("address: invalid address")
