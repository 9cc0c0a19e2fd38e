package serial

import "errors"

// Sentinel errors for serial operations.
var (
	// ErrOpenFailed indicates the serial device could not be opened or
	// configured. This is fatal at startup.
	ErrOpenFailed = errors.New("serial: open failed")
)
