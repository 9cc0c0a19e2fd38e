package serial

import (
	"fmt"
	"time"

	bugst "go.bug.st/serial"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

// Port is the byte-oriented read primitive the scheduler consumes.
//
// Read blocks for at most the configured timeout and returns (0, nil) when
// no bytes arrived in time; a quiet link is a normal condition, not an
// error. Implementations other than the real device (test fakes, replays)
// only need to honour that contract.
type Port interface {
	// Read fills p with whatever bytes are available within the bounded
	// timeout. n == 0 with a nil error means the timeout elapsed quietly.
	Read(p []byte) (n int, err error)

	// Close releases the underlying device.
	Close() error
}

// Open opens the sensor serial link described by cfg.
//
// The device is configured 8N1 at the configured baud rate with a bounded
// read timeout. An open failure is a startup resource-acquisition error:
// the caller aborts rather than entering the publish loop.
//
// Parameters:
//   - cfg: Serial configuration from config.yaml
//
// Returns:
//   - Port: Open port ready for bounded reads
//   - error: If the device cannot be opened or configured
func Open(cfg config.SerialConfig) (Port, error) {
	mode := buildMode(cfg)

	p, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Device, err)
	}

	if err := p.SetReadTimeout(time.Duration(cfg.ReadTimeout) * time.Second); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: setting read timeout: %w", ErrOpenFailed, err)
	}

	return &devicePort{port: p}, nil
}

// buildMode maps bridge config onto the serial line parameters.
// The sensor link is always 8N1; only the baud rate is configurable.
func buildMode(cfg config.SerialConfig) *bugst.Mode {
	return &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
}

// devicePort adapts the device handle to the Port interface.
type devicePort struct {
	port bugst.Port
}

// Read performs one bounded read from the device.
// The underlying library returns n == 0 with a nil error on timeout,
// which is exactly the Port contract.
func (d *devicePort) Read(p []byte) (int, error) {
	return d.port.Read(p)
}

// Close releases the device.
func (d *devicePort) Close() error {
	return d.port.Close()
}
