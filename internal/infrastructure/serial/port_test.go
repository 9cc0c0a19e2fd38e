package serial

import (
	"errors"
	"testing"

	bugst "go.bug.st/serial"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

func TestBuildMode(t *testing.T) {
	mode := buildMode(config.SerialConfig{
		Device:      "/dev/ttyUSB0",
		BaudRate:    115200,
		ReadTimeout: 1,
		BufferSize:  1024,
	})

	if mode.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", mode.BaudRate)
	}

	// The sensor link is always 8N1
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
	if mode.Parity != bugst.NoParity {
		t.Errorf("Parity = %v, want NoParity", mode.Parity)
	}
	if mode.StopBits != bugst.OneStopBit {
		t.Errorf("StopBits = %v, want OneStopBit", mode.StopBits)
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(config.SerialConfig{
		Device:      "/nonexistent/tty",
		BaudRate:    115200,
		ReadTimeout: 1,
		BufferSize:  1024,
	})

	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("Open() error = %v, want ErrOpenFailed", err)
	}
}
