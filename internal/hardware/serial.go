package hardware

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// OpenPort opens the configured serial device. The caller owns the port
// and closes it to unblock a pending WaitTrigger.
func OpenPort(settings *conf.Settings) (io.ReadWriteCloser, error) {
	ss := &settings.Realtime.Serial

	mode := &serial.Mode{BaudRate: ss.BaudRate}
	port, err := serial.Open(ss.Port, mode)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening serial port %s: %w", ss.Port, err)).
			Component("hardware").
			Category(errors.CategoryHardware).
			Context("port", ss.Port).
			Context("baud_rate", ss.BaudRate).
			Build()
	}

	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, errors.New(fmt.Errorf("resetting input buffer on %s: %w", ss.Port, err)).
			Component("hardware").
			Category(errors.CategoryHardware).
			Context("port", ss.Port).
			Build()
	}

	return port, nil
}
