// Package hardware implements the line-oriented protocol spoken with the
// sorting microcontroller. The device sends BEGIN once when ready, the
// microcontroller sends DETECT when an item is in front of the camera, and
// the device answers each DETECT with one line carrying the predicted
// category label.
package hardware

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hqnguyen/wastenet-go/internal/errors"
	"github.com/hqnguyen/wastenet-go/internal/logging"
)

const (
	// ReadySignal is sent once at startup to tell the microcontroller the
	// device is accepting triggers.
	ReadySignal = "BEGIN"

	// TriggerToken is the line the microcontroller sends to start a
	// detection cycle.
	TriggerToken = "DETECT"
)

// Link wraps the serial connection with line framing. Cancellation is done
// by closing the underlying connection, which unblocks the pending read.
type Link struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	log    *slog.Logger
}

// NewLink creates a Link over an open serial connection.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		rw:     rw,
		reader: bufio.NewReader(rw),
		log:    logging.ForService("hardware"),
	}
}

func (l *Link) writeLine(line string) error {
	if _, err := io.WriteString(l.rw, line+"\n"); err != nil {
		return errors.New(fmt.Errorf("writing %q to serial link: %w", line, err)).
			Component("hardware").
			Category(errors.CategoryHardware).
			Build()
	}
	return nil
}

// SendReady writes the startup handshake line.
func (l *Link) SendReady() error {
	return l.writeLine(ReadySignal)
}

// SendLabel writes the predicted category label back to the
// microcontroller. Fire and forget, no acknowledgment is awaited.
func (l *Link) SendLabel(label string) error {
	return l.writeLine(label)
}

// WaitTrigger blocks until the trigger token arrives. Lines other than the
// token are logged and skipped; a read error ends the wait.
func (l *Link) WaitTrigger() error {
	for {
		line, err := l.reader.ReadString('\n')
		if err != nil {
			return errors.New(fmt.Errorf("reading from serial link: %w", err)).
				Component("hardware").
				Category(errors.CategoryHardware).
				Build()
		}

		line = strings.TrimSpace(line)
		if line == TriggerToken {
			return nil
		}
		if line != "" && l.log != nil {
			l.log.Debug("ignoring unexpected serial line", "line", line)
		}
	}
}
