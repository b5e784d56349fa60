package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"meshbeacon/internal/discovery"
)

const serialReadTimeout = 500 * time.Millisecond

// SerialTransport drives a radio over a raw byte channel with the
// firmware's line-oriented AT command protocol. Sends are fire and
// forget: the firmware's reply is drained and discarded, never
// validated.
type SerialTransport struct {
	portName string
	baud     int
	settle   time.Duration
	dest     Destination
	log      zerolog.Logger

	conn io.ReadWriteCloser
}

// NewSerialTransport returns a line-protocol transport. An empty port
// name means auto-detect on Connect; settle is the device boot delay
// observed before first use.
func NewSerialTransport(portName string, baud int, settle time.Duration, dest Destination, log zerolog.Logger) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		baud:     baud,
		settle:   settle,
		dest:     dest,
		log:      log,
	}
}

func (t *SerialTransport) Connect() error {
	name := t.portName
	if name == "" {
		var err error
		name, err = discovery.FindPort()
		if err != nil {
			return fmt.Errorf("locating radio: %w", err)
		}
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: t.baud})
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("configuring %s: %w", name, err)
	}
	t.conn = port

	t.log.Info().Str("port", name).Int("baud", t.baud).Msg("Serial port opened, waiting for device boot")
	time.Sleep(t.settle)
	return nil
}

func (t *SerialTransport) Send(text string) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	cmd := FormatSendText(t.dest, text)
	if _, err := t.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}

	t.drain()
	t.log.Debug().Stringer("dest", t.dest).Int("bytes", len(cmd)).Msg("Command written")
	return nil
}

// drain reads and discards whatever the firmware echoes back. The
// port's read timeout bounds how long an idle line holds us up.
func (t *SerialTransport) drain() {
	buf := make([]byte, 256)
	for {
		n, err := t.conn.Read(buf)
		if err != nil || n == 0 {
			return
		}
	}
}

func (t *SerialTransport) Disconnect() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return fmt.Errorf("closing serial port: %w", err)
	}
	return nil
}

// FormatSendText builds the AT command line for one text message. The
// destination goes on the wire in its "!hex" spelling.
func FormatSendText(dest Destination, text string) string {
	return fmt.Sprintf("AT+SENDTEXT=%s,%s\r\n", dest.Hex(), text)
}
