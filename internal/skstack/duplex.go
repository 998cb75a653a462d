package skstack

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.bug.st/serial"
)

// ErrNoRecord is returned by Duplex.Receive when the transport-level read
// timed out before a complete record arrived. Callers treat it as a
// non-fatal, retryable condition — not an I/O failure.
var ErrNoRecord = errors.New("skstack: no record yet")

const (
	baudRate       = 115200
	dataBits       = 8
	readTimeout    = 1 * time.Second
	readChunkBytes = 256
)

// Transport is what the authentication, active-scan, and acquisition-loop
// command sequences need from a connection to the module: write a command
// verbatim, and decode the next record. *Duplex is the production
// implementation; tests substitute a fixture that replays a fixed record
// sequence.
type Transport interface {
	Send(payload []byte) error
	Receive() (Record, error)
}

// Duplex is the serial-line transport for the SKSTACK protocol: Send
// writes a command without mutation, Receive decodes the next Record off a
// running append buffer fed by chunked reads.
type Duplex struct {
	port serial.Port
	buf  []byte
}

// Open opens device at 115200-8-N-1 with the 1-second read timeout the
// protocol is specified against (§6).
func Open(device string) (*Duplex, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: dataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("skstack: open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("skstack: set read timeout: %w", err)
	}
	return &Duplex{port: port}, nil
}

// Close releases the underlying serial port.
func (d *Duplex) Close() error {
	return d.port.Close()
}

// Send writes the whole payload to the device, unmodified.
func (d *Duplex) Send(payload []byte) error {
	_, err := d.port.Write(payload)
	if err != nil {
		return fmt.Errorf("skstack: write: %w", err)
	}
	return nil
}

// Receive returns the next decoded Record. It maintains an append buffer
// across reads and discards the consumed prefix after a successful parse.
// A read timeout with nothing new to show surfaces as ErrNoRecord, a
// retryable condition; malformed lines are logged and skipped rather than
// returned as an error, per the parser's own contract.
func (d *Duplex) Receive() (Record, error) {
	for {
		rec, n, err := ParseOne(d.buf)
		if err == nil {
			d.buf = d.buf[n:]
			return rec, nil
		}
		var malformed *ErrMalformed
		if errors.As(err, &malformed) {
			log.Printf("skstack: discarding unrecognized line %q", malformed.Line)
			d.buf = d.buf[n:]
			continue
		}
		if !errors.Is(err, ErrIncomplete) {
			return nil, err
		}

		chunk := make([]byte, readChunkBytes)
		n, rerr := d.port.Read(chunk)
		if n > 0 {
			d.buf = append(d.buf, chunk[:n]...)
			continue
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil, fmt.Errorf("skstack: serial port closed: %w", rerr)
			}
			return nil, fmt.Errorf("skstack: read: %w", rerr)
		}
		// go.bug.st/serial returns (0, nil) on a read-timeout expiry
		// rather than a distinguishable error value.
		return nil, ErrNoRecord
	}
}
