package skstack

import (
	"errors"
	"fmt"
	"net"

	"github.com/ak1211/uchinoepower/internal/acqerr"
)

// echonetLitePort is the well-known UDP port (0x0E1A) ECHONET Lite traffic
// uses over the Wi-SUN link.
const echonetLitePort = 0x0E1A

// SendEchonetLiteFrame wraps an already-encoded ECHONET Lite frame in a
// SKSENDTO command and writes it whole: "SKSENDTO 1 <ipv6> 0E1A 1 <len> "
// followed immediately by the frame's raw bytes, with no CRLF between the
// ASCII prefix and the binary suffix.
func SendEchonetLiteFrame(d Transport, sender net.IP, frame []byte) error {
	prefix := fmt.Sprintf("SKSENDTO 1 %s %04X 1 %04X ", formatIPv6Full(sender), echonetLitePort, len(frame))
	command := append([]byte(prefix), frame...)
	if err := d.Send(command); err != nil {
		return acqerr.New(acqerr.Io, err)
	}
	return nil
}

// Rejoin issues SKREJOIN, used by the transmitter to pre-emptively renew
// the PANA session before it would otherwise expire.
func Rejoin(d Transport) error {
	if err := d.Send([]byte("SKREJOIN\r\n")); err != nil {
		return acqerr.New(acqerr.Io, err)
	}
	return nil
}

// SetSessionLifetime issues SKSREG S16, setting the PANA session lifetime
// in seconds that the module will enforce.
func SetSessionLifetime(d Transport, seconds int) error {
	command := fmt.Sprintf("SKSREG S16 %d\r\n", seconds)
	if err := d.Send([]byte(command)); err != nil {
		return acqerr.New(acqerr.Io, err)
	}
	rec, err := d.Receive()
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return acqerr.New(acqerr.Io, err)
	}
	if fail, ok := rec.(Fail); ok {
		return acqerr.NewCommandFail(fail.Code)
	}
	return nil
}
