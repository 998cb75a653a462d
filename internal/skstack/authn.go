package skstack

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
)

// Id is a route-B identifier: exactly 32 printable ASCII characters.
type Id string

// ParseId validates s as a route-B identifier.
func ParseId(s string) (Id, error) {
	if len(s) != 32 {
		return "", acqerr.New(acqerr.InvalidCredential, fmt.Errorf("route-B id must be 32 characters, got %d", len(s)))
	}
	return Id(s), nil
}

// Password is a route-B password: exactly 12 printable ASCII characters.
type Password string

// ParsePassword validates s as a route-B password.
func ParsePassword(s string) (Password, error) {
	if len(s) != 12 {
		return "", acqerr.New(acqerr.InvalidCredential, fmt.Errorf("route-B password must be 12 characters, got %d", len(s)))
	}
	return Password(s), nil
}

// Credentials is a validated route-B identifier/password pair.
type Credentials struct {
	Id       Id
	Password Password
}

// LinkLocalAddress derives the fe80::/64 link-local address of a meter
// from its 64-bit extended MAC address: the universal/local bit (bit 1 of
// the first octet) is inverted and used as the interface identifier.
func LinkLocalAddress(mac uint64) net.IP {
	iid := mac ^ 0x0200000000000000
	ip := make(net.IP, net.IPv6len)
	ip[0], ip[1] = 0xFE, 0x80
	for i := 0; i < 8; i++ {
		ip[15-i] = byte(iid >> (8 * i))
	}
	return ip
}

// Connect drives the PANA join command sequence against d: reset, disable
// command echo, load credentials, select channel and PAN ID, then join the
// meter at sender's derived link-local address. Every command must be
// acknowledged with OK; a FAIL aborts immediately with the device's code.
// After the join command, the event stream is consumed until EVENT 0x25
// (joined) or EVENT 0x24 (join error); other events and read timeouts are
// ignored.
func Connect(d Transport, credentials Credentials, sender net.IP, channel byte, panID uint16) error {
	commands := []string{
		"SKRESET\r\n",
		"SKSREG SFE 0\r\n",
		fmt.Sprintf("SKSETPWD C %s\r\n", credentials.Password),
		fmt.Sprintf("SKSETRBID %s\r\n", credentials.Id),
		fmt.Sprintf("SKSREG S2 %02X\r\n", channel),
		fmt.Sprintf("SKSREG S3 %04X\r\n", panID),
		fmt.Sprintf("SKJOIN %s\r\n", formatIPv6Full(sender)),
	}

	for _, command := range commands {
		if err := d.Send([]byte(command)); err != nil {
			return acqerr.New(acqerr.Io, err)
		}
		time.Sleep(1 * time.Millisecond)
		rec, err := d.Receive()
		if err != nil && !errors.Is(err, ErrNoRecord) {
			return acqerr.New(acqerr.Io, err)
		}
		if fail, ok := rec.(Fail); ok {
			return acqerr.NewCommandFail(fail.Code)
		}
	}

	for {
		rec, err := d.Receive()
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				continue
			}
			return acqerr.New(acqerr.Io, err)
		}
		switch v := rec.(type) {
		case Fail:
			return acqerr.NewCommandFail(v.Code)
		case Event:
			switch v.Code {
			case 0x24:
				return acqerr.New(acqerr.SessionDisconnected, nil)
			case 0x25:
				return nil
			default:
				continue
			}
		default:
			continue
		}
	}
}

// formatIPv6Full renders ip as eight colon-separated, zero-padded
// four-digit hex groups (no "::" compression), matching the literal
// address form SKJOIN expects.
func formatIPv6Full(ip net.IP) string {
	ip16 := ip.To16()
	out := ""
	for i := 0; i < 8; i++ {
		if i > 0 {
			out += ":"
		}
		out += fmt.Sprintf("%02X%02X", ip16[i*2], ip16[i*2+1])
	}
	return out
}
