// Package skstack implements the SKSTACK-IP line protocol spoken by a
// Wi-SUN transceiver module over a serial line: command echoes, OK/FAIL
// acknowledgements, asynchronous EVENT/EPANDESC/ERXUDP records, and the
// PANA join and active-scan command sequences built on top of them.
package skstack

import "net"

// Record is one decoded line (or group of lines) the module sent back:
// a blank line, a command acknowledgement, or an asynchronous notification.
type Record interface {
	isRecord()
}

// Void is a blank line; the module emits these between other records.
type Void struct{}

func (Void) isRecord() {}

// Ok acknowledges that the preceding command succeeded.
type Ok struct{}

func (Ok) isRecord() {}

// Fail reports that the preceding command was rejected, with the module's
// two-digit error code (e.g. 0x10 for "unsupported command").
type Fail struct {
	Code byte
}

func (Fail) isRecord() {}

// Event is an asynchronous EVENT notification. Param is present only for
// event codes that carry one (e.g. 0x21 UDP-send completion).
type Event struct {
	Code   byte
	Sender net.IP
	Param  *byte
}

func (Event) isRecord() {}

// Epandesc is one PAN descriptor discovered during an active scan.
type Epandesc struct {
	Channel     byte
	ChannelPage byte
	PanID       uint16
	Addr        uint64
	LQI         byte
	PairID      uint32
}

func (Epandesc) isRecord() {}

// Erxudp is an inbound UDP datagram the module received over the Wi-SUN
// link and is relaying up to the host.
type Erxudp struct {
	Sender            net.IP
	Destination       net.IP
	SenderPort        uint16
	DestinationPort   uint16
	SenderLLA         uint64
	Secured           byte
	DataLen           uint16
	Data              []byte
}

func (Erxudp) isRecord() {}
