package echonetlite

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Echonet Lite Header 1
type EHD1 byte

const (
	EchonetLiteEHD1 EHD1 = 0x10
)

// Echonet Lite Header 2
type EHD2 byte

const (
	Format1 EHD2 = 0x81 // specified message format, the only one UnmarshalBinary accepts
	Format2 EHD2 = 0x82 // arbitrary message format, not implemented
)

// Transaction ID
type TID uint16

// Echonet Lite Object (EOJ)
type EOJ struct {
	ClassGroupCode byte
	ClassCode      byte
	InstanceCode   byte
}

// NewEOJ builds an EOJ from its three constituent bytes.
func NewEOJ(classGroup, class, instance byte) EOJ {
	return EOJ{
		ClassGroupCode: classGroup,
		ClassCode:      class,
		InstanceCode:   instance,
	}
}

func (e EOJ) bytes() [3]byte {
	return [3]byte{e.ClassGroupCode, e.ClassCode, e.InstanceCode}
}

// SmartMeterEOJ is the low-voltage smart electric energy meter class.
var SmartMeterEOJ = NewEOJ(0x02, 0x88, 0x01)

// ControllerEOJ is the source object this daemon presents itself as.
var ControllerEOJ = NewEOJ(0x05, 0xFF, 0x01)

// Echonet Lite Service (ESV)
type ESV byte

// ESV constants
const (
	// Requests
	ESVSetI   ESV = 0x60 // property value write request, no response required
	ESVSetC   ESV = 0x61 // property value write request, response required
	ESVGet    ESV = 0x62 // property value read request
	ESVInfReq ESV = 0x63 // property value notification request
	ESVSetGet ESV = 0x6E // property value write & read request

	// Responses / Notifications
	ESVSet_Res    ESV = 0x71
	ESVGet_Res    ESV = 0x72
	ESVInf        ESV = 0x73
	ESVInfC       ESV = 0x74
	ESVSetGet_Res ESV = 0x7E
	ESVInfC_Res   ESV = 0x7A

	// Error responses
	ESVSetI_SNA   ESV = 0x50
	ESVSetC_SNA   ESV = 0x51
	ESVGet_SNA    ESV = 0x52
	ESVInf_SNA    ESV = 0x53
	ESVSetGet_SNA ESV = 0x5E
)

// Property represents one EPC/PDC/EDT entry.
type Property struct {
	EPC byte   // Echonet Property Code
	PDC byte   // Property Data Counter (length of EDT)
	EDT []byte // Property Value Data
}

// Frame is an ECHONET Lite application frame.
type Frame struct {
	EHD1       EHD1
	EHD2       EHD2
	TID        TID
	SEOJ       EOJ // Source object
	DEOJ       EOJ // Destination object
	ESV        ESV
	OPC        byte // Operation Property Counter
	Properties []Property
}

// MarshalBinary serializes the frame into its wire bytes. OPC and each
// property's PDC are taken from len(Properties)/len(EDT), not from the OPC
// and PDC fields, so a caller never has to keep a count field in sync.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Properties) > 0xFF {
		return nil, fmt.Errorf("echonetlite: %d properties exceeds OPC range", len(f.Properties))
	}

	estimatedSize := 12
	for _, prop := range f.Properties {
		estimatedSize += 2 + len(prop.EDT)
	}
	buf := bytes.NewBuffer(make([]byte, 0, estimatedSize))

	buf.WriteByte(byte(EchonetLiteEHD1))
	buf.WriteByte(byte(f.EHD2))

	tidBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(tidBytes, uint16(f.TID))
	buf.Write(tidBytes)

	seoj := f.SEOJ.bytes()
	buf.Write(seoj[:])
	deoj := f.DEOJ.bytes()
	buf.Write(deoj[:])

	buf.WriteByte(byte(f.ESV))
	buf.WriteByte(byte(len(f.Properties)))

	for i, prop := range f.Properties {
		if len(prop.EDT) > 0xFF {
			return nil, fmt.Errorf("echonetlite: property %d EDT too long (%d bytes)", i, len(prop.EDT))
		}
		buf.WriteByte(prop.EPC)
		buf.WriteByte(byte(len(prop.EDT)))
		if len(prop.EDT) > 0 {
			buf.Write(prop.EDT)
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a frame from exactly the given bytes: trailing
// bytes after the last declared property, or too few bytes for the declared
// OPC/PDC, are both errors. The EDT slices of the resulting Properties
// alias data; copy scalar values out before data is mutated or reused.
func (f *Frame) UnmarshalBinary(data []byte) error {
	const headerLen = 12
	if len(data) < headerLen {
		return fmt.Errorf("echonetlite: frame too short (%d bytes, want at least %d)", len(data), headerLen)
	}

	ehd1 := EHD1(data[0])
	if ehd1 != EchonetLiteEHD1 {
		return fmt.Errorf("echonetlite: unexpected EHD1 0x%02X", data[0])
	}
	if EHD2(data[1]) != Format1 {
		return fmt.Errorf("echonetlite: unexpected EHD2 0x%02X", data[1])
	}

	f.EHD1 = ehd1
	f.EHD2 = EHD2(data[1])
	f.TID = TID(binary.BigEndian.Uint16(data[2:4]))
	f.SEOJ = NewEOJ(data[4], data[5], data[6])
	f.DEOJ = NewEOJ(data[7], data[8], data[9])
	f.ESV = ESV(data[10])
	opc := data[11]
	f.OPC = opc

	rest := data[headerLen:]
	props := make([]Property, 0, opc)
	for i := 0; i < int(opc); i++ {
		if len(rest) < 2 {
			return fmt.Errorf("echonetlite: truncated property %d of %d", i, opc)
		}
		epc := rest[0]
		pdc := rest[1]
		rest = rest[2:]
		if len(rest) < int(pdc) {
			return fmt.Errorf("echonetlite: truncated EDT for property %d (EPC 0x%02X): want %d bytes, have %d", i, epc, pdc, len(rest))
		}
		var edt []byte
		if pdc > 0 {
			edt = rest[:pdc]
		}
		rest = rest[pdc:]
		props = append(props, Property{EPC: epc, PDC: pdc, EDT: edt})
	}
	if len(rest) != 0 {
		return fmt.Errorf("echonetlite: %d trailing bytes after %d declared properties", len(rest), opc)
	}

	f.Properties = props
	return nil
}

// Show renders a one-line summary of the frame's service, for trace logging.
func (f *Frame) Show() string {
	switch f.ESV {
	case ESVSetI_SNA:
		return fmt.Sprintf("SetI_SNA write rejected N=%d", f.OPC)
	case ESVSetC_SNA:
		return fmt.Sprintf("SetC_SNA write rejected N=%d", f.OPC)
	case ESVGet_SNA:
		return fmt.Sprintf("Get_SNA read rejected N=%d", f.OPC)
	case ESVInf_SNA:
		return fmt.Sprintf("INF_SNA rejected N=%d", f.OPC)
	case ESVSet_Res:
		return fmt.Sprintf("Set_Res N=%d", f.OPC)
	case ESVGet_Res:
		return fmt.Sprintf("Get_Res N=%d", f.OPC)
	case ESVInf:
		return fmt.Sprintf("INF N=%d", f.OPC)
	case ESVInfC:
		return fmt.Sprintf("INFC N=%d", f.OPC)
	default:
		return fmt.Sprintf("ESV 0x%02X N=%d", byte(f.ESV), f.OPC)
	}
}
