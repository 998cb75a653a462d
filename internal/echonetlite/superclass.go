package echonetlite

import "fmt"

// Superclass (profile object) property codes shared by every ECHONET Lite
// device class.
const (
	EPCGetPropertyMap byte = 0x9F
	EPCManufacturer   byte = 0x8A
	EPCInstanceList   byte = 0xD5
)

// Manufacturer decodes EPC 0x8A: a 3-byte manufacturer code, shown in its
// canonical hex form since this daemon has no manufacturer name table.
func Manufacturer(edt []byte) (string, error) {
	if len(edt) != 3 {
		return "", fmt.Errorf("echonetlite: manufacturer EDT must be 3 bytes, got %d", len(edt))
	}
	return fmt.Sprintf("%02X%02X%02X", edt[0], edt[1], edt[2]), nil
}

// PropertyMap is the decoded, sorted set of EPCs a Get-property-map (0x9F)
// response announces the device supports.
type PropertyMap []byte

// DecodeGetPropertyMap decodes EPC 0x9F. When the device announces fewer
// than 16 properties, EDT is a plain count-prefixed list of EPC bytes. At
// 16 properties or more, EDT switches to a 16-byte bitmap: byte k covers
// EPCs 0x8k, 0x9k, ..., 0xFk, bit i set meaning EPC (0x80+k+16i) is
// supported.
func DecodeGetPropertyMap(edt []byte) (PropertyMap, error) {
	if len(edt) == 0 {
		return nil, fmt.Errorf("echonetlite: get-property-map EDT is empty")
	}
	count := int(edt[0])
	rest := edt[1:]

	if count < 16 {
		if len(rest) != count {
			return nil, fmt.Errorf("echonetlite: get-property-map declares %d properties but has %d data bytes", count, len(rest))
		}
		out := make(PropertyMap, count)
		copy(out, rest)
		sortBytes(out)
		return out, nil
	}

	if len(rest) != 16 {
		return nil, fmt.Errorf("echonetlite: get-property-map bitmap form must be 16 bytes, got %d", len(rest))
	}
	out := make(PropertyMap, 0, count)
	for byteIdx, b := range rest {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) == 0 {
				continue
			}
			epc := 0x80 + byteIdx + bit*16
			out = append(out, byte(epc))
		}
	}
	sortBytes(out)
	if len(out) != count {
		return nil, fmt.Errorf("echonetlite: get-property-map bitmap set %d bits but header declared %d", len(out), count)
	}
	return out, nil
}

func sortBytes(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1] > b[j]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}

// InstanceList is a decoded instance-list-notification (EPC 0xD5).
type InstanceList []EOJ

// DecodeInstanceList decodes EPC 0xD5: a count byte followed by that many
// 3-byte EOJs.
func DecodeInstanceList(edt []byte) (InstanceList, error) {
	if len(edt) == 0 {
		return nil, fmt.Errorf("echonetlite: instance-list EDT is empty")
	}
	count := int(edt[0])
	rest := edt[1:]
	if len(rest) != count*3 {
		return nil, fmt.Errorf("echonetlite: instance-list declares %d instances but has %d data bytes", count, len(rest))
	}
	out := make(InstanceList, count)
	for i := 0; i < count; i++ {
		out[i] = NewEOJ(rest[i*3], rest[i*3+1], rest[i*3+2])
	}
	return out, nil
}
