package echonetlite

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Low-voltage smart electric energy meter (class group 0x02, class 0x88)
// property codes.
const (
	EPCCoefficient                  byte = 0xD3
	EPCNumberOfEffectiveDigits      byte = 0xD7
	EPCCumulativeAmountsPower       byte = 0xE0
	EPCUnitForCumulativeAmounts     byte = 0xE1
	EPCHistoricalCumulativeAmount   byte = 0xE2
	EPCInstantaneousPower           byte = 0xE7
	EPCInstantaneousCurrent         byte = 0xE8
	EPCCumulativeAmountsAtFixedTime byte = 0xEA
)

// historicalNoData is the sentinel value for a missing 30-minute slot in a
// historical-cumulative-amount response.
const historicalNoData uint32 = 0xFFFFFFFE

// Coefficient decodes EPC 0xD3. An empty EDT means the device did not
// implement this optional property; it defaults to a multiplier of 1.
func Coefficient(edt []byte) (uint8, error) {
	if len(edt) == 0 {
		return 1, nil
	}
	if len(edt) != 1 {
		return 0, fmt.Errorf("echonetlite: coefficient EDT must be 0 or 1 bytes, got %d", len(edt))
	}
	return edt[0], nil
}

// NumberOfEffectiveDigits decodes EPC 0xD7: the count of meaningful decimal
// digits in the cumulative-amount readings, 1 byte.
func NumberOfEffectiveDigits(edt []byte) (uint8, error) {
	if len(edt) != 1 {
		return 0, fmt.Errorf("echonetlite: number-of-effective-digits EDT must be 1 byte, got %d", len(edt))
	}
	return edt[0], nil
}

// CumulativeAmountsPower decodes EPC 0xE0: the raw cumulative energy
// counter, in counter units — apply Unit and Coefficient to obtain kWh.
func CumulativeAmountsPower(edt []byte) (uint32, error) {
	if len(edt) != 4 {
		return 0, fmt.Errorf("echonetlite: cumulative-amounts-power EDT must be 4 bytes, got %d", len(edt))
	}
	return binary.BigEndian.Uint32(edt), nil
}

// KWh converts a raw cumulative counter value into kilowatt-hours, applying
// the unit scale factor and coefficient multiplier the meter reported.
func KWh(raw uint32, unit decimal.Decimal, coefficient uint8) decimal.Decimal {
	c := coefficient
	if c == 0 {
		c = 1
	}
	return decimal.NewFromInt(int64(raw)).Mul(decimal.NewFromInt(int64(c))).Mul(unit)
}

// UnitForCumulativeAmountsPower decodes EPC 0xE1: the scale factor applied
// to cumulative-amount counters, per the ECHONET Lite low-voltage smart
// meter table. Only these nine values are defined.
func UnitForCumulativeAmountsPower(edt []byte) (decimal.Decimal, error) {
	if len(edt) != 1 {
		return decimal.Decimal{}, fmt.Errorf("echonetlite: unit-for-cumulative-amounts EDT must be 1 byte, got %d", len(edt))
	}
	switch edt[0] {
	case 0x00:
		return decimal.New(1, 0), nil
	case 0x01:
		return decimal.New(1, -1), nil
	case 0x02:
		return decimal.New(1, -2), nil
	case 0x03:
		return decimal.New(1, -3), nil
	case 0x04:
		return decimal.New(1, -4), nil
	case 0x0A:
		return decimal.New(10, 0), nil
	case 0x0B:
		return decimal.New(100, 0), nil
	case 0x0C:
		return decimal.New(1000, 0), nil
	case 0x0D:
		return decimal.New(10000, 0), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("echonetlite: unrecognized cumulative-amounts unit byte 0x%02X", edt[0])
	}
}

// HistoricalCumulativeAmount is the decoded EPC 0xE2 response: the
// cumulative-amount reading taken every 30 minutes over one day, NDaysAgo
// days in the past. A nil entry in Readings means that slot was never
// recorded (the meter's 0xFFFFFFFE sentinel).
type HistoricalCumulativeAmount struct {
	NDaysAgo uint16
	Readings []*uint32
}

// DecodeHistoricalCumulativeAmount decodes EPC 0xE2: a 2-byte day offset
// followed by 48 4-byte readings, one per half hour of the day.
func DecodeHistoricalCumulativeAmount(edt []byte) (HistoricalCumulativeAmount, error) {
	const slotCount = 48
	const wantLen = 2 + slotCount*4
	if len(edt) != wantLen {
		return HistoricalCumulativeAmount{}, fmt.Errorf("echonetlite: historical-cumulative-amount EDT must be %d bytes, got %d", wantLen, len(edt))
	}
	out := HistoricalCumulativeAmount{
		NDaysAgo: binary.BigEndian.Uint16(edt[0:2]),
		Readings: make([]*uint32, slotCount),
	}
	for i := 0; i < slotCount; i++ {
		v := binary.BigEndian.Uint32(edt[2+i*4 : 2+i*4+4])
		if v == historicalNoData {
			continue
		}
		value := v
		out.Readings[i] = &value
	}
	return out, nil
}

// InstantaneousPower decodes EPC 0xE7: instantaneous active power, in watts,
// as a signed 32-bit big-endian integer.
func InstantaneousPower(edt []byte) (decimal.Decimal, error) {
	if len(edt) != 4 {
		return decimal.Decimal{}, fmt.Errorf("echonetlite: instantaneous-power EDT must be 4 bytes, got %d", len(edt))
	}
	v := int32(binary.BigEndian.Uint32(edt))
	return decimal.NewFromInt(int64(v)), nil
}

// currentTPhaseAbsent is the sentinel for a single-phase-two-wire meter,
// which has no T-phase current to report.
const currentTPhaseAbsent int16 = 0x7FFE

// InstantaneousCurrent is the decoded EPC 0xE8 response: R-phase current is
// always present; T is nil on a single-phase-two-wire installation. Values
// are in amperes, to one decimal place.
type InstantaneousCurrent struct {
	R decimal.Decimal
	T *decimal.Decimal
}

// DecodeInstantaneousCurrent decodes EPC 0xE8: two signed 16-bit big-endian
// values in tenths of an ampere, R-phase then T-phase.
func DecodeInstantaneousCurrent(edt []byte) (InstantaneousCurrent, error) {
	if len(edt) != 4 {
		return InstantaneousCurrent{}, fmt.Errorf("echonetlite: instantaneous-current EDT must be 4 bytes, got %d", len(edt))
	}
	r := int16(binary.BigEndian.Uint16(edt[0:2]))
	t := int16(binary.BigEndian.Uint16(edt[2:4]))

	out := InstantaneousCurrent{
		R: decimal.New(int64(r), -1),
	}
	if t != currentTPhaseAbsent {
		tVal := decimal.New(int64(t), -1)
		out.T = &tVal
	}
	return out, nil
}

// CumulativeAmountsAtFixedTime is the decoded EPC 0xEA response: the
// cumulative-amount counter at the meter's own fixed measurement time,
// normally just past midnight JST.
type CumulativeAmountsAtFixedTime struct {
	TimePoint              time.Time
	CumulativeAmountsPower uint32
}

// DecodeCumulativeAmountsAtFixedTime decodes EPC 0xEA: a 7-byte big-endian
// timestamp (year, month, day, hour, minute, second) followed by a 4-byte
// cumulative counter value. The timestamp is the meter's local wall-clock
// time; TimePoint holds those fields unchanged in the UTC location, and the
// caller re-reads them in the meter's time zone.
func DecodeCumulativeAmountsAtFixedTime(edt []byte) (CumulativeAmountsAtFixedTime, error) {
	if len(edt) != 11 {
		return CumulativeAmountsAtFixedTime{}, fmt.Errorf("echonetlite: cumulative-amounts-at-fixed-time EDT must be 11 bytes, got %d", len(edt))
	}
	year := int(binary.BigEndian.Uint16(edt[0:2]))
	month := time.Month(edt[2])
	day := int(edt[3])
	hour := int(edt[4])
	minute := int(edt[5])
	second := int(edt[6])
	value := binary.BigEndian.Uint32(edt[7:11])

	return CumulativeAmountsAtFixedTime{
		TimePoint:              time.Date(year, month, day, hour, minute, second, 0, time.UTC),
		CumulativeAmountsPower: value,
	}, nil
}
