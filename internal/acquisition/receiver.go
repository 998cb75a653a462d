package acquisition

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/echonetlite"
	"github.com/ak1211/uchinoepower/internal/sink"
	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/shopspring/decimal"
)

// echonetLitePort and panaPort are the UDP ports ERXUDP records carry
// traffic for.
const (
	echonetLitePort = 0x0E1A
	panaPort        = 0x02CC
)

// Receiver consumes records until ctx is cancelled or a terminating event
// or command failure occurs. unit is the meter's unit for cumulative
// amounts (EPC 0xE1) read from the connection profile. Only the unit scale
// is applied to cumulative amounts; the coefficient stored in the profile
// does not factor into stored values.
func Receiver(ctx context.Context, d skstack.Transport, s *sink.Sink, unit decimal.Decimal, location *time.Location) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rec, err := d.Receive()
		if err != nil {
			if errors.Is(err, skstack.ErrNoRecord) {
				continue
			}
			return acqerr.New(acqerr.Io, err)
		}

		switch v := rec.(type) {
		case skstack.Void:
		case skstack.Ok:
		case skstack.Fail:
			return acqerr.NewCommandFail(v.Code)
		case skstack.Event:
			if terminate, err := handleEvent(v); terminate {
				return err
			}
		case skstack.Epandesc:
		case skstack.Erxudp:
			handleErxudp(ctx, v, s, unit, location)
		}
	}
}

// handleEvent applies the receiver event-code dispatch table. terminate is
// true when the receiver must stop (err carries the reason, nil for a
// clean stop that never actually occurs in this table).
func handleEvent(event skstack.Event) (terminate bool, err error) {
	switch event.Code {
	case 0x01, 0x02, 0x05, 0x1F, 0x20, 0x22, 0x32, 0x33:
		log.Printf("skstack: trace event 0x%02X", event.Code)
	case 0x21:
		log.Printf("skstack: UDP send completion, param=%v", event.Param)
	case 0x24:
		return true, acqerr.New(acqerr.SessionDisconnected, nil)
	case 0x25:
		log.Printf("skstack: PANA session joined")
	case 0x26:
		log.Printf("skstack: peer requested session end")
	case 0x27, 0x28, 0x29:
		return true, acqerr.New(acqerr.SessionDisconnected, nil)
	default:
		log.Printf("skstack: unrecognized event 0x%02X", event.Code)
	}
	return false, nil
}

// handleErxudp decodes an inbound ECHONET Lite frame and routes its
// properties to the sink. Only ESV 0x72 (Get-response) and 0x73 (INF
// notification) carry readings worth committing; other ESVs (error
// responses among them) are logged only. Decode and sink failures are
// contained: logged, not propagated, so one bad property never aborts the
// receiver.
func handleErxudp(ctx context.Context, erxudp skstack.Erxudp, s *sink.Sink, unit decimal.Decimal, location *time.Location) {
	switch erxudp.DestinationPort {
	case panaPort:
		return
	case echonetLitePort:
	default:
		log.Printf("skstack: unrecognized UDP destination port 0x%04X, ignored", erxudp.DestinationPort)
		return
	}

	var frame echonetlite.Frame
	if err := frame.UnmarshalBinary(erxudp.Data); err != nil {
		log.Printf("echonetlite: %v", acqerr.New(acqerr.BinaryDecode, err))
		return
	}

	switch frame.ESV {
	case echonetlite.ESVGet_Res, echonetlite.ESVInf:
	default:
		log.Printf("echonetlite: ignoring ESV 0x%02X, not a Get-response or notification", byte(frame.ESV))
		return
	}

	recordedAt := recordedAtMinute(time.Now(), location)

	for _, prop := range frame.Properties {
		if err := commitProperty(ctx, s, prop, unit, recordedAt, location); err != nil {
			log.Printf("acquisition: %v", err)
		}
	}
}

// recordedAtMinute truncates now to the containing minute in location,
// then converts to UTC — the recorded-at stamp for instantaneous
// measurements (§4.6). Cumulative-at-fixed-time measurements use the
// meter's own embedded timestamp instead.
func recordedAtMinute(now time.Time, location *time.Location) time.Time {
	local := now.In(location)
	truncated := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, location)
	return truncated.UTC()
}

// commitProperty decodes one property and appends it to the sink. An
// unrecognized EPC is logged and not treated as an error — the same
// contained-failure policy as the sink errors it may also produce.
func commitProperty(ctx context.Context, s *sink.Sink, prop echonetlite.Property, unit decimal.Decimal, recordedAt time.Time, location *time.Location) error {
	switch prop.EPC {
	case echonetlite.EPCHistoricalCumulativeAmount:
		hist, err := echonetlite.DecodeHistoricalCumulativeAmount(prop.EDT)
		if err != nil {
			return acqerr.New(acqerr.BinaryDecode, err)
		}
		return commitHistorical(ctx, s, hist, unit, location)

	case echonetlite.EPCInstantaneousPower:
		watts, err := echonetlite.InstantaneousPower(prop.EDT)
		if err != nil {
			return acqerr.New(acqerr.BinaryDecode, err)
		}
		return s.AppendInstantPower(ctx, sink.InstantPower{RecordedAt: recordedAt, Watt: int32(watts.IntPart())})

	case echonetlite.EPCInstantaneousCurrent:
		current, err := echonetlite.DecodeInstantaneousCurrent(prop.EDT)
		if err != nil {
			return acqerr.New(acqerr.BinaryDecode, err)
		}
		return s.AppendInstantCurrent(ctx, sink.InstantCurrent{RecordedAt: recordedAt, R: current.R, T: current.T})

	case echonetlite.EPCCumulativeAmountsAtFixedTime:
		fixed, err := echonetlite.DecodeCumulativeAmountsAtFixedTime(prop.EDT)
		if err != nil {
			return acqerr.New(acqerr.BinaryDecode, err)
		}
		kwh := decimal.NewFromInt(int64(fixed.CumulativeAmountsPower)).Mul(unit)
		tp := fixed.TimePoint
		local := time.Date(tp.Year(), tp.Month(), tp.Day(), tp.Hour(), tp.Minute(), tp.Second(), 0, location)
		return s.AppendCumulativeFixed(ctx, sink.CumulativeAtFixedTime{RecordedAt: local.UTC(), KWh: kwh})

	default:
		log.Printf("echonetlite: %v", acqerr.New(acqerr.UnknownProperty, nil))
		return nil
	}
}

// commitHistorical converts a historical-cumulative-amount response into
// the 30-minute-spaced reading series and writes it as one batch. Bucket k
// maps to (today − NDaysAgo) + k·30min in the meter's local timezone,
// normalised to UTC; the decoder leaves 0xFFFFFFFE entries nil and they
// are skipped here.
func commitHistorical(ctx context.Context, s *sink.Sink, hist echonetlite.HistoricalCumulativeAmount, unit decimal.Decimal, location *time.Location) error {
	now := time.Now().In(location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)
	day := midnight.AddDate(0, 0, -int(hist.NDaysAgo))

	records := make([]sink.HistoricalReading, 0, len(hist.Readings))
	for i, reading := range hist.Readings {
		if reading == nil {
			continue
		}
		at := day.Add(time.Duration(i) * 30 * time.Minute)
		kwh := decimal.NewFromInt(int64(*reading)).Mul(unit)
		records = append(records, sink.HistoricalReading{RecordedAt: at.UTC(), KWh: kwh})
	}
	return s.AppendHistorical(ctx, records)
}
