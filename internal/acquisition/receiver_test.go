package acquisition

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/echonetlite"
	"github.com/ak1211/uchinoepower/internal/profile"
	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// erxudpWithESV builds a well-formed ECHONET Lite frame carrying esv and a
// single instantaneous-power property, wrapped in an Erxudp addressed to
// the ECHONET Lite port.
func erxudpWithESV(t *testing.T, esv echonetlite.ESV) skstack.Erxudp {
	t.Helper()
	frame := &echonetlite.Frame{
		EHD1: echonetlite.EchonetLiteEHD1,
		EHD2: echonetlite.Format1,
		TID:  1,
		SEOJ: profile.DestinationEOJ,
		DEOJ: profile.SourceEOJ,
		ESV:  esv,
		OPC:  1,
		Properties: []echonetlite.Property{
			{EPC: echonetlite.EPCInstantaneousPower, EDT: []byte{0x00, 0x00, 0x00, 0x64}},
		},
	}
	data, err := frame.MarshalBinary()
	require.NoError(t, err)
	return skstack.Erxudp{
		Sender:          net.ParseIP("fe80::1"),
		Destination:     net.ParseIP("fe80::2"),
		DestinationPort: echonetLitePort,
		Data:            data,
	}
}

func TestHandleEvent_TraceCodesDoNotTerminate(t *testing.T) {
	for _, code := range []byte{0x01, 0x02, 0x05, 0x1F, 0x20, 0x21, 0x22, 0x25, 0x26, 0x32, 0x33, 0x99} {
		terminate, err := handleEvent(skstack.Event{Code: code})
		assert.False(t, terminate, "code 0x%02X", code)
		assert.NoError(t, err, "code 0x%02X", code)
	}
}

func TestHandleEvent_DisconnectCodesTerminate(t *testing.T) {
	for _, code := range []byte{0x24, 0x27, 0x28, 0x29} {
		terminate, err := handleEvent(skstack.Event{Code: code})
		assert.True(t, terminate, "code 0x%02X", code)
		require.Error(t, err)
		assert.True(t, acqerr.Is(err, acqerr.SessionDisconnected), "code 0x%02X", code)
	}
}

func TestRecordedAtMinute_TruncatesToMinuteAndConvertsToUTC(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	now := time.Date(2026, time.July, 30, 9, 15, 42, 123456789, time.UTC)
	got := recordedAtMinute(now, jst)

	want := time.Date(2026, time.July, 30, 9, 15, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
	assert.Equal(t, time.UTC, got.Location())
}

func TestHandleErxudp_IgnoresPanaPort(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	erxudp := skstack.Erxudp{
		DestinationPort: panaPort,
		Data:            []byte("not even a valid frame"),
	}
	// A nil *sink.Sink would panic if handleErxudp tried to use it; the
	// PANA-port branch must return before it does.
	handleErxudp(context.Background(), erxudp, nil, decimal.NewFromInt(1), jst)
}

func TestHandleErxudp_IgnoresUnrecognizedPort(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	erxudp := skstack.Erxudp{
		DestinationPort: 0x1234,
		Data:            []byte("not even a valid frame"),
	}
	handleErxudp(context.Background(), erxudp, nil, decimal.NewFromInt(1), jst)
}

func TestHandleErxudp_MalformedFrameIsContained(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	erxudp := skstack.Erxudp{
		DestinationPort: echonetLitePort,
		Data:            []byte{0x00, 0x00}, // too short to be a frame
	}
	// Decode failure must be logged and swallowed, not panic on the nil sink.
	handleErxudp(context.Background(), erxudp, nil, decimal.NewFromInt(1), jst)
}

func TestHandleErxudp_NonGetResOrInfESVIsNotCommitted(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	for _, esv := range []echonetlite.ESV{echonetlite.ESVGet_SNA, echonetlite.ESVSetI_SNA, echonetlite.ESVSetC_SNA, echonetlite.ESVSetC} {
		erxudp := erxudpWithESV(t, esv)
		// A nil *sink.Sink would panic on the INSERT call if the property
		// loop were reached; reaching it would mean the ESV filter let an
		// error response or a non-response ESV through.
		assert.NotPanics(t, func() {
			handleErxudp(context.Background(), erxudp, nil, decimal.NewFromInt(1), jst)
		}, "ESV 0x%02X", byte(esv))
	}
}

func TestHandleErxudp_GetResESVIsCommitted(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	erxudp := erxudpWithESV(t, echonetlite.ESVGet_Res)
	// A Get-response with a nil sink must reach the property loop and
	// panic on the nil *sink.Sink dereference — proving the ESV filter
	// does not also block the valid case.
	assert.Panics(t, func() {
		handleErxudp(context.Background(), erxudp, nil, decimal.NewFromInt(1), jst)
	})
}
