// Package acquisition implements the acquisition control loop (C6): a
// transmitter task driving the outbound request schedule, a receiver task
// consuming inbound records and routing decoded measurements to the sink,
// and a supervisor that restarts the whole cycle on session loss.
package acquisition

import (
	"sync"

	"github.com/ak1211/uchinoepower/internal/echonetlite"
)

var (
	todayCumulativeHistoryFrame *echonetlite.Frame
	todayCumulativeHistoryOnce  sync.Once

	instantPowerAndCurrentFrame *echonetlite.Frame
	instantPowerAndCurrentOnce  sync.Once
)

// TodayCumulativeHistoryFrame is the process-wide "today's cumulative
// history" request (EPC 0xE2), sent once per acquisition cycle
// immediately after the session joins. Constructed lazily at first use.
func TodayCumulativeHistoryFrame() *echonetlite.Frame {
	todayCumulativeHistoryOnce.Do(func() {
		todayCumulativeHistoryFrame = &echonetlite.Frame{
			EHD1: echonetlite.EchonetLiteEHD1,
			EHD2: echonetlite.Format1,
			TID:  1,
			SEOJ: echonetlite.ControllerEOJ,
			DEOJ: echonetlite.SmartMeterEOJ,
			ESV:  echonetlite.ESVGet,
			OPC:  1,
			Properties: []echonetlite.Property{
				{EPC: echonetlite.EPCHistoricalCumulativeAmount},
			},
		}
	})
	return todayCumulativeHistoryFrame
}

// InstantPowerAndCurrentFrame is the process-wide "instantaneous power +
// instantaneous current" request (EPC 0xE7, 0xE8), sent every minute on
// the transmit schedule. Constructed lazily at first use.
func InstantPowerAndCurrentFrame() *echonetlite.Frame {
	instantPowerAndCurrentOnce.Do(func() {
		instantPowerAndCurrentFrame = &echonetlite.Frame{
			EHD1: echonetlite.EchonetLiteEHD1,
			EHD2: echonetlite.Format1,
			TID:  1,
			SEOJ: echonetlite.ControllerEOJ,
			DEOJ: echonetlite.SmartMeterEOJ,
			ESV:  echonetlite.ESVGet,
			OPC:  2,
			Properties: []echonetlite.Property{
				{EPC: echonetlite.EPCInstantaneousPower},
				{EPC: echonetlite.EPCInstantaneousCurrent},
			},
		}
	})
	return instantPowerAndCurrentFrame
}
