package acquisition

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/echonetlite"
	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/robfig/cron/v3"
)

// transmitSchedule is "every minute, at second 00", in the meter's local
// civil time.
const transmitSchedule = "00 */1 * * * *"

// Transmitter sends the one-shot today's-cumulative-history request, then
// drives the per-minute instantaneous-measurement schedule until ctx is
// cancelled. Every sessionRejoinPeriod of elapsed wall-clock time, it also
// issues SKREJOIN to pre-emptively renew the PANA session.
func Transmitter(ctx context.Context, d skstack.Transport, sender net.IP, sessionRejoinPeriod time.Duration, location *time.Location) error {
	if err := skstack.SendEchonetLiteFrame(d, sender, mustMarshal(TodayCumulativeHistoryFrame())); err != nil {
		return err
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(transmitSchedule)
	if err != nil {
		return acqerr.New(acqerr.Schedule, err)
	}

	rejoinDeadline := time.Now().Add(sessionRejoinPeriod)

	for {
		now := time.Now()
		next := schedule.Next(now.In(location))
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := skstack.SendEchonetLiteFrame(d, sender, mustMarshal(InstantPowerAndCurrentFrame())); err != nil {
			return err
		}

		if time.Now().After(rejoinDeadline) {
			time.Sleep(1 * time.Second)
			if err := skstack.Rejoin(d); err != nil {
				return err
			}
			rejoinDeadline = time.Now().Add(sessionRejoinPeriod)
		}
	}
}

// mustMarshal encodes frame, panicking on failure since the two static
// request frames are fixed and always well-formed — a marshal error here
// would mean a programming mistake, not a runtime condition.
func mustMarshal(frame *echonetlite.Frame) []byte {
	data, err := frame.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("acquisition: static request frame failed to encode: %v", err))
	}
	return data
}
