package acquisition

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/profile"
	"github.com/ak1211/uchinoepower/internal/sink"
	"github.com/ak1211/uchinoepower/internal/skstack"
)

// restartCoolDown is how long Supervise waits before re-establishing a
// session after it is lost.
const restartCoolDown = 5 * time.Second

// sessionRejoinFraction is applied to the session lifetime SKSREG S16 was
// last set to, giving the point at which the transmitter pre-emptively
// issues SKREJOIN.
const sessionRejoinFraction = 0.7

// defaultSessionLifetime is the session lifetime, in seconds, that runOnce
// sets with SKSREG S16 at the start of every cycle.
const defaultSessionLifetime = 900

// Supervise runs the whole acquisition cycle — connect, then transmit and
// receive concurrently — restarting it from scratch whenever the session
// is lost or a recoverable I/O error occurs. It returns only when ctx is
// cancelled or a fatal error is encountered.
func Supervise(ctx context.Context, d skstack.Transport, s *sink.Sink, p profile.Profile, location *time.Location) error {
	sender := p.LinkLocalAddress()

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := runOnce(ctx, d, s, p, sender, location)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if acqerr.Fatal(kindOf(err)) {
			return err
		}

		log.Printf("acquisition: session ended (%v), restarting in %s", err, restartCoolDown)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(restartCoolDown):
		}
	}
}

// runOnce performs one connect-transmit-receive cycle. It returns as soon
// as either the transmitter or the receiver terminates; the other is then
// cancelled via ctx.
func runOnce(ctx context.Context, d skstack.Transport, s *sink.Sink, p profile.Profile, sender net.IP, location *time.Location) error {
	if err := skstack.Connect(d, skstack.Credentials{Id: p.RouteBId, Password: p.RouteBPassword}, sender, p.Channel, p.PanId); err != nil {
		return err
	}
	if err := skstack.SetSessionLifetime(d, defaultSessionLifetime); err != nil {
		return err
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rejoinPeriod := time.Duration(float64(defaultSessionLifetime)*sessionRejoinFraction) * time.Second

	errs := make(chan error, 2)
	go func() { errs <- Transmitter(cycleCtx, d, sender, rejoinPeriod, location) }()
	go func() { errs <- Receiver(cycleCtx, d, s, p.Unit, location) }()

	first := <-errs
	cancel()
	<-errs

	return first
}

// kindOf extracts the acqerr.Kind carried by err, if any. A non-acqerr
// error (plain I/O failure, say) is treated as recoverable by default.
func kindOf(err error) acqerr.Kind {
	var ae *acqerr.Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return acqerr.Io
}
