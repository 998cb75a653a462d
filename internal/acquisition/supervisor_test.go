package acquisition

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/profile"
	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_ExtractsTaggedKind(t *testing.T) {
	err := acqerr.New(acqerr.SessionDisconnected, nil)
	assert.Equal(t, acqerr.SessionDisconnected, kindOf(err))
}

func TestKindOf_DefaultsToIoForPlainError(t *testing.T) {
	assert.Equal(t, acqerr.Io, kindOf(errors.New("boom")))
}

// refusingTransport panics if touched; used to assert Supervise never
// starts a cycle once ctx is already cancelled.
type refusingTransport struct{}

func (refusingTransport) Send([]byte) error { panic("Send called on cancelled context") }

func (refusingTransport) Receive() (skstack.Record, error) {
	panic("Receive called on cancelled context")
}

func TestSupervise_ReturnsImmediatelyOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Supervise(ctx, refusingTransport{}, nil, profile.Profile{}, time.UTC)
	require.NoError(t, err)
}

// failFirstConnectTransport fails the very first SKRESET acknowledgement
// with a device error code, so Connect returns a CommandFail error without
// ever reaching the Transmitter/Receiver goroutines.
type failFirstConnectTransport struct{}

func (failFirstConnectTransport) Send([]byte) error { return nil }

func (failFirstConnectTransport) Receive() (skstack.Record, error) {
	return skstack.Fail{Code: 0x10}, nil
}

func TestRunOnce_ReturnsConnectFailureWithoutStartingCycle(t *testing.T) {
	p := profile.Profile{Channel: 0x21, PanId: 0xBEEF}
	err := runOnce(context.Background(), failFirstConnectTransport{}, nil, p, net.ParseIP("fe80::1"), time.UTC)
	require.Error(t, err)
	assert.True(t, acqerr.Is(err, acqerr.CommandFail))
}
