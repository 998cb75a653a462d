// Package pairing implements the pairing procedure (C8): discover a meter
// over Wi-SUN, read its fixed parameters, and produce a connection
// profile ready to persist to the settings table.
package pairing

import (
	"fmt"
	"net"
	"time"

	"github.com/ak1211/uchinoepower/internal/echonetlite"
	"github.com/ak1211/uchinoepower/internal/profile"
	"github.com/ak1211/uchinoepower/internal/skstack"
)

// propertyTimeout bounds how long Pair waits for a reply to one Get
// request before giving up on that property and moving to the next.
const propertyTimeout = 5 * time.Second

// scanTime is the duration code passed to SKSCAN's active-scan duration
// parameter (the "T" in SKSCAN 2 FFFFFFFF <T>).
const scanTime = 6

// ErrNotFound is returned when no descriptor was found by the scan, or
// the meter never answered with both a unit and a coefficient.
type ErrNotFound struct{ Reason string }

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("pairing: not found: %s", e.Reason)
}

// Pair runs the full discovery-and-characterize sequence: active scan,
// connect to the first descriptor found, then Get each of the meter's
// fixed properties in turn.
func Pair(d skstack.Transport, credentials skstack.Credentials) (profile.Profile, error) {
	descriptors, err := skstack.ActiveScan(d, credentials, scanTime)
	if err != nil {
		return profile.Profile{}, err
	}
	if len(descriptors) == 0 {
		return profile.Profile{}, &ErrNotFound{Reason: "active scan found no descriptor"}
	}
	descriptor := descriptors[0]

	mac := descriptor.Addr
	sender := skstack.LinkLocalAddress(mac)

	if err := skstack.Connect(d, credentials, sender, descriptor.Channel, descriptor.PanID); err != nil {
		return profile.Profile{}, err
	}

	unitEDT, err := getProperty(d, sender, echonetlite.EPCUnitForCumulativeAmounts)
	if err != nil {
		return profile.Profile{}, err
	}
	// The property map and effective-digits readings are gathered for
	// completeness but play no role in constructing the profile.
	if _, err := getProperty(d, sender, echonetlite.EPCGetPropertyMap); err != nil {
		return profile.Profile{}, err
	}
	coefficientEDT, err := getProperty(d, sender, echonetlite.EPCCoefficient)
	if err != nil {
		return profile.Profile{}, err
	}
	if _, err := getProperty(d, sender, echonetlite.EPCNumberOfEffectiveDigits); err != nil {
		return profile.Profile{}, err
	}

	if unitEDT == nil || coefficientEDT == nil {
		return profile.Profile{}, &ErrNotFound{Reason: "meter did not report both unit and coefficient"}
	}

	unit, err := echonetlite.UnitForCumulativeAmountsPower(unitEDT)
	if err != nil {
		return profile.Profile{}, err
	}
	coefficient, err := echonetlite.Coefficient(coefficientEDT)
	if err != nil {
		return profile.Profile{}, err
	}

	return profile.Profile{
		RouteBId:       credentials.Id,
		RouteBPassword: credentials.Password,
		Channel:        descriptor.Channel,
		MacAddress:     mac,
		PanId:          descriptor.PanID,
		Unit:           unit,
		Coefficient:    coefficient,
	}, nil
}

// getProperty sends a single-property Get request and waits up to
// propertyTimeout for the matching response, returning its EDT. A read
// timeout, or any record that is not the matching ERXUDP, counts toward
// the deadline rather than aborting early; running out the clock without
// an answer returns nil, nil rather than an error.
func getProperty(d skstack.Transport, sender net.IP, epc byte) ([]byte, error) {
	frame := &echonetlite.Frame{
		EHD1: echonetlite.EchonetLiteEHD1,
		EHD2: echonetlite.Format1,
		TID:  1,
		SEOJ: profile.SourceEOJ,
		DEOJ: profile.DestinationEOJ,
		ESV:  echonetlite.ESVGet,
		OPC:  1,
		Properties: []echonetlite.Property{
			{EPC: epc},
		},
	}
	payload, err := frame.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := skstack.SendEchonetLiteFrame(d, sender, payload); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(propertyTimeout)
	for time.Now().Before(deadline) {
		rec, err := d.Receive()
		if err != nil {
			continue
		}
		erxudp, ok := rec.(skstack.Erxudp)
		if !ok || erxudp.DestinationPort != 0x0E1A {
			continue
		}
		var reply echonetlite.Frame
		if err := reply.UnmarshalBinary(erxudp.Data); err != nil {
			continue
		}
		for _, prop := range reply.Properties {
			if prop.EPC == epc {
				return append([]byte{}, prop.EDT...), nil
			}
		}
	}
	return nil, nil
}
