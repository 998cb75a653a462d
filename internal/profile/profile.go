// Package profile holds the connection profile a pairing run produces and
// the daemon reads back at startup: everything needed to re-join the same
// meter without repeating the active scan.
package profile

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/ak1211/uchinoepower/internal/echonetlite"
	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/shopspring/decimal"
)

// Profile is the reusable connection profile: created once by pairing,
// read once at daemon start, immutable thereafter, superseded only by
// re-pairing.
type Profile struct {
	RouteBId       skstack.Id
	RouteBPassword skstack.Password
	Channel        byte
	MacAddress     uint64
	PanId          uint16
	Unit           decimal.Decimal
	Coefficient    uint8
}

// profileJSON is the wire shape stored in the settings table's JSON note
// column: plain strings and numbers, independent of the in-memory validated
// types above.
type profileJSON struct {
	RouteBId       string `json:"RouteBId"`
	RouteBPassword string `json:"RouteBPassword"`
	Channel        byte   `json:"Channel"`
	MacAddress     string `json:"MacAddress"`
	PanId          uint16 `json:"PanId"`
	Unit           string `json:"Unit"`
	Coefficient    uint8  `json:"Coefficient"`
}

// MarshalJSON renders the profile the way the settings table's note column
// expects: the MAC address as a plain hex string, the unit as its decimal
// string form.
func (p Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(profileJSON{
		RouteBId:       string(p.RouteBId),
		RouteBPassword: string(p.RouteBPassword),
		Channel:        p.Channel,
		MacAddress:     fmt.Sprintf("%016X", p.MacAddress),
		PanId:          p.PanId,
		Unit:           p.Unit.String(),
		Coefficient:    p.Coefficient,
	})
}

// UnmarshalJSON parses the settings table's note column back into a
// Profile.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	id, err := skstack.ParseId(raw.RouteBId)
	if err != nil {
		return err
	}
	password, err := skstack.ParsePassword(raw.RouteBPassword)
	if err != nil {
		return err
	}
	var mac uint64
	if _, err := fmt.Sscanf(raw.MacAddress, "%016X", &mac); err != nil {
		return fmt.Errorf("profile: invalid MAC address %q: %w", raw.MacAddress, err)
	}
	unit, err := decimal.NewFromString(raw.Unit)
	if err != nil {
		return fmt.Errorf("profile: invalid unit %q: %w", raw.Unit, err)
	}

	p.RouteBId = id
	p.RouteBPassword = password
	p.Channel = raw.Channel
	p.MacAddress = mac
	p.PanId = raw.PanId
	p.Unit = unit
	p.Coefficient = raw.Coefficient
	return nil
}

// LinkLocalAddress derives the meter's fe80::/64 address from its MAC.
func (p Profile) LinkLocalAddress() net.IP {
	return skstack.LinkLocalAddress(p.MacAddress)
}

// SourceEOJ and DestinationEOJ are the object identifiers every request
// this daemon issues uses: itself as a generic controller, the meter as
// the low-voltage smart electric energy meter class.
var (
	SourceEOJ      = echonetlite.ControllerEOJ
	DestinationEOJ = echonetlite.SmartMeterEOJ
)
