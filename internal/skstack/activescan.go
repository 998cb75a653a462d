package skstack

import (
	"errors"
	"fmt"

	"github.com/ak1211/uchinoepower/internal/acqerr"
)

// ActiveScan runs the active-scan command sequence and collects whatever
// PAN descriptors are announced before the scan completes. scanTime is the
// dwell-duration parameter (1..=14; larger is a longer, more thorough
// scan). An empty result is not an error — it means no meter answered.
func ActiveScan(d Transport, credentials Credentials, scanTime int) ([]Epandesc, error) {
	commands := []string{
		"SKRESET\r\n",
		fmt.Sprintf("SKSETPWD C %s\r\n", credentials.Password),
		fmt.Sprintf("SKSETRBID %s\r\n", credentials.Id),
		fmt.Sprintf("SKSCAN 2 FFFFFFFF %X\r\n", scanTime),
	}

	for _, command := range commands {
		if err := d.Send([]byte(command)); err != nil {
			return nil, acqerr.New(acqerr.Io, err)
		}
		rec, err := d.Receive()
		if err != nil && !errors.Is(err, ErrNoRecord) {
			return nil, acqerr.New(acqerr.Io, err)
		}
		if fail, ok := rec.(Fail); ok {
			return nil, acqerr.NewCommandFail(fail.Code)
		}
	}

	var found []Epandesc
	for {
		rec, err := d.Receive()
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				continue
			}
			return nil, acqerr.New(acqerr.Io, err)
		}
		switch v := rec.(type) {
		case Fail:
			return found, nil
		case Event:
			switch v.Code {
			case 0x20:
				continue
			case 0x22:
				return found, nil
			default:
				return found, nil
			}
		case Epandesc:
			found = append(found, v)
		default:
			continue
		}
	}
}
