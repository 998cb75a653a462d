// Package config reads the daemon's entire external configuration surface:
// exactly two environment variables. Configuration-file handling is an
// explicit Non-goal; there is nothing else to parse.
package config

import (
	"fmt"
	"os"

	"github.com/ak1211/uchinoepower/internal/acqerr"
)

// Config is the daemon's validated environment.
type Config struct {
	// SerialDevice is the path to the Wi-SUN transceiver's serial device
	// node, e.g. "/dev/ttyUSB0".
	SerialDevice string
	// DatabaseURL is the relational sink's connection string.
	DatabaseURL string
}

// Load reads SERIAL_DEVICE and DATABASE_URL from the environment. Either
// being absent or empty is a fatal Config error.
func Load() (Config, error) {
	serialDevice, err := requireEnv("SERIAL_DEVICE")
	if err != nil {
		return Config{}, err
	}
	databaseURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	return Config{SerialDevice: serialDevice, DatabaseURL: databaseURL}, nil
}

// LoadDatabaseURL reads only DATABASE_URL, for the reporting CLIs that
// never open the serial transport.
func LoadDatabaseURL() (string, error) {
	return requireEnv("DATABASE_URL")
}

func requireEnv(name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", acqerr.New(acqerr.Config, fmt.Errorf("%s is required", name))
	}
	return value, nil
}
