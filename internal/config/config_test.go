package config

import (
	"testing"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		t.Setenv("SERIAL_DEVICE", "/dev/ttyUSB0")
		t.Setenv("DATABASE_URL", "postgres://localhost/uchinoepower")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", cfg.SerialDevice)
		assert.Equal(t, "postgres://localhost/uchinoepower", cfg.DatabaseURL)
	})

	t.Run("missing SERIAL_DEVICE is fatal", func(t *testing.T) {
		t.Setenv("SERIAL_DEVICE", "")
		t.Setenv("DATABASE_URL", "postgres://localhost/uchinoepower")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, acqerr.Is(err, acqerr.Config))
	})

	t.Run("missing DATABASE_URL is fatal", func(t *testing.T) {
		t.Setenv("SERIAL_DEVICE", "/dev/ttyUSB0")
		t.Setenv("DATABASE_URL", "")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, acqerr.Is(err, acqerr.Config))
	})
}

func TestLoadDatabaseURL(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/uchinoepower")

		url, err := LoadDatabaseURL()
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/uchinoepower", url)
	})

	t.Run("missing is fatal, independent of SERIAL_DEVICE", func(t *testing.T) {
		t.Setenv("SERIAL_DEVICE", "")
		t.Setenv("DATABASE_URL", "")

		_, err := LoadDatabaseURL()
		require.Error(t, err)
		assert.True(t, acqerr.Is(err, acqerr.Config))
	})
}
