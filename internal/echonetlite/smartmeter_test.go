package echonetlite

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoefficient(t *testing.T) {
	t.Run("empty EDT defaults to 1", func(t *testing.T) {
		got, err := Coefficient(nil)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), got)
	})

	t.Run("1 byte EDT", func(t *testing.T) {
		got, err := Coefficient([]byte{0x02})
		require.NoError(t, err)
		assert.Equal(t, uint8(2), got)
	})

	t.Run("wrong length is an error", func(t *testing.T) {
		_, err := Coefficient([]byte{0x00, 0x00, 0x00, 0x01})
		assert.Error(t, err)
	})
}

func TestUnitForCumulativeAmountsPower(t *testing.T) {
	cases := []struct {
		name string
		edt  byte
		want decimal.Decimal
	}{
		{"1", 0x00, decimal.New(1, 0)},
		{"0.1", 0x01, decimal.New(1, -1)},
		{"0.01", 0x02, decimal.New(1, -2)},
		{"0.001", 0x03, decimal.New(1, -3)},
		{"0.0001", 0x04, decimal.New(1, -4)},
		{"10", 0x0A, decimal.New(10, 0)},
		{"100", 0x0B, decimal.New(100, 0)},
		{"1000", 0x0C, decimal.New(1000, 0)},
		{"10000", 0x0D, decimal.New(10000, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := UnitForCumulativeAmountsPower([]byte{tc.edt})
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}

	t.Run("unrecognized byte is an error", func(t *testing.T) {
		_, err := UnitForCumulativeAmountsPower([]byte{0x7F})
		assert.Error(t, err)
	})
}

func TestKWh(t *testing.T) {
	unit, err := UnitForCumulativeAmountsPower([]byte{0x01}) // 0.1
	require.NoError(t, err)

	got := KWh(12345, unit, 1)
	assert.True(t, decimal.New(12345, -1).Equal(got), "got %s", got)
}

func TestInstantaneousPower(t *testing.T) {
	t.Run("positive value", func(t *testing.T) {
		got, err := InstantaneousPower([]byte{0x00, 0x00, 0x02, 0x9A}) // 666
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(666).Equal(got))
	})

	t.Run("negative value (exporting power)", func(t *testing.T) {
		got, err := InstantaneousPower([]byte{0xFF, 0xFF, 0xFF, 0x9C}) // -100
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(-100).Equal(got))
	})
}

func TestDecodeInstantaneousCurrent(t *testing.T) {
	t.Run("both phases present", func(t *testing.T) {
		// R = 123 (12.3A), T = 45 (4.5A)
		got, err := DecodeInstantaneousCurrent([]byte{0x00, 0x7B, 0x00, 0x2D})
		require.NoError(t, err)
		assert.True(t, decimal.New(123, -1).Equal(got.R))
		require.NotNil(t, got.T)
		assert.True(t, decimal.New(45, -1).Equal(*got.T))
	})

	t.Run("single phase, T absent", func(t *testing.T) {
		got, err := DecodeInstantaneousCurrent([]byte{0x00, 0x7B, 0x7F, 0xFE})
		require.NoError(t, err)
		assert.Nil(t, got.T)
	})

	t.Run("wrong length is an error", func(t *testing.T) {
		_, err := DecodeInstantaneousCurrent([]byte{0x00, 0x7B})
		assert.Error(t, err)
	})
}

func TestDecodeCumulativeAmountsAtFixedTime(t *testing.T) {
	edt := []byte{
		0x07, 0xE8, // year 2024
		0x01,       // month
		0x01,       // day
		0x00,       // hour
		0x00,       // minute
		0x00,       // second
		0x00, 0x01, 0x86, 0xA0, // 100000
	}
	got, err := DecodeCumulativeAmountsAtFixedTime(edt)
	require.NoError(t, err)
	assert.Equal(t, uint32(100000), got.CumulativeAmountsPower)
	assert.Equal(t, 2024, got.TimePoint.Year())
	assert.Equal(t, 1, int(got.TimePoint.Month()))
}

func TestDecodeHistoricalCumulativeAmount(t *testing.T) {
	edt := make([]byte, 2+48*4)
	edt[1] = 0x03 // 3 days ago
	// slot 0: value 10
	edt[2], edt[3], edt[4], edt[5] = 0x00, 0x00, 0x00, 0x0A
	// slot 1: no data sentinel
	edt[6], edt[7], edt[8], edt[9] = 0xFF, 0xFF, 0xFF, 0xFE

	got, err := DecodeHistoricalCumulativeAmount(edt)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), got.NDaysAgo)
	require.NotNil(t, got.Readings[0])
	assert.Equal(t, uint32(10), *got.Readings[0])
	assert.Nil(t, got.Readings[1])
}
