package profile

import (
	"testing"

	"github.com/ak1211/uchinoepower/internal/skstack"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileJSONRoundTrip(t *testing.T) {
	id, err := skstack.ParseId("01234567890123456789012345678901"[:32])
	require.NoError(t, err)
	password, err := skstack.ParsePassword("ABCDEFGH1234")
	require.NoError(t, err)

	original := Profile{
		RouteBId:       id,
		RouteBPassword: password,
		Channel:        0x21,
		MacAddress:     0x1234_5678_ABCD_EF01,
		PanId:          0xBEEF,
		Unit:           decimal.New(1, -1),
		Coefficient:    1,
	}

	data, err := original.MarshalJSON()
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, decoded.UnmarshalJSON(data))

	assert.Equal(t, original.RouteBId, decoded.RouteBId)
	assert.Equal(t, original.RouteBPassword, decoded.RouteBPassword)
	assert.Equal(t, original.Channel, decoded.Channel)
	assert.Equal(t, original.MacAddress, decoded.MacAddress)
	assert.Equal(t, original.PanId, decoded.PanId)
	assert.True(t, original.Unit.Equal(decoded.Unit))
	assert.Equal(t, original.Coefficient, decoded.Coefficient)
}

func TestProfileLinkLocalAddress(t *testing.T) {
	p := Profile{MacAddress: 0x1234_5678_ABCD_EF01}
	assert.True(t, p.LinkLocalAddress().IsLinkLocalUnicast())
}
