package skstack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOne_Void(t *testing.T) {
	rec, n, err := ParseOne([]byte("\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Void{}, rec)
	assert.Equal(t, 2, n)

	rec, n, err = ParseOne([]byte(" \r\n"))
	require.NoError(t, err)
	assert.Equal(t, Void{}, rec)
	assert.Equal(t, 3, n)
}

func TestParseOne_Ok(t *testing.T) {
	rec, n, err := ParseOne([]byte("OK\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Ok{}, rec)
	assert.Equal(t, 4, n)
}

func TestParseOne_Fail(t *testing.T) {
	rec, _, err := ParseOne([]byte("FAIL ER10\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Fail{Code: 0x10}, rec)
}

func TestParseOne_Event(t *testing.T) {
	t.Run("with param", func(t *testing.T) {
		rec, _, err := ParseOne([]byte("EVENT 21 FE80:0000:0000:0000:0000:0000:0000:0000 02\r\n"))
		require.NoError(t, err)
		event, ok := rec.(Event)
		require.True(t, ok)
		assert.Equal(t, byte(0x21), event.Code)
		require.NotNil(t, event.Param)
		assert.Equal(t, byte(0x02), *event.Param)
		assert.Equal(t, "fe80::", event.Sender.String())
	})

	t.Run("without param", func(t *testing.T) {
		rec, _, err := ParseOne([]byte("EVENT 02 FE80:0000:0000:0000:0000:0000:0000:0000\r\n"))
		require.NoError(t, err)
		event, ok := rec.(Event)
		require.True(t, ok)
		assert.Equal(t, byte(0x02), event.Code)
		assert.Nil(t, event.Param)
	})
}

func TestParseOne_Erxudp(t *testing.T) {
	line := "ERXUDP FE80:0001:0002:0003:0004:0005:0006:0007 FE80:0008:0009:000A:000B:000C:000D:000E 02CC 02CC 123456789ABC0000 1 10 000102030405060708090A0B0C0D0E0F\r\n"
	rec, _, err := ParseOne([]byte(line))
	require.NoError(t, err)
	erxudp, ok := rec.(Erxudp)
	require.True(t, ok)
	assert.Equal(t, uint16(0x02CC), erxudp.SenderPort)
	assert.Equal(t, uint16(0x02CC), erxudp.DestinationPort)
	assert.Equal(t, uint64(0x123456789ABC0000), erxudp.SenderLLA)
	assert.Equal(t, byte(1), erxudp.Secured)
	assert.Equal(t, uint16(0x10), erxudp.DataLen)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, erxudp.Data)
}

func TestParseOne_Epandesc(t *testing.T) {
	lines := []string{
		"EPANDESC\r\n",
		"  Channel:3B\r\n",
		"  Channel Page:09\r\n",
		"  Pan ID:ABCD\r\n",
		"  Addr:12345678ABCDABCD\r\n",
		"  LQI:84\r\n",
		"  PairID:1234ABCD\r\n",
	}
	full := joinAll(lines)

	rec, n, err := ParseOne([]byte(full))
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
	epandesc, ok := rec.(Epandesc)
	require.True(t, ok)
	assert.Equal(t, byte(59), epandesc.Channel)
	assert.Equal(t, byte(9), epandesc.ChannelPage)
	assert.Equal(t, uint16(0xABCD), epandesc.PanID)
	assert.Equal(t, uint64(0x12345678ABCDABCD), epandesc.Addr)
	assert.Equal(t, byte(132), epandesc.LQI)
	assert.Equal(t, uint32(0x1234ABCD), epandesc.PairID)

	// Every strict prefix of the seven-line sequence is incomplete.
	for i := 1; i < len(lines); i++ {
		prefix := joinAll(lines[:i])
		_, _, err := ParseOne([]byte(prefix))
		assert.True(t, errors.Is(err, ErrIncomplete), "prefix of %d lines should be incomplete", i)
	}
}

func joinAll(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l
	}
	return out
}
