package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPasswordSpan(t *testing.T) {
	line := []byte("2026/07/30 12:00:00 skstack: sent SKSETPWD C ABCDEFGH1234\r\n")
	masked := mask(line)
	assert.Contains(t, string(masked), "SKSETPWD C ############\r\n")
	assert.NotContains(t, string(masked), "ABCDEFGH1234")
}

func TestMaskLeavesUnrelatedLinesAlone(t *testing.T) {
	line := []byte("2026/07/30 12:00:00 skstack: sent SKJOIN fe80::1\r\n")
	assert.Equal(t, line, mask(line))
}

func TestMaskWithoutTrailingCRLF(t *testing.T) {
	line := []byte("SKSETPWD C ABCDEFGH1234")
	masked := mask(line)
	assert.Equal(t, "SKSETPWD C ############", string(masked))
}
