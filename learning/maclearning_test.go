package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMacLearningFrameAcceptsColonAndHexPrefixForms(t *testing.T) {
	a, err := BuildMacLearningFrame("00:11:22:33:44:55")
	require.NoError(t, err)
	b, err := BuildMacLearningFrame("0x001122334455")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildMacLearningFrameLayout(t *testing.T) {
	frame, err := BuildMacLearningFrame("00:11:22:33:44:55")
	require.NoError(t, err)
	require.Len(t, frame, 6+6+2+118)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, frame[0:6])
	assert.Equal(t, []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, frame[6:12])
	assert.Equal(t, []byte{0xff, 0xff}, frame[12:14])
	for _, b := range frame[14:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestBuildMacLearningFrameRejectsInvalidMac(t *testing.T) {
	_, err := BuildMacLearningFrame("not-a-mac")
	assert.Error(t, err)
}
