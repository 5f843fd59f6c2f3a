package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileComputesCumulativeByteOffsets(t *testing.T) {
	segments := []HeaderSegment{
		{SegmentType: SegmentEthernet, TemplateHex: "000000000000000000000000" + "0800"},
		{SegmentType: SegmentIP, TemplateHex: repeatHex(20)},
		{SegmentType: SegmentUDP, TemplateHex: repeatHex(8)},
	}
	profile, err := NewProtocolSegmentProfile("eth/ip/udp", segments)
	require.NoError(t, err)

	assert.Equal(t, 0, profile.HeaderSegments[0].SegmentByteOffset)
	assert.Equal(t, 14, profile.HeaderSegments[1].SegmentByteOffset)
	assert.Equal(t, 34, profile.HeaderSegments[2].SegmentByteOffset)
	assert.Equal(t, 42, profile.PacketHeaderLength())
}

func TestProfileComputesModifierPosition(t *testing.T) {
	segments := []HeaderSegment{
		{SegmentType: SegmentEthernet, TemplateHex: repeatHex(14)},
		{
			SegmentType: SegmentIP,
			TemplateHex: repeatHex(20),
			HwModifiers: []HwModifier{
				NewHwModifier("Dest IP Addr", "FFFF", ActionINC, 1, 254, 1),
			},
		},
	}
	profile, err := NewProtocolSegmentProfile("eth/ip", segments)
	require.NoError(t, err)

	mod := profile.HeaderSegments[1].HwModifiers[0]
	assert.Equal(t, 14+16, mod.Position)
}

func TestFieldValueRangeExceedGuard(t *testing.T) {
	segments := []HeaderSegment{
		{
			SegmentType: SegmentUDP,
			TemplateHex: repeatHex(8),
			FieldValueRanges: []FieldValueRange{
				{FieldName: "Src Port", Start: 0, Stop: 70000, Step: 1, Action: ActionINC},
			},
		},
	}
	_, err := NewProtocolSegmentProfile("bad range", segments)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Src Port")
}

func TestNormalizeMask(t *testing.T) {
	assert.Equal(t, "0xAB0000", NormalizeMask("0xAB"))
	assert.Equal(t, NormalizeMask("AB"), NormalizeMask("0xAB"))
	assert.Equal(t, "0xFFFF0000", NormalizeMask("FFFF"))
	assert.Equal(t, "0xFFFF0000", NormalizeMask("0xFFFF"))
}

func TestFieldValueRangeIncWrapsToStart(t *testing.T) {
	fvr := &FieldValueRange{FieldName: "Src Port", Start: 10, Stop: 12, Step: 1, Action: ActionINC}
	assert.Equal(t, 10, fvr.GetCurrentValue())
	assert.Equal(t, 11, fvr.GetCurrentValue())
	assert.Equal(t, 12, fvr.GetCurrentValue())
	assert.Equal(t, 10, fvr.GetCurrentValue())
	assert.Equal(t, 1, fvr.CurrentCount())
}

func TestFieldValueRangeDecWrapsToStart(t *testing.T) {
	fvr := &FieldValueRange{FieldName: "Src Port", Start: 12, Stop: 10, Step: 1, Action: ActionDEC}
	assert.Equal(t, 12, fvr.GetCurrentValue())
	assert.Equal(t, 11, fvr.GetCurrentValue())
	assert.Equal(t, 10, fvr.GetCurrentValue())
	assert.Equal(t, 12, fvr.GetCurrentValue())
	assert.Equal(t, 1, fvr.CurrentCount())
}

func repeatHex(nBytes int) string {
	s := ""
	for i := 0; i < nBytes; i++ {
		s += "00"
	}
	return s
}
