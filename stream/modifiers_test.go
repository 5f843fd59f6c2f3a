package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
)

func TestResolveModifiersStreamBasedUsesProfileOnly(t *testing.T) {
	segments := []model.HeaderSegment{
		{
			SegmentType: model.SegmentIP,
			TemplateHex: "4500002800000000401100000a0000010a000002",
			HwModifiers: []model.HwModifier{
				model.NewHwModifier("Dest IP Addr", "FFFF", model.ActionINC, 1, 10, 1),
			},
		},
	}
	profile, err := model.NewProtocolSegmentProfile("p", segments)
	require.NoError(t, err)

	mods := ResolveModifiers(profile, model.FlowCreationStreamBased, 0, 0)
	assert.Len(t, mods, 1)
	assert.Equal(t, "Dest IP Addr", mods[0].FieldName)
}

func TestResolveModifiersModifierBasedAppendsSyntheticDstMAC(t *testing.T) {
	segments := []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: "000000000000000000000000" + "0800"},
	}
	profile, err := model.NewProtocolSegmentProfile("p", segments)
	require.NoError(t, err)

	mods := ResolveModifiers(profile, model.FlowCreationModifierBased, 1, 254)
	require.Len(t, mods, 1)
	assert.Equal(t, "Dst MAC addr", mods[0].FieldName)
	assert.Equal(t, "0x00FF0000", mods[0].Mask)
	assert.Equal(t, 1, mods[0].Start)
	assert.Equal(t, 254, mods[0].Stop)
}

func TestProgramModifierRequestsBatchesConfigureAndSpecAndRange(t *testing.T) {
	s := &driver.Stream{Port: &driver.Port{Pair: driver.ModulePortPair{ModuleIndex: 0, PortIndex: 0}}, StreamID: 1}
	mods := []model.HwModifier{
		model.NewHwModifier("Dst MAC addr", "00FF", model.ActionINC, 1, 254, 1),
	}
	reqs := ProgramModifierRequests(s, mods)
	require.Len(t, reqs, 3)
	assert.Equal(t, "stream.modifiers.configure", reqs[0].Op)
	assert.Equal(t, "stream.modifier.spec.set", reqs[1].Op)
	assert.Equal(t, "stream.modifier.range.set", reqs[2].Op)
}
