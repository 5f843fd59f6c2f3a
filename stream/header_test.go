package stream

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/model"
)

func buildEthIPUDPProfile(t *testing.T) *model.ProtocolSegmentProfile {
	t.Helper()
	segments := []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: "000000000000000000000000" + "0800"},
		{SegmentType: model.SegmentIP, TemplateHex: "4500002800000000401100000a0000010a000002"},
		{SegmentType: model.SegmentUDP, TemplateHex: "0001000200080000"},
	}
	profile, err := model.NewProtocolSegmentProfile("eth/ip/udp", segments)
	require.NoError(t, err)
	return profile
}

func TestBuildPacketHeaderSubstitutesAddresses(t *testing.T) {
	profile := buildEthIPUDPProfile(t)
	srcMAC, _ := net.ParseMAC("02:00:00:00:00:01")
	dstMAC, _ := net.ParseMAC("02:00:00:00:00:02")
	addr := model.AddressCollection{
		SrcMAC:  srcMAC,
		DstMAC:  dstMAC,
		SrcIPv4: net.ParseIP("10.0.0.1").To4(),
		DstIPv4: net.ParseIP("10.0.0.2").To4(),
	}

	header, err := BuildPacketHeader(profile, addr, false)
	require.NoError(t, err)
	require.Len(t, header, profile.PacketHeaderLength())

	assert.Equal(t, dstMAC, net.HardwareAddr(header[0:6]))
	assert.Equal(t, srcMAC, net.HardwareAddr(header[6:12]))
	assert.Equal(t, net.IP(header[26:30]).String(), "10.0.0.1")
	assert.Equal(t, net.IP(header[30:34]).String(), "10.0.0.2")
}

func TestBuildPacketHeaderRelabelsTCPCheckWhenCapable(t *testing.T) {
	segments := []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: "000000000000000000000000" + "0800"},
		{SegmentType: model.SegmentIP, TemplateHex: "4500002800000000401100000a0000010a000002"},
		{SegmentType: model.SegmentTCP, TemplateHex: "0001000200000000000000005000000000000000"},
	}
	profile, err := model.NewProtocolSegmentProfile("eth/ip/tcp", segments)
	require.NoError(t, err)

	_, err = BuildPacketHeader(profile, model.AddressCollection{
		SrcMAC: net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC: net.HardwareAddr{0, 0, 0, 0, 0, 2},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, model.SegmentTCPCheck, profile.HeaderSegments[2].SegmentType)
}

func TestOnesComplementSumIsDeterministic(t *testing.T) {
	buf := []byte{0x45, 0x00, 0x00, 0x28}
	s1 := onesComplementSum(buf)
	s2 := onesComplementSum(buf)
	assert.Equal(t, s1, s2)
}
