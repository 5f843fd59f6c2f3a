package learning

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/model"
)

func TestLinkLocalFromMACSetsUniversalLocalBitAndSplicesFFFE(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	ip := LinkLocalFromMAC(mac)
	require.NotNil(t, ip)
	assert.Equal(t, "fe80::211:22ff:fe33:4455", ip.String())
}

func TestLinkLocalFromMACRejectsWrongLength(t *testing.T) {
	assert.Nil(t, LinkLocalFromMAC(net.HardwareAddr{0x00, 0x11}))
}

func TestBuildAddressLearningPacketsIPv4ProducesOneARPRequestPerExpandedAddress(t *testing.T) {
	smac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	addrCtx := PortAddressContext{
		IPv4: model.IPProperties{
			Address: net.ParseIP("10.0.0.1"),
			Gateway: net.ParseIP("10.0.0.254"),
		},
	}
	data := model.ArpRefreshData{
		SourceIP: net.ParseIP("10.0.0.1"),
		HasRange: true, RangeStart: 1, RangeStop: 3, RangeStep: 1,
	}

	packets, err := BuildAddressLearningPackets(addrCtx, data, smac, false)
	require.NoError(t, err)
	assert.Len(t, packets, 3)
	for _, pkt := range packets {
		assert.Equal(t, byte(0x08), pkt[12], "ARP ethertype high byte")
		assert.Equal(t, byte(0x06), pkt[13], "ARP ethertype low byte")
	}
}

func TestBuildAddressLearningPacketsUsesGatewayMACAsDmacWhenConfigured(t *testing.T) {
	smac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	gwMAC := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x99}
	addrCtx := PortAddressContext{
		IPv4: model.IPProperties{
			Address:    net.ParseIP("10.0.0.1"),
			Gateway:    net.ParseIP("10.0.0.254"),
			GatewayMAC: gwMAC,
		},
	}
	data := model.ArpRefreshData{SourceIP: net.ParseIP("10.0.0.1")}

	packets, err := BuildAddressLearningPackets(addrCtx, data, smac, true)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, []byte(gwMAC), packets[0][0:6])
}

func TestBuildAddressLearningPacketsIPv6ProducesNeighborSolicitation(t *testing.T) {
	smac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	addrCtx := PortAddressContext{
		IsIPv6: true,
		IPv6: model.IPProperties{
			Address: net.ParseIP("fd00::1"),
		},
	}
	data := model.ArpRefreshData{SourceIP: net.ParseIP("fd00::1")}

	packets, err := BuildAddressLearningPackets(addrCtx, data, smac, false)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, byte(0x86), packets[0][12])
	assert.Equal(t, byte(0xdd), packets[0][13])
}
