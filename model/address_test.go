package model

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAddressCollectionWithOffset(t *testing.T) {
	_, txNet, _ := net.ParseCIDR("10.0.0.0/24")
	_, rxNet, _ := net.ParseCIDR("10.0.1.0/24")
	tx := PortConfiguration{IPv4Properties: IPProperties{Network: txNet}}
	rx := PortConfiguration{IPv4Properties: IPProperties{Network: rxNet}}
	base, _ := net.ParseMAC("00:00:00:00:00:00")

	addr := GetAddressCollection(tx, rx, base, &StreamOffset{TxOffset: 5, RxOffset: 9})
	assert.Equal(t, "10.0.0.5", addr.SrcIPv4.String())
	assert.Equal(t, "10.0.1.9", addr.DstIPv4.String())
	assert.NotEqual(t, addr.SrcMAC.String(), addr.DstMAC.String())
}

func TestGetAddressCollectionWithoutOffsetUsesConfiguredAddresses(t *testing.T) {
	tx := PortConfiguration{IPv4Properties: IPProperties{
		Address: net.ParseIP("192.168.1.1"),
		DstAddr: net.ParseIP("192.168.1.2"),
	}}
	rx := PortConfiguration{}
	base, _ := net.ParseMAC("00:00:00:00:00:00")

	addr := GetAddressCollection(tx, rx, base, nil)
	assert.Equal(t, "192.168.1.1", addr.SrcIPv4.String())
	assert.Equal(t, "192.168.1.2", addr.DstIPv4.String())
}

func TestArpRefreshDataExpandDestinationsNoRange(t *testing.T) {
	data := ArpRefreshData{SourceIP: net.ParseIP("10.0.0.1")}
	assert.Equal(t, []int{0}, data.ExpandDestinations())
}

func TestArpRefreshDataExpandDestinationsWithRange(t *testing.T) {
	data := ArpRefreshData{HasRange: true, RangeStart: 1, RangeStop: 5, RangeStep: 2}
	assert.Equal(t, []int{1, 3, 5}, data.ExpandDestinations())
}

func TestNewArpRefreshDataFromProfilePicksUpModifierRange(t *testing.T) {
	segments := []HeaderSegment{
		{SegmentType: SegmentEthernet, TemplateHex: repeatHex(14)},
		{
			SegmentType: SegmentIP,
			TemplateHex: repeatHex(20),
			HwModifiers: []HwModifier{
				NewHwModifier("Dest IP Addr", "FFFF", ActionINC, 1, 10, 1),
			},
		},
	}
	profile, err := NewProtocolSegmentProfile("p", segments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := NewArpRefreshDataFromProfile(profile, net.ParseIP("10.0.0.1"), nil, true)
	assert.True(t, data.HasRange)
	assert.Equal(t, 1, data.RangeStart)
	assert.Equal(t, 10, data.RangeStop)
	assert.True(t, data.IsRxOnly)
}
