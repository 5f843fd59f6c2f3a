package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/model"
)

func TestParseMACBaseAcceptsWithAndWithoutHexPrefix(t *testing.T) {
	withPrefix, err := parseMACBase("0x0a0b0c0d0e0f")
	require.NoError(t, err)
	assert.Equal(t, "0a:0b:0c:0d:0e:0f", withPrefix.String())

	withoutPrefix, err := parseMACBase("0a0b0c0d0e0f")
	require.NoError(t, err)
	assert.Equal(t, withPrefix, withoutPrefix)
}

func TestParseMACBaseRejectsWrongLength(t *testing.T) {
	_, err := parseMACBase("0x0a0b")
	assert.Error(t, err)
}

func TestParseMACBaseRejectsInvalidHex(t *testing.T) {
	_, err := parseMACBase("0xzzzzzzzzzzzz")
	assert.Error(t, err)
}

func TestPeerPortsResolvesPropertyIndicesIntoPortStructs(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	b := newTestPort("b", true, true, model.PortGroupUndefined)
	c := newTestPort("c", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a, b, c}, model.TestConfiguration{Topology: model.TopologyMesh})
	rm.ResolvePortRelations()

	peers := rm.peerPorts(a)

	assert.ElementsMatch(t, []*PortStruct{b, c}, peers)
}

func TestPopulateRxTablesRegistersPeerAndPushesRefreshData(t *testing.T) {
	tx := newTestPort("tx", true, false, model.PortGroupUndefined)
	rx := newTestPort("rx", false, true, model.PortGroupUndefined)

	profile, err := model.NewProtocolSegmentProfile("eth+ip", []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: repeatHexLocal("00", 14)},
		{SegmentType: model.SegmentIP, TemplateHex: repeatHexLocal("00", 20)},
	})
	require.NoError(t, err)
	tx.Config.Profile = profile

	rm := newTestManager([]*PortStruct{tx, rx}, model.TestConfiguration{ArpRefreshEnabled: true})

	addr := model.GetAddressCollection(tx.Config, rx.Config, nil, nil)
	rm.populateRxTables(tx, []*PortStruct{rx}, addr)

	assert.Len(t, rx.Properties.AddressRefreshDataSet, 1)
	if addr.DstIPv4 != nil {
		assert.Contains(t, rx.Properties.ArpTrunks, addr.DstIPv4.String())
	}
}

func TestPopulateRxTablesNoopWhenArpRefreshDisabled(t *testing.T) {
	tx := newTestPort("tx", true, false, model.PortGroupUndefined)
	rx := newTestPort("rx", false, true, model.PortGroupUndefined)

	rm := newTestManager([]*PortStruct{tx, rx}, model.TestConfiguration{ArpRefreshEnabled: false})

	rm.populateRxTables(tx, []*PortStruct{rx}, model.AddressCollection{})

	assert.Empty(t, rx.Properties.AddressRefreshDataSet)
}
