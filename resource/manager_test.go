package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
)

func newTestPort(name string, isTx, isRx bool, group model.PortGroup) *PortStruct {
	return NewPortStruct(
		model.PortIdentity{ChassisID: "c0", Name: name},
		model.PortConfiguration{IsTxPort: isTx, IsRxPort: isRx, Group: group},
		&driver.Port{},
	)
}

func newTestManager(ports []*PortStruct, cfg model.TestConfiguration) *ResourceManager {
	rm := NewResourceManager(cfg, ports)
	rm.Sleep = func(time.Duration) {}
	return rm
}

func TestTxPortsAndRxPortsFilterByConfig(t *testing.T) {
	tx := newTestPort("p0", true, false, model.PortGroupUndefined)
	rx := newTestPort("p1", false, true, model.PortGroupUndefined)
	both := newTestPort("p2", true, true, model.PortGroupUndefined)

	rm := newTestManager([]*PortStruct{tx, rx, both}, model.TestConfiguration{})

	assert.ElementsMatch(t, []*PortStruct{tx, both}, rm.TxPorts())
	assert.ElementsMatch(t, []*PortStruct{rx, both}, rm.RxPorts())
}

func TestHasL3ReflectsAnyPortProfile(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{})
	assert.False(t, rm.HasL3())

	profile, err := model.NewProtocolSegmentProfile("eth+ip", []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: repeatHexLocal("00", 14)},
		{SegmentType: model.SegmentIP, TemplateHex: repeatHexLocal("00", 20)},
	})
	require.NoError(t, err)
	p.Config.Profile = profile
	assert.True(t, rm.HasL3())
}

func TestResolvePortRelationsMeshPairsEveryOtherTxPort(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	b := newTestPort("b", true, true, model.PortGroupUndefined)
	c := newTestPort("c", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a, b, c}, model.TestConfiguration{Topology: model.TopologyMesh})

	rm.ResolvePortRelations()

	assert.Equal(t, 0, a.Properties.TestPortIndex())
	assert.Equal(t, 1, b.Properties.TestPortIndex())
	assert.Equal(t, 2, c.Properties.TestPortIndex())
	assert.Equal(t, []int{1, 2}, a.Properties.Peers)
	assert.Equal(t, []int{0, 2}, b.Properties.Peers)
	assert.Equal(t, []int{0, 1}, c.Properties.Peers)
}

func TestResolvePortRelationsPairAdjacencyByTestPortIndex(t *testing.T) {
	a := newTestPort("a", true, false, model.PortGroupEast)
	b := newTestPort("b", false, true, model.PortGroupWest)
	rm := newTestManager([]*PortStruct{a, b}, model.TestConfiguration{Topology: model.TopologyPair})

	rm.ResolvePortRelations()

	assert.Equal(t, []int{1}, a.Properties.Peers)
	assert.Nil(t, b.Properties.Peers)
}

func TestResolvePortRelationsBlocksAssignsEastIndicesBeforeWest(t *testing.T) {
	w0 := newTestPort("w0", true, true, model.PortGroupWest)
	e0 := newTestPort("e0", true, true, model.PortGroupEast)
	e1 := newTestPort("e1", true, true, model.PortGroupEast)
	rm := newTestManager([]*PortStruct{w0, e0, e1}, model.TestConfiguration{Topology: model.TopologyBlocks})

	rm.ResolvePortRelations()

	assert.Equal(t, 2, w0.Properties.TestPortIndex())
	assert.Equal(t, 0, e0.Properties.TestPortIndex())
	assert.Equal(t, 1, e1.Properties.TestPortIndex())

	assert.ElementsMatch(t, []int{1, 2}, w0.Properties.Peers)
	assert.ElementsMatch(t, []int{0}, e0.Properties.Peers)
	assert.ElementsMatch(t, []int{0}, e1.Properties.Peers)
}

func TestCheckConfigRejectsHeaderLongerThanCapability(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	profile, err := model.NewProtocolSegmentProfile("eth", []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: repeatHexLocal("00", 14)},
	})
	require.NoError(t, err)
	p.Config.Profile = profile
	p.Capabilities = driver.Capabilities{MaxXmitOnePacketLength: 10}

	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{})
	err = rm.CheckConfig()
	require.Error(t, err)
	var cfgErr *coreerrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCheckConfigAcceptsHeaderWithinCapability(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	profile, err := model.NewProtocolSegmentProfile("eth", []model.HeaderSegment{
		{SegmentType: model.SegmentEthernet, TemplateHex: repeatHexLocal("00", 14)},
	})
	require.NoError(t, err)
	p.Config.Profile = profile
	p.Capabilities = driver.Capabilities{MaxXmitOnePacketLength: 1500}

	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{})
	assert.NoError(t, rm.CheckConfig())
}

func TestAssignSweepReductionPPMUsesTenTimesIndexPlusOne(t *testing.T) {
	a := newTestPort("a", true, false, model.PortGroupUndefined)
	b := newTestPort("b", false, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a, b}, model.TestConfiguration{Topology: model.TopologyMesh})
	rm.ResolvePortRelations()

	assignments := rm.AssignSweepReductionPPM()

	assert.Equal(t, 10, assignments[a])
	assert.Equal(t, 20, assignments[b])
	assert.Equal(t, 10, a.Config.SpeedReductionPpm)
	assert.Equal(t, 20, b.Config.SpeedReductionPpm)
}

func TestAnyTrafficRunningReflectsPerPortStatus(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	b := newTestPort("b", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a, b}, model.TestConfiguration{})

	assert.False(t, rm.AnyTrafficRunning())

	b.Properties.SetTrafficStatus(true)
	assert.True(t, rm.AnyTrafficRunning())
}

func TestShouldQuitTrueWhenAllTxPortsStopped(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	p.Properties.SetTrafficStatus(false)
	p.Properties.SetSyncStatus(true)

	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{})
	rm.Now = func() time.Time { return time.Unix(0, 0) }

	assert.True(t, rm.ShouldQuit(time.Unix(0, 0), time.Second))
}

func TestShouldQuitTrueOnLossOfSignalWhenStopOnLOSEnabled(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	p.Properties.SetTrafficStatus(true)
	p.Properties.SetSyncStatus(false)

	var warned []string
	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{ShouldStopOnLOS: true})
	rm.Now = func() time.Time { return time.Unix(0, 0) }
	rm.OnWarning = func(msg string) { warned = append(warned, msg) }

	assert.True(t, rm.ShouldQuit(time.Unix(0, 0), time.Second))
	assert.True(t, rm.ShouldQuit(time.Unix(0, 0), time.Second))
	assert.Len(t, warned, 1, "warning fires once per loss-of-signal transition, not every poll")
}

func TestShouldQuitTrueWhenElapsedExceedsActualDurationPlusFiveSeconds(t *testing.T) {
	p := newTestPort("p0", true, true, model.PortGroupUndefined)
	p.Properties.SetTrafficStatus(true)
	p.Properties.SetSyncStatus(true)

	start := time.Unix(0, 0)
	rm := newTestManager([]*PortStruct{p}, model.TestConfiguration{})

	rm.Now = func() time.Time { return start.Add(3 * time.Second) }
	assert.False(t, rm.ShouldQuit(start, time.Second))

	rm.Now = func() time.Time { return start.Add(6 * time.Second) }
	assert.True(t, rm.ShouldQuit(start, time.Second))
}

func TestWaitForSyncReturnsNilOnceAllPortsReportSynced(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	b := newTestPort("b", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a, b}, model.TestConfiguration{DelayCheckSyncSec: 0.1})

	var polls int64
	rm.PollSyncStatus = func(ctx context.Context, p *PortStruct) (bool, error) {
		n := atomic.AddInt64(&polls, 1)
		return n > 4, nil
	}

	var slept int64
	rm.Sleep = func(time.Duration) { atomic.AddInt64(&slept, 1) }

	err := rm.waitForSync(context.Background())
	require.NoError(t, err)
	assert.Greater(t, slept, int64(0))
}

func TestWaitForSyncTimesOutAfterThirtySeconds(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a}, model.TestConfiguration{DelayCheckSyncSec: 1})

	base := time.Unix(0, 0)
	clock := base
	rm.Now = func() time.Time { return clock }
	rm.Sleep = func(d time.Duration) { clock = clock.Add(40 * time.Second) }
	rm.PollSyncStatus = func(ctx context.Context, p *PortStruct) (bool, error) {
		return false, nil
	}

	err := rm.waitForSync(context.Background())
	require.Error(t, err)
	var timeout *coreerrors.SyncTimeout
	assert.ErrorAs(t, err, &timeout)
}

func TestWaitForSyncPropagatesPollError(t *testing.T) {
	a := newTestPort("a", true, true, model.PortGroupUndefined)
	rm := newTestManager([]*PortStruct{a}, model.TestConfiguration{})

	wantErr := errors.New("transport down")
	rm.PollSyncStatus = func(ctx context.Context, p *PortStruct) (bool, error) {
		return false, wantErr
	}

	err := rm.waitForSync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func repeatHexLocal(byteHex string, count int) string {
	s := ""
	for i := 0; i < count; i++ {
		s += byteHex
	}
	return s
}
