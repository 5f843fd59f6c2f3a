// The MIT License
//
// Copyright (c) 2017-2018 by the author(s)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//
// Author(s):
//   - Andreas Oeldemann <andreas.oeldemann@tum.de>
//
package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
)

// ChassisEndpoint is the network address of one chassis's driver façade.
type ChassisEndpoint struct {
	Host string
	Port uint16
}

// ResourceManager is the top-level orchestrator: it gathers chassis
// connections, resolves peer topology, drives the port lifecycle, and
// decides quit conditions for the outer test loop (spec §4.1).
type ResourceManager struct {
	Config model.TestConfiguration
	Ports  []*PortStruct

	ChassisEndpoints map[string]ChassisEndpoint
	Mapping          map[string][]driver.ModulePortPair

	// Sleep and Now are overridable for deterministic tests of the
	// toggle-port-sync state machine and should_quit's elapsed-time guard.
	Sleep func(time.Duration)
	Now   func() time.Time

	// PollSyncStatus is overridable so the toggle-port-sync state machine
	// can be tested without a live driver connection.
	PollSyncStatus func(ctx context.Context, p *PortStruct) (bool, error)

	// OnWarning receives the messages that would otherwise be written to
	// the outer xoa_out pipe (out of scope per spec §1); nil is a no-op.
	OnWarning func(string)

	chassis   map[string]*driver.Chassis
	losWarned map[string]bool
}

// NewResourceManager constructs a ResourceManager over the given
// configuration and already-built PortStructs, with real-time defaults for
// Sleep/Now/PollSyncStatus.
func NewResourceManager(cfg model.TestConfiguration, ports []*PortStruct) *ResourceManager {
	rm := &ResourceManager{
		Config:           cfg,
		Ports:            ports,
		ChassisEndpoints: make(map[string]ChassisEndpoint),
		chassis:          make(map[string]*driver.Chassis),
		losWarned:        make(map[string]bool),
		Sleep:            time.Sleep,
		Now:              time.Now,
	}
	rm.PollSyncStatus = func(ctx context.Context, p *PortStruct) (bool, error) {
		return p.Handle.GetSyncStatus(ctx)
	}
	return rm
}

func (rm *ResourceManager) warn(msg string) {
	if rm.OnWarning != nil {
		rm.OnWarning(msg)
	}
}

// TxPorts returns the tx-capable ports, a derived view rather than a
// separately stored list (SPEC_FULL.md §C.2).
func (rm *ResourceManager) TxPorts() []*PortStruct {
	out := make([]*PortStruct, 0, len(rm.Ports))
	for _, p := range rm.Ports {
		if p.Config.IsTxPort {
			out = append(out, p)
		}
	}
	return out
}

// RxPorts returns the rx-capable ports, a derived view (SPEC_FULL.md §C.2).
func (rm *ResourceManager) RxPorts() []*PortStruct {
	out := make([]*PortStruct, 0, len(rm.Ports))
	for _, p := range rm.Ports {
		if p.Config.IsRxPort {
			out = append(out, p)
		}
	}
	return out
}

// HasL3 reports whether any port's protocol profile is L3 (IPv4/IPv6),
// deciding whether address-refresh bookkeeping applies at all
// (SPEC_FULL.md §C.1).
func (rm *ResourceManager) HasL3() bool {
	for _, p := range rm.Ports {
		if p.HasL3Profile() {
			return true
		}
	}
	return false
}

// ---- init_resource pipeline (spec §4.1) ----

// CollectControlPorts connects to every chassis named by the port set's
// identities, rejects Chimera-module ports, and fans out prepare() (fetch
// capabilities) on every remaining port concurrently (spec §4.1 step 1).
func (rm *ResourceManager) CollectControlPorts(ctx context.Context) error {
	ids := map[string]struct{}{}
	for _, p := range rm.Ports {
		if p.Identity.IsChimera() {
			return coreerrors.WrongModuleType(p.Identity.Name)
		}
		ids[p.Identity.ChassisID] = struct{}{}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for id := range ids {
		id := id
		g.Go(func() error {
			ep, ok := rm.ChassisEndpoints[id]
			if !ok {
				return fmt.Errorf("collect_control_ports: no endpoint configured for chassis %q", id)
			}
			c, err := driver.Dial(id, ep.Host, ep.Port)
			if err != nil {
				return err
			}
			mu.Lock()
			rm.chassis[id] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range rm.Ports {
		p.Handle = &driver.Port{
			Chassis: rm.chassis[p.Identity.ChassisID],
			Pair:    driver.ModulePortPair{ModuleIndex: p.Identity.ModuleIndex, PortIndex: p.Identity.PortIndex},
		}
	}

	g2, gctx2 := errgroup.WithContext(gctx)
	for _, p := range rm.Ports {
		p := p
		g2.Go(func() error {
			caps, err := p.Handle.GetCapabilities(gctx2)
			if err != nil {
				return err
			}
			p.Capabilities = caps
			return nil
		})
	}
	return g2.Wait()
}

// ResolvePortRelations assigns each port a dense test_port_index and
// computes tx->rx peer sets per the configured topology (spec §4.1 step 2).
func (rm *ResourceManager) ResolvePortRelations() {
	rm.assignTestPortIndices()

	for i, p := range rm.Ports {
		if !p.Config.IsTxPort {
			continue
		}
		p.Properties.Peers = rm.computePeers(i)
	}
}

func (rm *ResourceManager) assignTestPortIndices() {
	if rm.Config.Topology.IsMesh() {
		for i, p := range rm.Ports {
			p.Properties.SetTestPortIndex(i)
		}
		return
	}

	idx := 0
	for _, p := range rm.Ports {
		if p.Config.Group.IsEast() {
			p.Properties.SetTestPortIndex(idx)
			idx++
		}
	}
	for _, p := range rm.Ports {
		if p.Config.Group.IsWest() {
			p.Properties.SetTestPortIndex(idx)
			idx++
		}
	}
}

func (rm *ResourceManager) computePeers(i int) []int {
	p := rm.Ports[i]
	var peers []int
	switch {
	case rm.Config.Topology.IsMesh():
		for j, q := range rm.Ports {
			if j != i && q.Config.IsTxPort {
				peers = append(peers, j)
			}
		}
	case rm.Config.Topology.IsPair():
		if j := rm.pairedIndex(i); j >= 0 {
			peers = append(peers, j)
		}
	case rm.Config.Topology.IsBlocks():
		for j, q := range rm.Ports {
			if j != i && q.Config.Group != model.PortGroupUndefined && q.Config.Group != p.Config.Group {
				peers = append(peers, j)
			}
		}
	}
	return peers
}

// pairedIndex finds the port whose test_port_index pairs with i's by
// adjacency (0<->1, 2<->3, ...).
func (rm *ResourceManager) pairedIndex(i int) int {
	tpi := rm.Ports[i].Properties.TestPortIndex()
	var partner int
	if tpi%2 == 0 {
		partner = tpi + 1
	} else {
		partner = tpi - 1
	}
	for j, p := range rm.Ports {
		if p.Properties.TestPortIndex() == partner {
			return j
		}
	}
	return -1
}

// CheckConfig validates that each port's configuration is consistent with
// its discovered capabilities, failing the run on violation (spec §4.1
// step 3).
func (rm *ResourceManager) CheckConfig() error {
	for _, p := range rm.Ports {
		if p.Config.Profile == nil {
			continue
		}
		if p.Capabilities.MaxXmitOnePacketLength > 0 &&
			p.Config.Profile.PacketHeaderLength() > p.Capabilities.MaxXmitOnePacketLength {
			return coreerrors.UnsupportedCapability(p.Identity.Name, "packet header exceeds max_xmit_one_packet_length")
		}
	}
	return nil
}

// BuildMap groups each port's (module_index, port_index) pair by chassisId
// into Mapping, used later for synchronized start (spec §4.1 step 4).
func (rm *ResourceManager) BuildMap() {
	rm.Mapping = make(map[string][]driver.ModulePortPair)
	for _, p := range rm.Ports {
		id := p.Identity.ChassisID
		rm.Mapping[id] = append(rm.Mapping[id], p.Handle.Pair)
	}
}

// applyBatched issues one Apply() per chassis concurrently, satisfying
// spec §5's per-chassis ordering guarantee while letting distinct chassis
// proceed independently.
func (rm *ResourceManager) applyBatched(ctx context.Context, batches map[string][]driver.Request) error {
	g, gctx := errgroup.WithContext(ctx)
	for id, reqs := range batches {
		id, reqs := id, reqs
		g.Go(func() error {
			c, ok := rm.chassis[id]
			if !ok {
				return fmt.Errorf("applyBatched: unknown chassis %q", id)
			}
			_, err := c.Apply(gctx, reqs...)
			return err
		})
	}
	return g.Wait()
}

// fanOutPerChassis builds one request per port via build, grouped by the
// port's owning chassis, and applies every chassis's batch concurrently.
func (rm *ResourceManager) fanOutPerChassis(ctx context.Context, ports []*PortStruct, build func(p *PortStruct) driver.Request) error {
	batches := map[string][]driver.Request{}
	for _, p := range ports {
		id := p.Identity.ChassisID
		batches[id] = append(batches[id], build(p))
	}
	return rm.applyBatched(ctx, batches)
}

// StopTrafficAndReset stops traffic on every port and sleeps the
// configured post-reset delay (spec §4.1 step 5).
func (rm *ResourceManager) StopTrafficAndReset(ctx context.Context) error {
	if err := rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetTrafficRequest(false)
	}); err != nil {
		return err
	}
	for _, p := range rm.Ports {
		p.Properties.SetTrafficStatus(false)
	}
	rm.Sleep(secondsToDuration(rm.Config.DelayAfterPortResetSec))
	return nil
}

// frameSizeWire translates the configured FrameSizeConfig to the driver's
// streams.packet_size.set wire vocabulary.
func (rm *ResourceManager) frameSizeWire() (string, int, int) {
	switch rm.Config.FrameSizes.Policy {
	case model.FrameSizeFixed:
		return "FIXED", rm.Config.FrameSizes.FixedSize, rm.Config.FrameSizes.FixedSize
	case model.FrameSizeRange:
		min, max := rm.Config.FrameSizes.SizeRange()
		return "RANGE", min, max
	default:
		min, max := rm.Config.FrameSizes.SizeRange()
		return "MIXED_SWEEP", min, max
	}
}

// SetupPorts programs each port's packet-size policy (spec §4.1 step 6).
func (rm *ResourceManager) SetupPorts(ctx context.Context) error {
	return rm.SetupPacketSize(ctx)
}

// SetupPacketSize fans out the configured frame-size policy to every port.
func (rm *ResourceManager) SetupPacketSize(ctx context.Context) error {
	sizeType, min, max := rm.frameSizeWire()
	return rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetStreamsPacketSizeRequest(sizeType, min, max)
	})
}

// SetupSweepReduction assigns each port a speed reduction of 10*(i+1) ppm
// when speed-reduction sweep is enabled and the topology is not pair,
// including rx-only ports per the source's literal behavior (spec §4.1
// step 7, Open Questions).
func (rm *ResourceManager) SetupSweepReduction(ctx context.Context) error {
	if !rm.Config.EnableSpeedReductionSweep || rm.Config.Topology.IsPair() {
		return nil
	}
	assignments := rm.AssignSweepReductionPPM()
	return rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetSpeedReductionRequest(assignments[p])
	})
}

// AssignSweepReductionPPM computes and records the 10*(i+1) ppm speed
// reduction for every port (including rx-only ports, per the source's
// literal behavior) without issuing any driver request, so the assignment
// rule can be tested independent of the transport (spec §4.1 step 7, Open
// Questions).
func (rm *ResourceManager) AssignSweepReductionPPM() map[*PortStruct]int {
	out := make(map[*PortStruct]int, len(rm.Ports))
	for _, p := range rm.Ports {
		ppm := 10 * (p.Properties.TestPortIndex() + 1)
		p.Config.SpeedReductionPpm = ppm
		out[p] = ppm
	}
	return out
}

// TogglePortSync runs the optional IDLE -> SYNC_OFF -> SYNC_ON -> WAIT_SYNC
// preamble when configured, failing with SyncTimeout if not all ports
// reach synced within 30 s (spec §4.1 step 8).
func (rm *ResourceManager) TogglePortSync(ctx context.Context) error {
	if !rm.Config.ToggleSyncConfig.TogglePortSync {
		return nil
	}

	if err := rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetSyncToggleRequest(false)
	}); err != nil {
		return err
	}
	rm.Sleep(secondsToDuration(rm.Config.ToggleSyncConfig.SyncOffDurationSec))

	if err := rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetSyncToggleRequest(true)
	}); err != nil {
		return err
	}

	if err := rm.waitForSync(ctx); err != nil {
		return err
	}

	rm.Sleep(secondsToDuration(rm.Config.ToggleSyncConfig.DelayAfterSyncOnSec))
	return nil
}

// waitForSync polls every port's sync status until all are synced or the
// 30 s bound elapses, failing with SyncTimeout (spec §4.1 "WAIT_SYNC"). It
// is split out of TogglePortSync so the polling/timeout decision can be
// exercised with injected PollSyncStatus/Sleep/Now, without a live driver.
func (rm *ResourceManager) waitForSync(ctx context.Context) error {
	deadline := rm.Now().Add(30 * time.Second)
	for {
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range rm.Ports {
			p := p
			g.Go(func() error {
				synced, err := rm.PollSyncStatus(gctx, p)
				if err != nil {
					return err
				}
				p.Properties.SetSyncStatus(synced)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		allSynced := true
		for _, p := range rm.Ports {
			if !p.Properties.SyncStatus() {
				allSynced = false
				break
			}
		}
		if allSynced {
			return nil
		}
		if rm.Now().After(deadline) {
			return &coreerrors.SyncTimeout{PortName: "all"}
		}
		rm.Sleep(secondsToDuration(rm.Config.DelayCheckSyncSec))
	}
}

// SetGapMonitor fans out the optional inter-frame-gap monitor toggle to tx
// ports (SPEC_FULL.md §C.10).
func (rm *ResourceManager) SetGapMonitor(ctx context.Context) error {
	if !rm.Config.UseGapMonitor {
		return nil
	}
	return rm.fanOutPerChassis(ctx, rm.TxPorts(), func(p *PortStruct) driver.Request {
		return p.Handle.SetGapMonitorRequest(rm.Config.GapMonitorStartMicrosec, rm.Config.GapMonitorStopFrames)
	})
}

// SetupSourcePortRates sets every tx port's rate from learning_rate_pct
// ahead of the L3 learning preamble (SPEC_FULL.md §C.6).
func (rm *ResourceManager) SetupSourcePortRates(ctx context.Context, packetSize int) error {
	return rm.fanOutPerChassis(ctx, rm.TxPorts(), func(p *PortStruct) driver.Request {
		return p.Handle.SetRateRequest(rm.Config.LearningRatePct)
	})
}

// ---- traffic lifecycle (spec §4.1) ----

// StartTraffic dispatches traffic start via one of three modes selected by
// port_sync and the chassis layout (spec §4.1 "start_traffic").
func (rm *ResourceManager) StartTraffic(ctx context.Context, portSync bool) error {
	if !portSync {
		if err := rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
			return p.Handle.SetTrafficRequest(true)
		}); err != nil {
			return err
		}
		for _, p := range rm.Ports {
			p.Properties.SetTrafficStatus(true)
		}
		return nil
	}

	if len(rm.Mapping) == 1 {
		for id, pairs := range rm.Mapping {
			if err := rm.chassis[id].SetTraffic(ctx, true, pairs); err != nil {
				return err
			}
		}
		rm.markAllTrafficOn()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for id, pairs := range rm.Mapping {
		id, pairs := id, pairs
		g.Go(func() error {
			c := rm.chassis[id]
			localTime, err := c.GetTime(gctx)
			if err != nil {
				return err
			}
			return c.SetTrafficSync(gctx, true, localTime.Add(2*time.Second), pairs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rm.markAllTrafficOn()
	return nil
}

func (rm *ResourceManager) markAllTrafficOn() {
	for _, p := range rm.Ports {
		p.Properties.SetTrafficStatus(true)
	}
}

// AnyTrafficRunning reports whether any port's last-known traffic status is
// still on, the learning preambles' poll-loop condition (source's
// "resources.test_running()").
func (rm *ResourceManager) AnyTrafficRunning() bool {
	for _, p := range rm.Ports {
		if p.Properties.TrafficStatus() {
			return true
		}
	}
	return false
}

// QueryTrafficStatus refreshes every port's traffic status from the driver
// (source's "query_traffic_status"), used by the learning preambles' poll
// loops between AnyTrafficRunning checks.
func (rm *ResourceManager) QueryTrafficStatus(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range rm.Ports {
		p := p
		g.Go(func() error {
			running, err := p.Handle.GetTrafficStatus(gctx)
			if err != nil {
				return err
			}
			p.Properties.SetTrafficStatus(running)
			return nil
		})
	}
	return g.Wait()
}

// Collect primes every port's statistic window and polls streams
// concurrently, folding results into the owning ports' accumulators.
// Counters are not reset here (spec §4.1 "collect").
func (rm *ResourceManager) Collect(ctx context.Context, packetSize int, duration time.Duration, isFinal bool) error {
	if err := rm.fanOutPerChassis(ctx, rm.Ports, func(p *PortStruct) driver.Request {
		return p.Handle.SetStatisticContextRequest(packetSize, int(duration.Milliseconds()), isFinal)
	}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range rm.Ports {
		p := p
		g.Go(func() error {
			return rm.collectPort(gctx, p)
		})
	}
	return g.Wait()
}

func (rm *ResourceManager) collectPort(ctx context.Context, p *PortStruct) error {
	if !p.Config.IsTxPort {
		return nil
	}
	for _, s := range p.Streams {
		stats, err := s.Query(ctx)
		if err != nil {
			return err
		}
		var lossTotal, rxTotal, txFrames int64
		for i, st := range stats {
			lossTotal += st.LossFrames
			rxTotal += st.RxFrames
			txFrames = st.TxFrames
			if rxPort := rm.portForHandle(s.PRStreams[i].RxPort); rxPort != nil {
				rxPort.Statistic.AddRxResult(st)
			}
		}
		p.Statistic.AddTxResult(txFrames, int64(s.FrameLimit), txFrames-rxTotal+lossTotal)
	}
	return nil
}

func (rm *ResourceManager) portForHandle(h *driver.Port) *PortStruct {
	for _, p := range rm.Ports {
		if p.Handle == h {
			return p
		}
	}
	return nil
}

// ShouldQuit returns true when all tx ports report stopped traffic, when
// stop_on_los is enabled and any port lost sync (warning emitted exactly
// once per transition), or when elapsed time exceeds actual_duration+5s
// (spec §4.1 "should_quit", testable property #9).
func (rm *ResourceManager) ShouldQuit(startTime time.Time, actualDuration time.Duration) bool {
	allStopped := true
	for _, p := range rm.TxPorts() {
		if p.Properties.TrafficStatus() {
			allStopped = false
			break
		}
	}
	if allStopped {
		return true
	}

	if rm.Config.ShouldStopOnLOS {
		for _, p := range rm.Ports {
			if !p.Properties.SyncStatus() {
				if !rm.losWarned[p.Identity.Name] {
					rm.warn(fmt.Sprintf("loss of signal on port %q", p.Identity.Name))
					rm.losWarned[p.Identity.Name] = true
				}
				return true
			}
			delete(rm.losWarned, p.Identity.Name)
		}
	}

	return rm.Now().Sub(startTime) >= actualDuration+5*time.Second
}

// SetRate fans the tx rate percentage out to every tx port.
func (rm *ResourceManager) SetRate(ctx context.Context, ratePct float64) error {
	return rm.fanOutPerChassis(ctx, rm.TxPorts(), func(p *PortStruct) driver.Request {
		return p.Handle.SetRateRequest(ratePct)
	})
}

// SetTxTimeLimit fans the tx time limit (ms) out to every tx port.
func (rm *ResourceManager) SetTxTimeLimit(ctx context.Context, limitMs int) error {
	return rm.fanOutPerChassis(ctx, rm.TxPorts(), func(p *PortStruct) driver.Request {
		return p.Handle.SetTxTimeLimitRequest(limitMs)
	})
}

// SetFrameLimit fans the frame (packet) limit out to every stream hosted by
// a tx port, used by the back-to-back controller and the flow-based
// learning preamble.
func (rm *ResourceManager) SetFrameLimit(ctx context.Context, count int) error {
	batches := map[string][]driver.Request{}
	for _, p := range rm.TxPorts() {
		for _, s := range p.Streams {
			id := p.Identity.ChassisID
			batches[id] = append(batches[id], s.Handle.SetFrameLimitRequest(count))
			s.FrameLimit = count
		}
	}
	return rm.applyBatched(ctx, batches)
}

// SetFrameLimits fans a per-port frame (packet) limit out to each named
// port's streams, letting the back-to-back controller drive every tx
// port's independent binary search within the same iteration (spec §4.4
// "per tx port, independent binary search").
func (rm *ResourceManager) SetFrameLimits(ctx context.Context, limits map[*PortStruct]int) error {
	batches := map[string][]driver.Request{}
	for p, count := range limits {
		for _, s := range p.Streams {
			id := p.Identity.ChassisID
			batches[id] = append(batches[id], s.Handle.SetFrameLimitRequest(count))
			s.FrameLimit = count
		}
	}
	return rm.applyBatched(ctx, batches)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// PacketSend pairs a one-shot packet with the port that must transmit it,
// used by the learning package's MAC-learning and address-refresh bursts
// (spec §4.3) without coupling this package to their token types.
type PacketSend struct {
	Port      *PortStruct
	HexPacket string
}

// SendPackets fans sends out per chassis, preserving per-chassis submission
// order (spec §5).
func (rm *ResourceManager) SendPackets(ctx context.Context, sends []PacketSend) error {
	batches := map[string][]driver.Request{}
	for _, s := range sends {
		id := s.Port.Identity.ChassisID
		batches[id] = append(batches[id], s.Port.Handle.SendSinglePacketRequest(s.HexPacket))
	}
	return rm.applyBatched(ctx, batches)
}
