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
// Package resource implements the Resource Manager: port discovery, peer
// resolution, multi-chassis lifecycle, and synchronized start/stop (spec
// §4.1). PortStruct and PortProperties follow the teacher's
// NetworkTester/Generator/Receiver shape (a plain struct owning a driver
// handle plus accumulated counters), generalized from one local NetFPGA
// board to many remote (chassis, module, port) triples.
package resource

import (
	"sync"

	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
	"github.com/xenadevel/rfc2544-core/stream"
)

// PortProperties is one port's mutable runtime state. Per spec §9, it is
// written only from the port's own polling/setup tasks; Peers holds
// indices into the owning ResourceManager's port slice rather than
// pointers, so a port's peer set never extends its peers' lifetime.
type PortProperties struct {
	mu sync.Mutex

	syncStatus    bool
	trafficStatus bool
	testPortIndex int

	Peers []int

	// ArpTrunks/NdpTrunks map a destination IP string to its learned MAC,
	// populated when address-refresh bookkeeping registers a (dst_ip,
	// dst_mac) pair on the rx side of an L3 stream (spec §4.2 step 6).
	ArpTrunks map[string]string
	NdpTrunks map[string]string

	AddressRefreshDataSet []model.ArpRefreshData
}

func newPortProperties() *PortProperties {
	return &PortProperties{
		ArpTrunks: make(map[string]string),
		NdpTrunks: make(map[string]string),
	}
}

func (p *PortProperties) SetSyncStatus(v bool) {
	p.mu.Lock()
	p.syncStatus = v
	p.mu.Unlock()
}

func (p *PortProperties) SyncStatus() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncStatus
}

func (p *PortProperties) SetTrafficStatus(v bool) {
	p.mu.Lock()
	p.trafficStatus = v
	p.mu.Unlock()
}

func (p *PortProperties) TrafficStatus() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trafficStatus
}

func (p *PortProperties) SetTestPortIndex(i int) { p.testPortIndex = i }
func (p *PortProperties) TestPortIndex() int     { return p.testPortIndex }

// RegisterPeer registers (dst_ip, dst_mac) into the port's arp_trunks
// (IPv4) or ndp_trunks (IPv6) set, per spec §4.2 step 6.
func (p *PortProperties) RegisterPeer(dstIP, dstMAC string, isIPv6 bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if isIPv6 {
		p.NdpTrunks[dstIP] = dstMAC
	} else {
		p.ArpTrunks[dstIP] = dstMAC
	}
}

// AddAddressRefreshData appends one ArpRefreshData token to this port's set.
func (p *PortProperties) AddAddressRefreshData(data model.ArpRefreshData) {
	p.mu.Lock()
	p.AddressRefreshDataSet = append(p.AddressRefreshDataSet, data)
	p.mu.Unlock()
}

// Statistic is a port's tx/rx counter accumulator (spec §3 "Statistic").
// All mutation happens through the Add* methods, called only from the
// stream query loop that owns this port (spec §9 "Back-references from
// streams to their ports").
type Statistic struct {
	mu sync.Mutex

	TxFrames    int64
	RxFrames    int64
	BurstFrames int64
	LossFrames  int64

	Latency stream.DelayCounter
	Jitter  stream.DelayCounter

	FCSErrorCount int64
}

// AddTxResult folds in one stream's tx-side result into this port's
// accumulator (spec §4.2.3 "updates the tx port's accumulator with
// (tx_frames, burst_frames = packet_limit, loss = tx − rx + ...)").
func (s *Statistic) AddTxResult(txFrames, burstFrames, lossFrames int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TxFrames += txFrames
	s.BurstFrames += burstFrames
	s.LossFrames += lossFrames
}

// AddRxResult folds in one stream's rx-side result into this port's
// accumulator (spec §4.2.3 "updates each rx port's accumulator with
// (rx_frames, latency, jitter, FCS)").
func (s *Statistic) AddRxResult(stat stream.PRStatistic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RxFrames += stat.RxFrames
	s.FCSErrorCount += stat.FCSErrors
	if stat.Latency.IsValid {
		s.Latency.Update(stat.Latency.MinNs, stat.Latency.AvgNs, stat.Latency.MaxNs)
	}
	if stat.Jitter.IsValid {
		s.Jitter.Update(stat.Jitter.MinNs, stat.Jitter.AvgNs, stat.Jitter.MaxNs)
	}
}

// Reset clears all counters, used before a new iteration's collect() call.
func (s *Statistic) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TxFrames, s.RxFrames, s.BurstFrames, s.LossFrames = 0, 0, 0, 0
	s.Latency, s.Jitter = stream.DelayCounter{}, stream.DelayCounter{}
	s.FCSErrorCount = 0
}

// Snapshot returns a copy of the current counters for reporting.
func (s *Statistic) Snapshot() Statistic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Statistic{
		TxFrames:      s.TxFrames,
		RxFrames:      s.RxFrames,
		BurstFrames:   s.BurstFrames,
		LossFrames:    s.LossFrames,
		Latency:       s.Latency,
		Jitter:        s.Jitter,
		FCSErrorCount: s.FCSErrorCount,
	}
}

// PortStruct is the runtime handle for one port: its driver object,
// configuration, properties, accumulated statistic, and hosted streams
// (spec §3 "PortStruct").
type PortStruct struct {
	Identity model.PortIdentity
	Config   model.PortConfiguration

	Handle       *driver.Port
	Capabilities driver.Capabilities

	Properties *PortProperties
	Statistic  *Statistic

	Streams []*stream.StreamStruct
}

// NewPortStruct constructs a PortStruct with freshly zeroed runtime state.
func NewPortStruct(identity model.PortIdentity, config model.PortConfiguration, handle *driver.Port) *PortStruct {
	return &PortStruct{
		Identity:   identity,
		Config:     config,
		Handle:     handle,
		Properties: newPortProperties(),
		Statistic:  &Statistic{},
	}
}

// HasL3Profile reports whether this port's protocol profile is L3
// (IPv4/IPv6), used to decide whether address-refresh bookkeeping applies
// (SPEC_FULL.md §C.1).
func (p *PortStruct) HasL3Profile() bool {
	if p.Config.Profile == nil {
		return false
	}
	return p.Config.Profile.ProtocolVersion().IsL3()
}
