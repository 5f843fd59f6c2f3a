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
package model

import "net"

// IPProperties carries a port's configured IP address, gateway, and
// network block, plus an optionally-known gateway MAC address used when
// use_gateway_mac_as_dmac is set.
type IPProperties struct {
	Address    net.IP
	Gateway    net.IP
	Network    *net.IPNet
	GatewayMAC net.HardwareAddr
	// DstAddr is the peer's configured address, used when no StreamOffset
	// is present to derive an AddressCollection (spec §4.2 get_address_collection).
	DstAddr net.IP
}

// HasGateway reports whether a gateway address is configured.
func (p IPProperties) HasGateway() bool {
	return p.Gateway != nil && !p.Gateway.IsUnspecified()
}

// HasGatewayMAC reports whether the gateway's MAC address is known.
func (p IPProperties) HasGatewayMAC() bool {
	return len(p.GatewayMAC) == 6
}

// ProtocolVersion is derived from a ProtocolSegmentProfile: Ethernet-only,
// IPv4, or IPv6 (spec §3 ProtocolSegmentProfile).
type ProtocolVersion int

const (
	ProtocolVersionEthernet ProtocolVersion = iota
	ProtocolVersionIPv4
	ProtocolVersionIPv6
)

func (v ProtocolVersion) IsL3() bool   { return v == ProtocolVersionIPv4 || v == ProtocolVersionIPv6 }
func (v ProtocolVersion) IsIPv4() bool { return v == ProtocolVersionIPv4 }
func (v ProtocolVersion) IsIPv6() bool { return v == ProtocolVersionIPv6 }

// PortConfiguration is the immutable per-port desired state for a test run.
type PortConfiguration struct {
	Slot string // key into the PortIdentity map (spec §6 Configuration input)

	IsTxPort bool
	IsRxPort bool
	Group    PortGroup

	IPv4Properties IPProperties
	IPv6Properties IPProperties

	Profile *ProtocolSegmentProfile

	InterFrameGapBytes int
	SpeedReductionPpm  int
}

// FrameSizePolicy selects how packet sizes are chosen during a test.
type FrameSizePolicy int

const (
	FrameSizeFixed FrameSizePolicy = iota
	FrameSizeRange
	FrameSizeMixedSweep
)

func (p FrameSizePolicy) IsFix() bool { return p == FrameSizeFixed }

// FrameSizeConfig holds the frame-size policy and its parameters.
type FrameSizeConfig struct {
	Policy       FrameSizePolicy
	FixedSize    int
	MinSize      int
	MaxSize      int
}

// SizeRange returns (min, max) for range/mixed-sweep policies.
func (f FrameSizeConfig) SizeRange() (int, int) {
	return f.MinSize, f.MaxSize
}

// MACLearningMode selects when MAC-learning bursts fire.
type MACLearningMode int

const (
	MACLearningNever MACLearningMode = iota
	MACLearningOnce
	MACLearningEveryTrial
)

// FlowCreationType selects stream-based (one tx stream per logical flow)
// vs modifier-based (one stream, dest-MAC-modifier encodes many flows)
// flow creation (spec §4.2.2 and GLOSSARY).
type FlowCreationType int

const (
	FlowCreationStreamBased FlowCreationType = iota
	FlowCreationModifierBased
)

func (f FlowCreationType) IsStreamBased() bool { return f == FlowCreationStreamBased }

// ToggleSyncConfig parametrizes the optional toggle-port-sync preamble
// state machine (spec §4.1).
type ToggleSyncConfig struct {
	TogglePortSync      bool
	SyncOffDurationSec  float64
	DelayAfterSyncOnSec float64
}

// TestConfiguration holds the global knobs that apply across all ports for
// one test run.
type TestConfiguration struct {
	Topology Topology

	FrameSizes FrameSizeConfig

	MACBaseAddress string // hex string, e.g. "0x000000000000"
	PayloadPattern string // hex string

	ArpRefreshEnabled    bool
	ArpRefreshPeriodSec  float64
	MACLearningMode      MACLearningMode
	MACLearningFrameCount int

	UseGatewayMACAsDmac bool
	FlowCreationType    FlowCreationType

	LearningRatePct    float64
	LearningDurationSec float64

	UseFlowBasedLearningPreamble     bool
	FlowBasedLearningFrameCount      int
	DelayAfterFlowBasedLearningMs    float64

	ToggleSyncConfig ToggleSyncConfig

	ShouldStopOnLOS bool

	EnableSpeedReductionSweep bool

	DelayAfterPortResetSec float64
	DelayClearStatisticsSec float64
	DelayCheckSyncSec       float64

	UseGapMonitor              bool
	GapMonitorStartMicrosec    int
	GapMonitorStopFrames       int

	PayloadPatternType string // "incrementing" | "prbs" | "fixed", passed through to stream.payload.content.set
}
