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
// Package model defines the data model of the benchmarking core: port
// identities and configurations, the test-wide configuration knobs, the
// protocol-segment profile (header segments, hardware modifiers, field
// value ranges), and the address-collection types streams are built from.
// It mirrors the teacher's plain-struct, zero-framework modeling style
// (NetworkTester/Generator/Receiver are bare structs with package-level
// constants, not a validation-framework-driven model) adapted to the
// richer descriptor the spec requires.
package model

// PortIdentity is the immutable triple identifying one physical port:
// which chassis, which module on that chassis, which port on that module.
type PortIdentity struct {
	ChassisID   string
	ModuleIndex int
	PortIndex   int
	Name        string

	// ModuleType is the reported module kind, used during init_resource's
	// collect_control_ports step to reject Chimera (impairment) modules
	// (spec §4.1 step 1).
	ModuleType string
}

// IsChimera reports whether this port's module is an impairment module,
// which init_resource must reject before constructing its PortStruct.
func (i PortIdentity) IsChimera() bool { return i.ModuleType == "CHIMERA" }

// PortGroup tags a port for non-mesh topologies (east/west), or undefined
// when the topology does not use grouping.
type PortGroup int

const (
	PortGroupUndefined PortGroup = iota
	PortGroupEast
	PortGroupWest
)

func (g PortGroup) IsEast() bool { return g == PortGroupEast }
func (g PortGroup) IsWest() bool { return g == PortGroupWest }

// Topology selects how tx ports are matched to their rx peers.
type Topology int

const (
	TopologyMesh Topology = iota
	TopologyPair
	TopologyBlocks
)

func (t Topology) IsMesh() bool  { return t == TopologyMesh }
func (t Topology) IsPair() bool  { return t == TopologyPair }
func (t Topology) IsBlocks() bool { return t == TopologyBlocks }
