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

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
)

// SegmentType is a closed enum over the supported packet-header segment
// kinds. Routing on is_raw/is_tcp/etc. is a pure function over the tag, per
// the spec's "Polymorphism over port and segment variants" design note.
type SegmentType int

const (
	SegmentEthernet SegmentType = iota
	SegmentVLAN
	SegmentIP
	SegmentIPv6
	SegmentUDP
	SegmentTCP
	SegmentTCPCheck
	SegmentARP
	SegmentICMP
	SegmentRaw
)

func (s SegmentType) IsRaw() bool      { return s == SegmentRaw }
func (s SegmentType) IsTCP() bool      { return s == SegmentTCP }
func (s SegmentType) IsTCPCheck() bool { return s == SegmentTCPCheck }
func (s SegmentType) IsIP() bool       { return s == SegmentIP }
func (s SegmentType) IsIPv6() bool     { return s == SegmentIPv6 }
func (s SegmentType) IsUDP() bool      { return s == SegmentUDP }
func (s SegmentType) IsICMP() bool     { return s == SegmentICMP }

// WireID is the numeric segment-type identifier sent to the driver's
// stream.header.protocol.set operation (the header_segment_id_list of the
// original implementation).
func (s SegmentType) WireID() int { return int(s) }

func (s SegmentType) String() string {
	switch s {
	case SegmentEthernet:
		return "ETHERNET"
	case SegmentVLAN:
		return "VLAN"
	case SegmentIP:
		return "IP"
	case SegmentIPv6:
		return "IPV6"
	case SegmentUDP:
		return "UDP"
	case SegmentTCP:
		return "TCP"
	case SegmentTCPCheck:
		return "TCPCHECK"
	case SegmentARP:
		return "ARP"
	case SegmentICMP:
		return "ICMP"
	case SegmentRaw:
		return "RAW"
	default:
		return "UNKNOWN"
	}
}

// ModifierActionOption selects how a hardware modifier or field-value-range
// mutates successive transmitted frames.
type ModifierActionOption int

const (
	ActionINC ModifierActionOption = iota
	ActionDEC
	ActionRANDOM
)

// fieldDef is a field's fixed byte/bit layout within one segment type.
type fieldDef struct {
	byteOffset int
	bitOffset  int
	bitLength  int
}

// segmentFieldTable maps segment type -> field name -> its layout. This is
// the Go counterpart of the original's protocol_segments.get_segment_definition
// / get_field_definition lookup tables, trimmed to the fields the spec's
// modifiers/field-value-ranges/address substitution actually reference.
var segmentFieldTable = map[SegmentType]map[string]fieldDef{
	SegmentEthernet: {
		"Dst MAC addr": {byteOffset: 0, bitOffset: 0, bitLength: 48},
		"Src MAC addr": {byteOffset: 6, bitOffset: 0, bitLength: 48},
		"EtherType":    {byteOffset: 12, bitOffset: 0, bitLength: 16},
	},
	SegmentVLAN: {
		"VLAN ID":  {byteOffset: 0, bitOffset: 4, bitLength: 12},
		"VLAN TCI": {byteOffset: 0, bitOffset: 0, bitLength: 16},
	},
	SegmentIP: {
		"Src IP Addr":  {byteOffset: 12, bitOffset: 0, bitLength: 32},
		"Dest IP Addr": {byteOffset: 16, bitOffset: 0, bitLength: 32},
		"TTL":          {byteOffset: 8, bitOffset: 0, bitLength: 8},
		"Protocol":     {byteOffset: 9, bitOffset: 0, bitLength: 8},
	},
	SegmentIPv6: {
		"Src IPv6 Addr":  {byteOffset: 8, bitOffset: 0, bitLength: 128},
		"Dest IPv6 Addr": {byteOffset: 24, bitOffset: 0, bitLength: 128},
	},
	SegmentUDP: {
		"Src Port": {byteOffset: 0, bitOffset: 0, bitLength: 16},
		"Dst Port": {byteOffset: 2, bitOffset: 0, bitLength: 16},
	},
	SegmentTCP: {
		"Src Port": {byteOffset: 0, bitOffset: 0, bitLength: 16},
		"Dst Port": {byteOffset: 2, bitOffset: 0, bitLength: 16},
	},
	SegmentTCPCheck: {
		"Src Port": {byteOffset: 0, bitOffset: 0, bitLength: 16},
		"Dst Port": {byteOffset: 2, bitOffset: 0, bitLength: 16},
	},
}

func getFieldDefinition(segType SegmentType, fieldName string) (fieldDef, error) {
	fields, ok := segmentFieldTable[segType]
	if !ok {
		return fieldDef{}, fmt.Errorf("no field definitions for segment type %s", segType)
	}
	def, ok := fields[fieldName]
	if !ok {
		return fieldDef{}, fmt.Errorf("segment %s has no field %q", segType, fieldName)
	}
	return def, nil
}

// NormalizeMask turns a 16-bit mask given as "0xAB" or "AB" into the
// canonical "0xAB0000" form the hardware modifier table expects (spec §3
// HwModifier, testable property #3). A mask of more than 4 hex digits is
// taken as already full and padded or cut to 8 digits ("0xAB0000" becomes
// "0xAB000000").
func NormalizeMask(mask string) string {
	v := strings.TrimPrefix(mask, "0x")
	v = strings.ToUpper(strings.TrimPrefix(v, "0X"))
	if len(v) > 4 {
		// already a full mask; pad/truncate to 8 hex digits verbatim.
		for len(v) < 8 {
			v += "0"
		}
		return "0x" + v[:8]
	}
	return fmt.Sprintf("0x%s0000", v)
}

// HwModifier is a hardware primitive programmed into the port's header
// modifier table: it mutates a field in successive transmitted frames.
type HwModifier struct {
	FieldName   string
	Mask        string
	Action      ModifierActionOption
	Start       int
	Stop        int
	Step        int
	RepeatCount int
	// Offset is the fine-grained address offset added to Position for
	// "Src IP Addr"/"Dest IP Addr" fields (spec §3).
	Offset int

	// byteOffset and Position are derived, written once during profile
	// materialization. The original source's byte_offset setter is
	// self-referential (`self.byte_offset = self.byte_offset`) and its
	// behavior is left undefined by the spec's Open Questions; we follow
	// the instruction to treat byte_offset as a plain field written once
	// here rather than re-deriving it on every read.
	byteOffset int
	Position   int
}

// NewHwModifier constructs a modifier with mask normalized and repeat count
// defaulted to 1 the way the original's pydantic defaults do.
func NewHwModifier(fieldName, mask string, action ModifierActionOption, start, stop, step int) HwModifier {
	repeat := 1
	return HwModifier{
		FieldName:   fieldName,
		Mask:        NormalizeMask(mask),
		Action:      action,
		Start:       start,
		Stop:        stop,
		Step:        step,
		RepeatCount: repeat,
	}
}

// FieldValueRange is a software-driven per-packet field mutation computed
// by the controller, not the port.
type FieldValueRange struct {
	FieldName        string
	Start            int
	Stop             int
	Step             int
	Action           ModifierActionOption
	ResetForEachPort bool

	bitLength    int
	bitOffset    int
	PositionBits int
	currentCount int
}

// Reset clears the range's current_count, used when ResetForEachPort holds
// at the start of a new port's packet generation.
func (f *FieldValueRange) Reset() { f.currentCount = 0 }

// CurrentCount exposes the mutable iteration counter (spec §3, testable
// property #4).
func (f *FieldValueRange) CurrentCount() int { return f.currentCount }

// GetCurrentValue computes the next value in the sequence and advances the
// counter. INC wraps to Start when the computed value exceeds Stop; DEC
// wraps to Start when it goes below Stop; RANDOM draws uniformly between
// min(Start,Stop) and max(Start,Stop) (original_source supplement, see
// SPEC_FULL.md §C.5).
func (f *FieldValueRange) GetCurrentValue() int {
	var current int
	switch f.Action {
	case ActionINC:
		current = f.Start + f.currentCount*f.Step
		if current > f.Stop {
			current = f.Start
			f.currentCount = 0
		}
	case ActionDEC:
		current = f.Start - f.currentCount*f.Step
		if current < f.Stop {
			current = f.Start
			f.currentCount = 0
		}
	default: // ActionRANDOM
		lo, hi := f.Start, f.Stop
		if lo > hi {
			lo, hi = hi, lo
		}
		current = lo + rand.Intn(hi-lo+1)
	}
	f.currentCount++
	return current
}

// HeaderSegment is one segment of a ProtocolSegmentProfile: a template byte
// pattern plus zero or more hardware modifiers and field-value-ranges.
type HeaderSegment struct {
	SegmentType      SegmentType
	TemplateHex      string // hex string, e.g. "0000000000000000000000000800"
	HwModifiers      []HwModifier
	FieldValueRanges []FieldValueRange

	// SegmentByteOffset is derived during profile materialization: the sum
	// of preceding segments' byte lengths.
	SegmentByteOffset int
}

// byteLength returns the segment's template length in bytes.
func (h HeaderSegment) byteLength() int {
	return len(h.TemplateHex) / 2
}

// ProtocolSegmentProfile is the ordered sequence of HeaderSegment that
// describes one port's packet-header template and its hardware/software
// modifiers.
type ProtocolSegmentProfile struct {
	Description    string
	HeaderSegments []HeaderSegment
}

// NewProtocolSegmentProfile builds a profile, computing every derived
// offset invariant named in spec §3/§8 and rejecting any FieldValueRange
// whose bound cannot fit the field's bit width.
func NewProtocolSegmentProfile(description string, segments []HeaderSegment) (*ProtocolSegmentProfile, error) {
	profile := &ProtocolSegmentProfile{Description: description, HeaderSegments: make([]HeaderSegment, len(segments))}
	copy(profile.HeaderSegments, segments)

	currentByteOffset := 0
	for i := range profile.HeaderSegments {
		seg := &profile.HeaderSegments[i]
		seg.SegmentByteOffset = currentByteOffset

		if !seg.SegmentType.IsRaw() {
			for j := range seg.HwModifiers {
				mod := &seg.HwModifiers[j]
				def, err := getFieldDefinition(seg.SegmentType, mod.FieldName)
				if err != nil {
					return nil, &coreerrors.ConfigurationError{Reason: err.Error()}
				}
				mod.byteOffset = def.byteOffset
				mod.Position = seg.SegmentByteOffset + mod.byteOffset
				if mod.FieldName == "Src IP Addr" || mod.FieldName == "Dest IP Addr" {
					mod.Position += mod.Offset
				}
			}
			for j := range seg.FieldValueRanges {
				fvr := &seg.FieldValueRanges[j]
				def, err := getFieldDefinition(seg.SegmentType, fvr.FieldName)
				if err != nil {
					return nil, &coreerrors.ConfigurationError{Reason: err.Error()}
				}
				fvr.bitLength = def.bitLength
				fvr.bitOffset = def.bitOffset
				fvr.PositionBits = seg.SegmentByteOffset*8 + fvr.bitOffset

				maxV := fvr.Start
				if fvr.Stop > maxV {
					maxV = fvr.Stop
				}
				canMax := 1 << uint(fvr.bitLength)
				if maxV >= canMax {
					return nil, coreerrors.FieldValueRangeExceed(fvr.FieldName, fvr.bitLength)
				}
			}
		}

		currentByteOffset += seg.byteLength()
	}

	return profile, nil
}

// TemplateBytes decodes a segment's template hex string into bytes.
func (h HeaderSegment) TemplateBytes() ([]byte, error) {
	return hex.DecodeString(h.TemplateHex)
}

// ModifierCount is the total number of hardware modifiers across all
// segments.
func (p *ProtocolSegmentProfile) ModifierCount() int {
	n := 0
	for _, seg := range p.HeaderSegments {
		n += len(seg.HwModifiers)
	}
	return n
}

// PacketHeaderLength is the total byte length of the assembled packet
// header template.
func (p *ProtocolSegmentProfile) PacketHeaderLength() int {
	n := 0
	for _, seg := range p.HeaderSegments {
		n += seg.byteLength()
	}
	return n
}

// ProtocolVersion classifies the profile as Ethernet/IPv4/IPv6 by scanning
// for the first IP/IPv6 segment.
func (p *ProtocolSegmentProfile) ProtocolVersion() ProtocolVersion {
	for _, seg := range p.HeaderSegments {
		if seg.SegmentType == SegmentIPv6 {
			return ProtocolVersionIPv6
		}
		if seg.SegmentType == SegmentIP {
			return ProtocolVersionIPv4
		}
	}
	return ProtocolVersionEthernet
}

// HeaderSegmentIDList returns the ordered wire ids sent to
// stream.header.protocol.set.
func (p *ProtocolSegmentProfile) HeaderSegmentIDList() []int {
	ids := make([]int, len(p.HeaderSegments))
	for i, seg := range p.HeaderSegments {
		ids[i] = seg.SegmentType.WireID()
	}
	return ids
}

// DestIPModifierAddrRange finds the address range encoded by a "Dest IP
// Addr"/"Dest IPv6 Addr" hardware modifier in the first IP/IPv6 segment, so
// that address-refresh learning can cover every address the flow will hit
// (spec §4.3 "Address-refresh packet derivation").
func (p *ProtocolSegmentProfile) DestIPModifierAddrRange() (start, stop, step int, ok bool) {
	foundIPSegment := false
	for _, seg := range p.HeaderSegments {
		if seg.SegmentType == SegmentIP || seg.SegmentType == SegmentIPv6 {
			foundIPSegment = true
		}
		for _, mod := range seg.HwModifiers {
			if mod.FieldName == "Dest IP Addr" || mod.FieldName == "Dest IPv6 Addr" {
				return mod.Start, mod.Stop, mod.Step, true
			}
		}
		if foundIPSegment {
			break
		}
	}
	return 0, 0, 0, false
}
