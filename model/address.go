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
	"net"
)

// StreamOffset carries the per-flow tx/rx offset used to derive addresses
// from a shared mac_base_address plus the port's network block, instead of
// from each port's own configured address (spec §3 AddressCollection).
type StreamOffset struct {
	TxOffset int
	RxOffset int
}

// AddressCollection is the fully-resolved set of addresses one stream's
// packet header is built from.
type AddressCollection struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr

	SrcIPv4 net.IP
	DstIPv4 net.IP

	SrcIPv6 net.IP
	DstIPv6 net.IP
}

// offsetMAC derives a MAC address by adding offset to the low 24 bits of
// base, matching the teacher-adjacent convention of carrying a numeric
// per-flow offset into the low-order bytes of a shared base address.
func offsetMAC(base net.HardwareAddr, offset int) net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	copy(mac, base)
	v := int(mac[3])<<16 | int(mac[4])<<8 | int(mac[5])
	v = (v + offset) & 0xFFFFFF
	mac[3] = byte(v >> 16)
	mac[4] = byte(v >> 8)
	mac[5] = byte(v)
	return mac
}

// offsetIP derives an IPv4 address by adding offset within network's host
// range, wrapping modulo the network's host count.
func offsetIP(network *net.IPNet, offset int) net.IP {
	if network == nil {
		return nil
	}
	base := network.IP.To4()
	if base == nil {
		return nil
	}
	ones, bits := network.Mask.Size()
	hostBits := bits - ones
	hostCount := 1 << uint(hostBits)
	if hostCount <= 1 {
		hostCount = 1
	}
	v := int(base[0])<<24 | int(base[1])<<16 | int(base[2])<<8 | int(base[3])
	v += offset % hostCount
	out := make(net.IP, 4)
	out[0] = byte(v >> 24)
	out[1] = byte(v >> 16)
	out[2] = byte(v >> 8)
	out[3] = byte(v)
	return out
}

// offsetIPv6 derives an IPv6 address the same way, operating on the last 4
// bytes of the 16-byte address to keep the /64 (or narrower) prefix intact.
func offsetIPv6(network *net.IPNet, offset int) net.IP {
	if network == nil {
		return nil
	}
	base := network.IP.To16()
	if base == nil {
		return nil
	}
	out := make(net.IP, 16)
	copy(out, base)
	v := int(out[12])<<24 | int(out[13])<<16 | int(out[14])<<8 | int(out[15])
	v += offset
	out[12] = byte(v >> 24)
	out[13] = byte(v >> 16)
	out[14] = byte(v >> 8)
	out[15] = byte(v)
	return out
}

// GetAddressCollection resolves the smac/dmac/src-dst-v4/src-dst-v6 tuple
// for one tx/rx port pair. When offset is non-nil, addresses are derived
// from macBaseAddress and the ports' configured networks. Otherwise only
// the IP fields are filled, from tx's configured Address and DstAddr;
// SrcMAC and DstMAC stay nil (spec §3 AddressCollection, spec §4.2 step 2).
func GetAddressCollection(tx, rx PortConfiguration, macBaseAddress net.HardwareAddr, offset *StreamOffset) AddressCollection {
	var addr AddressCollection

	if offset != nil {
		addr.SrcMAC = offsetMAC(macBaseAddress, offset.TxOffset)
		addr.DstMAC = offsetMAC(macBaseAddress, offset.RxOffset)
		addr.SrcIPv4 = offsetIP(tx.IPv4Properties.Network, offset.TxOffset)
		addr.DstIPv4 = offsetIP(rx.IPv4Properties.Network, offset.RxOffset)
		addr.SrcIPv6 = offsetIPv6(tx.IPv6Properties.Network, offset.TxOffset)
		addr.DstIPv6 = offsetIPv6(rx.IPv6Properties.Network, offset.RxOffset)
		return addr
	}

	addr.SrcIPv4 = tx.IPv4Properties.Address
	addr.DstIPv4 = tx.IPv4Properties.DstAddr
	addr.SrcIPv6 = tx.IPv6Properties.Address
	addr.DstIPv6 = tx.IPv6Properties.DstAddr
	return addr
}

// ArpRefreshData names one learning target an address-refresh scheduler
// must keep alive: a source address/MAC to emit from, and optionally a
// range of destination addresses the bound flow's modifier sweeps across
// (spec §3 ArpRefreshData, spec §4.3).
type ArpRefreshData struct {
	SourceIP   net.IP
	SourceMAC  net.HardwareAddr
	HasRange   bool
	RangeStart int
	RangeStop  int
	RangeStep  int
	// IsRxOnly marks a token bound to a port that carries no tx streams of
	// its own, so the owning port's burst/interval math still accounts for
	// it (spec §4.3 "Address-refresh packet derivation").
	IsRxOnly bool
}

// NewArpRefreshDataFromProfile derives an ArpRefreshData from a profile's
// "Dest IP Addr"/"Dest IPv6 Addr" hardware modifier, so learning packets
// cover every address the bound flow will hit.
func NewArpRefreshDataFromProfile(profile *ProtocolSegmentProfile, sourceIP net.IP, sourceMAC net.HardwareAddr, isRxOnly bool) ArpRefreshData {
	data := ArpRefreshData{SourceIP: sourceIP, SourceMAC: sourceMAC, IsRxOnly: isRxOnly}
	if profile == nil {
		return data
	}
	start, stop, step, ok := profile.DestIPModifierAddrRange()
	if ok {
		data.HasRange = true
		data.RangeStart = start
		data.RangeStop = stop
		data.RangeStep = step
	}
	return data
}

// ExpandDestinations returns the concrete list of destination-address
// offsets this token covers: the range if present, otherwise a single
// zero-offset entry meaning "the port's own configured address" (spec §4.3
// "Address-refresh packet derivation").
func (a ArpRefreshData) ExpandDestinations() []int {
	if !a.HasRange {
		return []int{0}
	}
	step := a.RangeStep
	if step <= 0 {
		step = 1
	}
	var out []int
	if a.RangeStart <= a.RangeStop {
		for v := a.RangeStart; v <= a.RangeStop; v += step {
			out = append(out, v)
		}
	} else {
		for v := a.RangeStart; v >= a.RangeStop; v -= step {
			out = append(out, v)
		}
	}
	return out
}

// PeerAddress pairs a resolved destination IP with its learned/derived MAC,
// the unit arp_trunks/ndp_trunks entries are built from (spec §4.2 step 6).
type PeerAddress struct {
	DstIP  net.IP
	DstMAC net.HardwareAddr
}
