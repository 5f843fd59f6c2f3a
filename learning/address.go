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
// Package learning implements the MAC-learning and address-refresh
// preambles described in spec §4.3: deriving ARP/NDP learning packets,
// pacing their retransmission across a binary-search-free round-robin
// scheduler, and the preamble steps that run them before a measurement
// starts.
package learning

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/xenadevel/rfc2544-core/model"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// LinkLocalFromMAC derives the fe80::/64 link-local address a neighbor
// would auto-configure from mac, via the standard EUI-64 expansion (flip
// the universal/local bit of the first OUI byte, splice in ff:fe). Used as
// the destination address NDP solicitations resolve (spec §4.3, SPEC_FULL
// §C.7).
func LinkLocalFromMAC(mac net.HardwareAddr) net.IP {
	if len(mac) != 6 {
		return nil
	}
	addr := make(net.IP, 16)
	addr[0], addr[1] = 0xfe, 0x80
	addr[8] = mac[0] ^ 0x02
	addr[9] = mac[1]
	addr[10] = mac[2]
	addr[11] = 0xff
	addr[12] = 0xfe
	addr[13] = mac[3]
	addr[14] = mac[4]
	addr[15] = mac[5]
	return addr
}

// PortAddressContext is the subset of a port's configuration the learning
// packet builders need, kept separate from *resource.PortStruct so this
// package can unit test packet construction without a driver handle.
type PortAddressContext struct {
	IsIPv6 bool
	IPv4   model.IPProperties
	IPv6   model.IPProperties
}

// withLastComponent replaces the last addressable byte of base (the 4th
// octet for IPv4, the 16th byte for IPv6) with v, sweeping the low
// component of a configured address (spec §4.3 "Address-refresh packet
// derivation").
func withLastComponent(base net.IP, v int) net.IP {
	if v4 := base.To4(); v4 != nil {
		ip := make(net.IP, 4)
		copy(ip, v4)
		ip[3] = byte(v)
		return ip
	}
	ip := make(net.IP, 16)
	copy(ip, base.To16())
	ip[15] = byte(v)
	return ip
}

// addressList expands data's range (if any) against base into the concrete
// list of source addresses a learning packet must be sent from (spec §4.3,
// source's get_address_list).
func addressList(base net.IP, data model.ArpRefreshData) []net.IP {
	offsets := data.ExpandDestinations()
	out := make([]net.IP, 0, len(offsets))
	for _, v := range offsets {
		if !data.HasRange {
			out = append(out, base)
			continue
		}
		out = append(out, withLastComponent(base, v))
	}
	return out
}

// BuildAddressLearningPackets derives the ARP (IPv4) or neighbor
// solicitation (IPv6) frames that refresh data's source addresses in the
// DUT's neighbor table, one per expanded address (spec §4.3
// "Address-refresh packet derivation"). smac must already be resolved
// (either data.SourceMAC or the port's own MAC, fetched by the caller).
func BuildAddressLearningPackets(addrCtx PortAddressContext, data model.ArpRefreshData, smac net.HardwareAddr, useGatewayMACAsDmac bool) ([][]byte, error) {
	ipProps := addrCtx.IPv4
	if addrCtx.IsIPv6 {
		ipProps = addrCtx.IPv6
	}

	dmac := broadcastMAC
	if useGatewayMACAsDmac && ipProps.HasGateway() && ipProps.HasGatewayMAC() {
		dmac = ipProps.GatewayMAC
	}

	base := data.SourceIP
	if base == nil {
		base = ipProps.Address
	}

	packets := make([][]byte, 0)
	for _, srcIP := range addressList(base, data) {
		var pkt []byte
		var err error
		if !addrCtx.IsIPv6 {
			dstIP := ipProps.Address
			if ipProps.HasGateway() {
				dstIP = ipProps.Gateway
			}
			pkt, err = buildARPRequest(smac, dmac, srcIP, dstIP)
		} else {
			dstIP := LinkLocalFromMAC(dmac)
			pkt, err = buildNeighborSolicitation(smac, dmac, srcIP, dstIP)
		}
		if err != nil {
			return nil, err
		}
		packets = append(packets, pkt)
	}
	return packets, nil
}

func buildARPRequest(smac, dmac net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       smac,
		DstMAC:       dmac,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   smac,
		SourceProtAddress: srcIP.To4(),
		DstHwAddress:      dmac,
		DstProtAddress:    dstIP.To4(),
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildNeighborSolicitation(smac, dmac net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       smac,
		DstMAC:       dmac,
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolICMPv6,
		HopLimit:   255,
		SrcIP:      srcIP.To16(),
		DstIP:      dstIP.To16(),
	}
	icmp6 := &layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborSolicitation, 0),
	}
	ns := &layers.ICMPv6NeighborSolicitation{
		TargetAddress: dstIP.To16(),
		Options: layers.ICMPv6Options{
			{Type: layers.ICMPv6OptSourceAddress, Data: smac},
		},
	}
	if err := icmp6.SetNetworkLayerForChecksum(ip6); err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip6, icmp6, ns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
