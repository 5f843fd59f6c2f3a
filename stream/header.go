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
// Package stream implements the Stream Engine: packet-header assembly,
// hardware-modifier programming, and per-stream statistics aggregation for
// one tx flow destined to one or more rx ports. It takes protocol constants
// from gopacket/layers and computes checksums itself, and builds headers by
// splicing substituted
// fields into each segment's template bytes rather than constructing and
// serializing gopacket layers from scratch, since a profile's segment
// templates (and their hardware modifiers) must retain their exact,
// driver-programmed byte layout.
package stream

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"

	"github.com/xenadevel/rfc2544-core/model"
)

// BuildPacketHeader assembles the programmed packet header for one stream,
// substituting known address fields and patching TCP->TCPCHECK hand-off and
// checksums, per spec §4.2.1.
func BuildPacketHeader(profile *model.ProtocolSegmentProfile, addr model.AddressCollection, canTCPChecksum bool) ([]byte, error) {
	if profile == nil {
		return nil, fmt.Errorf("BuildPacketHeader: nil profile")
	}

	segBytes := make([][]byte, len(profile.HeaderSegments))
	for i, seg := range profile.HeaderSegments {
		raw, err := seg.TemplateBytes()
		if err != nil {
			return nil, fmt.Errorf("segment %d (%s): %w", i, seg.SegmentType, err)
		}
		segBytes[i] = raw
	}

	for i, seg := range profile.HeaderSegments {
		buf := segBytes[i]
		switch seg.SegmentType {
		case model.SegmentEthernet:
			substituteMAC(buf, 0, addr.DstMAC)
			substituteMAC(buf, 6, addr.SrcMAC)
		case model.SegmentIP:
			substituteIPv4(buf, 12, addr.SrcIPv4)
			substituteIPv4(buf, 16, addr.DstIPv4)
			setIPv4Checksum(buf)
		case model.SegmentIPv6:
			substituteIPv6(buf, 8, addr.SrcIPv6)
			substituteIPv6(buf, 24, addr.DstIPv6)
		case model.SegmentTCP, model.SegmentTCPCheck:
			if canTCPChecksum {
				profile.HeaderSegments[i].SegmentType = model.SegmentTCPCheck
			}
		}
	}

	if err := patchPseudoHeaderChecksums(profile, segBytes, addr); err != nil {
		return nil, err
	}

	out := make([]byte, 0, profile.PacketHeaderLength())
	for _, b := range segBytes {
		out = append(out, b...)
	}
	return out, nil
}

func substituteMAC(buf []byte, offset int, mac net.HardwareAddr) {
	if len(mac) != 6 || offset+6 > len(buf) {
		return
	}
	copy(buf[offset:offset+6], mac)
}

func substituteIPv4(buf []byte, offset int, ip net.IP) {
	v4 := ip.To4()
	if v4 == nil || offset+4 > len(buf) {
		return
	}
	copy(buf[offset:offset+4], v4)
}

func substituteIPv6(buf []byte, offset int, ip net.IP) {
	v6 := ip.To16()
	if v6 == nil || offset+16 > len(buf) {
		return
	}
	copy(buf[offset:offset+16], v6)
}

// setIPv4Checksum recomputes and writes the IPv4 header checksum at byte
// offset 10-11, the way the driver's hardware would if insert-checksums
// were not already handling it for us at the IP layer.
func setIPv4Checksum(buf []byte) {
	if len(buf) < 20 {
		return
	}
	buf[10], buf[11] = 0, 0
	sum := onesComplementSum(buf[:20])
	binary.BigEndian.PutUint16(buf[10:12], ^sum)
}

// patchPseudoHeaderChecksums fills the UDP checksum, which depends on the
// IPv4/IPv6 pseudo-header and so must be computed after address
// substitution across segment boundaries.
func patchPseudoHeaderChecksums(profile *model.ProtocolSegmentProfile, segBytes [][]byte, addr model.AddressCollection) error {
	var ipSeg, udpSeg int = -1, -1
	var v6 bool
	for i, seg := range profile.HeaderSegments {
		switch seg.SegmentType {
		case model.SegmentIP:
			ipSeg = i
		case model.SegmentIPv6:
			ipSeg = i
			v6 = true
		case model.SegmentUDP:
			udpSeg = i
		}
	}
	if udpSeg < 0 || ipSeg < 0 {
		return nil
	}

	udpBuf := segBytes[udpSeg]
	if len(udpBuf) < 8 {
		return nil
	}
	udpBuf[6], udpBuf[7] = 0, 0

	var pseudo []byte
	udpLen := uint16(len(udpBuf))
	if v6 {
		pseudo = make([]byte, 0, 40)
		pseudo = append(pseudo, addr.SrcIPv6.To16()...)
		pseudo = append(pseudo, addr.DstIPv6.To16()...)
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(udpLen))
		pseudo = append(pseudo, lenBuf...)
		pseudo = append(pseudo, 0, 0, 0, byte(layers.IPProtocolUDP))
	} else {
		pseudo = make([]byte, 0, 12)
		pseudo = append(pseudo, addr.SrcIPv4.To4()...)
		pseudo = append(pseudo, addr.DstIPv4.To4()...)
		pseudo = append(pseudo, 0, byte(layers.IPProtocolUDP))
		lenBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(lenBuf, udpLen)
		pseudo = append(pseudo, lenBuf...)
	}

	full := append(pseudo, udpBuf...)
	sum := onesComplementSum(full)
	if sum == 0 {
		sum = 0xFFFF
	}
	binary.BigEndian.PutUint16(udpBuf[6:8], ^sum)
	return nil
}

// onesComplementSum computes the RFC 1071 16-bit one's complement sum over
// buf, padding with a trailing zero byte if buf has odd length.
func onesComplementSum(buf []byte) uint16 {
	var sum uint32
	n := len(buf)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	if n%2 == 1 {
		sum += uint32(buf[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return uint16(sum)
}
