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
	"encoding/hex"
	"fmt"
	"net"

	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
	"github.com/xenadevel/rfc2544-core/stream"
)

// SetupStreams allocates one StreamStruct per (tx, rx-set) peer group: one
// stream per rx port for stream-based flow creation, or one stream
// encoding every peer via a destination-MAC modifier for modifier-based
// flow creation (spec §4.2, §4.2.2).
func (rm *ResourceManager) SetupStreams(ctx context.Context) error {
	macBase, err := parseMACBase(rm.Config.MACBaseAddress)
	if err != nil {
		return fmt.Errorf("setup_streams: %w", err)
	}

	tpldID := 0
	for _, tx := range rm.TxPorts() {
		peers := rm.peerPorts(tx)
		if len(peers) == 0 {
			continue
		}

		if rm.Config.FlowCreationType.IsStreamBased() {
			for _, rx := range peers {
				if err := rm.createStream(ctx, tx, []*PortStruct{rx}, macBase, &tpldID); err != nil {
					return err
				}
			}
		} else {
			if err := rm.createStream(ctx, tx, peers, macBase, &tpldID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rm *ResourceManager) peerPorts(tx *PortStruct) []*PortStruct {
	out := make([]*PortStruct, 0, len(tx.Properties.Peers))
	for _, idx := range tx.Properties.Peers {
		out = append(out, rm.Ports[idx])
	}
	return out
}

// createStream allocates and configures one StreamStruct covering rxPorts,
// following spec §4.2's numbered steps.
func (rm *ResourceManager) createStream(ctx context.Context, tx *PortStruct, rxPorts []*PortStruct, macBase net.HardwareAddr, tpldID *int) error {
	streamID, err := tx.Handle.CreateStream(ctx)
	if err != nil {
		return err
	}
	handle := &driver.Stream{Port: tx.Handle, StreamID: streamID}

	thisTPLD := *tpldID
	*tpldID++

	addr := model.GetAddressCollection(tx.Config, rxPorts[0].Config, macBase, nil)

	header, err := stream.BuildPacketHeader(tx.Config.Profile, addr, tx.Capabilities.CanTCPChecksum)
	if err != nil {
		return fmt.Errorf("build packet header for stream %d: %w", streamID, err)
	}

	reqs := []driver.Request{
		handle.SetEnableRequest("ON_SUPPRESS"),
		handle.SetHeaderProtocolRequest(tx.Config.Profile.HeaderSegmentIDList()),
		handle.SetPayloadRequest(rm.Config.PayloadPatternType, rm.Config.PayloadPattern),
		handle.SetTPLDRequest(thisTPLD),
		handle.SetInsertChecksumsRequest(true),
		handle.SetHeaderDataRequest(hex.EncodeToString(header)),
	}

	modRangeStart, modRangeStop := 1, len(rxPorts)
	mods := stream.ResolveModifiers(tx.Config.Profile, rm.Config.FlowCreationType, modRangeStart, modRangeStop)
	reqs = append(reqs, stream.ProgramModifierRequests(handle, mods)...)

	if _, err := tx.Handle.Chassis.Apply(ctx, reqs...); err != nil {
		return err
	}

	prStreams := make([]*stream.PRStream, len(rxPorts))
	for i, rx := range rxPorts {
		prStreams[i] = &stream.PRStream{RxPort: rx.Handle, TPLDID: thisTPLD}
	}
	ss := stream.NewStreamStruct(handle, thisTPLD, prStreams)
	tx.Streams = append(tx.Streams, ss)

	rm.populateRxTables(tx, rxPorts, addr)
	return nil
}

// populateRxTables performs spec §4.2 step 6: when arp_refresh_enabled and
// the tx side is L3, register (dst_ip, dst_mac) into each rx port's
// arp_trunks/ndp_trunks and push an ArpRefreshData to it; when
// use_gateway_mac_as_dmac, also push an empty ArpRefreshData to the tx port.
func (rm *ResourceManager) populateRxTables(tx *PortStruct, rxPorts []*PortStruct, addr model.AddressCollection) {
	if !rm.Config.ArpRefreshEnabled || !tx.HasL3Profile() {
		return
	}

	isIPv6 := tx.Config.Profile.ProtocolVersion().IsIPv6()
	dstIP := addr.DstIPv4
	if isIPv6 {
		dstIP = addr.DstIPv6
	}

	for _, rx := range rxPorts {
		if dstIP != nil {
			rx.Properties.RegisterPeer(dstIP.String(), addr.DstMAC.String(), isIPv6)
		}
		data := model.NewArpRefreshDataFromProfile(tx.Config.Profile, addr.SrcIPv4, addr.SrcMAC, !rx.Config.IsTxPort)
		rx.Properties.AddAddressRefreshData(data)
	}

	if rm.Config.UseGatewayMACAsDmac {
		tx.Properties.AddAddressRefreshData(model.ArpRefreshData{})
	}
}

func parseMACBase(hexMAC string) (net.HardwareAddr, error) {
	clean := hexMAC
	if len(clean) >= 2 && clean[:2] == "0x" {
		clean = clean[2:]
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid mac_base_address %q: %w", hexMAC, err)
	}
	if len(raw) != 6 {
		return nil, fmt.Errorf("mac_base_address %q must decode to 6 bytes, got %d", hexMAC, len(raw))
	}
	return net.HardwareAddr(raw), nil
}
