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
package learning

import (
	"context"

	"github.com/xenadevel/rfc2544-core/resource"
)

// SetupAddressRefresh builds the full AddressRefreshToken set across every
// port's registered ArpRefreshData, resolving each token's source MAC and
// deriving its ARP/NDP packets (spec §4.3 "setup_address_refresh").
func SetupAddressRefresh(ctx context.Context, rm *resource.ResourceManager, useGatewayMACAsDmac bool) ([]AddressRefreshToken, error) {
	var tokens []AddressRefreshToken
	for _, p := range rm.Ports {
		for _, data := range p.Properties.AddressRefreshDataSet {
			smac, err := ResolveSourceMAC(ctx, p, data.SourceMAC)
			if err != nil {
				return nil, err
			}
			addrCtx := PortAddressContext{
				IsIPv6: p.HasL3Profile() && p.Config.Profile.ProtocolVersion().IsIPv6(),
				IPv4:   p.Config.IPv4Properties,
				IPv6:   p.Config.IPv6Properties,
			}
			packets, err := BuildAddressLearningPackets(addrCtx, data, smac, useGatewayMACAsDmac)
			if err != nil {
				return nil, err
			}
			for _, pkt := range packets {
				tokens = append(tokens, AddressRefreshToken{Port: p, Packet: pkt, IsRxOnly: data.IsRxOnly})
			}
		}
	}
	return tokens, nil
}
