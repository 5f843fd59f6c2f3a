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
	"encoding/hex"
	"net"
	"time"

	"github.com/xenadevel/rfc2544-core/internal/metrics"
	"github.com/xenadevel/rfc2544-core/internal/scheduler"
	"github.com/xenadevel/rfc2544-core/resource"
)

func hexPacket(pkt []byte) string {
	return "0x" + hex.EncodeToString(pkt)
}

func toSends(tokens []AddressRefreshToken) []resource.PacketSend {
	sends := make([]resource.PacketSend, len(tokens))
	for i, tok := range tokens {
		sends[i] = resource.PacketSend{Port: tok.Port, HexPacket: hexPacket(tok.Packet)}
	}
	return sends
}

// ResolveSourceMAC returns configured if set, or fetches p's own MAC
// address otherwise (spec §4.3 get_address_learning_packet).
func ResolveSourceMAC(ctx context.Context, p *resource.PortStruct, configured net.HardwareAddr) (net.HardwareAddr, error) {
	if len(configured) == 6 {
		return configured, nil
	}
	mac, err := p.Handle.GetMACAddress(ctx)
	if err != nil {
		return nil, err
	}
	return net.ParseMAC(mac)
}

// L3LearningPreamble runs the time-limited L3 learning preamble (spec
// §4.3): ramp tx rate to the learning rate, start traffic, fire one full
// address-refresh batch immediately, then schedule periodic partial
// batches until every port's traffic has stopped.
func L3LearningPreamble(ctx context.Context, rm *resource.ResourceManager, packetSize int, handler *AddressRefreshHandler, sleep func(time.Duration), reg *metrics.Registry) error {
	if handler == nil {
		return nil
	}
	handler.SetState(StateL3Learning)

	if err := rm.SetRate(ctx, rm.Config.LearningRatePct); err != nil {
		return err
	}
	if err := rm.SetupSourcePortRates(ctx, packetSize); err != nil {
		return err
	}
	if err := rm.SetTxTimeLimit(ctx, int(rm.Config.LearningDurationSec*1000)); err != nil {
		return err
	}
	if err := rm.StartTraffic(ctx, false); err != nil {
		return err
	}

	if len(handler.Tokens()) > 0 {
		if err := rm.SendPackets(ctx, toSends(handler.Tokens())); err != nil {
			return err
		}
		reg.AddressRefreshBatches.Inc()
	}

	handler.SetState(StateL3Learning)
	if len(handler.Tokens()) > 0 {
		if err := runRefreshSchedule(ctx, rm, handler, reg); err != nil {
			return err
		}
	}

	for rm.AnyTrafficRunning() {
		if err := rm.QueryTrafficStatus(ctx); err != nil {
			return err
		}
		sleep(time.Second)
	}
	return rm.SetTxTimeLimit(ctx, 0)
}

// runRefreshSchedule drives handler's periodic partial batches (spec §4.3
// "schedule_arp_refresh") until traffic stops running.
func runRefreshSchedule(ctx context.Context, rm *resource.ResourceManager, handler *AddressRefreshHandler, reg *metrics.Registry) error {
	return scheduler.Run(ctx, handler.Interval(), func(ctx context.Context) (bool, error) {
		batch := handler.GetBatch()
		if len(batch) > 0 {
			if err := rm.SendPackets(ctx, toSends(batch)); err != nil {
				return false, err
			}
			reg.AddressRefreshBatches.Inc()
		}
		if err := rm.QueryTrafficStatus(ctx); err != nil {
			return false, err
		}
		return !rm.AnyTrafficRunning(), nil
	})
}

// FlowBasedLearningPreamble runs the frame-count-bounded flow-based
// learning preamble (spec §4.3, SPEC_FULL §C.8): instead of a fixed
// duration, traffic runs until flow_based_learning_frame_count frames have
// gone out, followed by a fixed settle delay.
func FlowBasedLearningPreamble(ctx context.Context, rm *resource.ResourceManager, packetSize int, sleep func(time.Duration)) error {
	if !rm.Config.UseFlowBasedLearningPreamble {
		return nil
	}
	if err := rm.SetRate(ctx, rm.Config.LearningRatePct); err != nil {
		return err
	}
	if err := rm.SetupSourcePortRates(ctx, packetSize); err != nil {
		return err
	}
	if err := rm.SetFrameLimit(ctx, rm.Config.FlowBasedLearningFrameCount); err != nil {
		return err
	}
	if err := rm.StartTraffic(ctx, false); err != nil {
		return err
	}
	for rm.AnyTrafficRunning() {
		if err := rm.QueryTrafficStatus(ctx); err != nil {
			return err
		}
		sleep(100 * time.Millisecond)
	}
	sleep(time.Duration(rm.Config.DelayAfterFlowBasedLearningMs * float64(time.Millisecond)))
	return rm.SetFrameLimit(ctx, 0)
}
