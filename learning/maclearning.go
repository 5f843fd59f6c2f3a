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
	"fmt"
	"strings"
	"time"

	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
	"github.com/xenadevel/rfc2544-core/internal/metrics"
	"github.com/xenadevel/rfc2544-core/model"
	"github.com/xenadevel/rfc2544-core/resource"
)

// BuildMacLearningFrame assembles the broadcast MAC-learning frame: a
// broadcast destination, ownMAC as source, a two-byte 0xffff filler in
// place of an EtherType, and 118 zero padding bytes, 132 bytes in all
// (spec §4.3 "MAC learning").
func BuildMacLearningFrame(ownMAC string) ([]byte, error) {
	clean := strings.ToUpper(strings.ReplaceAll(ownMAC, ":", ""))
	clean = strings.TrimPrefix(clean, "0X")
	macBytes, err := hex.DecodeString(clean)
	if err != nil || len(macBytes) != 6 {
		return nil, fmt.Errorf("learning: invalid mac address %q", ownMAC)
	}
	frame := make([]byte, 0, 6+6+2+118)
	frame = append(frame, broadcastMAC...)
	frame = append(frame, macBytes...)
	frame = append(frame, 0xff, 0xff)
	frame = append(frame, make([]byte, 118)...)
	return frame, nil
}

// MacLearning sends frameCount broadcast frames from p one second apart, so
// the DUT learns p's MAC is reachable through this port before other ports
// start sending traffic toward it (spec §4.3). Only rx ports need this:
// a tx-only port is never a frame's destination, so there is nothing for
// the DUT to learn about reaching it.
func MacLearning(ctx context.Context, p *resource.PortStruct, frameCount int, sleep func(time.Duration), reg *metrics.Registry) error {
	if !p.Config.IsRxPort {
		return nil
	}
	ownMAC, err := p.Handle.GetMACAddress(ctx)
	if err != nil {
		return err
	}
	frame, err := BuildMacLearningFrame(ownMAC)
	if err != nil {
		return err
	}
	if len(frame) > p.Capabilities.MaxXmitOnePacketLength {
		return &coreerrors.PacketLengthExceed{Length: len(frame), MaxLength: p.Capabilities.MaxXmitOnePacketLength}
	}
	hexFrame := "0x" + hex.EncodeToString(frame)
	for i := 0; i < frameCount; i++ {
		if _, err := p.Handle.Chassis.Apply(ctx, p.Handle.SendSinglePacketRequest(hexFrame)); err != nil {
			return err
		}
		reg.MacLearningFramesSent.Inc()
		sleep(time.Second)
	}
	return nil
}

// AddMacLearningSteps runs MacLearning on each port in ports, gated on
// requireMode matching the test's configured MACLearningMode (spec §4.1
// step 10, source's add_mac_learning_steps).
func AddMacLearningSteps(ctx context.Context, rm *resource.ResourceManager, requireMode model.MACLearningMode, ports []*resource.PortStruct, frameCount int, sleep func(time.Duration), reg *metrics.Registry) error {
	if requireMode != rm.Config.MACLearningMode {
		return nil
	}
	for _, p := range ports {
		if err := MacLearning(ctx, p, frameCount, sleep, reg); err != nil {
			return err
		}
	}
	return nil
}

// Hook returns a resource.LearningHook running the MACLearningOnce step
// (init_resource's final step, spec §4.1 step 10).
func Hook(sleep func(time.Duration), reg *metrics.Registry) resource.LearningHook {
	return func(ctx context.Context, rm *resource.ResourceManager) error {
		return AddMacLearningSteps(ctx, rm, model.MACLearningOnce, rm.RxPorts(), rm.Config.MACLearningFrameCount, sleep, reg)
	}
}
