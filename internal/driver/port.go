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
package driver

import (
	"context"
	"encoding/json"

	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
)

// Port is a handle to one (chassis, module, port) triple through which the
// Resource Manager and Stream Engine issue per-port requests. It is a thin
// addressed wrapper around Chassis.Call/Apply — all the port-identifying
// plumbing the teacher's PCIe register-offset tables
// (ADDR_BASE_NT_RECV_CAPTURE[id], ...) perform locally, this performs over
// the network by tagging every request with ModulePortPair.
type Port struct {
	Chassis *Chassis
	Pair    ModulePortPair
}

func (p *Port) call(ctx context.Context, op string, args interface{}) (json.RawMessage, error) {
	return p.Chassis.Call(ctx, op, struct {
		Pair ModulePortPair `json:"pair"`
		Args interface{}    `json:"args"`
	}{Pair: p.Pair, Args: args})
}

func (p *Port) request(op string, args interface{}) Request {
	return Request{Op: op, Args: struct {
		Pair ModulePortPair `json:"pair"`
		Args interface{}    `json:"args"`
	}{Pair: p.Pair, Args: args}}
}

// Capabilities describes the read-only, discovery-time capability set of a
// port (spec "Dynamic capability checks" design note): consumers read it,
// never mutate it.
type Capabilities struct {
	CanTCPChecksum         bool `json:"canTcpChecksum"`
	MaxXmitOnePacketLength int  `json:"maxXmitOnePacketLength"`
	MaxSpeedMbps           int  `json:"maxSpeedMbps"`
	SupportsFEC            bool `json:"supportsFec"`
}

// GetCapabilities fetches the port's capability descriptor.
func (p *Port) GetCapabilities(ctx context.Context) (Capabilities, error) {
	data, err := p.call(ctx, "port.capabilities.get", nil)
	if err != nil {
		return Capabilities{}, err
	}
	var caps Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		return Capabilities{}, &coreerrors.TransportError{Op: "port.capabilities.get", Err: err}
	}
	return caps, nil
}

// GetMACAddress fetches the port's own MAC address.
func (p *Port) GetMACAddress(ctx context.Context) (string, error) {
	data, err := p.call(ctx, "port.mac.get", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		MAC string `json:"mac"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return "", &coreerrors.TransportError{Op: "port.mac.get", Err: err}
	}
	return res.MAC, nil
}

// GetSyncStatus fetches whether the port's PHY currently reports sync.
func (p *Port) GetSyncStatus(ctx context.Context) (bool, error) {
	data, err := p.call(ctx, "port.sync_status.get", nil)
	if err != nil {
		return false, err
	}
	var res struct {
		Synced bool `json:"synced"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return false, &coreerrors.TransportError{Op: "port.sync_status.get", Err: err}
	}
	return res.Synced, nil
}

// GetTrafficStatus fetches whether the port currently has traffic running.
func (p *Port) GetTrafficStatus(ctx context.Context) (bool, error) {
	data, err := p.call(ctx, "port.traffic_status.get", nil)
	if err != nil {
		return false, err
	}
	var res struct {
		Running bool `json:"running"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return false, &coreerrors.TransportError{Op: "port.traffic_status.get", Err: err}
	}
	return res.Running, nil
}

// SetTrafficRequest builds the per-port P_TRAFFIC-equivalent request for
// inclusion in an Apply batch (spec §4.1 start_traffic, port_sync=false).
func (p *Port) SetTrafficRequest(on bool) Request {
	return p.request("port.traffic.set", struct {
		On bool `json:"on"`
	}{On: on})
}

// SetSpeedReductionRequest builds the per-port speed reduction request used
// by setup_sweep_reduction (spec §4.1).
func (p *Port) SetSpeedReductionRequest(ppm int) Request {
	return p.request("port.speed_reduction.set", struct {
		PPM int `json:"ppm"`
	}{PPM: ppm})
}

// SetSyncToggleRequest builds the toggle-port-sync preamble request.
func (p *Port) SetSyncToggleRequest(on bool) Request {
	return p.request("port.sync_toggle.set", struct {
		On bool `json:"on"`
	}{On: on})
}

// SetGapMonitorRequest builds the optional inter-frame gap monitor request.
func (p *Port) SetGapMonitorRequest(startMicrosec, stopFrames int) Request {
	return p.request("port.gap_monitor.set", struct {
		StartMicrosec int `json:"startMicrosec"`
		StopFrames    int `json:"stopFrames"`
	}{StartMicrosec: startMicrosec, StopFrames: stopFrames})
}

// SetRateRequest builds the tx rate percentage request.
func (p *Port) SetRateRequest(ratePct float64) Request {
	return p.request("port.rate.set", struct {
		RatePct float64 `json:"ratePct"`
	}{RatePct: ratePct})
}

// SetTxTimeLimitRequest builds the tx time limit (ms) request.
func (p *Port) SetTxTimeLimitRequest(limitMs int) Request {
	return p.request("port.tx_time_limit.set", struct {
		LimitMs int `json:"limitMs"`
	}{LimitMs: limitMs})
}

// SetStreamsPacketSizeRequest builds the per-port packet-size-policy request.
func (p *Port) SetStreamsPacketSizeRequest(sizeType string, min, max int) Request {
	return p.request("port.streams.packet_size.set", struct {
		SizeType string `json:"sizeType"`
		Min      int    `json:"min"`
		Max      int    `json:"max"`
	}{SizeType: sizeType, Min: min, Max: max})
}

// SetStatisticContextRequest primes a port's statistic computation window
// ahead of a collect() poll: packet size, duration, and whether this is the
// test's final iteration (spec §4.1 "collect(packet_size, duration,
// is_final)").
func (p *Port) SetStatisticContextRequest(packetSize, durationMs int, isFinal bool) Request {
	return p.request("port.statistic.context.set", struct {
		PacketSize int  `json:"packetSize"`
		DurationMs int  `json:"durationMs"`
		IsFinal    bool `json:"isFinal"`
	}{PacketSize: packetSize, DurationMs: durationMs, IsFinal: isFinal})
}

// ClearStatisticRequest builds the per-port counter-clear request.
func (p *Port) ClearStatisticRequest() Request {
	return p.request("port.statistic.clear", nil)
}

// SendSinglePacketRequest builds a one-shot transmit request carrying the
// raw hex-encoded packet bytes, used for MAC learning and address refresh
// bursts (spec §4.3).
func (p *Port) SendSinglePacketRequest(hexPacket string) Request {
	return p.request("port.tx_single_pkt.send", struct {
		Packet string `json:"packet"`
	}{Packet: hexPacket})
}

// PortExtraStats carries extra per-port counters read alongside a stream
// query (FCS error count).
type PortExtraStats struct {
	FCSErrorCount int `json:"fcsErrorCount"`
}

// GetExtraStats fetches the port's extra counters (FCS errors).
func (p *Port) GetExtraStats(ctx context.Context) (PortExtraStats, error) {
	data, err := p.call(ctx, "port.statistic.extra.get", nil)
	if err != nil {
		return PortExtraStats{}, err
	}
	var res PortExtraStats
	if err := json.Unmarshal(data, &res); err != nil {
		return PortExtraStats{}, &coreerrors.TransportError{Op: "port.statistic.extra.get", Err: err}
	}
	return res, nil
}

// CreateStream allocates a new stream on the port and returns its
// device-assigned stream id.
func (p *Port) CreateStream(ctx context.Context) (int, error) {
	data, err := p.call(ctx, "port.stream.create", nil)
	if err != nil {
		return 0, err
	}
	var res struct {
		StreamID int `json:"streamId"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, &coreerrors.TransportError{Op: "port.stream.create", Err: err}
	}
	return res.StreamID, nil
}

// Stream is a handle to one stream on a port.
type Stream struct {
	Port     *Port
	StreamID int
}

func (s *Stream) request(op string, args interface{}) Request {
	return Request{Op: op, Args: struct {
		Pair     ModulePortPair `json:"pair"`
		StreamID int            `json:"streamId"`
		Args     interface{}    `json:"args"`
	}{Pair: s.Port.Pair, StreamID: s.StreamID, Args: args}}
}

// SetEnableRequest builds the stream enable=ON+suppress request.
func (s *Stream) SetEnableRequest(onWithSuppress string) Request {
	return s.request("stream.enable.set", struct {
		Value string `json:"value"`
	}{Value: onWithSuppress})
}

// SetHeaderProtocolRequest builds the ordered segment-type-id request.
func (s *Stream) SetHeaderProtocolRequest(segmentIDs []int) Request {
	return s.request("stream.header.protocol.set", struct {
		SegmentIDs []int `json:"segmentIds"`
	}{SegmentIDs: segmentIDs})
}

// SetPayloadRequest builds the payload content request.
func (s *Stream) SetPayloadRequest(patternType, hexPattern string) Request {
	return s.request("stream.payload.content.set", struct {
		PatternType string `json:"patternType"`
		HexPattern  string `json:"hexPattern"`
	}{PatternType: patternType, HexPattern: hexPattern})
}

// SetTPLDRequest builds the TPLD id request.
func (s *Stream) SetTPLDRequest(tpldID int) Request {
	return s.request("stream.tpld_id.set", struct {
		TPLDID int `json:"tpldId"`
	}{TPLDID: tpldID})
}

// SetInsertChecksumsRequest builds the insert-checksums=ON request.
func (s *Stream) SetInsertChecksumsRequest(on bool) Request {
	return s.request("stream.insert_checksums.set", struct {
		On bool `json:"on"`
	}{On: on})
}

// SetHeaderDataRequest builds the packet header byte-data request.
func (s *Stream) SetHeaderDataRequest(hexData string) Request {
	return s.request("stream.header.data.set", struct {
		HexData string `json:"hexData"`
	}{HexData: hexData})
}

// ConfigureModifiersRequest sizes the header modifier table.
func (s *Stream) ConfigureModifiersRequest(count int) Request {
	return s.request("stream.modifiers.configure", struct {
		Count int `json:"count"`
	}{Count: count})
}

// SetModifierSpecRequest programs one modifier slot's position/mask/action.
func (s *Stream) SetModifierSpecRequest(slot, position int, mask string, action string, repeatCount int) Request {
	return s.request("stream.modifier.spec.set", struct {
		Slot        int    `json:"slot"`
		Position    int    `json:"position"`
		Mask        string `json:"mask"`
		Action      string `json:"action"`
		RepeatCount int    `json:"repeatCount"`
	}{Slot: slot, Position: position, Mask: mask, Action: action, RepeatCount: repeatCount})
}

// SetModifierRangeRequest programs one modifier slot's min/step/max.
func (s *Stream) SetModifierRangeRequest(slot, min, step, max int) Request {
	return s.request("stream.modifier.range.set", struct {
		Slot int `json:"slot"`
		Min  int `json:"min"`
		Step int `json:"step"`
		Max  int `json:"max"`
	}{Slot: slot, Min: min, Step: step, Max: max})
}

// SetFrameLimitRequest programs the stream's frame (packet) limit, used by
// the back-to-back controller and flow-based learning preamble.
func (s *Stream) SetFrameLimitRequest(count int) Request {
	return s.request("stream.packet.limit.set", struct {
		Count int `json:"count"`
	}{Count: count})
}

// SetRateRequest programs the stream's L2 bps rate.
func (s *Stream) SetRateRequest(l2bps int64) Request {
	return s.request("stream.rate.l2bps.set", struct {
		L2Bps int64 `json:"l2bps"`
	}{L2Bps: l2bps})
}

// TxStats is the tx-side counter shape returned for a stream.
type TxStats struct {
	Frames             int64 `json:"frames"`
	BitsPerSecond      int64 `json:"bps"`
	PacketsPerSecond   int64 `json:"pps"`
	BytesSinceCleared  int64 `json:"bytesSinceCleared"`
}

// GetTxStats fetches the stream's tx-frames counter.
func (s *Stream) GetTxStats(ctx context.Context) (TxStats, error) {
	data, err := s.Port.Chassis.Call(ctx, "stream.statistics.tx.get", struct {
		Pair     ModulePortPair `json:"pair"`
		StreamID int            `json:"streamId"`
	}{Pair: s.Port.Pair, StreamID: s.StreamID})
	if err != nil {
		return TxStats{}, err
	}
	var res TxStats
	if err := json.Unmarshal(data, &res); err != nil {
		return TxStats{}, &coreerrors.TransportError{Op: "stream.statistics.tx.get", Err: err}
	}
	return res, nil
}

// RxStats is the rx-side counter shape returned for a (stream, rx port,
// tpld) triple.
type RxStats struct {
	Frames            int64   `json:"frames"`
	BitsPerSecond     int64   `json:"bps"`
	PacketsPerSecond  int64   `json:"pps"`
	BytesSinceCleared int64   `json:"bytesSinceCleared"`
	LossFrames        int64   `json:"lossFrames"`
	LatencyMinNs      float64 `json:"latencyMinNs"`
	LatencyAvgNs      float64 `json:"latencyAvgNs"`
	LatencyMaxNs      float64 `json:"latencyMaxNs"`
	JitterMinNs       float64 `json:"jitterMinNs"`
	JitterAvgNs       float64 `json:"jitterAvgNs"`
	JitterMaxNs       float64 `json:"jitterMaxNs"`
	FCSErrorCount     int64   `json:"fcsErrorCount"`
}

// GetRxStats fetches the per-(stream,rxPort,tpld) rx counters: rx frames,
// sequence-error/loss counter, jitter, latency, and FCS errors (spec
// §4.2.3 "Stream statistics query").
func (s *Stream) GetRxStats(ctx context.Context, rxPort *Port, tpldID int) (RxStats, error) {
	data, err := rxPort.Chassis.Call(ctx, "stream.statistics.rx.get", struct {
		Pair   ModulePortPair `json:"pair"`
		TPLDID int            `json:"tpldId"`
	}{Pair: rxPort.Pair, TPLDID: tpldID})
	if err != nil {
		return RxStats{}, err
	}
	var res RxStats
	if err := json.Unmarshal(data, &res); err != nil {
		return RxStats{}, &coreerrors.TransportError{Op: "stream.statistics.rx.get", Err: err}
	}
	return res, nil
}
