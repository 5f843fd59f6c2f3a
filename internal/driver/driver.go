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
// Package driver implements the upstream driver façade consumed by the
// Resource Manager and Stream Engine (see spec §6, "Upstream driver
// façade"). It stands in for the real chassis RPC transport (an
// RPC-like façade exposing request batches over a persistent connection
// to each chassis). The wire pattern — a ZeroMQ REQ socket exchanging
// JSON request/ack/nack envelopes — is grounded in the teacher's
// DeviceUnderTest façade (deviceundertest.go), generalized from a single
// fire-and-forget event trigger to a batched request/reply driver that
// a chassis connection can apply in submission order.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/xenadevel/rfc2544-core/internal/corelog"
	"github.com/xenadevel/rfc2544-core/internal/coreerrors"
)

// Request is one call to be issued against a chassis connection, addressed
// by dotted operation name (e.g. "traffic.set", "port.stream.create").
// Args is marshaled to JSON the same way the teacher's dutMsg envelope
// carries an arbitrary Args payload.
type Request struct {
	Op   string      `json:"op"`
	Args interface{} `json:"args"`
}

// envelope is the wire message exchanged with the chassis. EvtType mirrors
// the teacher's dutMsg.EvtType discriminator ("ack"/"nack"/the request op).
type envelope struct {
	EvtType string          `json:"evtType"`
	Args    json.RawMessage `json:"args"`
}

// Chassis is the per-chassis connection to the port-driver transport. All
// commands submitted through Apply are delivered in submission order and
// their effects are observable before Apply returns (spec §5 "Ordering
// guarantees"). Implementations must serialize request submission per
// chassis; Chassis achieves this with a single mutex-guarded socket, the
// same single-writer discipline the teacher uses for its one DuT socket.
type Chassis struct {
	ID   string
	addr string

	mu   sync.Mutex
	sock *zmq.Socket
}

// Dial connects to a chassis's driver endpoint at tcp://host:port.
func Dial(id, host string, port uint16) (*Chassis, error) {
	sock, err := zmq.NewSocket(zmq.REQ)
	if err != nil {
		return nil, &coreerrors.TransportError{Op: "zmq.NewSocket", Err: err}
	}

	addr := fmt.Sprintf("tcp://%s:%d", host, port)
	if err := sock.Connect(addr); err != nil {
		return nil, &coreerrors.TransportError{Op: "zmq.Connect", Err: err}
	}

	return &Chassis{ID: id, addr: addr, sock: sock}, nil
}

// Close disconnects from the chassis.
func (c *Chassis) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock == nil {
		return nil
	}
	err := c.sock.Disconnect(c.addr)
	c.sock = nil
	if err != nil {
		return &coreerrors.TransportError{Op: "zmq.Disconnect", Err: err}
	}
	return nil
}

// call issues a single request and waits for its reply. It must be called
// with c.mu held.
func (c *Chassis) call(ctx context.Context, req Request) (json.RawMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, &coreerrors.TransportError{Op: req.Op, Err: err}
	}

	if _, err := c.sock.SendBytes(data, 0); err != nil {
		return nil, &coreerrors.TransportError{Op: req.Op, Err: err}
	}

	respData, err := c.sock.RecvBytes(0)
	if err != nil {
		return nil, &coreerrors.TransportError{Op: req.Op, Err: err}
	}

	var resp envelope
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, &coreerrors.TransportError{Op: req.Op, Err: err}
	}

	switch resp.EvtType {
	case "ack":
		return resp.Args, nil
	case "nack":
		var nackArgs struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(resp.Args, &nackArgs)
		return nil, &coreerrors.TransportError{
			Op:  req.Op,
			Err: fmt.Errorf("chassis %q reported: %s", c.ID, nackArgs.Reason),
		}
	default:
		return nil, &coreerrors.TransportError{
			Op:  req.Op,
			Err: fmt.Errorf("unexpected response type %q", resp.EvtType),
		}
	}
}

// Call issues a single request against the chassis, serialized against any
// concurrent Apply/Call on the same Chassis.
func (c *Chassis) Call(ctx context.Context, op string, args interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call(ctx, Request{Op: op, Args: args})
}

// Apply submits a batch of requests in order and waits for every reply
// before returning, matching the driver's apply/batch facility semantics
// from spec §5: per-chassis submission order is preserved and each
// request's effect is observable before Apply returns. The first error
// aborts the remaining requests in the batch.
func (c *Chassis) Apply(ctx context.Context, reqs ...Request) ([]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batchID := uuid.NewString()
	corelog.Default.LogFields(corelog.LevelDebug, "applying batch",
		zap.String("chassis_id", c.ID), zap.String("batch_id", batchID), zap.Int("request_count", len(reqs)))

	results := make([]json.RawMessage, 0, len(reqs))
	for _, req := range reqs {
		data, err := c.call(ctx, req)
		if err != nil {
			corelog.Default.LogFields(corelog.LevelWarn, "batch request failed",
				zap.String("chassis_id", c.ID), zap.String("batch_id", batchID), zap.String("op", req.Op), zap.Error(err))
			return results, err
		}
		results = append(results, data)
	}
	return results, nil
}

// TimeResult is the reply shape of the "time.get" operation.
type TimeResult struct {
	LocalTime time.Time `json:"localTime"`
}

// GetTime returns the chassis's local clock, used to compute the
// scheduled-start absolute time for multi-chassis synchronized start
// (spec §4.1 start_traffic).
func (c *Chassis) GetTime(ctx context.Context) (time.Time, error) {
	data, err := c.Call(ctx, "time.get", nil)
	if err != nil {
		return time.Time{}, err
	}
	var res TimeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return time.Time{}, &coreerrors.TransportError{Op: "time.get", Err: err}
	}
	return res.LocalTime, nil
}

// ModulePortPair addresses a (module index, port index) pair on a chassis.
type ModulePortPair struct {
	ModuleIndex int
	PortIndex   int
}

func (p ModulePortPair) String() string {
	return fmt.Sprintf("%d/%d", p.ModuleIndex, p.PortIndex)
}

// SetTraffic issues the chassis-level "start/stop these module,port pairs"
// command, atomic on that chassis (spec §4.1 start_traffic, port_sync=true,
// single-chassis case).
func (c *Chassis) SetTraffic(ctx context.Context, on bool, pairs []ModulePortPair) error {
	_, err := c.Call(ctx, "traffic.set", struct {
		On    bool             `json:"on"`
		Pairs []ModulePortPair `json:"pairs"`
	}{On: on, Pairs: pairs})
	return err
}

// SetTrafficSync issues a scheduled-start command with an absolute start
// time, used for cross-chassis synchronized start (spec §4.1).
func (c *Chassis) SetTrafficSync(ctx context.Context, on bool, when time.Time, pairs []ModulePortPair) error {
	_, err := c.Call(ctx, "traffic_sync.set", struct {
		On    bool             `json:"on"`
		When  time.Time        `json:"when"`
		Pairs []ModulePortPair `json:"pairs"`
	}{On: on, When: when, Pairs: pairs})
	return err
}
