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
package stream

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
)

// PRStream is one rx port's view of a StreamStruct: the rx port handle and
// the tpld id the stream is tagged with, used to demultiplex it from every
// other stream landing on the same port (spec §3 "StreamStruct").
type PRStream struct {
	RxPort *driver.Port
	TPLDID int

	lastStatistic PRStatistic
	hasStatistic  bool
}

// Query fetches this stream's rx-side counters for this rx port.
func (p *PRStream) Query(ctx context.Context, s *driver.Stream, txFrames int64) (PRStatistic, error) {
	rx, err := s.GetRxStats(ctx, p.RxPort, p.TPLDID)
	if err != nil {
		return PRStatistic{}, fmt.Errorf("query rx stats: %w", err)
	}
	latency := DelayData{MinNs: rx.LatencyMinNs, AvgNs: rx.LatencyAvgNs, MaxNs: rx.LatencyMaxNs, IsValid: true}
	jitter := DelayData{MinNs: rx.JitterMinNs, AvgNs: rx.JitterAvgNs, MaxNs: rx.JitterMaxNs, IsValid: true}
	stat := NewPRStatistic(p.RxPort.Pair.String(), txFrames, rx.Frames, rx.LossFrames, latency, jitter, rx.FCSErrorCount)
	p.lastStatistic = stat
	p.hasStatistic = true
	return stat, nil
}

// LastStatistic returns the most recent query result, or false if none has
// landed yet.
func (p *PRStream) LastStatistic() (PRStatistic, bool) { return p.lastStatistic, p.hasStatistic }

// StreamStruct is one tx flow destined to one or more rx ports, tagged by a
// unique tpld id (spec §3 "StreamStruct").
type StreamStruct struct {
	Handle *driver.Stream

	StreamID int
	TPLDID   int

	AddressCollection model.AddressCollection
	PacketHeader      []byte
	FrameLimit        int

	PRStreams []*PRStream

	// bestResult caches the single PRStream's statistic in stream-based
	// mode, where only one rx port exists per stream (spec §4.2.3 "A
	// stream's best_result ... is captured from the first PRStream").
	bestResult    PRStatistic
	hasBestResult bool
}

// NewStreamStruct wires a freshly allocated driver stream handle to its
// tpld id and rx fan-out.
func NewStreamStruct(handle *driver.Stream, tpldID int, prStreams []*PRStream) *StreamStruct {
	return &StreamStruct{Handle: handle, StreamID: handle.StreamID, TPLDID: tpldID, PRStreams: prStreams}
}

// Query concurrently fetches tx and every rx-side counter for this stream
// and folds the result into PRStatistic views, per spec §4.2.3.
func (s *StreamStruct) Query(ctx context.Context) ([]PRStatistic, error) {
	tx, err := s.Handle.GetTxStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tx stats: %w", err)
	}

	results := make([]PRStatistic, len(s.PRStreams))
	g, gctx := errgroup.WithContext(ctx)
	for i, pr := range s.PRStreams {
		i, pr := i, pr
		g.Go(func() error {
			stat, err := pr.Query(gctx, s.Handle, tx.Frames)
			if err != nil {
				return err
			}
			results[i] = stat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(results) > 0 {
		s.bestResult = results[0]
		s.hasBestResult = true
	}
	return results, nil
}

// BestResult returns the stream's best_result, meaningful only in
// stream-based flow creation where exactly one rx port exists per stream
// (spec §4.2.3).
func (s *StreamStruct) BestResult() (PRStatistic, bool) { return s.bestResult, s.hasBestResult }

// AggregateResult combines every PRStream's statistic into one summary,
// the view modifier-based flow creation reports per port (spec §4.2.3 "in
// modifier-based mode the port aggregate is the result").
func (s *StreamStruct) AggregateResult() PRStatistic {
	stats := make([]PRStatistic, 0, len(s.PRStreams))
	for _, pr := range s.PRStreams {
		if st, ok := pr.LastStatistic(); ok {
			stats = append(stats, st)
		}
	}
	return Aggregate(stats)
}
