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

// DelayData is a latency- or jitter-style min/avg/max triple, invalid until
// at least one sample has been folded in (spec §4.2.3 "DelayData
// {min, avg, max, is_valid}").
type DelayData struct {
	MinNs   float64
	AvgNs   float64
	MaxNs   float64
	IsValid bool
}

// DelayCounter accumulates DelayData samples across polls, tracking a
// running average the way the teacher's receiver.go folds in successive
// latency samples rather than replacing them.
type DelayCounter struct {
	data    DelayData
	samples int
}

// Update folds in one poll's (min, avg, max) sample.
func (c *DelayCounter) Update(minNs, avgNs, maxNs float64) {
	if !c.data.IsValid {
		c.data = DelayData{MinNs: minNs, AvgNs: avgNs, MaxNs: maxNs, IsValid: true}
		c.samples = 1
		return
	}
	if minNs < c.data.MinNs {
		c.data.MinNs = minNs
	}
	if maxNs > c.data.MaxNs {
		c.data.MaxNs = maxNs
	}
	c.data.AvgNs = (c.data.AvgNs*float64(c.samples) + avgNs) / float64(c.samples+1)
	c.samples++
}

// Value returns the accumulated DelayData.
func (c *DelayCounter) Value() DelayData { return c.data }

// StreamCounter is the per-rx-port accumulator a stream's statistics query
// folds into: rx frames, loss, latency/jitter, FCS errors (spec §4.2.3).
type StreamCounter struct {
	TxFrames    int64
	RxFrames    int64
	BurstFrames int64
	LossFrames  int64

	Latency DelayCounter
	Jitter  DelayCounter

	FCSErrorCount int64
}

// PRStatistic is one rx-port's resolved view of a stream: what §3 calls the
// per-rx PRStream result, folded down to the numbers a pass/fail predicate
// reads.
type PRStatistic struct {
	RxPortName string
	RxFrames   int64
	TxFrames   int64
	LossFrames int64
	LossRatio  float64
	Latency    DelayData
	Jitter     DelayData
	FCSErrors  int64
}

// NewPRStatistic derives loss_ratio = lossFrames / txFrames, clamped to zero when
// txFrames is zero to avoid a divide-by-zero on an unstarted stream.
func NewPRStatistic(rxPortName string, txFrames, rxFrames, lossFrames int64, latency, jitter DelayData, fcsErrors int64) PRStatistic {
	var ratio float64
	if txFrames > 0 {
		ratio = float64(lossFrames) / float64(txFrames)
	}
	return PRStatistic{
		RxPortName: rxPortName,
		RxFrames:   rxFrames,
		TxFrames:   txFrames,
		LossFrames: lossFrames,
		LossRatio:  ratio,
		Latency:    latency,
		Jitter:     jitter,
		FCSErrors:  fcsErrors,
	}
}

// Aggregate combines several PRStatistic (one modifier-based stream fans
// out to many rx ports sharing one tpld) into a single summary: frame
// counters sum, loss ratio is recomputed from the summed counters, and
// latency/jitter bounds widen to cover every constituent (spec §4.2.3
// "in modifier-based mode the port aggregate is the result").
func Aggregate(stats []PRStatistic) PRStatistic {
	if len(stats) == 0 {
		return PRStatistic{}
	}
	if len(stats) == 1 {
		return stats[0]
	}

	var agg PRStatistic
	agg.RxPortName = "aggregate"
	latency := DelayData{}
	jitter := DelayData{}
	for i, s := range stats {
		agg.TxFrames += s.TxFrames
		agg.RxFrames += s.RxFrames
		agg.LossFrames += s.LossFrames
		agg.FCSErrors += s.FCSErrors

		if i == 0 {
			latency = s.Latency
			jitter = s.Jitter
			continue
		}
		if s.Latency.IsValid {
			if !latency.IsValid || s.Latency.MinNs < latency.MinNs {
				latency.MinNs = s.Latency.MinNs
			}
			if s.Latency.MaxNs > latency.MaxNs {
				latency.MaxNs = s.Latency.MaxNs
			}
			latency.AvgNs = (latency.AvgNs + s.Latency.AvgNs) / 2
			latency.IsValid = true
		}
		if s.Jitter.IsValid {
			if !jitter.IsValid || s.Jitter.MinNs < jitter.MinNs {
				jitter.MinNs = s.Jitter.MinNs
			}
			if s.Jitter.MaxNs > jitter.MaxNs {
				jitter.MaxNs = s.Jitter.MaxNs
			}
			jitter.AvgNs = (jitter.AvgNs + s.Jitter.AvgNs) / 2
			jitter.IsValid = true
		}
	}
	agg.Latency = latency
	agg.Jitter = jitter
	if agg.TxFrames > 0 {
		agg.LossRatio = float64(agg.LossFrames) / float64(agg.TxFrames)
	}
	return agg
}
