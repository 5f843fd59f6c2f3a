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
package backtoback

import (
	"context"
	"math"
	"time"

	"github.com/xenadevel/rfc2544-core/internal/metrics"
	"github.com/xenadevel/rfc2544-core/resource"
)

// PortSearch pairs one tx port with its independent binary search (spec
// §4.4 "per tx port, independent binary search").
type PortSearch struct {
	Port  *resource.PortStruct
	Entry *BoutEntry
}

func lossRatio(stat resource.Statistic) float64 {
	if stat.TxFrames == 0 {
		return 0
	}
	return float64(stat.LossFrames) / float64(stat.TxFrames)
}

// Run drives every tx port's search to convergence. Each round, every
// still-searching port gets its own frame limit set to its current probe
// burst size, traffic runs until every port has sent its limit and stopped, and each
// port's statistic folds into its own BoutEntry — so one port reaching
// port_test_passed never blocks another's continuing search (spec §4.4).
func Run(ctx context.Context, rm *resource.ResourceManager, packetSize int, actualDuration time.Duration, ratePct, burstResolution float64, sleep func(time.Duration), reg *metrics.Registry) ([]PortSearch, error) {
	searches := make([]PortSearch, 0, len(rm.TxPorts()))
	for _, p := range rm.TxPorts() {
		searches = append(searches, PortSearch{
			Port:  p,
			Entry: NewBoutEntry(actualDuration.Seconds(), ratePct, burstResolution),
		})
	}

	if err := rm.SetRate(ctx, ratePct); err != nil {
		return nil, err
	}

	for {
		pending := pendingSearches(searches)
		if len(pending) == 0 {
			return searches, nil
		}

		limits := make(map[*resource.PortStruct]int, len(pending))
		for _, s := range pending {
			limits[s.Port] = int(math.Round(s.Entry.Current))
		}
		if err := rm.SetFrameLimits(ctx, limits); err != nil {
			return nil, err
		}

		if err := rm.StartTraffic(ctx, false); err != nil {
			return nil, err
		}
		for rm.AnyTrafficRunning() {
			if err := rm.QueryTrafficStatus(ctx); err != nil {
				return nil, err
			}
			sleep(100 * time.Millisecond)
		}
		if err := rm.Collect(ctx, packetSize, actualDuration, true); err != nil {
			return nil, err
		}
		reg.BackToBackIterations.Inc()

		for _, s := range pending {
			stat := s.Port.Statistic.Snapshot()
			s.Entry.UpdateBoundaries(true, true, lossRatio(stat))
			s.Port.Statistic.Reset()
		}
	}
}

func pendingSearches(searches []PortSearch) []PortSearch {
	pending := make([]PortSearch, 0, len(searches))
	for _, s := range searches {
		if !s.Entry.PortTestPassed {
			pending = append(pending, s)
		}
	}
	return pending
}
