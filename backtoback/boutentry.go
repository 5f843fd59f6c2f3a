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
// Package backtoback implements the back-to-back test's binary-search
// burst-size controller (spec §4.4): for one port at one frame size, it
// narrows a [left_bound, right_bound] burst-size window until it converges
// on the largest burst the DUT forwards with zero loss, within the
// configured resolution.
package backtoback

// BoutEntry tracks one port's binary search across a single frame size's
// back-to-back bout (spec §3 "BackToBackBoutEntry", §4.4). Burst sizes are
// carried as float64 throughout, matching the source's non-integer
// midpoint arithmetic; callers round Current to an integer frame count
// only when submitting it to the driver.
type BoutEntry struct {
	burstResolution float64

	leftBound  float64
	rightBound float64

	Current float64
	Next    float64

	// LastMove is -1 after a left-bound move (loss-free, search upward),
	// +1 after a right-bound move (loss seen, search downward), or 0
	// before the first update.
	LastMove int

	// PortShouldContinue is true when another iteration is needed.
	PortShouldContinue bool
	// PortTestPassed is true once the search has converged.
	PortTestPassed bool
}

// NewBoutEntry seeds the search window at actualDurationSec * ratePct / 100,
// the source's starting burst size (spec §4.4): with no prior measurement,
// the first probe is the full-rate burst the configured duration would
// carry.
func NewBoutEntry(actualDurationSec, ratePct, burstResolution float64) *BoutEntry {
	start := actualDurationSec * ratePct / 100.0
	return &BoutEntry{
		burstResolution: burstResolution,
		rightBound:      start,
		Current:         start,
		Next:            start,
	}
}

// UpdateBoundaries folds in this iteration's measurement and advances the
// search (spec §4.4, step 1-3). hasStatistic/isFinal mirror the source's
// "no statistic yet, or not yet final" escape hatch: while either is
// false, the bout keeps polling at the same burst size and returns before
// reaching step 3, since there is nothing yet to narrow the window with.
func (b *BoutEntry) UpdateBoundaries(hasStatistic, isFinal bool, lossRatio float64) {
	b.PortShouldContinue = false
	b.PortTestPassed = false

	if !hasStatistic || !isFinal {
		b.PortShouldContinue = true
		return
	}

	if b.leftBound <= b.rightBound {
		if lossRatio == 0.0 {
			b.updateLeftBound()
		} else {
			b.updateRightBound()
		}
		if b.compareSearchPointer() {
			b.PortTestPassed = true
		} else {
			b.PortShouldContinue = true
		}
	}
	b.Current = b.Next
}

// updateLeftBound records a loss-free result: the window's floor rises to
// the current burst size and the next probe is the midpoint above it
// (spec §4.4 "update_left_bound").
func (b *BoutEntry) updateLeftBound() {
	b.leftBound = b.Current
	b.Next = (b.leftBound + b.rightBound) / 2
	b.LastMove = -1
}

// updateRightBound records a lossy result: the window's ceiling falls to
// the current burst size and the next probe is the midpoint below it
// (spec §4.4 "update_right_bound").
func (b *BoutEntry) updateRightBound() {
	b.rightBound = b.Current
	b.Next = (b.leftBound + b.rightBound) / 2
	b.LastMove = 1
}

// compareSearchPointer reports whether the search has converged within
// burstResolution, snapping Current to whichever bound the next probe
// nearly reaches (spec §4.4 "compare_search_pointer").
func (b *BoutEntry) compareSearchPointer() bool {
	res := b.burstResolution
	if abs(b.Next-b.Current) <= res {
		if b.Next >= b.Current {
			if b.rightBound-b.Current <= res {
				b.Current = b.rightBound
			}
		} else {
			if b.Current-b.leftBound <= res {
				b.Current = b.leftBound
			}
		}
		return true
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
