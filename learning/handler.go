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
	"math"
	"time"

	"github.com/xenadevel/rfc2544-core/resource"
)

// AddressRefreshToken binds one derived learning packet to the port that
// must transmit it, plus whether that port carries no tx streams of its
// own (spec §3 ArpRefreshData.IsRxOnly).
type AddressRefreshToken struct {
	Port     *resource.PortStruct
	Packet   []byte
	IsRxOnly bool
}

// State selects which token subset an AddressRefreshHandler paces (spec
// §4.3 AddressRefreshHandler).
type State int

const (
	// StateL3Learning runs every token, full and rx-only alike, during the
	// L3 learning preamble.
	StateL3Learning State = iota
	// StateRunningTest runs only rx-only tokens once the measurement is
	// underway: a port with its own tx streams keeps its neighbor entries
	// warm through ordinary traffic, so refreshing it again is redundant.
	StateRunningTest
)

// MinRefreshIntervalMs is the scheduler's floor tick period (spec §4.3,
// §8 testable property "address-refresh interval"): below it, multiple
// tokens are grouped into one burst per tick instead of shortening the
// tick further.
const MinRefreshIntervalMs = 100

// AddressRefreshHandler paces address-refresh bursts across a token set so
// every token is retransmitted roughly once per refresh period, without
// ticking more often than once per MinRefreshIntervalMs (spec §4.3
// AddressRefreshHandler, §8 testable property "address-refresh interval").
type AddressRefreshHandler struct {
	allTokens []AddressRefreshToken

	tokens    []AddressRefreshToken
	index     int
	burstSize int
	interval  time.Duration

	// refreshPeriodMs is the configured arp_refresh_period in milliseconds.
	// Despite its "_second" name in the originating configuration, the
	// source's interval formula consumes it directly as milliseconds (spec
	// §8 testable property "address-refresh interval": refresh_period=1000ms,
	// 5 tokens -> interval=200ms).
	refreshPeriodMs float64

	state State
}

// NewAddressRefreshHandler builds a handler over tokens, paced to recover
// every token once per refreshPeriodMs milliseconds.
func NewAddressRefreshHandler(tokens []AddressRefreshToken, refreshPeriodMs float64) *AddressRefreshHandler {
	h := &AddressRefreshHandler{
		allTokens:       tokens,
		burstSize:       1,
		refreshPeriodMs: refreshPeriodMs,
	}
	h.SetState(StateL3Learning)
	return h
}

// SetState selects the active token subset and recomputes the interval and
// burst size against its new size (spec §4.3 "set_current_state").
func (h *AddressRefreshHandler) SetState(state State) *AddressRefreshHandler {
	h.state = state
	if state == StateL3Learning {
		h.tokens = h.allTokens
	} else {
		rxOnly := make([]AddressRefreshToken, 0, len(h.allTokens))
		for _, tok := range h.allTokens {
			if tok.IsRxOnly {
				rxOnly = append(rxOnly, tok)
			}
		}
		h.tokens = rxOnly
	}
	h.index = 0
	h.calcRefreshInterval()
	return h
}

// calcRefreshInterval derives interval/burst_size from refreshPeriodMs and
// the active token count (spec §8 testable property "address-refresh
// interval"):
//
//	interval = floor(refresh_period_ms / token_count)
//	if interval < MinRefreshIntervalMs:
//	    burst_size = ceil(MinRefreshIntervalMs / interval)
//	    interval   = MinRefreshIntervalMs
//	else:
//	    burst_size = 1
func (h *AddressRefreshHandler) calcRefreshInterval() {
	n := len(h.tokens)
	if n == 0 {
		h.burstSize = 1
		h.interval = 0
		return
	}
	intervalMs := math.Floor(h.refreshPeriodMs / float64(n))
	if intervalMs <= 0 {
		intervalMs = 1
	}
	if intervalMs < MinRefreshIntervalMs {
		h.burstSize = int(math.Ceil(MinRefreshIntervalMs / intervalMs))
		intervalMs = MinRefreshIntervalMs
	} else {
		h.burstSize = 1
	}
	h.interval = time.Duration(intervalMs * float64(time.Millisecond))
}

// Interval is the tick period the caller's scheduler loop should use.
func (h *AddressRefreshHandler) Interval() time.Duration { return h.interval }

// Tokens returns the active token set (for callers that need to fire every
// token once, e.g. the L3 learning preamble's initial full batch).
func (h *AddressRefreshHandler) Tokens() []AddressRefreshToken { return h.tokens }

// GetBatch returns up to burstSize tokens from the active set, starting at
// the circular index (spec §4.3 "get_batch()"). A batch stops at the end
// of the set, so the last one can be shorter; the next call starts again
// from the first token.
func (h *AddressRefreshHandler) GetBatch() []AddressRefreshToken {
	if len(h.tokens) == 0 {
		return nil
	}
	if h.index >= len(h.tokens) {
		h.index = 0
	}
	batch := make([]AddressRefreshToken, 0, h.burstSize)
	for i := 0; i < h.burstSize && h.index < len(h.tokens); i++ {
		batch = append(batch, h.tokens[h.index])
		h.index++
	}
	return batch
}
