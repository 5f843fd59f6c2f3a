package backtoback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulateLoss models a DUT that forwards bursts of up to 150 frames with
// zero loss and drops frames above that, the scenario spec's testable
// back-to-back convergence property is built around.
func simulateLoss(burst float64) float64 {
	if burst <= 150 {
		return 0.0
	}
	return 0.1
}

func TestBoutEntryConvergesWithinLogTwoOfStartingWindow(t *testing.T) {
	b := NewBoutEntry(200.0, 100.0, 1.0)
	assert.Equal(t, 200.0, b.Current)

	maxIterations := int(math.Ceil(math.Log2(200)))
	iterations := 0
	for iterations < maxIterations {
		iterations++
		b.UpdateBoundaries(true, true, simulateLoss(b.Current))
		if b.PortTestPassed {
			break
		}
		require.True(t, b.PortShouldContinue)
	}

	require.True(t, b.PortTestPassed, "expected convergence within %d iterations", maxIterations)
	assert.Equal(t, 8, iterations)
	// The final "current = next" step always runs once converged (spec §4.4
	// step 3), so the reported burst size lands within burst_resolution of
	// the 150-frame loss boundary rather than exactly on it.
	assert.InDelta(t, 150.0, b.Current, 1.0)
	assert.InDelta(t, 150.78125, b.Current, 1e-9)
}

func TestBoutEntryKeepsProbingWhileStatisticNotYetFinal(t *testing.T) {
	b := NewBoutEntry(2.0, 100.0, 1.0)
	before := b.Current

	b.UpdateBoundaries(false, false, 0)

	assert.True(t, b.PortShouldContinue)
	assert.False(t, b.PortTestPassed)
	assert.Equal(t, before, b.Current, "no statistic yet means no narrowing")
}

func TestUpdateLeftBoundOnZeroLossMovesWindowFloorUpAndSearchesUpward(t *testing.T) {
	b := &BoutEntry{burstResolution: 1.0, leftBound: 100, rightBound: 200, Current: 150}

	b.UpdateBoundaries(true, true, 0.0)

	assert.Equal(t, -1, b.LastMove)
	assert.Equal(t, 150.0, b.leftBound)
	assert.Equal(t, 175.0, b.Current)
	assert.True(t, b.PortShouldContinue)
}

func TestUpdateRightBoundOnLossMovesWindowCeilingDownAndSearchesDownward(t *testing.T) {
	b := &BoutEntry{burstResolution: 1.0, leftBound: 100, rightBound: 200, Current: 150}

	b.UpdateBoundaries(true, true, 0.05)

	assert.Equal(t, 1, b.LastMove)
	assert.Equal(t, 150.0, b.rightBound)
	assert.Equal(t, 125.0, b.Current)
	assert.True(t, b.PortShouldContinue)
}
