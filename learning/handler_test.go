package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fakeTokens(n int, rxOnly ...int) []AddressRefreshToken {
	rx := map[int]bool{}
	for _, i := range rxOnly {
		rx[i] = true
	}
	tokens := make([]AddressRefreshToken, n)
	for i := range tokens {
		tokens[i] = AddressRefreshToken{IsRxOnly: rx[i]}
	}
	return tokens
}

func TestCalcRefreshIntervalAboveFloorUsesBurstSizeOne(t *testing.T) {
	h := NewAddressRefreshHandler(fakeTokens(5), 1000)
	assert.Equal(t, 200*time.Millisecond, h.Interval())
	assert.Equal(t, 1, h.burstSize)
}

func TestCalcRefreshIntervalBelowFloorClampsAndGroupsIntoBurst(t *testing.T) {
	h := NewAddressRefreshHandler(fakeTokens(5), 50)
	assert.Equal(t, 100*time.Millisecond, h.Interval())
	assert.Equal(t, 10, h.burstSize)
}

func TestGetBatchAdvancesCircularlyAndWraps(t *testing.T) {
	h := NewAddressRefreshHandler(fakeTokens(3), 3000)
	h.burstSize = 2

	first := h.GetBatch()
	assert.Len(t, first, 2)

	second := h.GetBatch()
	assert.Len(t, second, 1, "only one token left before wrapping")

	third := h.GetBatch()
	assert.Len(t, third, 2, "wrapped back to the start")
}

func TestSetStateRunningTestRestrictsToRxOnlyTokens(t *testing.T) {
	h := NewAddressRefreshHandler(fakeTokens(4, 1, 3), 4000)
	h.SetState(StateRunningTest)
	assert.Len(t, h.Tokens(), 2)
	for _, tok := range h.Tokens() {
		assert.True(t, tok.IsRxOnly)
	}
}

func TestSetStateL3LearningRestoresFullTokenSet(t *testing.T) {
	h := NewAddressRefreshHandler(fakeTokens(4, 1, 3), 4000)
	h.SetState(StateRunningTest)
	h.SetState(StateL3Learning)
	assert.Len(t, h.Tokens(), 4)
}
