package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateSingleStatReturnsItUnchanged(t *testing.T) {
	stat := NewPRStatistic("port0", 100, 90, 10, DelayData{IsValid: true}, DelayData{IsValid: true}, 0)
	assert.Equal(t, stat, Aggregate([]PRStatistic{stat}))
}

func TestAggregateSumsCountersAcrossRxPorts(t *testing.T) {
	a := NewPRStatistic("a", 100, 90, 10, DelayData{MinNs: 10, AvgNs: 20, MaxNs: 30, IsValid: true}, DelayData{IsValid: true}, 1)
	b := NewPRStatistic("b", 100, 95, 5, DelayData{MinNs: 5, AvgNs: 15, MaxNs: 25, IsValid: true}, DelayData{IsValid: true}, 2)

	agg := Aggregate([]PRStatistic{a, b})
	assert.Equal(t, int64(200), agg.TxFrames)
	assert.Equal(t, int64(185), agg.RxFrames)
	assert.Equal(t, int64(15), agg.LossFrames)
	assert.Equal(t, int64(3), agg.FCSErrors)
	assert.Equal(t, float64(5), agg.Latency.MinNs)
	assert.Equal(t, float64(30), agg.Latency.MaxNs)
	assert.InDelta(t, 15.0/200.0, agg.LossRatio, 1e-9)
}

func TestAggregateEmptyReturnsZeroValue(t *testing.T) {
	assert.Equal(t, PRStatistic{}, Aggregate(nil))
}

func TestDelayCounterUpdateTracksRunningBounds(t *testing.T) {
	var c DelayCounter
	c.Update(10, 20, 30)
	c.Update(5, 40, 50)
	v := c.Value()
	assert.Equal(t, float64(5), v.MinNs)
	assert.Equal(t, float64(50), v.MaxNs)
	assert.True(t, v.IsValid)
}
