package backtoback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xenadevel/rfc2544-core/resource"
)

func TestPendingSearchesExcludesPassedPorts(t *testing.T) {
	passed := PortSearch{Entry: &BoutEntry{PortTestPassed: true}}
	active := PortSearch{Entry: &BoutEntry{PortTestPassed: false}}

	pending := pendingSearches([]PortSearch{passed, active})

	assert.Len(t, pending, 1)
	assert.Same(t, active.Entry, pending[0].Entry)
}

func TestLossRatioIsZeroWithNoTxFrames(t *testing.T) {
	assert.Equal(t, 0.0, lossRatio(resource.Statistic{}))
}

func TestLossRatioDividesLossByTx(t *testing.T) {
	stat := resource.Statistic{TxFrames: 200, LossFrames: 50}
	assert.Equal(t, 0.25, lossRatio(stat))
}
