package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsWhenFuncReportsDone(t *testing.T) {
	var ticks int
	err := Run(context.Background(), time.Millisecond, func(ctx context.Context) (bool, error) {
		ticks++
		return ticks >= 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ticks)
}

func TestRunPropagatesFuncError(t *testing.T) {
	wantErr := errors.New("boom")
	err := Run(context.Background(), time.Millisecond, func(ctx context.Context) (bool, error) {
		return false, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, time.Millisecond, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
