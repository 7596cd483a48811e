package gopool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var count int32
	task := func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	}
	require.NoError(t, Run(context.Background(), task, task, task))
	assert.Equal(t, int32(3), count)
	require.NoError(t, Run(context.Background()))
}

func TestRunCollectsErrors(t *testing.T) {
	errA := errors.New("a")
	cancelled := make(chan error, 1)
	block := make(chan struct{})

	err := Run(context.Background(),
		func(ctx context.Context) error {
			<-block
			return errA
		},
		func(ctx context.Context) error {
			close(block)
			<-ctx.Done()
			cancelled <- ctx.Err()
			return nil
		},
	)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, <-cancelled, context.Canceled)
}
