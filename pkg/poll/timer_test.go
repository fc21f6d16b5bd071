package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	t.Parallel()

	type testCase struct {
		Retry  int
		Expect time.Duration
	}

	const maxRetry = 5

	testCases := []testCase{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 32 * time.Second},
	}
	for _, testCase := range testCases {
		timer := &Timer{
			BaseDuration: time.Second,
			MaxRetry:     maxRetry,
		}
		for i := 0; i < testCase.Retry; i++ {
			timer.Increase()
		}
		assert.Equal(t, testCase.Expect, timer.Duration())

		timer.Reset()
		assert.Equal(t, time.Second, timer.Duration())
	}
}

func TestTimer_ZeroMaxRetryKeepsBase(t *testing.T) {
	t.Parallel()

	timer := &Timer{BaseDuration: 3 * time.Second}
	timer.Increase()
	timer.Increase()

	assert.Equal(t, 3*time.Second, timer.Duration())
}

func TestTimer_Wait(t *testing.T) {
	t.Parallel()

	timer := &Timer{BaseDuration: time.Millisecond}
	require.NoError(t, timer.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &Timer{BaseDuration: time.Hour}
	require.ErrorIs(t, slow.Wait(ctx), context.Canceled)
}
