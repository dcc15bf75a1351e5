package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func TestDoRetriesOnce(t *testing.T) {
	calls := 0
	var notified []int

	out, err := Do(context.Background(), Policy{Name: "llm", Retries: 1}, func(_ string, attempt int, _ error) {
		notified = append(notified, attempt)
	}, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errFlaky
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, notified)
}

func TestDoGivesUpAfterRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Retries: 1}, nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestDoAppliesAttemptTimeout(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Timeout: 10 * time.Millisecond}, nil, func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.True(t, IsTimeout(err))
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenParentDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{Retries: 3}, nil, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errFlaky
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoPermanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Retries: 2}, nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errFlaky)
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}
