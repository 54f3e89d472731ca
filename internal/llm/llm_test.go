package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottledSpacesCalls(t *testing.T) {
	var stamps []time.Time
	g := Throttled(GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		stamps = append(stamps, time.Now())
		return "ok", nil
	}), NewLimiter(50*time.Millisecond, 1))

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "p")
		require.NoError(t, err)
	}
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[0]), 90*time.Millisecond)
}

func TestThrottledHonoursCancel(t *testing.T) {
	lim := NewLimiter(time.Hour, 1)
	require.True(t, lim.Allow()) // drain the burst
	g := Throttled(GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("must not be called")
		return "", nil
	}), lim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "p")
	require.Error(t, err)
}

func TestZeroDelayIsUnlimited(t *testing.T) {
	lim := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, lim.Allow())
	}
}

func TestWithRetry(t *testing.T) {
	calls := 0
	flaky := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("503 unavailable")
		}
		return "Title: x", nil
	})

	out, err := WithRetry(flaky, 3, time.Millisecond, zerolog.Nop()).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Title: x", out)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	broken := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("quota exceeded")
	})
	_, err := WithRetry(broken, 2, time.Millisecond, zerolog.Nop()).Generate(context.Background(), "p")
	require.EqualError(t, err, "quota exceeded")
	assert.Equal(t, 2, calls)
}

func TestWithRetrySingleAttemptIsPassthrough(t *testing.T) {
	g := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) { return "x", nil })
	_, isRetrying := WithRetry(g, 1, time.Second, zerolog.Nop()).(*retrying)
	assert.False(t, isRetrying)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	require.Error(t, err)
}
