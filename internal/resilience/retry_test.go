package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickConfig(maxAttempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.InitialBackoff = time.Microsecond
	cfg.MaxBackoff = time.Microsecond
	cfg.JitterMin = 0
	cfg.JitterMax = time.Microsecond
	return cfg
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := DoVal(context.Background(), quickConfig(4), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 4 {
			return "", errors.New("http 500")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 4, attempts)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := DoVal(context.Background(), quickConfig(3), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("http 500")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoVal_PermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := DoVal(context.Background(), quickConfig(5), func(ctx context.Context) (int, error) {
		attempts++
		return 0, NewPermanentError(errors.New("http 404"), 404)
	})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, attempts)
}

func TestDoVal_FatalErrorStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := DoVal(context.Background(), quickConfig(5), func(ctx context.Context) (int, error) {
		attempts++
		return 0, NewFatalError(errors.New("connection reset by peer"))
	})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts)
}

func TestDoVal_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	_, err := DoVal(ctx, quickConfig(5), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("http 500")
	})
	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 1)
}

func TestComputeBackoff_GrowthAndCap(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = 10 * time.Second
	cfg.Multiplier = 1.5
	cfg.JitterMin = 500 * time.Millisecond
	cfg.JitterMax = 1500 * time.Millisecond

	prevBase := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		d := computeBackoff(attempt, cfg)
		assert.GreaterOrEqual(t, d, cfg.JitterMin)
		assert.LessOrEqual(t, d, cfg.MaxBackoff+cfg.JitterMax)
		base := d - cfg.JitterMax
		if base > prevBase {
			prevBase = base
		}
	}
	// Late attempts sit at the cap plus jitter.
	late := computeBackoff(20, cfg)
	assert.LessOrEqual(t, late, cfg.MaxBackoff+cfg.JitterMax)
	assert.GreaterOrEqual(t, late, cfg.MaxBackoff+cfg.JitterMin)
}

func TestErrorClassification(t *testing.T) {
	plain := errors.New("dial tcp: connection refused")
	assert.True(t, IsTransient(plain))
	assert.False(t, IsPermanent(plain))
	assert.False(t, IsFatal(plain))

	perm := NewPermanentError(errors.New("http 403"), 403)
	assert.False(t, IsTransient(perm))
	assert.True(t, IsPermanent(perm))

	fatal := NewFatalError(errors.New("connection reset by peer"))
	assert.False(t, IsTransient(fatal))
	assert.True(t, IsFatal(fatal))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
