package utils

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastRetry()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) }

	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_GivesUp(t *testing.T) {
	sentinel := errors.New("down")
	_, err := RetryWithResult(context.Background(), fastRetry(), func() (int, error) { return 0, sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorContains(t, err, "max attempts (3)")
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	cfg := fastRetry()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := Retry(context.Background(), cfg, func() error { calls++; return permanent })
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, fastRetry(), func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_Capped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 250*time.Millisecond, calculateDelay(cfg, 2))
}

func TestGenerateQuoteID(t *testing.T) {
	id := GenerateQuoteID(time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^Q-20260309-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, GenerateQuoteID(time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)))
	assert.Len(t, GenerateRequestID(), 36)
}

func TestQuoteIDDate(t *testing.T) {
	date := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	got, err := QuoteIDDate(GenerateQuoteID(date))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "Q-2026-abc", "Q-20260309-ZZZZZZZZ", "../Q-20260309-1f0c9a2b", "Q-20261399-1f0c9a2b"} {
		_, err := QuoteIDDate(bad)
		assert.Error(t, err, bad)
	}
}
