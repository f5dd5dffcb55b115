package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenshotPath_Policy(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name     string
		cfg      ScreenshotConfig
		failed   bool
		wantPath string
		wantOK   bool
	}{
		{
			name:     "failed capture with timestamp",
			cfg:      ScreenshotConfig{Dir: "shots", OnFailure: true, FailedOnly: true, Timestamped: true},
			failed:   true,
			wantPath: "shots/login_FAILED_20250314_150926.png",
			wantOK:   true,
		},
		{
			name:   "success skipped in failed-only mode",
			cfg:    ScreenshotConfig{Dir: "shots", OnFailure: true, FailedOnly: true},
			failed: false,
			wantOK: false,
		},
		{
			name:     "success captured when failed-only off",
			cfg:      ScreenshotConfig{Dir: "shots", OnFailure: true, FailedOnly: false},
			failed:   false,
			wantPath: "shots/login_SUCCESS.png",
			wantOK:   true,
		},
		{
			name:   "failure skipped when on-failure off",
			cfg:    ScreenshotConfig{Dir: "shots", OnFailure: false, FailedOnly: false},
			failed: true,
			wantOK: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path, ok := screenshotPath(test.cfg, "login", test.failed, now)
			assert.Equal(t, test.wantOK, ok)
			if test.wantOK {
				assert.Equal(t, test.wantPath, path)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	client := New(Config{RetryCount: 3, RetryDelay: time.Millisecond})

	calls := 0
	err := client.withRetry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	client := New(Config{RetryCount: 2, RetryDelay: time.Millisecond})

	boom := errors.New("boom")
	err := client.withRetry(context.Background(), "op", func() error { return boom })

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	client := New(Config{RetryCount: 5, RetryDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := client.withRetry(ctx, "op", func() error { return errors.New("always fails") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_OperationsRequireStart(t *testing.T) {
	client := New(DefaultConfig())

	err := client.Navigate(context.Background(), "https://example.com")
	assert.Error(t, err)

	_, err = client.Title(context.Background())
	assert.Error(t, err)
}

func TestClose_IdempotentWithoutStart(t *testing.T) {
	client := New(DefaultConfig())
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}
