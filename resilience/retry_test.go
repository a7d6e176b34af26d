package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// failFor returns an operation that fails n times with err before succeeding.
func failFor(n int, err error, calls *int) func() (string, error) {
	return func() (string, error) {
		*calls++
		if *calls <= n {
			return "", err
		}
		return "ok", nil
	}
}

func TestRetry(t *testing.T) {
	reset := errors.New("connection reset")
	final := errors.New("bad request")

	tests := []struct {
		name      string
		cfg       RetryConfig
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"first attempt", DefaultRetryConfig(), 0, nil, 1, nil},
		{"recovers on third", RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}, 2, reset, 3, nil},
		{"exhausted", RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}, 5, reset, 3, reset},
		{"five attempts", RetryConfig{MaxAttempts: 5}, 10, reset, 5, reset},
		{"rejected by RetryIf", RetryConfig{MaxAttempts: 3, RetryIf: func(err error) bool { return errors.Is(err, reset) }}, 5, final, 1, final},
		{"accepted by RetryIf", RetryConfig{MaxAttempts: 3, RetryIf: func(err error) bool { return errors.Is(err, reset) }}, 1, reset, 2, nil},
		{"context errors are final", RetryConfig{MaxAttempts: 3}, 5, context.DeadlineExceeded, 1, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), tt.cfg, failFor(tt.failures, tt.err, &calls))
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("Retry() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if err == nil && got != "ok" {
				t.Errorf("unexpected result %q", got)
			}
		})
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, RetryConfig{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond}, failFor(100, errors.New("reset"), &calls))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if calls >= 10 {
		t.Errorf("expected fewer than 10 calls, got %d", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var mu sync.Mutex
	var retries []int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, _ error, _ time.Duration) {
			mu.Lock()
			retries = append(retries, attempt)
			mu.Unlock()
		},
	}

	calls := 0
	_, _ = Retry(context.Background(), cfg, failFor(10, errors.New("reset"), &calls))

	mu.Lock()
	defer mu.Unlock()
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("expected OnRetry for attempts [1 2], got %v", retries)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	op := failFor(1, errors.New("reset"), &calls)
	err := RetryFunc(context.Background(), RetryConfig{MaxAttempts: 3}, func() error {
		_, err := op()
		return err
	})
	if err != nil || calls != 2 {
		t.Errorf("expected success on the second call, got %v after %d calls", err, calls)
	}
}

func TestRetry_ZeroBackoffRetriesImmediately(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3}
	var backoffs []time.Duration
	cfg.OnRetry = func(_ int, _ error, backoff time.Duration) {
		backoffs = append(backoffs, backoff)
	}

	start := time.Now()
	callCount := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		callCount++
		return 0, errors.New("reset by peer")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
	for _, b := range backoffs {
		if b != 0 {
			t.Errorf("expected zero backoff, got %v", b)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("zero backoff should not sleep, took %v", elapsed)
	}
}

func TestRetry_DefaultMaxAttempts(t *testing.T) {
	callCount := 0
	_, _ = Retry(context.Background(), RetryConfig{}, func() (int, error) {
		callCount++
		return 0, errors.New("fail")
	})
	if callCount != 3 {
		t.Errorf("expected 3 calls by default, got %d", callCount)
	}
}

func TestRetry_CanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Retry(ctx, DefaultRetryConfig(), func() (int, error) {
		called = true
		return 0, nil
	})
	if called {
		t.Error("function should not run on a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{6, time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryConfig_Backoff_NoCap(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, BackoffFactor: 10}
	if got := cfg.Backoff(3); got != 100*time.Second {
		t.Errorf("expected 100s without a cap, got %v", got)
	}
}

func TestRetryConfig_Backoff_DefaultFactor(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second}
	if got := cfg.Backoff(2); got != 2*time.Second {
		t.Errorf("expected the factor to default to 2, got %v", got)
	}
}

func TestRetryConfig_Backoff_Jitter(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, BackoffFactor: 1, Jitter: 0.5}
	for i := 0; i < 100; i++ {
		got := cfg.Backoff(1)
		if got < 500*time.Millisecond || got > 1500*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [0.5s, 1.5s]", got)
		}
	}
}

func TestRetry_StopsWhenContextEndsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour, RetryIf: func(error) bool { return true }}, func() (int, error) {
		calls++
		return 0, errors.New("connection reset")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}
