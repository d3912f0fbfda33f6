package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytmigrate/internal/shared"
)

func TestPolicyBackoff(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		got := DefaultPolicy().Backoff()
		want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
		if len(got) != len(want) {
			t.Fatalf("Backoff() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Backoff()[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("capped", func(t *testing.T) {
		p := Policy{Attempts: 6, BaseDelay: 2 * time.Second, MaxDelay: 6 * time.Second}
		got := p.Backoff()
		want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 6 * time.Second, 6 * time.Second}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Backoff()[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("single attempt", func(t *testing.T) {
		if got := (Policy{Attempts: 1}).Backoff(); len(got) != 0 {
			t.Errorf("expected no waits, got %v", got)
		}
	})
}

func TestDo(t *testing.T) {
	fast := Policy{Attempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient errors", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), fast, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("Do() = %q after %d calls", got, calls)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		_, err := Do(context.Background(), fast, func(context.Context) (int, error) {
			calls++
			return 0, boom
		})
		if calls != 4 {
			t.Errorf("expected 4 calls, got %d", calls)
		}
		if !errors.Is(err, shared.ErrRetryExhausted) {
			t.Errorf("expected ErrRetryExhausted, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped cause, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := Policy{Attempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

		_, err := Do(ctx, slow, func(context.Context) (int, error) {
			cancel()
			return 0, errors.New("fail")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(shared.RetryConfig{Attempts: 4, BaseDelayMS: 500, MaxDelayMS: 6000})
	if p != DefaultPolicy() {
		t.Errorf("FromConfig() = %+v, want %+v", p, DefaultPolicy())
	}
}
