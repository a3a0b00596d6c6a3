package utils

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func quietLogger() *Logger { return NewLoggerTo(io.Discard, io.Discard) }

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if !s.Add("https://example.com/2") {
		t.Error("Add of a new URL should return true")
	}

	if s.Size() != 2 {
		t.Errorf("size: got %d, want 2", s.Size())
	}
}

func TestPacerSpacing(t *testing.T) {
	rateLimitMs := 100
	p := NewPacer(rateLimitMs)
	ctx := context.Background()

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		timestamps = append(timestamps, time.Now())
	}

	// rate.Limiter reserves tokens with sub-millisecond precision; allow a
	// little slack below the nominal interval.
	min := time.Duration(rateLimitMs)*time.Millisecond - 10*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < min {
			t.Errorf("gap between request %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled pacer should not block, took %v", elapsed)
	}
}

func TestRetryPassesAttemptIndex(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: quietLogger()}

	var seen []int
	err := r.Do(context.Background(), "op", func(attempt int) error {
		seen = append(seen, attempt)
		if attempt == 0 {
			return errors.New("first attempt fails")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: unexpected error %v", err)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Errorf("attempts: got %v, want [0 1]", seen)
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: quietLogger()}
	sentinel := errors.New("boom")

	calls := 0
	err := r.Do(context.Background(), "op", func(int) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, Logger: quietLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "op", func(int) error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
