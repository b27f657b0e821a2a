package domain

import (
	"testing"
	"time"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", p.MaxRetries)
	}
	if p.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay to be 2s, got %v", p.InitialDelay)
	}
	if p.MaxDelay != 30*time.Second {
		t.Errorf("Expected MaxDelay to be 30s, got %v", p.MaxDelay)
	}
	if !p.Jitter {
		t.Error("Expected Jitter to be enabled")
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3}

	tests := []struct {
		retryCount int
		want       bool
	}{
		{0, false},
		{1, false},
		{3, false},
		{4, true},
		{10, true},
	}

	for _, tt := range tests {
		if got := p.Exhausted(tt.retryCount); got != tt.want {
			t.Errorf("Exhausted(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if d := p.NextDelay(0); d != 2*time.Second {
		t.Errorf("NextDelay(0) = %v, want 2s", d)
	}
	if d := p.NextDelay(1); d != 4*time.Second {
		t.Errorf("NextDelay(1) = %v, want 4s", d)
	}
	if d := p.NextDelay(2); d != 8*time.Second {
		t.Errorf("NextDelay(2) = %v, want 8s", d)
	}
	// Capped at MaxDelay once exponentiation overshoots.
	if d := p.NextDelay(10); d != 30*time.Second {
		t.Errorf("NextDelay(10) = %v, want cap 30s", d)
	}
	// Negative counts clamp to the initial delay.
	if d := p.NextDelay(-1); d != 2*time.Second {
		t.Errorf("NextDelay(-1) = %v, want 2s", d)
	}
}

func TestRetryPolicyNextDelayJitterBounds(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	for i := 0; i < 100; i++ {
		d := p.NextDelay(1)
		if d < 4*time.Second || d > 4*time.Second+400*time.Millisecond {
			t.Fatalf("jittered delay %v outside [4s, 4.4s]", d)
		}
	}
}
