package hotkey

import (
	"context"
	"errors"
	"testing"
)

func TestProbeInvalidCombination(t *testing.T) {
	tests := []string{"", "⌘+", "Hyper+C", "⌘+\u00a0", "⌘+Shift"}

	for _, combo := range tests {
		t.Run(combo, func(t *testing.T) {
			if _, err := Probe(context.Background(), combo); err == nil {
				t.Errorf("Expected error for %q", combo)
			}
		})
	}
}

func TestProbeBusyWhileRegistrationOutstanding(t *testing.T) {
	inflight <- struct{}{}
	defer func() { <-inflight }()

	res, err := Probe(context.Background(), "⌘+K")
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("Expected ErrBusy, got %v", err)
	}
	if res.Available {
		t.Error("Expected Available to be false")
	}

	// invalid input is rejected before waiting on the OS
	if _, err := Probe(context.Background(), "Hyper+C"); errors.Is(err, ErrBusy) {
		t.Error("Expected invalid input error, got ErrBusy")
	}
}
