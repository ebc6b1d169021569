package fmea

import (
	"testing"
	"time"
)

func TestScaleAdapterHealthyReturnsOne(t *testing.T) {
	s := New()
	a := NewScaleAdapter(s)
	t0 := time.Unix(0, 0)
	a.now = func() time.Time { return t0 }

	if got := a.Scale(); got != 1.0 {
		t.Fatalf("expected 1.0 on healthy system, got %v", got)
	}
	t0 = t0.Add(time.Millisecond)
	if got := a.Scale(); got != 1.0 {
		t.Fatalf("expected 1.0 on healthy system, got %v", got)
	}
}

func TestScaleAdapterRampsDuringSoftStop(t *testing.T) {
	s := New()
	t0 := time.Unix(0, 0)
	s.now = func() time.Time { return t0 }

	if err := s.HandleFault(Overcurrent, 10.0); err != nil {
		t.Fatalf("HandleFault: %v", err)
	}

	a := NewScaleAdapter(s)
	a.now = func() time.Time { return t0 }
	a.Scale() // establishes baseline, does not advance the ramp

	t0 = t0.Add(25 * time.Millisecond)
	got := a.Scale()
	want := float32(50.0 / 75.0)
	if diff := abs32(got - want); diff > 1e-3 {
		t.Fatalf("expected scale near %v at 25ms, got %v", want, got)
	}

	t0 = t0.Add(50 * time.Millisecond)
	got = a.Scale()
	if got != 0 {
		t.Fatalf("expected scale 0 once ramp completes, got %v", got)
	}

	// The ramp completing must not snap torque back to full: scale must
	// stay at 0 on every subsequent tick while the fault remains active.
	t0 = t0.Add(time.Millisecond)
	if got := a.Scale(); got != 0 {
		t.Fatalf("expected scale to remain 0 after ramp completion, got %v", got)
	}

	if err := s.ClearFault(); err != nil {
		t.Fatalf("ClearFault: %v", err)
	}
	if got := s.SoftStopScale(); got != 1.0 {
		t.Fatalf("expected scale to return to 1.0 once the fault is cleared, got %v", got)
	}
}
