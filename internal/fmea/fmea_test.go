package fmea

import (
	"testing"
	"time"
)

func TestOvercurrentFaultDetectionAndRecovery(t *testing.T) {
	thresholds := DefaultFaultThresholds()
	thresholds.OvercurrentLimitA = 10.0
	sys := NewWithThresholds(thresholds)

	if sys.DetectThermalFault(70.0, false) != nil {
		t.Fatalf("expected no thermal fault under threshold")
	}

	if err := sys.HandleFault(Overcurrent, 8.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sys.HasActiveFault() {
		t.Fatalf("expected an active fault")
	}
	if got := sys.ActiveFault(); got == nil || *got != Overcurrent {
		t.Fatalf("expected active fault Overcurrent, got %v", got)
	}
	if !sys.IsSoftStopActive() {
		t.Fatalf("expected soft-stop to be active for overcurrent")
	}
	if sys.CanRecover() {
		t.Fatalf("overcurrent should not be auto-recoverable")
	}

	proc := DefaultRecoveryProcedureFor(Overcurrent)
	if proc.FaultType != Overcurrent || proc.Automatic || len(proc.Steps) == 0 {
		t.Fatalf("unexpected overcurrent recovery procedure: %+v", proc)
	}
}

func TestCommunicationLossFaultAndRecovery(t *testing.T) {
	sys := New()

	if sys.DetectUsbFault(2, durPtr(0)) != nil {
		t.Fatalf("expected no fault below threshold")
	}
	fault := sys.DetectUsbFault(3, durPtr(0))
	if fault == nil || *fault != UsbStall {
		t.Fatalf("expected UsbStall at threshold, got %v", fault)
	}

	if err := sys.HandleFault(UsbStall, 10.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sys.HasActiveFault() {
		t.Fatalf("expected active fault")
	}
	if !sys.CanRecover() {
		t.Fatalf("usb stall should be auto-recoverable")
	}

	proc := sys.RecoveryProcedure()
	if proc == nil || !proc.Automatic || len(proc.Steps) == 0 {
		t.Fatalf("expected automatic recovery procedure with steps, got %+v", proc)
	}

	sys.UpdateSoftStop(100 * time.Millisecond)

	if err := sys.ClearFault(); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if sys.HasActiveFault() {
		t.Fatalf("expected no active fault after clear")
	}
}

func TestEncoderFaultDetection(t *testing.T) {
	sys := New()

	if sys.DetectEncoderFault(0.0) != nil || sys.DetectEncoderFault(1.5) != nil || sys.DetectEncoderFault(-100.0) != nil {
		t.Fatalf("valid samples should never fault")
	}

	for i := 0; i < 4; i++ {
		if f := sys.DetectEncoderFault(nan32()); f != nil {
			t.Fatalf("should not fault before the window threshold at iteration %d, got %v", i, f)
		}
	}

	fault := sys.DetectEncoderFault(nan32())
	if fault == nil || *fault != EncoderNaN {
		t.Fatalf("expected EncoderNaN at the 5th consecutive NaN, got %v", fault)
	}

	if err := sys.HandleFault(EncoderNaN, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.CanRecover() {
		t.Fatalf("encoder fault should not be auto-recoverable")
	}
}

func TestSoftStop75msRampTiming(t *testing.T) {
	ctrl := NewSoftStopController()
	ctrl.StartSoftStopWithDuration(10.0, 75*time.Millisecond)

	if !ctrl.IsActive() || ctrl.StartTorque() != 10.0 || ctrl.CurrentTorque() != 10.0 {
		t.Fatalf("unexpected initial ramp state")
	}

	t25 := ctrl.Update(25 * time.Millisecond)
	if diff := abs32(t25 - 6.66667); diff > 0.1 {
		t.Fatalf("torque at 25ms should be ~6.67, got %v", t25)
	}
	if !ctrl.IsActive() {
		t.Fatalf("ramp should still be active at 25ms")
	}

	t50 := ctrl.Update(25 * time.Millisecond)
	if diff := abs32(t50 - 3.33333); diff > 0.1 {
		t.Fatalf("torque at 50ms should be ~3.33, got %v", t50)
	}

	t75 := ctrl.Update(25 * time.Millisecond)
	if t75 != 0.0 {
		t.Fatalf("expected zero torque at ramp completion, got %v", t75)
	}
	if ctrl.IsActive() {
		t.Fatalf("soft-stop should be inactive after 75ms")
	}
}

func TestFaultEscalation(t *testing.T) {
	sys := New()

	if err := sys.HandleFault(TimingViolation, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sys.ActiveFault(); got == nil || *got != TimingViolation {
		t.Fatalf("expected TimingViolation active, got %v", got)
	}

	if err := sys.HandleFault(UsbStall, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sys.ActiveFault(); got == nil || *got != UsbStall {
		t.Fatalf("UsbStall should replace TimingViolation, got %v", got)
	}

	if err := sys.HandleFault(Overcurrent, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sys.ActiveFault(); got == nil || *got != Overcurrent {
		t.Fatalf("Overcurrent should replace UsbStall as most critical, got %v", got)
	}

	if Overcurrent.Severity() != 1 {
		t.Fatalf("expected Overcurrent severity 1, got %d", Overcurrent.Severity())
	}
	if !Overcurrent.RequiresImmediateResponse() {
		t.Fatalf("expected Overcurrent to require immediate response")
	}
}

func TestFaultEscalationIgnoresLesserSeverityMidRecovery(t *testing.T) {
	sys := New()
	if err := sys.HandleFault(Overcurrent, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sys.HandleFault(TimingViolation, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sys.ActiveFault(); got == nil || *got != Overcurrent {
		t.Fatalf("lesser-severity fault should not pre-empt Overcurrent, got %v", got)
	}
}

func TestAlertDeduplication(t *testing.T) {
	sys := New()

	if err := sys.HandleFault(UsbStall, 10.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := sys.AudioAlerts().CurrentAlert()
	if first == nil {
		t.Fatalf("expected an alert after the first fault")
	}

	if err := sys.HandleFault(UsbStall, 10.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := sys.AudioAlerts().CurrentAlert()
	if second == nil || second.FirstSeen != first.FirstSeen || second.FaultType != first.FaultType {
		t.Fatalf("duplicate fault should reuse the same alert, got first=%+v second=%+v", first, second)
	}
}

func TestRecoveryActionTracking(t *testing.T) {
	ctx := NewRecoveryContext(UsbStall)
	ctx.Start(0)

	if ctx.Attempt != 1 || ctx.CurrentStep != 0 {
		t.Fatalf("unexpected initial context state: %+v", ctx)
	}

	stepCount := len(ctx.Procedure.Steps)
	if stepCount == 0 {
		t.Fatalf("USB recovery must have at least one step")
	}

	tick := time.Duration(0)
	for i := 0; i < stepCount; i++ {
		tick += 50 * time.Millisecond
		ctx.AdvanceStep(tick)
		if ctx.CurrentStep != i+1 {
			t.Fatalf("expected step counter %d, got %d", i+1, ctx.CurrentStep)
		}
	}

	if !ctx.IsComplete() {
		t.Fatalf("expected all steps completed")
	}
	if ctx.IsTimedOut(tick) {
		t.Fatalf("should not have timed out within the procedure timeout")
	}
}

func TestViewReflectsPublishedStateAcrossTransitions(t *testing.T) {
	sys := New()

	if v := sys.View(); v.HasActiveFault || v.SoftStopScale != 1.0 {
		t.Fatalf("expected nominal view before any fault, got %+v", v)
	}

	if err := sys.HandleFault(Overcurrent, 10.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := sys.View()
	if !v.HasActiveFault || v.FaultKind != Overcurrent || v.Recoverable {
		t.Fatalf("expected view to reflect overcurrent fault, got %+v", v)
	}
	if !v.SoftStopActive {
		t.Fatalf("expected soft-stop active in published view")
	}

	if err := sys.ClearFault(); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if v := sys.View(); v.HasActiveFault {
		t.Fatalf("expected view to clear after ClearFault, got %+v", v)
	}
}

func durPtr(ms int) *time.Duration {
	d := time.Duration(ms) * time.Millisecond
	return &d
}

func nan32() float32 {
	var zero float32
	return zero / zero
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
