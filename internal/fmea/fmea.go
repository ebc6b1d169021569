package fmea

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// ErrNoActiveFault is returned by ClearFault when nothing is active.
var ErrNoActiveFault = errors.New("fmea: no active fault to clear")

// activeFault pairs a detected fault with the severity it was raised
// at, so a later lower-priority detection can be told apart from one
// that should pre-empt it.
type activeFault struct {
	faultType FaultType
	severity  int
}

// System is the failure-management engine: it runs the per-kind
// detectors, holds at most one active fault at a time (the most severe
// seen), drives the soft-stop ramp, and tracks deduplicated alerts.
//
// System is not safe for concurrent use; the RT loop owns it and calls
// its methods from a single goroutine each tick.
type System struct {
	thresholds FaultThresholds
	active     *activeFault
	softStop   *SoftStopController
	alerts     AudioAlerts
	recovery   *RecoveryContext

	usbConsecutiveFailures uint32
	encoderConsecutiveNaN  uint32

	now func() time.Time

	// published holds the latest View for cross-goroutine readers
	// (the snapshot API, metrics polling). System's other methods are
	// RT-thread-only; this is the one piece of state safe to read from
	// any goroutine, refreshed by the RT thread on every fault
	// transition and every soft-stop tick.
	published atomic.Value
}

// View is an immutable, point-in-time summary of System's state, safe to
// read from any goroutine via System.View.
type View struct {
	HasActiveFault bool
	FaultKind      FaultType
	Severity       int
	Recoverable    bool
	SoftStopActive bool
	SoftStopScale  float32
}

// View returns the most recently published state summary. Safe to call
// from any goroutine; never blocks.
func (s *System) View() View {
	if v, ok := s.published.Load().(View); ok {
		return v
	}
	return View{SoftStopScale: 1.0}
}

// publish refreshes the externally-visible View. Called from the RT
// thread: once per fault transition (HandleFault/ClearFault) and once
// per tick from ScaleAdapter, so View never lags more than one tick
// behind the authoritative state.
func (s *System) publish() {
	v := View{SoftStopActive: s.softStop.IsActive(), SoftStopScale: s.softStop.Ratio()}
	if s.active != nil {
		v.HasActiveFault = true
		v.FaultKind = s.active.faultType
		v.Severity = s.active.severity
		v.Recoverable = s.recovery != nil && s.recovery.Procedure.Automatic
	}
	s.published.Store(v)
}

// New returns a System configured with the default thresholds.
func New() *System {
	return NewWithThresholds(DefaultFaultThresholds())
}

// NewWithThresholds returns a System configured with thresholds.
func NewWithThresholds(thresholds FaultThresholds) *System {
	s := &System{
		thresholds: thresholds,
		softStop:   NewSoftStopController(),
		now:        time.Now,
	}
	s.publish()
	return s
}

// DetectThermalFault reports ThermalLimit if tempC exceeds the
// configured limit (or if forceOver is set, for sensor-reported
// over-temperature flags that bypass the numeric comparison).
func (s *System) DetectThermalFault(tempC float32, forceOver bool) *FaultType {
	if forceOver || tempC > s.thresholds.ThermalLimitC {
		ft := ThermalLimit
		return &ft
	}
	return nil
}

// DetectOvercurrentFault reports Overcurrent if currentA exceeds the
// configured limit.
func (s *System) DetectOvercurrentFault(currentA float32) *FaultType {
	if currentA > s.thresholds.OvercurrentLimitA {
		ft := Overcurrent
		return &ft
	}
	return nil
}

// DetectUsbFault accumulates consecutive HID write failures and
// reports UsbStall once the threshold is reached. Passing
// consecutiveFailures directly (rather than incrementing internally)
// lets callers that already track the streak elsewhere drive this
// detector idempotently; window is accepted for parity with the
// windowed-detector shape used elsewhere and currently unused in the
// comparison.
func (s *System) DetectUsbFault(consecutiveFailures uint32, window *time.Duration) *FaultType {
	s.usbConsecutiveFailures = consecutiveFailures
	if consecutiveFailures >= s.thresholds.UsbStallConsecutiveFailures {
		ft := UsbStall
		return &ft
	}
	return nil
}

// DetectEncoderFault tracks a rolling count of non-finite wheel-angle
// samples and reports EncoderNaN once EncoderNaNWindow consecutive
// non-finite samples have been seen. Any finite sample resets the
// streak.
func (s *System) DetectEncoderFault(sample float32) *FaultType {
	if !math.IsNaN(float64(sample)) && !math.IsInf(float64(sample), 0) {
		s.encoderConsecutiveNaN = 0
		return nil
	}
	s.encoderConsecutiveNaN++
	if s.encoderConsecutiveNaN >= s.thresholds.EncoderNaNWindow {
		ft := EncoderNaN
		return &ft
	}
	return nil
}

// DetectTimingFault reports TimingViolation if missCount over the
// observation window exceeds the configured threshold.
func (s *System) DetectTimingFault(missCount uint32) *FaultType {
	if missCount > s.thresholds.TimingViolationCount {
		ft := TimingViolation
		return &ft
	}
	return nil
}

// HandleFault raises fault at severity-ranked priority: it replaces
// the active fault only if fault's severity is at least as critical
// (numerically <=) as the one currently active. Severity <= 2 begins
// a soft-stop ramp from currentTorque. Repeated occurrences of the
// already-active fault only refresh the alert's LastSeen.
func (s *System) HandleFault(fault FaultType, currentTorque float32) error {
	sev := fault.Severity()

	if s.active != nil && s.active.faultType == fault {
		s.alerts.Raise(fault, s.now())
		s.publish()
		return nil
	}

	if s.active != nil && sev > s.active.severity {
		// Lesser-severity fault observed mid-recovery: dropped. It is
		// not recorded anywhere and does not pre-empt the ongoing
		// recovery or alert.
		return nil
	}

	s.active = &activeFault{faultType: fault, severity: sev}
	s.recovery = NewRecoveryContext(fault)
	if sev <= 2 {
		s.softStop.StartSoftStop(currentTorque)
	}
	s.alerts.Raise(fault, s.now())
	s.publish()
	return nil
}

// HasActiveFault reports whether a fault is currently active.
func (s *System) HasActiveFault() bool { return s.active != nil }

// ActiveFault returns the active fault, or nil if none.
func (s *System) ActiveFault() *FaultType {
	if s.active == nil {
		return nil
	}
	ft := s.active.faultType
	return &ft
}

// IsSoftStopActive reports whether the torque ramp is in progress.
func (s *System) IsSoftStopActive() bool { return s.softStop.IsActive() }

// SoftStopScale reports the ramp's current [0,1] multiplier — the same
// value a ScaleAdapter feeds the RT loop, without advancing the ramp.
func (s *System) SoftStopScale() float32 { return s.softStop.Ratio() }

// UpdateSoftStop advances the soft-stop ramp by delta and returns the
// current scaled torque.
func (s *System) UpdateSoftStop(delta time.Duration) float32 {
	return s.softStop.Update(delta)
}

// CanRecover reports whether the active fault's recovery procedure is
// automatic.
func (s *System) CanRecover() bool {
	if s.recovery == nil {
		return false
	}
	return s.recovery.Procedure.Automatic
}

// RecoveryProcedure returns the active fault's recovery procedure, or
// nil if no fault is active.
func (s *System) RecoveryProcedure() *RecoveryProcedure {
	if s.recovery == nil {
		return nil
	}
	proc := s.recovery.Procedure
	return &proc
}

// ClearFault clears the active fault and its alert. It returns
// ErrNoActiveFault if nothing is active.
func (s *System) ClearFault() error {
	if s.active == nil {
		return ErrNoActiveFault
	}
	s.active = nil
	s.recovery = nil
	s.alerts.Clear()
	s.softStop.Reset()
	s.publish()
	return nil
}

// AudioAlerts exposes the deduplicated alert state.
func (s *System) AudioAlerts() *AudioAlerts { return &s.alerts }

func (s *System) String() string {
	if s.active == nil {
		return "fmea: nominal"
	}
	return fmt.Sprintf("fmea: active=%s severity=%d", s.active.faultType, s.active.severity)
}
