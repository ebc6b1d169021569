// Package fmea implements the failure-management subsystem: fault
// detection, severity-ranked escalation, soft-stop torque ramping, and
// declarative recovery procedures.
package fmea

import "fmt"

// FaultType is one of the taxonomy of detectable hot-path faults.
type FaultType int

const (
	// UsbStall: N consecutive HID write failures within a window.
	UsbStall FaultType = iota
	// ThermalLimit: reported temperature exceeds threshold.
	ThermalLimit
	// Overcurrent: reported or estimated current exceeds threshold.
	Overcurrent
	// EncoderNaN: N consecutive non-finite wheel-angle samples.
	EncoderNaN
	// TimingViolation: deadline miss count over a window exceeds threshold.
	TimingViolation
	// PipelineFault: a filter produced non-finite output from finite input.
	PipelineFault
)

func (f FaultType) String() string {
	switch f {
	case UsbStall:
		return "USB communication stall"
	case ThermalLimit:
		return "Thermal protection"
	case Overcurrent:
		return "Overcurrent protection"
	case EncoderNaN:
		return "Encoder signal fault"
	case TimingViolation:
		return "Real-time timing violation"
	case PipelineFault:
		return "Filter pipeline fault"
	default:
		return fmt.Sprintf("FaultType(%d)", int(f))
	}
}

// Severity ranks a fault's criticality: 1 is most severe. A new fault
// with severity <= the active fault's severity replaces it.
func (f FaultType) Severity() int {
	switch f {
	case Overcurrent:
		return 1
	case ThermalLimit, UsbStall, EncoderNaN:
		return 2
	case TimingViolation, PipelineFault:
		return 3
	default:
		return 3
	}
}

// RequiresImmediateResponse reports whether this fault is the most
// critical severity tier.
func (f FaultType) RequiresImmediateResponse() bool {
	return f.Severity() == 1
}

// FaultThresholds configures the trigger points for each detector.
type FaultThresholds struct {
	UsbStallConsecutiveFailures uint32
	ThermalLimitC               float32
	OvercurrentLimitA           float32
	EncoderNaNWindow            uint32
	TimingViolationCount        uint32
}

// DefaultFaultThresholds returns the factory-default thresholds.
func DefaultFaultThresholds() FaultThresholds {
	return FaultThresholds{
		UsbStallConsecutiveFailures: 3,
		ThermalLimitC:               85.0,
		OvercurrentLimitA:           15.0,
		EncoderNaNWindow:            5,
		TimingViolationCount:        10,
	}
}
