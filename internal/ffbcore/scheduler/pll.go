// Package scheduler drives the 1 kHz real-time tick: a phase-locked loop
// that tracks actual wake-up intervals and corrects the sleep target for
// clock drift, plus the Loop that ties PLL correction to pipeline
// execution and HID output.
package scheduler

import "time"

// PLL is a proportional-integral drift corrector for a periodic tick. It
// measures the deviation between the requested and actual interval on
// every tick and adjusts its estimated period so that the long-run
// average tick rate tracks the target even under scheduler jitter or
// clock skew.
//
// Every method is O(1) and allocation-free: the PLL is updated from the
// RT thread once per tick.
type PLL struct {
	targetPeriodNS    uint64
	estimatedPeriodNS float64
	gain              float64
	integralGain      float64
	phaseErrorNS      float64
	sampleCount       uint64
}

// NewPLL creates a PLL targeting targetPeriodNS with the default gains
// (Kp=0.01, Ki=0.1). A targetPeriodNS of 0 is treated as 1.
func NewPLL(targetPeriodNS uint64) *PLL {
	return NewPLLWithGains(targetPeriodNS, 0.01, 0.1)
}

// NewPLLWithGains creates a PLL with explicit proportional and integral
// gains, each clamped to [0, 1].
func NewPLLWithGains(targetPeriodNS uint64, gain, integralGain float64) *PLL {
	if targetPeriodNS == 0 {
		targetPeriodNS = 1
	}
	return &PLL{
		targetPeriodNS:    targetPeriodNS,
		estimatedPeriodNS: float64(targetPeriodNS),
		gain:              clamp01(gain),
		integralGain:      clamp01(integralGain),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Update feeds the measured interval since the previous tick into the
// controller and returns the corrected period to sleep for before the
// next tick.
func (p *PLL) Update(actualIntervalNS uint64) time.Duration {
	actual := float64(actualIntervalNS)
	periodError := actual - float64(p.targetPeriodNS)

	p.phaseErrorNS += periodError
	p.sampleCount++

	correction := p.gain*periodError + p.integralGain*p.gain*p.phaseErrorNS
	p.estimatedPeriodNS = float64(p.targetPeriodNS) - correction
	p.clampPeriod()

	return time.Duration(p.estimatedPeriodNS)
}

// PhaseErrorNS reports the accumulated phase error in nanoseconds.
// Positive means the loop is running slow (behind schedule); negative
// means it is running fast.
func (p *PLL) PhaseErrorNS() float64 { return p.phaseErrorNS }

// AveragePhaseErrorNS reports the phase error averaged over every sample
// seen so far, or 0 if Update has never been called.
func (p *PLL) AveragePhaseErrorNS() float64 {
	if p.sampleCount == 0 {
		return 0
	}
	return p.phaseErrorNS / float64(p.sampleCount)
}

// EstimatedPeriodNS reports the current corrected period in nanoseconds.
func (p *PLL) EstimatedPeriodNS() uint64 { return uint64(p.estimatedPeriodNS) }

// TargetPeriodNS reports the configured target period in nanoseconds.
func (p *PLL) TargetPeriodNS() uint64 { return p.targetPeriodNS }

// Reset clears accumulated phase error and returns the estimated period
// to the target, discarding all history.
func (p *PLL) Reset() {
	p.estimatedPeriodNS = float64(p.targetPeriodNS)
	p.phaseErrorNS = 0
	p.sampleCount = 0
}

// SetTargetPeriodNS changes the target period, re-clamping the current
// estimate to the new ±10% band. Used by adaptive scheduling to change
// the loop rate while keeping the PLL's drift-correction history.
func (p *PLL) SetTargetPeriodNS(targetPeriodNS uint64) {
	if targetPeriodNS == 0 {
		targetPeriodNS = 1
	}
	p.targetPeriodNS = targetPeriodNS
	p.clampPeriod()
}

// clampPeriod bounds the estimated period to ±10% of target, preventing
// a single bad sample from producing a runaway sleep duration.
func (p *PLL) clampPeriod() {
	min := float64(p.targetPeriodNS) * 0.9
	max := float64(p.targetPeriodNS) * 1.1
	if p.estimatedPeriodNS < min {
		p.estimatedPeriodNS = min
	} else if p.estimatedPeriodNS > max {
		p.estimatedPeriodNS = max
	}
}

// IsStable reports whether the estimated period is within ±5% of target.
func (p *PLL) IsStable() bool {
	ratio := p.estimatedPeriodNS / float64(p.targetPeriodNS)
	return ratio >= 0.95 && ratio <= 1.05
}
