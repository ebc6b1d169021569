package scheduler

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/openracing/ffbengine/internal/ffbcore/frame"
	"github.com/openracing/ffbengine/internal/ffbcore/pipeline"
)

// InputSource supplies the latest normalized telemetry sample. Implementations
// must never block: the RT thread calls Read once per tick and proceeds
// with whatever it returns, even if nothing new has arrived since the last
// call.
type InputSource interface {
	Read() (ffbIn, wheelSpeed float32)
}

// OutputSink receives the fully processed Frame for encoding onto the wire.
// Write must not allocate and must return promptly; a slow or blocking
// sink steals time directly from the next tick's deadline.
type OutputSink interface {
	Write(f *frame.Frame) error
}

// FaultScaler reports the current torque scale applied by a fault-management
// soft-stop ramp (1.0 when healthy, ramping to 0.0 during a fault). A nil
// FaultScaler is treated as always-healthy (scale 1.0).
type FaultScaler interface {
	Scale() float32
}

// DeadlineObserver is notified when a tick's wall time exceeds its budget.
type DeadlineObserver interface {
	OnDeadlineMiss(seq uint32, overrunNS int64)
}

// SoftStopQuerier is implemented optionally by a FaultScaler to report
// whether a soft-stop ramp is currently in progress. When the configured
// FaultScaler implements it, Loop defers any pending pipeline swap until
// the ramp completes, per the swap policy: "on tick boundary only, and
// only when no soft-stop ramp is active."
type SoftStopQuerier interface {
	IsSoftStopActive() bool
}

// Loop drives the fixed-rate RT tick: sleep under PLL correction, read the
// current Pipeline, run it against fresh input, apply fault scaling, and
// hand the result to an OutputSink. It allocates nothing once Run starts.
type Loop struct {
	pipeline        atomic.Pointer[pipeline.Pipeline]
	pendingPipeline atomic.Pointer[pipeline.Pipeline]
	hasPending      atomic.Bool

	input  InputSource
	output OutputSink
	scaler FaultScaler
	onMiss DeadlineObserver

	pll            *PLL
	jitterBudgetNS int64

	shutdown       atomic.Bool
	missCount      atomic.Uint64
	tickCount      atomic.Uint64
	phaseErrorBits atomic.Uint64

	seq uint32

	// now and sleep are overridable for deterministic tests; production
	// callers leave them nil and get time.Now / time.Sleep.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewLoop constructs a Loop targeting a 1 kHz tick (§4.3). jitterBudgetNS
// bounds how far a tick's wall time may exceed the target period before a
// DeadlineMiss is recorded.
func NewLoop(input InputSource, output OutputSink, scaler FaultScaler, onMiss DeadlineObserver, jitterBudgetNS int64) *Loop {
	l := &Loop{
		input:          input,
		output:         output,
		scaler:         scaler,
		onMiss:         onMiss,
		pll:            NewPLL(uint64(time.Second / 1000)),
		jitterBudgetNS: jitterBudgetNS,
	}
	return l
}

// SetPipeline stages p to become the pipeline the RT thread executes,
// applied at the next tick boundary where no soft-stop ramp is active
// (§4.5/§5 swap policy). Safe to call from any goroutine. If a soft-stop
// ramp is in progress when the tick boundary is reached, the swap is
// deferred and retried on each subsequent tick until the ramp completes.
func (l *Loop) SetPipeline(p *pipeline.Pipeline) {
	l.pendingPipeline.Store(p)
	l.hasPending.Store(true)
}

// CurrentPipeline returns the Pipeline the RT thread is currently running,
// or nil if none has been set yet.
func (l *Loop) CurrentPipeline() *pipeline.Pipeline {
	return l.pipeline.Load()
}

// Stop requests that Run exit after completing its current tick with a
// zero-torque frame. Safe to call from any goroutine, any number of times.
func (l *Loop) Stop() {
	l.shutdown.Store(true)
}

// MissCount reports the number of ticks whose wall time exceeded the
// jitter budget since the Loop started running.
func (l *Loop) MissCount() uint64 { return l.missCount.Load() }

// TickCount reports the number of ticks executed since the Loop started
// running.
func (l *Loop) TickCount() uint64 { return l.tickCount.Load() }

// PLLPhaseErrorNS reports the scheduler PLL's most recent phase error,
// for external reporting (metrics, snapshot API). Safe to call from any
// goroutine: the RT thread publishes it via an atomic store once per
// tick, the same handoff pattern as MissCount/TickCount.
func (l *Loop) PLLPhaseErrorNS() float64 {
	return math.Float64frombits(l.phaseErrorBits.Load())
}

// softStopActive reports whether the configured FaultScaler currently
// has a soft-stop ramp in progress, or false if it doesn't implement
// SoftStopQuerier (or no scaler is configured at all).
func (l *Loop) softStopActive() bool {
	q, ok := l.scaler.(SoftStopQuerier)
	if !ok {
		return false
	}
	return q.IsSoftStopActive()
}

func (l *Loop) nowFn() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *Loop) sleepFn(d time.Duration) {
	if d <= 0 {
		return
	}
	if l.sleep != nil {
		l.sleep(d)
		return
	}
	time.Sleep(d)
}

// Run executes the RT loop until Stop is called. It implements the
// per-tick algorithm: sleep under PLL correction, measure drift, read the
// current Pipeline and input, process one Frame, apply fault scaling,
// write the result, and check the deadline — in that fixed order, with no
// suspension points other than the inter-tick sleep.
func (l *Loop) Run() {
	last := l.nowFn()
	sleepFor := time.Duration(l.pll.EstimatedPeriodNS())

	for {
		// Step 1: sleep to the next wake, measure the actual interval.
		l.sleepFn(sleepFor)
		now := l.nowFn()
		actual := now.Sub(last)
		last = now

		// Step 2: feed the PLL, carrying the corrected period to the next
		// iteration's sleep.
		sleepFor = l.pll.Update(uint64(actual.Nanoseconds()))
		l.phaseErrorBits.Store(math.Float64bits(l.pll.PhaseErrorNS()))

		// Shutdown is observed between steps 1 and 3: the loop still runs
		// one final tick, emitting a zero-torque frame, then exits.
		shuttingDown := l.shutdown.Load()

		// Tick-boundary pipeline swap: a pending SetPipeline only takes
		// effect while no soft-stop ramp is active, deferring otherwise.
		if l.hasPending.Load() && !l.softStopActive() {
			l.pipeline.Store(l.pendingPipeline.Load())
			l.hasPending.Store(false)
		}

		// Step 3: read the current Pipeline and input, compose the Frame.
		p := l.pipeline.Load()
		ffbIn, wheelSpeed := float32(0), float32(0)
		if !shuttingDown && l.input != nil {
			ffbIn, wheelSpeed = l.input.Read()
		}
		f := frame.Next(ffbIn, wheelSpeed, uint64(now.UnixNano()), l.seq)
		l.seq = f.Seq

		// Steps 4-5: run the compiled pipeline (node chain + response curve).
		if p != nil && !shuttingDown {
			p.Process(&f)
		} else {
			f.TorqueOut = 0
		}

		// Step 6: FMEA soft-stop scaling.
		if l.scaler != nil {
			f.TorqueOut *= l.scaler.Scale()
		}

		// Step 7: hand off to the output sink for encoding onto the wire.
		if l.output != nil {
			l.output.Write(&f)
		}

		l.tickCount.Add(1)

		// Step 8: deadline check.
		target := int64(l.pll.TargetPeriodNS())
		overrun := actual.Nanoseconds() - target
		if overrun > l.jitterBudgetNS {
			l.missCount.Add(1)
			if l.onMiss != nil {
				l.onMiss.OnDeadlineMiss(f.Seq, overrun)
			}
		}

		if shuttingDown {
			return
		}
	}
}
