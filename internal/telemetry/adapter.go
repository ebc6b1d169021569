package telemetry

import "sync/atomic"

// sample is the lock-free snapshot SchedulerAdapter hands to the RT
// thread: both fields packed so a single atomic.Value swap keeps them
// coherent with each other.
type sample struct {
	ffbIn      float32
	wheelSpeed float32
}

// SchedulerAdapter bridges a Source (sampled from its own goroutine,
// at its own rate) to the RT loop's synchronous, allocation-free
// Read() contract: it holds the most recent sample in an atomic.Value
// and serves it without blocking or touching the heap on the read
// side.
type SchedulerAdapter struct {
	current atomic.Value // holds sample
}

// NewSchedulerAdapter returns an adapter seeded with a zero sample.
func NewSchedulerAdapter() *SchedulerAdapter {
	a := &SchedulerAdapter{}
	a.current.Store(sample{})
	return a
}

// Pump runs Sample once and publishes the result, dropping the sample
// silently if source returns an error (the RT thread continues
// reading the last-known-good value). Callers drive this from their
// own polling goroutine at whatever rate source supports.
func (a *SchedulerAdapter) Pump(source Source) {
	t, err := source.Sample()
	if err != nil {
		return
	}
	a.current.Store(sample{ffbIn: t.FFBInNm, wheelSpeed: t.WheelSpeedRadS})
}

// Read implements the RT loop's InputSource contract.
func (a *SchedulerAdapter) Read() (ffbIn, wheelSpeed float32) {
	s := a.current.Load().(sample)
	return s.ffbIn, s.wheelSpeed
}
