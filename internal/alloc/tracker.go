// Package alloc provides a debug/CI allocation guard used to assert
// that the RT tick path stays allocation-free once a pipeline has been
// compiled. Go exposes no custom-global-allocator hook, so the guard
// diffs runtime.MemStats.Mallocs across a measured span instead of
// instrumenting alloc/dealloc calls directly; it is never read from
// the RT thread itself, only from test or benchmark code driving it.
package alloc

import (
	"fmt"
	"runtime"
)

// Guard records a baseline allocation count on creation and reports
// how many mallocs have happened since.
type Guard struct {
	startMallocs uint64
}

// Track reads the current allocation count and returns a Guard
// measuring from this point forward.
func Track() *Guard {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &Guard{startMallocs: m.Mallocs}
}

// AllocationsSinceStart reports the number of heap allocations made
// since the guard was created.
func (g *Guard) AllocationsSinceStart() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.Mallocs < g.startMallocs {
		return 0
	}
	return m.Mallocs - g.startMallocs
}

// AssertZeroAlloc panics if any allocations have occurred since the
// guard was created. ctx is included in the panic message to identify
// which span of code violated the budget.
func (g *Guard) AssertZeroAlloc(ctx string) {
	if n := g.AllocationsSinceStart(); n > 0 {
		panic(fmt.Sprintf("%s: RT path allocation violation: %d allocations detected", ctx, n))
	}
}

// Report is a point-in-time summary of allocation activity over a
// measured span, useful when a caller wants to log or assert on the
// result without holding a live Guard.
type Report struct {
	Context     string
	Allocations uint64
}

// Benchmark measures allocations across a named span: create with
// NewBenchmark at the start of the span, call Finish at the end.
type Benchmark struct {
	guard   *Guard
	context string
}

// NewBenchmark begins measuring context.
func NewBenchmark(context string) *Benchmark {
	return &Benchmark{guard: Track(), context: context}
}

// Finish ends the measurement and returns the Report.
func (b *Benchmark) Finish() Report {
	return Report{Context: b.context, Allocations: b.guard.AllocationsSinceStart()}
}

// AssertZeroAlloc panics if the report recorded any allocations.
func (r Report) AssertZeroAlloc() {
	if r.Allocations > 0 {
		panic(fmt.Sprintf("allocation violation in %s: %d allocations", r.Context, r.Allocations))
	}
}
