// Package telemetry defines the normalized per-tick telemetry record
// the RT loop consumes, upstream of any wire protocol. The core never
// parses wire formats itself: a Source implementation is a thin
// adapter that feeds NormalizedTelemetry samples at its own rate.
package telemetry

// NormalizedTelemetry is one telemetry sample: the raw torque request
// and wheel speed the RT loop needs every tick, plus optional thermal
// and current readings the FMEA detectors consume when present.
type NormalizedTelemetry struct {
	// FFBInNm is the raw torque request, normalized to [-1, 1].
	FFBInNm float32
	// WheelSpeedRadS is signed, in rad/s.
	WheelSpeedRadS float32
	// TemperatureC is the device's reported temperature, if the
	// adapter's source exposes one.
	TemperatureC *float32
	// CurrentA is the device's reported or estimated drive current, if
	// the adapter's source exposes one.
	CurrentA *float32
	// Seq is the adapter's own monotonic sample counter, independent
	// of the RT loop's tick Seq.
	Seq uint32
}

// Source produces NormalizedTelemetry samples on demand. Implementations
// are rate-limited by their own upstream (a wire protocol, a simulator);
// Sample must never block the RT thread for longer than a bounded read.
type Source interface {
	Sample() (NormalizedTelemetry, error)
}
