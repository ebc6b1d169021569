package telemetry

import (
	"math"
	"math/rand"
	"sync"
)

// DemoSource generates a deterministic-shaped synthetic telemetry
// stream for local development and test, standing in for a real
// wire-protocol adapter. It is not a wire-protocol adapter itself and
// is the only telemetry.Source this engine ships.
type DemoSource struct {
	mu  sync.Mutex
	t   float64 // virtual time accumulator, seconds
	seq uint32
}

// NewDemoSource returns a DemoSource starting at t=0.
func NewDemoSource() *DemoSource {
	return &DemoSource{}
}

// dt is the virtual time step applied per Sample call, matching a
// 1kHz tick.
const dt = 0.001

// Sample advances the virtual clock and returns the next synthetic
// reading: ffb_in oscillates between opposing-lock steering loads,
// wheel_speed tracks a slower independent oscillation, and
// temperature/current drift upward under simulated load.
func (d *DemoSource) Sample() (NormalizedTelemetry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.t += dt
	d.seq++

	load := math.Sin(d.t * 0.7)
	ffbIn := float32(load*0.6 + math.Sin(d.t*11.0)*0.05)
	if ffbIn > 1 {
		ffbIn = 1
	}
	if ffbIn < -1 {
		ffbIn = -1
	}

	wheelSpeed := float32(math.Sin(d.t*0.25) * 6.0)

	tempC := float32(35.0 + math.Abs(load)*20.0 + rand.Float64()*2.0)
	currentA := float32(2.0 + math.Abs(load)*6.0 + rand.Float64()*0.5)

	return NormalizedTelemetry{
		FFBInNm:        ffbIn,
		WheelSpeedRadS: wheelSpeed,
		TemperatureC:   &tempC,
		CurrentA:       &currentA,
		Seq:            d.seq,
	}, nil
}
