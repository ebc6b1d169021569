package hidio

import (
	"errors"
	"time"

	"github.com/openracing/ffbengine/internal/ffbcore/frame"
)

// ErrNoDevice is returned by Sink.Write when no VendorHandler has been
// bound yet — the RT loop still ticks while a device is being
// identified, it just emits nothing.
var ErrNoDevice = errors.New("hidio: no device bound")

// maxReportLen comfortably covers every vendor's constant-force report;
// Sink reuses one buffer across ticks so Write never allocates.
const maxReportLen = 32

// Sink adapts a bound (VendorHandler, Port) pair to the RT loop's
// OutputSink contract (scheduler.OutputSink): encode the frame's torque
// with the vendor's wire format, then push it within a bounded deadline.
// Write must never allocate or block past writeDeadline — a slow HID
// write steals time directly from the next tick.
type Sink struct {
	handler       VendorHandler
	port          Port
	writeDeadline time.Duration
	buf           [maxReportLen]byte
}

// NewSink builds a Sink bound to handler/port. writeDeadline bounds each
// Port.Write call.
func NewSink(handler VendorHandler, port Port, writeDeadline time.Duration) *Sink {
	return &Sink{handler: handler, port: port, writeDeadline: writeDeadline}
}

// Rebind swaps the bound handler/port, e.g. after device re-identification.
// Not safe to call concurrently with Write; the embedding host serializes
// device lifecycle changes against the RT thread.
func (s *Sink) Rebind(handler VendorHandler, port Port) {
	s.handler = handler
	s.port = port
}

// Write implements scheduler.OutputSink.
func (s *Sink) Write(f *frame.Frame) error {
	if s.handler == nil || s.port == nil {
		return ErrNoDevice
	}
	n := s.handler.EncodeTorque(f.TorqueOut, s.buf[:])
	if n <= 0 {
		return nil
	}
	_, err := s.port.Write(s.buf[:n], s.writeDeadline)
	return err
}
