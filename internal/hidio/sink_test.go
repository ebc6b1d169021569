package hidio_test

import (
	"testing"
	"time"

	"github.com/openracing/ffbengine/internal/ffbcore/frame"
	"github.com/openracing/ffbengine/internal/hidio"
	"github.com/openracing/ffbengine/internal/hidio/transport/virtualport"
	"github.com/openracing/ffbengine/internal/hidio/vendor/logitech"
)

func TestSinkWritesEncodedReport(t *testing.T) {
	handler := logitech.NewConstantForceEncoder(10.0)
	port := virtualport.New(4)
	port.Open()

	sink := hidio.NewSink(handler, port, 5*time.Millisecond)
	f := frame.Next(0.5, 0, 0, 0)
	f.TorqueOut = 5.0

	if err := sink.Write(&f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := len(port.WrittenReports()); got != 1 {
		t.Fatalf("expected 1 report written, got %d", got)
	}
}

func TestSinkWithoutBoundDeviceErrors(t *testing.T) {
	sink := hidio.NewSink(nil, nil, time.Millisecond)
	f := frame.Next(0, 0, 0, 0)
	if err := sink.Write(&f); err != hidio.ErrNoDevice {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestSinkRebind(t *testing.T) {
	portA := virtualport.New(4)
	portA.Open()
	portB := virtualport.New(4)
	portB.Open()
	handler := logitech.NewConstantForceEncoder(10.0)

	sink := hidio.NewSink(handler, portA, time.Millisecond)
	sink.Rebind(handler, portB)

	f := frame.Next(0, 0, 0, 0)
	f.TorqueOut = 1.0
	if err := sink.Write(&f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(portA.WrittenReports()) != 0 || len(portB.WrittenReports()) != 1 {
		t.Fatalf("expected write to go to rebound port only")
	}
}
