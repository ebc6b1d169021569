// Package dispatch is the (vendor ID, product ID) routing table that
// ties hidio.VendorHandler implementations to devid's device-identity
// verdict: it is the only place in the engine allowed to hand out a
// handler capable of emitting torque.
package dispatch

import (
	"fmt"

	"github.com/openracing/ffbengine/internal/hidio"
	"github.com/openracing/ffbengine/internal/hidio/devid"
	"github.com/openracing/ffbengine/internal/hidio/vendor/logitech"
	"github.com/openracing/ffbengine/internal/hidio/vendor/moza"
)

// Table routes a (vendor ID, product ID) pair to its VendorHandler,
// refusing to emit torque for anything not positively identified as an
// FFB-capable device.
type Table struct {
	handlers map[string]hidio.VendorHandler
}

// New builds a Table pre-populated with every vendor handler this engine
// knows how to drive.
func New() *Table {
	t := &Table{handlers: make(map[string]hidio.VendorHandler)}

	for _, pid := range []uint16{logitech.ProductG920, logitech.ProductG923Xbox, logitech.ProductG923PS, logitech.ProductProRacing} {
		id, _ := devid.Identify(0x046D, pid)
		t.register(0x046D, pid, logitech.NewConstantForceEncoder(id.MaxTorqueNm))
	}

	t.register(0x346E, moza.ProductHBPHandbrake, moza.NewHandler(moza.ProductHBPHandbrake))
	t.register(0x346E, moza.ProductSRPPedals, moza.NewHandler(moza.ProductSRPPedals))

	return t
}

func dispatchKey(vid, pid uint16) string {
	return fmt.Sprintf("%04x:%04x", vid, pid)
}

func (t *Table) register(vid, pid uint16, h hidio.VendorHandler) {
	t.handlers[dispatchKey(vid, pid)] = h
}

// Resolve returns the handler for (vid, pid) and the device's verified
// identity. ok is false when the pair is unidentified, unverified, or has
// no registered handler — the caller must refuse to emit torque in every
// such case.
func (t *Table) Resolve(vid, pid uint16) (hidio.VendorHandler, devid.Identity, bool) {
	id, known := devid.Identify(vid, pid)
	if !known || id.Category == hidio.CategoryUnknown {
		return nil, devid.Identity{}, false
	}
	h, ok := t.handlers[dispatchKey(vid, pid)]
	if !ok {
		return nil, devid.Identity{}, false
	}
	return h, id, true
}
