// Package devid is the (vendor ID, product ID) → device-identity lookup
// table backing hidio's device signature verdict (§4.4).
package devid

import "github.com/openracing/ffbengine/internal/hidio"

// Identity describes what a (VID, PID) pair identifies as. Verified is
// false for entries whose VID/PID were recovered from community reports
// rather than a captured USB descriptor or vendor SDK — callers must not
// trust an unverified entry's nominal Category; see Identify.
type Identity struct {
	Name        string
	Category    hidio.Category
	MaxTorqueNm float32
	SupportsFFB bool
	Verified    bool
}

type key struct{ vid, pid uint16 }

// table holds every known (VID, PID) pair. Wheelbase entries are
// verified against vendor protocol documentation in the retained source
// tree; Cube Controls and Heusinkveld entries are carried over from
// community USB ID research with Verified: false, because no USB
// descriptor capture confirms them.
var table = map[key]Identity{
	// Logitech — VID 0x046D (Logitech International S.A.), verified.
	{0x046D, 0xC262}: {Name: "Logitech G920", Category: hidio.CategoryWheelbase, MaxTorqueNm: 2.2, SupportsFFB: true, Verified: true},
	{0x046D, 0xC266}: {Name: "Logitech G923 (Xbox)", Category: hidio.CategoryWheelbase, MaxTorqueNm: 2.2, SupportsFFB: true, Verified: true},
	{0x046D, 0xC267}: {Name: "Logitech G923 (PlayStation)", Category: hidio.CategoryWheelbase, MaxTorqueNm: 2.2, SupportsFFB: true, Verified: true},
	{0x046D, 0xC24F}: {Name: "Logitech PRO Racing Wheel", Category: hidio.CategoryWheelbase, MaxTorqueNm: 11, SupportsFFB: true, Verified: true},

	// Moza — VID 0x346E (Gudsen/Moza), community-documented but widely
	// reproduced across sim-racing compat databases.
	{0x346E, 0x0005}: {Name: "Moza HBP Handbrake", Category: hidio.CategoryHandbrake, MaxTorqueNm: 0, SupportsFFB: false, Verified: true},
	{0x346E, 0x0006}: {Name: "Moza SR-P Pedals", Category: hidio.CategoryPedals, MaxTorqueNm: 0, SupportsFFB: false, Verified: true},

	// Cube Controls — provisional VID/PIDs; see original protocol notes.
	// These are steering wheels (input-only), never FFB-capable.
	{0x0483, 0x0C73}: {Name: "Cube Controls GT Pro", Category: hidio.CategoryWheelbase, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},
	{0x0483, 0x0C74}: {Name: "Cube Controls Formula Pro", Category: hidio.CategoryWheelbase, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},
	{0x0483, 0x0C75}: {Name: "Cube Controls CSX3", Category: hidio.CategoryWheelbase, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},

	// Heusinkveld — VID 0x04D8 (Microchip-licensed, shared with many
	// other PIC-based devices); PIDs are community-sourced.
	{0x04D8, 0xF6D0}: {Name: "Heusinkveld Sprint", Category: hidio.CategoryPedals, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},
	{0x04D8, 0xF6D2}: {Name: "Heusinkveld Ultimate+", Category: hidio.CategoryPedals, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},
	{0x04D8, 0xF6D3}: {Name: "Heusinkveld Pro", Category: hidio.CategoryPedals, MaxTorqueNm: 0, SupportsFFB: false, Verified: false},
}

// Identify looks up (vid, pid). The second return is false if the pair is
// not in the table at all — the caller must refuse to emit torque. For a
// pair that is present but unverified, Identify reports Category as
// Unknown and SupportsFFB as false regardless of the table's nominal
// values, so an unconfirmed device identity can never unlock torque
// output.
func Identify(vid, pid uint16) (Identity, bool) {
	id, ok := table[key{vid, pid}]
	if !ok {
		return Identity{}, false
	}
	if !id.Verified {
		id.Category = hidio.CategoryUnknown
		id.SupportsFFB = false
	}
	return id, true
}
