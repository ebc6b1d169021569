package devid

import (
	"testing"

	"github.com/openracing/ffbengine/internal/hidio"
)

func TestIdentifyKnownWheelbase(t *testing.T) {
	id, ok := Identify(0x046D, 0xC262)
	if !ok {
		t.Fatalf("expected G920 to be found")
	}
	if id.Category != hidio.CategoryWheelbase || !id.SupportsFFB {
		t.Fatalf("expected verified wheelbase with FFB support, got %+v", id)
	}
}

func TestIdentifyUnknownPairRefused(t *testing.T) {
	if _, ok := Identify(0xFFFF, 0xFFFF); ok {
		t.Fatalf("expected unknown (vid,pid) to be refused")
	}
}

func TestIdentifyUnverifiedForcedUnknownCategory(t *testing.T) {
	id, ok := Identify(0x0483, 0x0C73) // Cube Controls GT Pro, provisional
	if !ok {
		t.Fatalf("expected provisional entry to still be present in the table")
	}
	if id.Category != hidio.CategoryUnknown {
		t.Fatalf("expected unverified entry to report Category Unknown, got %v", id.Category)
	}
	if id.SupportsFFB {
		t.Fatalf("expected unverified entry to never claim FFB support")
	}
}

func TestIdentifyHeusinkveldUnverified(t *testing.T) {
	id, ok := Identify(0x04D8, 0xF6D2)
	if !ok {
		t.Fatalf("expected Heusinkveld Ultimate+ to be present")
	}
	if id.Category != hidio.CategoryUnknown {
		t.Fatalf("expected Category Unknown for unverified Heusinkveld entry")
	}
}
