package chaintime

import "testing"

func TestEpoch(t *testing.T) {
	cases := map[uint64]uint64{
		0:   0,
		31:  0,
		32:  1,
		63:  1,
		64:  2,
		100: 3,
	}
	for slot, want := range cases {
		if got := Epoch(slot); got != want {
			t.Errorf("Epoch(%d) = %d, want %d", slot, got, want)
		}
	}
}

func TestSlotInEpoch(t *testing.T) {
	cases := map[uint64]uint64{
		0:  0,
		31: 31,
		32: 0,
		63: 31,
		64: 0,
	}
	for slot, want := range cases {
		if got := SlotInEpoch(slot); got != want {
			t.Errorf("SlotInEpoch(%d) = %d, want %d", slot, got, want)
		}
	}
}

func TestFirstSlotOfEpoch(t *testing.T) {
	if got := FirstSlotOfEpoch(3); got != 96 {
		t.Errorf("FirstSlotOfEpoch(3) = %d, want 96", got)
	}
}
