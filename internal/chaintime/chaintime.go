// Package chaintime holds the handful of beacon-chain timing constants and
// the slot/epoch arithmetic built on top of them.
package chaintime

import "time"

const (
	// SlotsPerEpoch is the number of slots grouped into one epoch.
	SlotsPerEpoch uint64 = 32

	// SecondsPerSlot is the wall-clock duration of a single slot.
	SecondsPerSlot = 12 * time.Second

	// BlockNotOrphanedTime is the grace period the duty engine waits,
	// after an SSE block event, before fetching the block. It gives a
	// chain reorg time to resolve so a block that gets orphaned right
	// after the event fires isn't reported as missed.
	BlockNotOrphanedTime = 9 * time.Second
)

// Epoch is the slot's containing epoch.
func Epoch(slot uint64) uint64 {
	return slot / SlotsPerEpoch
}

// SlotInEpoch is the slot's offset within its epoch, in [0, SlotsPerEpoch).
func SlotInEpoch(slot uint64) uint64 {
	return slot % SlotsPerEpoch
}

// FirstSlotOfEpoch returns the lowest slot number belonging to epoch.
func FirstSlotOfEpoch(epoch uint64) uint64 {
	return epoch * SlotsPerEpoch
}
