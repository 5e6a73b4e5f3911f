// Package duty implements the per-slot duty-vs-outcome reconciliation
// engine: proposer-miss detection, attestation-inclusion classification,
// consecutive-miss tracking, and future-proposal pre-announcement.
package duty

import (
	"context"
	"os"
	"time"

	"github.com/rocket-pool/validator-watcher/beacon/client"
	"github.com/rocket-pool/validator-watcher/internal/chaintime"
	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/log"
	"github.com/rocket-pool/validator-watcher/metrics"
	"github.com/rocket-pool/validator-watcher/notifier"
)

// RefreshWatchedKeys re-reads the watched pubkey set at an epoch boundary
// (file + signer union, per the keysource package).
type RefreshWatchedKeys func(ctx context.Context) (map[ethtypes.Pubkey]struct{}, error)

// Engine carries the state that threads across SSE-delivered slots: the
// watched key set, the active-index-to-pubkey map, and the two-epoch dead
// set used to detect consecutive missed attestation epochs.
type Engine struct {
	beacon   *client.Client
	notifier *notifier.Notifier
	metrics  *metrics.Registry
	logger   *log.Logger

	refreshWatched RefreshWatchedKeys
	livenessFile   string

	watched             map[ethtypes.Pubkey]struct{}
	activeIndexToPubkey map[uint64]ethtypes.Pubkey

	previousSlot  uint64
	havePrevSlot  bool
	previousEpoch uint64
	havePrevEpoch bool

	previousEpochDead map[uint64]struct{}
}

// New builds an Engine. watched is the initial key set (already loaded by
// the caller); the engine refreshes it itself on every subsequent epoch
// boundary via refreshWatched.
func New(
	beaconClient *client.Client,
	notif *notifier.Notifier,
	metricsRegistry *metrics.Registry,
	logger *log.Logger,
	watched map[ethtypes.Pubkey]struct{},
	refreshWatched RefreshWatchedKeys,
	livenessFile string,
) *Engine {
	return &Engine{
		beacon:            beaconClient,
		notifier:          notif,
		metrics:           metricsRegistry,
		logger:            logger,
		refreshWatched:    refreshWatched,
		livenessFile:      livenessFile,
		watched:           watched,
		previousEpochDead: make(map[uint64]struct{}),
	}
}

// Process runs the full per-slot sequencing for one SSE-delivered slot: it
// is safe to call repeatedly with the same slot
// (e.g. after a brief reorg replays an event); callers that want to avoid
// double-incrementing counters should dedupe on slot == previous slot
// before calling.
func (e *Engine) Process(ctx context.Context, slot uint64) error {
	t0 := time.Now()
	epoch := chaintime.Epoch(slot)

	e.metrics.Slot.Set(float64(slot))
	e.metrics.Epoch.Set(float64(epoch))

	newEpoch := !e.havePrevEpoch || e.previousEpoch != epoch

	if newEpoch {
		watched, err := e.refreshWatched(ctx)
		if err != nil {
			e.logger.Warn("refreshing watched keys failed, keeping previous set", log.Err(err))
		} else {
			e.watched = watched
		}

		activeIndexToPubkey, err := e.beacon.GetActiveIndexToPubkey(ctx, e.watched)
		if err != nil {
			e.logger.Warn("refreshing active validator index failed, keeping previous map", log.Err(err))
		} else {
			e.activeIndexToPubkey = activeIndexToPubkey
		}
	}

	if newEpoch && epoch > 0 {
		e.handleMissedAttestations(ctx, epoch-1)
		e.handleFutureProposals(ctx, slot, epoch)
	}

	elapsed := time.Since(t0)
	if remaining := chaintime.BlockNotOrphanedTime - elapsed; remaining > 0 {
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	block, found, err := e.beacon.GetBlock(ctx, slot)
	if err != nil {
		e.logger.Warn("get block failed, treating slot as missed", "slot", slot, log.Err(err))
		found = false
	}

	if found {
		e.handleSuboptimalAttestations(ctx, block, slot)
	}

	e.handleMissedBlock(ctx, block, slot, epoch)

	e.previousSlot = slot
	e.havePrevSlot = true
	e.previousEpoch = epoch
	e.havePrevEpoch = true

	if e.livenessFile != "" {
		if err := touchLivenessFile(e.livenessFile); err != nil {
			e.logger.Warn("touching liveness file failed", log.Err(err))
		}
	}

	return nil
}

// ShouldSkip reports whether slot is a repeat of the previously processed
// slot.
func (e *Engine) ShouldSkip(slot uint64) bool {
	return e.havePrevSlot && e.previousSlot == slot
}

func touchLivenessFile(path string) error {
	content := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	return os.WriteFile(path, content, 0o600)
}
