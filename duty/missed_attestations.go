package duty

import (
	"context"
	"fmt"
	"strings"

	"github.com/rocket-pool/validator-watcher/log"
)

// handleMissedAttestations checks which of our active validators were not
// live during targetEpoch (the epoch that just completed), alerts on those,
// and alerts again on any validator dead two targetEpochs in a row.
func (e *Engine) handleMissedAttestations(ctx context.Context, targetEpoch uint64) {
	if len(e.activeIndexToPubkey) == 0 {
		e.previousEpochDead = make(map[uint64]struct{})
		return
	}

	indices := make([]uint64, 0, len(e.activeIndexToPubkey))
	for idx := range e.activeIndexToPubkey {
		indices = append(indices, idx)
	}

	live, err := e.beacon.GetValidatorsLiveness(ctx, targetEpoch, indices)
	if err != nil {
		e.logger.Warn("get validators liveness failed, skipping missed-attestation check", "epoch", targetEpoch, log.Err(err))
		return
	}

	dead := make(map[uint64]struct{})
	for idx := range e.activeIndexToPubkey {
		if !live[idx] {
			dead[idx] = struct{}{}
		}
	}

	if len(dead) > 0 {
		e.notifier.Println(fmt.Sprintf(
			"☣️ Our validator %s missed attestation duty at epoch %d",
			e.shortPubkeyList(dead), targetEpoch,
		))
	}

	doubleDead := make(map[uint64]struct{})
	for idx := range dead {
		if _, wasDead := e.previousEpochDead[idx]; wasDead {
			doubleDead[idx] = struct{}{}
		}
	}
	if len(doubleDead) > 0 {
		e.notifier.Println(fmt.Sprintf(
			"☠️ Our validator %s missed attestation duty two epochs in a row",
			e.shortPubkeyList(doubleDead),
		))
	}

	e.previousEpochDead = dead
}

// shortPubkeyList renders up to shortPubkeyListCap short pubkeys from
// indices, plus an overflow count, matching the rest of the engine's log
// line convention.
func (e *Engine) shortPubkeyList(indices map[uint64]struct{}) string {
	shorts := make([]string, 0, shortPubkeyListCap)
	count := 0
	for idx := range indices {
		count++
		if len(shorts) >= shortPubkeyListCap {
			continue
		}
		shorts = append(shorts, e.activeIndexToPubkey[idx].Short())
	}
	overflow := count - len(shorts)
	if overflow > 0 {
		return fmt.Sprintf("%s and %d more", strings.Join(shorts, ", "), overflow)
	}
	return strings.Join(shorts, ", ")
}
