package duty

import (
	"context"
	"fmt"
	"strings"

	"github.com/rocket-pool/validator-watcher/internal/bitfield"
	"github.com/rocket-pool/validator-watcher/internal/chaintime"
	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/log"
)

const shortPubkeyListCap = 5

// handleSuboptimalAttestations classifies which of our validators'
// attestations for the slot immediately preceding block's slot were (not)
// included in the optimal next slot.
func (e *Engine) handleSuboptimalAttestations(ctx context.Context, block *ethtypes.Block, slot uint64) {
	previousSlot := slot - 1
	previousEpoch := chaintime.Epoch(previousSlot)

	committees, err := e.beacon.GetDutyCommittees(ctx, previousEpoch)
	if err != nil {
		e.logger.Warn("get duty committees failed, skipping suboptimal-attestation check", "slot", slot, log.Err(err))
		return
	}
	dutyByCommittee, ok := committees[previousSlot]
	if !ok {
		return
	}

	dutyIndices := make(map[uint64]struct{})
	for _, indices := range dutyByCommittee {
		for _, idx := range indices {
			dutyIndices[idx] = struct{}{}
		}
	}

	ourDuty := make(map[uint64]struct{})
	for idx := range dutyIndices {
		if _, ours := e.activeIndexToPubkey[idx]; ours {
			ourDuty[idx] = struct{}{}
		}
	}
	if len(ourDuty) == 0 {
		return
	}

	actual, err := e.beacon.AggregateAttestations(block, previousSlot)
	if err != nil {
		e.logger.Warn("aggregate attestations failed, skipping suboptimal-attestation check", "slot", slot, log.Err(err))
		return
	}

	ok2 := make(map[uint64]struct{})
	for committeeIndex, successMask := range actual {
		dutyForCommittee, present := dutyByCommittee[committeeIndex]
		if !present {
			continue
		}
		included, err := bitfield.ApplyMask(dutyForCommittee, successMask)
		if err != nil {
			e.logger.Warn("apply mask failed for committee", "committee_index", committeeIndex, log.Err(err))
			continue
		}
		for _, idx := range included {
			ok2[idx] = struct{}{}
		}
	}

	ourOK := make(map[uint64]struct{})
	for idx := range ourDuty {
		if _, included := ok2[idx]; included {
			ourOK[idx] = struct{}{}
		}
	}
	ourKO := make([]uint64, 0)
	for idx := range ourDuty {
		if _, included := ourOK[idx]; !included {
			ourKO = append(ourKO, idx)
		}
	}

	rate := 100 * float64(len(ourKO)) / float64(len(ourDuty))
	e.metrics.RateOfNotOptimalAttestationInclusion.Set(rate)

	if len(ourKO) > 0 {
		shorts := make([]string, 0, shortPubkeyListCap)
		for i, idx := range ourKO {
			if i >= shortPubkeyListCap {
				break
			}
			shorts = append(shorts, e.activeIndexToPubkey[idx].Short())
		}
		overflow := len(ourKO) - len(shorts)
		e.notifier.Println(fmt.Sprintf(
			"☣️ Our validator %s and %d more (%.1f %%) had not optimal attestation inclusion at slot %d",
			strings.Join(shorts, ", "), overflow, rate, previousSlot,
		))
	}
}
