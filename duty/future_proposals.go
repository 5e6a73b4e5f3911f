package duty

import (
	"context"
	"fmt"

	"github.com/rocket-pool/validator-watcher/log"
)

// handleFutureProposals pre-announces any upcoming proposal duty for one of
// our watched keys in the current or next epoch.
func (e *Engine) handleFutureProposals(ctx context.Context, slot, epoch uint64) {
	for _, lookaheadEpoch := range [2]uint64{epoch, epoch + 1} {
		duties, err := e.beacon.GetProposerDuties(ctx, lookaheadEpoch)
		if err != nil {
			e.logger.Warn("get proposer duties failed, skipping future-proposal check", "epoch", lookaheadEpoch, log.Err(err))
			continue
		}
		for _, d := range duties {
			if uint64(d.Slot) <= slot {
				continue
			}
			if _, ours := e.watched[d.Pubkey]; !ours {
				continue
			}
			e.notifier.Println(fmt.Sprintf(
				"\U0001F4E2 Our validator %s is scheduled to propose a block at slot %d",
				d.Pubkey.Short(), uint64(d.Slot),
			))
		}
	}
}
