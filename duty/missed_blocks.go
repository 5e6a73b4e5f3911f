package duty

import (
	"context"
	"fmt"

	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/log"
)

// handleMissedBlock classifies the (missed, is_ours) quadrant for the
// proposer duty at slot, logs it, and on a missed proposal by one of our
// validators bumps the counter and notifies.
func (e *Engine) handleMissedBlock(ctx context.Context, block *ethtypes.Block, slot, epoch uint64) {
	duties, err := e.beacon.GetProposerDuties(ctx, epoch)
	if err != nil {
		e.logger.Warn("get proposer duties failed, skipping missed-block check", "slot", slot, log.Err(err))
		return
	}

	var proposerPubkey ethtypes.Pubkey
	found := false
	for _, d := range duties {
		if uint64(d.Slot) == slot {
			proposerPubkey = d.Pubkey
			found = true
			break
		}
	}
	if !found {
		e.logger.Warn("no proposer duty found for slot, skipping missed-block check", "slot", slot)
		return
	}

	missed := block == nil
	_, isOurs := e.watched[proposerPubkey]

	positiveEmoji, negativeEmoji := "✅", "\U0001F4A9" // ✅, 💩
	if isOurs {
		positiveEmoji, negativeEmoji = "✨", "❌" // ✨, ❌
	}

	emoji := positiveEmoji
	verb := "proposed"
	if missed {
		emoji = negativeEmoji
		verb = "missed  "
	}

	ownerTag := "    "
	if isOurs {
		ownerTag = "Our "
	}

	e.notifier.Println(fmt.Sprintf(
		"%s %svalidator %s %s block at epoch %d - slot %d %s - \U0001F511 %d keys watched",
		emoji, ownerTag, proposerPubkey.Short(), verb, epoch, slot, emoji, len(e.watched),
	))

	if isOurs && missed {
		e.metrics.ObserveMissedBlockProposal(slot, epoch)
		e.notifier.Alert(fmt.Sprintf(
			"%s Our validator `%s` %s block at epoch `%d` - slot `%d` %s",
			emoji, proposerPubkey.Short(), verb, epoch, slot, emoji,
		))
	}
}
