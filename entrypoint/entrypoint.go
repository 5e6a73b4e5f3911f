// Package entrypoint drives the long-running control loop: it consumes the
// beacon's SSE block stream, hands each slot to the duty engine, and
// supervises the metrics HTTP server alongside it.
package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocket-pool/validator-watcher/beacon/client"
	"github.com/rocket-pool/validator-watcher/config"
	"github.com/rocket-pool/validator-watcher/duty"
	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/internal/services"
	"github.com/rocket-pool/validator-watcher/keysource"
	"github.com/rocket-pool/validator-watcher/log"
)

// Run wires up the engine and runs it against the live SSE block stream
// until ctx is canceled or a fatal error occurs in any supervised task.
func Run(ctx context.Context, cfg *config.Config, provider *services.Provider) error {
	logger := provider.Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	signerHTTPClient := &http.Client{}
	refreshWatched := func(ctx context.Context) (map[ethtypes.Pubkey]struct{}, error) {
		return keysource.Load(ctx, signerHTTPClient, cfg.PubkeysFilePath, cfg.Web3SignerURLs)
	}

	initialWatched, err := refreshWatched(ctx)
	if err != nil {
		return fmt.Errorf("entrypoint: loading initial watched keys: %w", err)
	}

	engine := duty.New(
		provider.BeaconClient(),
		provider.Notifier(),
		provider.Metrics(),
		logger,
		initialWatched,
		refreshWatched,
		cfg.LivenessFilePath,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return provider.Metrics().Serve(groupCtx, cfg.MetricsAddr)
	})

	group.Go(func() error {
		return runSSELoop(groupCtx, provider.BeaconClient(), engine, logger)
	})

	return group.Wait()
}

// runSSELoop subscribes to the block event stream and feeds each event to
// engine.Process, deduping immediate slot repeats.
func runSSELoop(ctx context.Context, beaconClient *client.Client, engine *duty.Engine, logger *log.Logger) error {
	events, err := beaconClient.SubscribeBlocks(ctx)
	if err != nil {
		return fmt.Errorf("entrypoint: subscribing to block events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("entrypoint: block event stream closed")
			}
			slot := uint64(event.Slot)
			if engine.ShouldSkip(slot) {
				continue
			}
			if err := engine.Process(ctx, slot); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("processing slot failed, continuing", "slot", slot, log.Err(err))
			}
		}
	}
}
