package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/r3labs/sse/v2"

	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
)

// SubscribeBlocks opens an SSE stream against the beacon node's `block`
// topic and pushes decoded events onto the returned channel until ctx is
// canceled. The r3labs client already retries the underlying connection
// with backoff; reconnects are transparent to the caller.
func (c *Client) SubscribeBlocks(ctx context.Context) (<-chan ethtypes.EventBlock, error) {
	streamURL := c.baseURL.JoinPath(pathEvents)
	q := streamURL.Query()
	q.Set("topics", "block")
	streamURL.RawQuery = q.Encode()

	sseClient := sse.NewClient(streamURL.String())
	sseClient.ReconnectStrategy = newReconnectBackoff()

	out := make(chan ethtypes.EventBlock)

	events := make(chan *sse.Event)
	if err := sseClient.SubscribeChanRawWithContext(ctx, events); err != nil {
		return nil, &TransportError{Op: "subscribe block events", Err: err}
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if len(ev.Data) == 0 {
					continue
				}
				var decoded ethtypes.EventBlock
				if err := json.Unmarshal(ev.Data, &decoded); err != nil {
					c.logger.Warn("dropping malformed block event", "raw", string(ev.Data), "error", err.Error())
					continue
				}
				select {
				case out <- decoded:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// newReconnectBackoff mirrors the REST retry policy's exponential shape
// (0.5 factor) for SSE reconnects, uncapped in attempt count since losing
// the live stream is fatal to the service's purpose.
func newReconnectBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBackoffFactor
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry forever
	return b
}
