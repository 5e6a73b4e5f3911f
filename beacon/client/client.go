// Package client is a typed HTTP wrapper over the beacon REST endpoints and
// SSE `block` topic this service needs, plus the per-epoch memoization and
// 404-retry policy built around them.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rocket-pool/validator-watcher/internal/bitfield"
	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/log"
)

const (
	requestContentType = "application/json"

	pathEvents           = "/eth/v1/events"
	pathBlock            = "/eth/v2/beacon/blocks/%s"
	pathProposerDuties   = "/eth/v1/validator/duties/proposer/%d"
	pathValidators       = "/eth/v1/beacon/states/head/validators"
	pathCommittees       = "/eth/v1/beacon/states/head/committees"
	pathLighthouseLive   = "/lighthouse/liveness"

	// retry policy: exponential backoff factor 0.5, up to 3 attempts,
	// retrying on network errors and, among status codes, only on 404
	// (which the consensus-layer REST dialect also returns immediately
	// after a new-head notification, before the block is queryable).
	retryAttempts     = 3
	retryBackoffFactor = 500 * time.Millisecond
)

// MetricsRecorder is the small surface the beacon client needs from the
// metrics package, kept as an interface here so this package doesn't import
// metrics and can run without a metrics registry (nil is accepted).
type MetricsRecorder interface {
	SetActiveValidatorsCounts(total, ours int)
}

// Client is a typed HTTP + SSE wrapper over a single beacon node.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Logger
	metrics MetricsRecorder

	proposerDutiesCache *epochCache[[]ethtypes.ProposerDuty]
	committeesCache      *epochCache[map[uint64]map[uint64][]uint64]
}

// New creates a client talking to the beacon node at baseURL.
func New(baseURL string, logger *log.Logger, metrics MetricsRecorder) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("beacon: parse base url %q: %w", baseURL, err)
	}
	return &Client{
		baseURL:              parsed,
		http:                 &http.Client{Timeout: 30 * time.Second},
		logger:               logger,
		metrics:              metrics,
		proposerDutiesCache:  newEpochCache[[]ethtypes.ProposerDuty](2),
		committeesCache:      newEpochCache[map[uint64]map[uint64][]uint64](1),
	}, nil
}

// GetBlock fetches the block at slot. found is false when the block is
// absent (404, or retry-exhaustion over 404s) rather than an error.
func (c *Client) GetBlock(ctx context.Context, slot uint64) (block *ethtypes.Block, found bool, err error) {
	u := c.baseURL.JoinPath(fmt.Sprintf(pathBlock, fmt.Sprint(slot)))
	body, status, err := c.requestWithRetry(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if status != http.StatusOK {
		return nil, false, &TransportError{Op: "get block", Err: fmt.Errorf("status %d: %s", status, body)}
	}
	var b ethtypes.Block
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, false, &TransportError{Op: "decode block", Err: err}
	}
	return &b, true, nil
}

// GetProposerDuties fetches proposer duties for epoch, memoized in a
// size-2 cache keyed by epoch.
func (c *Client) GetProposerDuties(ctx context.Context, epoch uint64) ([]ethtypes.ProposerDuty, error) {
	if cached, ok := c.proposerDutiesCache.Get(epoch); ok {
		return cached, nil
	}

	u := c.baseURL.JoinPath(fmt.Sprintf(pathProposerDuties, epoch))
	body, status, err := c.requestWithRetry(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &TransportError{Op: "get proposer duties", Err: fmt.Errorf("status %d: %s", status, body)}
	}
	var resp ethtypes.ProposerDutiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "decode proposer duties", Err: err}
	}
	c.proposerDutiesCache.Set(epoch, resp.Data)
	return resp.Data, nil
}

// GetActiveIndexToPubkey fetches the head validator set, filters it to
// active statuses whose pubkey is in watched, and publishes the
// total/watched active validator counts via the metrics recorder.
func (c *Client) GetActiveIndexToPubkey(ctx context.Context, watched map[ethtypes.Pubkey]struct{}) (map[uint64]ethtypes.Pubkey, error) {
	u := c.baseURL.JoinPath(pathValidators)
	q := u.Query()
	q.Set("status", "active")
	u.RawQuery = q.Encode()
	body, status, err := c.requestWithRetry(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &TransportError{Op: "get validators", Err: fmt.Errorf("status %d: %s", status, body)}
	}
	var resp ethtypes.ValidatorsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "decode validators", Err: err}
	}

	result := make(map[uint64]ethtypes.Pubkey)
	totalActive := 0
	for _, v := range resp.Data {
		if !v.Status.IsActive() {
			continue
		}
		totalActive++
		if _, watching := watched[v.Validator.Pubkey]; watching {
			result[uint64(v.Index)] = v.Validator.Pubkey
		}
	}

	if c.metrics != nil {
		c.metrics.SetActiveValidatorsCounts(totalActive, len(result))
	}
	return result, nil
}

// GetDutyCommittees fetches the committee assignments for epoch, memoized
// in a size-1 cache keyed by epoch. The result is slot -> committee index ->
// validator indices.
func (c *Client) GetDutyCommittees(ctx context.Context, epoch uint64) (map[uint64]map[uint64][]uint64, error) {
	if cached, ok := c.committeesCache.Get(epoch); ok {
		return cached, nil
	}

	u := c.baseURL.JoinPath(pathCommittees)
	q := u.Query()
	q.Set("epoch", strconv.FormatUint(epoch, 10))
	u.RawQuery = q.Encode()
	body, status, err := c.requestWithRetry(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &TransportError{Op: "get committees", Err: fmt.Errorf("status %d: %s", status, body)}
	}
	var resp ethtypes.CommitteesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "decode committees", Err: err}
	}

	result := make(map[uint64]map[uint64][]uint64)
	for _, entry := range resp.Data {
		slot := uint64(entry.Slot)
		if result[slot] == nil {
			result[slot] = make(map[uint64][]uint64)
		}
		indices := make([]uint64, len(entry.Validators))
		for i, idx := range entry.Validators {
			indices[i] = uint64(idx)
		}
		result[slot][uint64(entry.CommitteeIndex)] = indices
	}

	c.committeesCache.Set(epoch, result)
	return result, nil
}

// GetValidatorsLiveness posts indices to the Lighthouse-specific liveness
// endpoint for epoch, returning whether each validator attested that
// epoch. Non-Lighthouse nodes that don't serve this route surface as a
// TransportError, which callers should treat as liveness being unavailable
// for that epoch and degrade gracefully.
func (c *Client) GetValidatorsLiveness(ctx context.Context, epoch uint64, indices []uint64) (map[uint64]bool, error) {
	wireIndices := make([]ethtypes.Uinteger, len(indices))
	for i, idx := range indices {
		wireIndices[i] = ethtypes.Uinteger(idx)
	}
	reqBody, err := json.Marshal(ethtypes.ValidatorsLivenessRequest{
		Epoch:   ethtypes.Uinteger(epoch),
		Indices: wireIndices,
	})
	if err != nil {
		return nil, fmt.Errorf("beacon: encode liveness request: %w", err)
	}

	u := c.baseURL.JoinPath(pathLighthouseLive)
	body, status, err := c.requestWithRetry(ctx, http.MethodPost, u, reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &TransportError{Op: "get validator liveness", Err: fmt.Errorf("status %d: %s", status, body)}
	}
	var resp ethtypes.ValidatorsLivenessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "decode validator liveness", Err: err}
	}

	result := make(map[uint64]bool, len(resp.Data))
	for _, item := range resp.Data {
		result[uint64(item.Index)] = item.IsLive
	}
	return result, nil
}

// AggregateAttestations decodes and OR-folds the aggregation bitfields of
// every attestation in block whose data.slot == targetSlot, grouped by
// committee index.
func (c *Client) AggregateAttestations(block *ethtypes.Block, targetSlot uint64) (map[uint64][]bool, error) {
	byCommittee := make(map[uint64][][]bool)
	for _, att := range block.Attestations() {
		if uint64(att.Data.Slot) != targetSlot {
			continue
		}
		bits, err := bitfield.DecodeAggregationBits(att.AggregationBits)
		if err != nil {
			c.logger.Warn("skipping malformed attestation bitfield", log.Err(err))
			continue
		}
		stripped, err := bitfield.StripSentinel(bits)
		if err != nil {
			c.logger.Warn("skipping attestation with no sentinel bit", log.Err(err))
			continue
		}
		committeeIndex := uint64(att.Data.CommitteeIndex)
		byCommittee[committeeIndex] = append(byCommittee[committeeIndex], stripped)
	}

	result := make(map[uint64][]bool, len(byCommittee))
	for committeeIndex, sequences := range byCommittee {
		folded, err := bitfield.OrFold(sequences)
		if err != nil {
			c.logger.Warn("skipping committee with mismatched bitfield lengths",
				"committee_index", committeeIndex, log.Err(err))
			continue
		}
		result[committeeIndex] = folded
	}
	return result, nil
}

// requestWithRetry issues an HTTP request against u, making up to
// retryAttempts attempts with exponential backoff while the response is 404
// or the request fails with a network error. Any other status code is
// returned immediately without retrying; a network error on the last
// attempt is returned as a TransportError. Callers build u (including any query
// string) themselves, since url.URL.JoinPath percent-escapes a literal "?"
// rather than treating it as a query separator.
func (c *Client) requestWithRetry(ctx context.Context, method string, u *url.URL, reqBody []byte) ([]byte, int, error) {
	var lastBody []byte
	var lastStatus int
	var lastErr error

	backoff := retryBackoffFactor
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
		if err != nil {
			return nil, 0, &TransportError{Op: "build request", Err: err}
		}
		if reqBody != nil {
			req.Header.Set("Content-Type", requestContentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		lastBody, lastStatus, lastErr = respBody, resp.StatusCode, nil
		if resp.StatusCode != http.StatusNotFound {
			return respBody, resp.StatusCode, nil
		}
		// 404: retry.
	}

	if lastErr != nil {
		return nil, 0, &TransportError{Op: fmt.Sprintf("%s %s", method, u.Path), Err: lastErr}
	}
	// Retries exhausted on repeated 404s.
	return lastBody, lastStatus, nil
}
