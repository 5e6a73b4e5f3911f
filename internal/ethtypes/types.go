// Package ethtypes holds the wire and domain types shared by the beacon
// client and the duty engine: normalized pubkeys, string-encoded integers,
// and the handful of REST response shapes this service actually consumes.
package ethtypes

import "github.com/ethereum/go-ethereum/common"

// ValidatorState is the beacon node's validator status enum.
type ValidatorState string

const (
	ValidatorStatePendingInitialized ValidatorState = "pending_initialized"
	ValidatorStatePendingQueued      ValidatorState = "pending_queued"
	ValidatorStateActiveOngoing      ValidatorState = "active_ongoing"
	ValidatorStateActiveExiting      ValidatorState = "active_exiting"
	ValidatorStateActiveSlashed      ValidatorState = "active_slashed"
	ValidatorStateExitedUnslashed    ValidatorState = "exited_unslashed"
	ValidatorStateExitedSlashed      ValidatorState = "exited_slashed"
	ValidatorStateWithdrawalPossible ValidatorState = "withdrawal_possible"
	ValidatorStateWithdrawalDone     ValidatorState = "withdrawal_done"
)

// IsActive reports whether the status counts as "active" for the purposes
// of this service: active_ongoing and active_exiting only.
func (s ValidatorState) IsActive() bool {
	return s == ValidatorStateActiveOngoing || s == ValidatorStateActiveExiting
}

// EventBlock is the SSE `block` topic payload.
type EventBlock struct {
	Slot  Uinteger    `json:"slot"`
	Block common.Hash `json:"block"`
}

// ValidatorRecord is one entry of
// GET /eth/v1/beacon/states/head/validators.
type ValidatorRecord struct {
	Index  Uinteger       `json:"index"`
	Status ValidatorState `json:"status"`
	Validator struct {
		Pubkey Pubkey `json:"pubkey"`
	} `json:"validator"`
}

// ValidatorsResponse wraps the validators list response.
type ValidatorsResponse struct {
	Data []ValidatorRecord `json:"data"`
}

// ProposerDuty is one entry of
// GET /eth/v1/validator/duties/proposer/{epoch}.
type ProposerDuty struct {
	Pubkey         Pubkey   `json:"pubkey"`
	ValidatorIndex Uinteger `json:"validator_index"`
	Slot           Uinteger `json:"slot"`
}

// ProposerDutiesResponse wraps the proposer duties response.
type ProposerDutiesResponse struct {
	Data []ProposerDuty `json:"data"`
}

// CommitteeEntry is one entry of
// GET /eth/v1/beacon/states/head/committees.
type CommitteeEntry struct {
	Slot           Uinteger   `json:"slot"`
	CommitteeIndex Uinteger   `json:"index"`
	Validators     []Uinteger `json:"validators"`
}

// CommitteesResponse wraps the committees response.
type CommitteesResponse struct {
	Data []CommitteeEntry `json:"data"`
}

// Attestation is a single attestation as embedded in a block body.
type Attestation struct {
	AggregationBits string `json:"aggregation_bits"`
	Data            struct {
		Slot           Uinteger `json:"slot"`
		CommitteeIndex Uinteger `json:"index"`
	} `json:"data"`
}

// Block is the beacon block as returned by
// GET /eth/v2/beacon/blocks/{slot}.
type Block struct {
	Data struct {
		Message struct {
			Slot          Uinteger `json:"slot"`
			ProposerIndex Uinteger `json:"proposer_index"`
			Body          struct {
				Attestations []Attestation `json:"attestations"`
			} `json:"body"`
		} `json:"message"`
	} `json:"data"`
}

// Slot is a convenience accessor for the block's slot.
func (b *Block) Slot() uint64 {
	return uint64(b.Data.Message.Slot)
}

// ProposerIndex is a convenience accessor for the block's proposer index.
func (b *Block) ProposerIndex() uint64 {
	return uint64(b.Data.Message.ProposerIndex)
}

// Attestations is a convenience accessor for the block's attestation list.
func (b *Block) Attestations() []Attestation {
	return b.Data.Message.Body.Attestations
}

// ValidatorsLivenessRequest is the POST body for /lighthouse/liveness.
type ValidatorsLivenessRequest struct {
	Epoch   Uinteger   `json:"epoch"`
	Indices []Uinteger `json:"indices"`
}

// ValidatorLiveness is one entry of the liveness response.
type ValidatorLiveness struct {
	Index  Uinteger `json:"index"`
	IsLive bool     `json:"is_live"`
}

// ValidatorsLivenessResponse wraps the liveness response.
type ValidatorsLivenessResponse struct {
	Data []ValidatorLiveness `json:"data"`
}
