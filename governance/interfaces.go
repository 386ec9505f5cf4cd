package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// VotingWeightOracle supplies an account's voting tier and its checkpointed
// voting weight at a historical block height. Binding votes to the weight at
// the proposal's start block (not the current balance) is what defeats
// flash-loan style vote inflation.
type VotingWeightOracle interface {
	// GetLevel returns the account's current voting tier (0–9).
	GetLevel(account common.Address) (uint8, error)

	// GetPriorValue returns the account's checkpointed voting weight as of
	// blockNumber, not its current balance.
	GetPriorValue(account common.Address, blockNumber uint64) (uint64, error)
}

// Strategy validates a proposal's action payload at creation time and
// executes it after the proposal succeeds. Implementations must not call back
// into the engine's mutating operations: the engine lock is held across both
// calls.
type Strategy interface {
	// ValidateProposal checks a (targets, values) payload for
	// strategy-specific well-formedness before a proposal is accepted.
	ValidateProposal(targets []common.Address, values []*uint256.Int) (bool, error)

	// ExecuteStrategy dispatches the stored payload of a succeeded proposal.
	ExecuteStrategy(targets []common.Address, values []*uint256.Int) (bool, error)
}

// ChainReader supplies the current block height. Proposal lifecycle state is
// derived from it on every query.
type ChainReader interface {
	CurrentBlock() uint64
}
