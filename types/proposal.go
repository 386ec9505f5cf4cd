// Package types defines the governance data model: proposals, vote receipts
// and the derived proposal lifecycle state.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProposalState is the derived lifecycle state of a proposal. It is never
// stored; it is recomputed from the proposal record and the current block
// height on every query.
type ProposalState uint8

const (
	// Pending means the current block is before the proposal's start block.
	Pending ProposalState = iota
	// Active means the voting window is open and neither side has reached quorum.
	Active
	// Canceled is terminal; set by the owner's cancel operation.
	Canceled
	// Defeated means the vote closed without a quorum-and-majority "for" tally.
	Defeated
	// Succeeded means the proposal reached quorum with a strict "for" majority.
	Succeeded
	// Executed is terminal; set when the strategy dispatch completed.
	Executed
)

func (s ProposalState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Active:
		return "Active"
	case Canceled:
		return "Canceled"
	case Defeated:
		return "Defeated"
	case Succeeded:
		return "Succeeded"
	case Executed:
		return "Executed"
	}
	return "Unknown"
}

// Proposal is one governance action record. Proposals are append-only:
// created once, mutated only by vote tallying, execution and cancellation,
// never deleted.
type Proposal struct {
	// ID is the monotonically increasing proposal id, starting at 1.
	ID uint64

	// Proposer created the proposal and is bound by the
	// one-live-proposal-per-actor rule.
	Proposer common.Address

	// Strategy is the approved strategy contract that validated the payload
	// and will execute it.
	Strategy common.Address

	// Targets and Values are the opaque, equal-length action payload handed
	// to the strategy.
	Targets []common.Address
	Values  []*uint256.Int

	// StartBlock and EndBlock bound the voting window, both inclusive.
	// EndBlock == StartBlock + votingPeriod.
	StartBlock uint64
	EndBlock   uint64

	// VotesFor and VotesAgainst accumulate snapshot-weighted votes.
	VotesFor     uint64
	VotesAgainst uint64

	// Canceled and Executed are mutually exclusive one-way latches.
	Canceled bool
	Executed bool
}

// StateAt derives the proposal's lifecycle state at block height now given the
// configured quorum. The case order is load-bearing:
//
//  1. Canceled and Executed are absorbing.
//  2. Before StartBlock the proposal is Pending.
//  3. Within the window the proposal stays Active only while BOTH tallies are
//     below quorum — a side reaching quorum flips the proposal out of Active
//     before EndBlock (early resolution).
//  4. A closed vote is Defeated on a tie or when the "for" tally is not
//     strictly above quorum; only a strict majority strictly above quorum
//     Succeeds.
func (p *Proposal) StateAt(now uint64, requiredVotes uint64) ProposalState {
	switch {
	case p.Canceled:
		return Canceled
	case p.Executed:
		return Executed
	case now < p.StartBlock:
		return Pending
	case now <= p.EndBlock && p.VotesFor < requiredVotes && p.VotesAgainst < requiredVotes:
		return Active
	case p.VotesFor <= p.VotesAgainst || p.VotesFor <= requiredVotes:
		return Defeated
	default:
		return Succeeded
	}
}

// Receipt records one voter's ballot on one proposal. A receipt is written at
// most once per (proposal, voter) pair and never changes afterwards.
type Receipt struct {
	HasVoted bool
	Support  bool
	// Votes is the voter's checkpointed weight at the proposal's StartBlock,
	// recorded at vote time.
	Votes uint64
}
