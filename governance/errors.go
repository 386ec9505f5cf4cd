package governance

import "errors"

// Sentinel errors returned by the governance engine. Every failure is a
// whole-operation abort: no engine operation leaves partial state behind.
var (
	// ErrUnauthorized is returned when a non-owner calls an owner-only
	// operation, or a caller's voting level is below the configured minimum.
	ErrUnauthorized = errors.New("governance: unauthorized")

	// ErrInactive is returned by lifecycle operations while the global pause
	// flag is engaged.
	ErrInactive = errors.New("governance: system inactive")

	// ErrInvalidProposalID is returned when a proposal id is zero or exceeds
	// the number of proposals ever created.
	ErrInvalidProposalID = errors.New("governance: invalid proposal id")

	// ErrNotApprovedStrategy is returned when a proposal targets a strategy
	// that is not on the approved list.
	ErrNotApprovedStrategy = errors.New("governance: strategy not approved")

	// ErrMismatchedInputs is returned when targets and values differ in length.
	ErrMismatchedInputs = errors.New("governance: targets/values length mismatch")

	// ErrDuplicateLiveProposal is returned when a proposer's latest proposal
	// is still Pending or Active.
	ErrDuplicateLiveProposal = errors.New("governance: proposer already has a live proposal")

	// ErrStrategyRejected is returned when the strategy's own payload
	// validation refuses the proposal.
	ErrStrategyRejected = errors.New("governance: strategy rejected proposal payload")

	// ErrStrategyExecution is returned when the strategy dispatch fails during
	// execute; the executed latch is rolled back.
	ErrStrategyExecution = errors.New("governance: strategy execution failed")

	// ErrProposalNotActive is returned when voting is attempted outside the
	// Active state.
	ErrProposalNotActive = errors.New("governance: proposal is not active")

	// ErrAlreadyVoted is returned when a (proposal, voter) pair already has a
	// receipt.
	ErrAlreadyVoted = errors.New("governance: voter already cast a vote")

	// ErrProposalNotSucceeded is returned when execute is attempted outside
	// the Succeeded state.
	ErrProposalNotSucceeded = errors.New("governance: proposal has not succeeded")

	// ErrAlreadyExecuted is returned when cancel is attempted on an executed
	// proposal.
	ErrAlreadyExecuted = errors.New("governance: proposal already executed")

	// ErrInvalidSignature is returned when ballot signature recovery fails or
	// yields the zero address.
	ErrInvalidSignature = errors.New("governance: invalid ballot signature")

	// ErrArithmeticOverflow is returned when adding a vote's weight would
	// overflow a tally.
	ErrArithmeticOverflow = errors.New("governance: vote tally overflow")

	// ErrInvalidParameter is returned by configuration setters on an
	// out-of-range value or a no-op strategy approval toggle.
	ErrInvalidParameter = errors.New("governance: invalid parameter")
)
