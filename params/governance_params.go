// Package params holds process-wide governance protocol constants.
package params

const (
	// MaxProposalLevel is the highest voting-weight tier the owner may require
	// for proposing and executing. Tiers run 0–9.
	MaxProposalLevel = uint8(9)

	// DefaultVotingDelay is the default number of blocks between proposal
	// creation and the start of its voting window.
	DefaultVotingDelay = uint64(1)

	// DefaultVotingPeriod is the default length of a voting window in blocks.
	// ~24h at 12 s/block.
	DefaultVotingPeriod = uint64(7_200)
)
