package governance

import "github.com/tos-network/governance/params"

// Config holds the process-wide governance parameters. Every field is read by
// the proposal lifecycle operations and mutated only through the owner-gated
// setters on the engine.
type Config struct {
	// Active is the global pause flag; when false every lifecycle operation
	// aborts with ErrInactive.
	Active bool

	// ProposalLevel is the minimum voting tier required to propose and to
	// execute. Bounded by params.MaxProposalLevel.
	ProposalLevel uint8

	// RequiredVotes is the quorum threshold: the vote weight either side needs
	// for a proposal to resolve (or to exit Active early).
	RequiredVotes uint64

	// Delay is the number of blocks between proposal creation and the start of
	// its voting window.
	Delay uint64

	// VotingPeriod is the number of blocks a proposal stays open for voting.
	VotingPeriod uint64
}

// DefaultConfig returns an active configuration with the default voting
// window. RequiredVotes is deployment-specific and starts at zero.
func DefaultConfig() Config {
	return Config{
		Active:       true,
		Delay:        params.DefaultVotingDelay,
		VotingPeriod: params.DefaultVotingPeriod,
	}
}
