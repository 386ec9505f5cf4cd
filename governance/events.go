package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
)

// ProposalCreatedEvent is published when a proposal is accepted, carrying the
// full payload for off-chain indexers.
type ProposalCreatedEvent struct {
	ID          uint64
	Proposer    common.Address
	Strategy    common.Address
	Targets     []common.Address
	Values      []*uint256.Int
	StartBlock  uint64
	EndBlock    uint64
	Description string
}

// VoteCastEvent is published for every recorded ballot.
type VoteCastEvent struct {
	ID      uint64
	Voter   common.Address
	Support bool
	Weight  uint64
}

// ProposalExecutedEvent is published after a successful strategy dispatch.
type ProposalExecutedEvent struct {
	ID uint64
}

// ProposalCanceledEvent is published when the owner cancels a proposal.
type ProposalCanceledEvent struct {
	ID uint64
}

// OwnershipTransferredEvent is published on ownership transfer and renounce.
type OwnershipTransferredEvent struct {
	Previous common.Address
	New      common.Address
}

// SubscribeProposalCreated sends ProposalCreatedEvent on ch until the
// subscription is unsubscribed.
func (e *Engine) SubscribeProposalCreated(ch chan<- ProposalCreatedEvent) event.Subscription {
	return e.scope.Track(e.createdFeed.Subscribe(ch))
}

// SubscribeVoteCast sends VoteCastEvent on ch.
func (e *Engine) SubscribeVoteCast(ch chan<- VoteCastEvent) event.Subscription {
	return e.scope.Track(e.voteFeed.Subscribe(ch))
}

// SubscribeProposalExecuted sends ProposalExecutedEvent on ch.
func (e *Engine) SubscribeProposalExecuted(ch chan<- ProposalExecutedEvent) event.Subscription {
	return e.scope.Track(e.executedFeed.Subscribe(ch))
}

// SubscribeProposalCanceled sends ProposalCanceledEvent on ch.
func (e *Engine) SubscribeProposalCanceled(ch chan<- ProposalCanceledEvent) event.Subscription {
	return e.scope.Track(e.canceledFeed.Subscribe(ch))
}

// SubscribeOwnershipTransferred sends OwnershipTransferredEvent on ch.
func (e *Engine) SubscribeOwnershipTransferred(ch chan<- OwnershipTransferredEvent) event.Subscription {
	return e.scope.Track(e.ownershipFeed.Subscribe(ch))
}
