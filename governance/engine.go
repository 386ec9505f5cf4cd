// Package governance implements a token-weighted proposal engine: holders of
// a voting-weight token propose, vote on, and execute parameterized
// multi-call actions through a time-boxed, quorum-gated lifecycle.
//
// Proposal status is never stored; it is derived from block height and vote
// tallies on every query. Votes are weighted by the voter's checkpointed
// balance at the proposal's start block, queried from a VotingWeightOracle.
// Every public operation runs under one engine lock, so each call is applied
// atomically or not at all.
package governance

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"

	"github.com/tos-network/governance/govdb"
	"github.com/tos-network/governance/params"
	"github.com/tos-network/governance/types"
)

// proposalCacheSize bounds the decoded-proposal cache in front of the store.
const proposalCacheSize = 256

// Engine orchestrates the proposal lifecycle. All state lives in the backing
// govdb store except the owner, the configuration and the bound strategy
// implementations.
type Engine struct {
	mu sync.Mutex // serializes every public operation

	db     govdb.KeyValueStore
	chain  ChainReader
	oracle VotingWeightOracle
	ballot *BallotVerifier

	owner common.Address
	cfg   Config

	// strategies maps an approved strategy address to its bound Go
	// implementation. The approval bit persists in the store; the binding is
	// process-local and re-established at startup via BindStrategy.
	strategies map[common.Address]Strategy

	cache *lru.Cache // proposal id -> *types.Proposal

	createdFeed   event.Feed
	voteFeed      event.Feed
	executedFeed  event.Feed
	canceledFeed  event.Feed
	ownershipFeed event.Feed
	scope         event.SubscriptionScope

	metrics *metrics
	log     log.Logger
}

// NewEngine creates a governance engine over the given store. The store may
// already hold proposals from a previous run; strategy implementations for
// persisted approvals must be re-attached with BindStrategy before those
// strategies can validate or execute again.
func NewEngine(db govdb.KeyValueStore, chain ChainReader, oracle VotingWeightOracle, ballot *BallotVerifier, owner common.Address, cfg Config) (*Engine, error) {
	if cfg.ProposalLevel > params.MaxProposalLevel {
		return nil, fmt.Errorf("%w: proposal level %d exceeds maximum %d", ErrInvalidParameter, cfg.ProposalLevel, params.MaxProposalLevel)
	}
	cache, err := lru.New(proposalCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		db:         db,
		chain:      chain,
		oracle:     oracle,
		ballot:     ballot,
		owner:      owner,
		cfg:        cfg,
		strategies: make(map[common.Address]Strategy),
		cache:      cache,
		metrics:    newMetrics(),
		log:        log.New("module", "governance"),
	}, nil
}

// Stop unsubscribes all event listeners. The backing store is owned by the
// caller and is not closed.
func (e *Engine) Stop() {
	e.scope.Close()
}

// Propose creates a new proposal targeting an approved strategy with an
// opaque (targets, values) payload. The voting window opens Delay blocks from
// now and stays open for VotingPeriod blocks. Returns the new proposal id.
func (e *Engine) Propose(proposer common.Address, strategy common.Address, targets []common.Address, values []*uint256.Int, description string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// ── Validation phase (no state writes) ──────────────────────────────────

	if !e.cfg.Active {
		return 0, ErrInactive
	}
	// Proposer eligibility is checked against the live voting level, not a
	// snapshot.
	level, err := e.oracle.GetLevel(proposer)
	if err != nil {
		return 0, fmt.Errorf("governance: voting level query: %w", err)
	}
	if level < e.cfg.ProposalLevel {
		return 0, ErrUnauthorized
	}
	approved, err := govdb.ReadStrategyApproval(e.db, strategy)
	if err != nil {
		return 0, err
	}
	if !approved {
		return 0, ErrNotApprovedStrategy
	}
	if len(targets) != len(values) {
		return 0, ErrMismatchedInputs
	}
	// One live proposal per actor: the proposer's latest proposal must not be
	// Pending or Active.
	latest, err := govdb.ReadLatestProposalID(e.db, proposer)
	if err != nil {
		return 0, err
	}
	if latest != 0 {
		prev, err := e.getProposal(latest)
		if err != nil {
			return 0, err
		}
		switch prev.StateAt(e.chain.CurrentBlock(), e.cfg.RequiredVotes) {
		case types.Pending, types.Active:
			return 0, ErrDuplicateLiveProposal
		}
	}
	// Strategy-specific payload validation, delegated to the strategy itself.
	impl, ok := e.strategies[strategy]
	if !ok {
		return 0, fmt.Errorf("%w: no implementation bound for %s", ErrNotApprovedStrategy, strategy.Hex())
	}
	valid, err := impl.ValidateProposal(targets, values)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStrategyRejected, err)
	}
	if !valid {
		return 0, ErrStrategyRejected
	}

	// ── Mutation phase ──────────────────────────────────────────────────────

	count, err := govdb.ReadProposalCount(e.db)
	if err != nil {
		return 0, err
	}
	now := e.chain.CurrentBlock()
	storedTargets, storedValues := copyActions(targets, values)
	p := &types.Proposal{
		ID:         count + 1,
		Proposer:   proposer,
		Strategy:   strategy,
		Targets:    storedTargets,
		Values:     storedValues,
		StartBlock: now + e.cfg.Delay,
		EndBlock:   now + e.cfg.Delay + e.cfg.VotingPeriod,
	}
	batch := e.db.NewBatch()
	if err := govdb.WriteProposal(batch, p); err != nil {
		return 0, err
	}
	if err := govdb.WriteLatestProposalID(batch, proposer, p.ID); err != nil {
		return 0, err
	}
	if err := govdb.WriteProposalCount(batch, p.ID); err != nil {
		return 0, err
	}
	if err := batch.Write(); err != nil {
		return 0, err
	}
	e.cache.Add(p.ID, p)

	e.metrics.proposalsCreated.Inc()
	e.log.Info("Proposal created", "id", p.ID, "proposer", proposer, "strategy", strategy,
		"start", p.StartBlock, "end", p.EndBlock, "actions", len(targets))
	eventTargets, eventValues := copyActions(p.Targets, p.Values)
	e.createdFeed.Send(ProposalCreatedEvent{
		ID:          p.ID,
		Proposer:    proposer,
		Strategy:    strategy,
		Targets:     eventTargets,
		Values:      eventValues,
		StartBlock:  p.StartBlock,
		EndBlock:    p.EndBlock,
		Description: description,
	})
	return p.ID, nil
}

// Vote casts the voter's ballot on an active proposal, weighted by the
// voter's checkpointed weight at the proposal's start block.
func (e *Engine) Vote(voter common.Address, proposalID uint64, support bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.castVote(voter, voter, proposalID, support)
}

// VoteBySig casts a ballot on behalf of the signer of a domain-separated
// ballot digest. The recovered signer is the receipt identity and eligibility
// subject, but the recorded weight is queried for the submitting sender's
// checkpointed balance — intentionally preserved contract behaviour; see
// BallotVerifier for the digest construction.
func (e *Engine) VoteBySig(sender common.Address, proposalID uint64, support bool, v byte, r, s common.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	signer, err := e.ballot.RecoverVoter(proposalID, support, v, r, s)
	if err != nil {
		return err
	}
	return e.castVote(signer, sender, proposalID, support)
}

// castVote is the shared voting routine. voter is the receipt identity;
// weightSource is the account whose checkpointed weight is tallied. The two
// differ only on the signature path. Caller holds e.mu.
func (e *Engine) castVote(voter, weightSource common.Address, proposalID uint64, support bool) error {
	// ── Validation phase ────────────────────────────────────────────────────

	if !e.cfg.Active {
		return ErrInactive
	}
	p, state, err := e.stateLocked(proposalID)
	if err != nil {
		return err
	}
	if state != types.Active {
		return ErrProposalNotActive
	}
	voted, err := govdb.HasReceipt(e.db, proposalID, voter)
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}
	// Weight at the proposal's start block, re-queried on every vote.
	weight, err := e.oracle.GetPriorValue(weightSource, p.StartBlock)
	if err != nil {
		return fmt.Errorf("governance: prior value query: %w", err)
	}

	up := *p
	if support {
		sum, overflow := math.SafeAdd(up.VotesFor, weight)
		if overflow {
			return ErrArithmeticOverflow
		}
		up.VotesFor = sum
	} else {
		sum, overflow := math.SafeAdd(up.VotesAgainst, weight)
		if overflow {
			return ErrArithmeticOverflow
		}
		up.VotesAgainst = sum
	}

	// ── Mutation phase ──────────────────────────────────────────────────────

	receipt := &types.Receipt{HasVoted: true, Support: support, Votes: weight}
	batch := e.db.NewBatch()
	if err := govdb.WriteReceipt(batch, proposalID, voter, receipt); err != nil {
		return err
	}
	if err := govdb.WriteProposal(batch, &up); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	e.cache.Add(proposalID, &up)

	e.metrics.votesCast.Inc()
	e.log.Debug("Vote cast", "id", proposalID, "voter", voter, "support", support, "weight", weight)
	e.voteFeed.Send(VoteCastEvent{ID: proposalID, Voter: voter, Support: support, Weight: weight})
	return nil
}

// Execute dispatches a succeeded proposal's payload to its strategy. The
// executed latch is persisted before the dispatch so a reentrant strategy
// observes the proposal as already executed; a failed dispatch rolls the
// latch back and aborts.
func (e *Engine) Execute(caller common.Address, proposalID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// ── Validation phase ────────────────────────────────────────────────────

	level, err := e.oracle.GetLevel(caller)
	if err != nil {
		return fmt.Errorf("governance: voting level query: %w", err)
	}
	if level < e.cfg.ProposalLevel {
		return ErrUnauthorized
	}
	if !e.cfg.Active {
		return ErrInactive
	}
	p, state, err := e.stateLocked(proposalID)
	if err != nil {
		return err
	}
	if state != types.Succeeded {
		return ErrProposalNotSucceeded
	}
	impl, ok := e.strategies[p.Strategy]
	if !ok {
		return fmt.Errorf("%w: no implementation bound for %s", ErrNotApprovedStrategy, p.Strategy.Hex())
	}

	// ── Mutation phase ──────────────────────────────────────────────────────

	up := *p
	up.Executed = true
	if err := govdb.WriteProposal(e.db, &up); err != nil {
		return err
	}
	e.cache.Add(proposalID, &up)

	done, err := impl.ExecuteStrategy(p.Targets, p.Values)
	if err != nil || !done {
		// Roll the latch back; the whole operation aborts.
		if rbErr := govdb.WriteProposal(e.db, p); rbErr != nil {
			e.log.Error("Executed latch rollback failed", "id", proposalID, "err", rbErr)
		}
		e.cache.Add(proposalID, p)
		e.log.Warn("Strategy dispatch failed", "id", proposalID, "strategy", p.Strategy, "err", err)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStrategyExecution, err)
		}
		return ErrStrategyExecution
	}

	e.metrics.proposalsExecuted.Inc()
	e.log.Info("Proposal executed", "id", proposalID, "strategy", p.Strategy)
	e.executedFeed.Send(ProposalExecutedEvent{ID: proposalID})
	return nil
}

// Cancel marks a proposal dead. Owner-only, allowed from any state except
// Executed — including Active and Succeeded, as an override safety valve.
func (e *Engine) Cancel(caller common.Address, proposalID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	p, state, err := e.stateLocked(proposalID)
	if err != nil {
		return err
	}
	if state == types.Executed {
		return ErrAlreadyExecuted
	}

	up := *p
	up.Canceled = true
	if err := govdb.WriteProposal(e.db, &up); err != nil {
		return err
	}
	e.cache.Add(proposalID, &up)

	e.metrics.proposalsCanceled.Inc()
	e.log.Info("Proposal canceled", "id", proposalID)
	e.canceledFeed.Send(ProposalCanceledEvent{ID: proposalID})
	return nil
}

// ── Owner-only configuration surface ─────────────────────────────────────────

// ApproveStrategy adds strategy to the approved list and binds its
// implementation. Approving an already-approved address fails.
func (e *Engine) ApproveStrategy(caller common.Address, strategy common.Address, impl Strategy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if impl == nil {
		return fmt.Errorf("%w: nil strategy implementation", ErrInvalidParameter)
	}
	approved, err := govdb.ReadStrategyApproval(e.db, strategy)
	if err != nil {
		return err
	}
	if approved {
		return fmt.Errorf("%w: strategy %s already approved", ErrInvalidParameter, strategy.Hex())
	}
	if err := govdb.WriteStrategyApproval(e.db, strategy); err != nil {
		return err
	}
	e.strategies[strategy] = impl
	e.log.Info("Strategy approved", "strategy", strategy)
	return nil
}

// RemoveStrategy removes strategy from the approved list. Removing an
// unapproved address fails.
func (e *Engine) RemoveStrategy(caller common.Address, strategy common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	approved, err := govdb.ReadStrategyApproval(e.db, strategy)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("%w: strategy %s not approved", ErrInvalidParameter, strategy.Hex())
	}
	if err := govdb.DeleteStrategyApproval(e.db, strategy); err != nil {
		return err
	}
	delete(e.strategies, strategy)
	e.log.Info("Strategy removed", "strategy", strategy)
	return nil
}

// BindStrategy re-attaches an implementation to an already-approved strategy
// address. Used at startup when approvals persisted across a restart.
func (e *Engine) BindStrategy(strategy common.Address, impl Strategy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if impl == nil {
		return fmt.Errorf("%w: nil strategy implementation", ErrInvalidParameter)
	}
	approved, err := govdb.ReadStrategyApproval(e.db, strategy)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotApprovedStrategy
	}
	e.strategies[strategy] = impl
	return nil
}

// SetProposalLevel sets the minimum voting tier required to propose and
// execute. Bounded by params.MaxProposalLevel.
func (e *Engine) SetProposalLevel(caller common.Address, level uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if level > params.MaxProposalLevel {
		return fmt.Errorf("%w: proposal level %d exceeds maximum %d", ErrInvalidParameter, level, params.MaxProposalLevel)
	}
	e.cfg.ProposalLevel = level
	return nil
}

// SetRequiredVotes sets the quorum threshold.
func (e *Engine) SetRequiredVotes(caller common.Address, votes uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.cfg.RequiredVotes = votes
	return nil
}

// SetDelay sets the number of blocks between proposal creation and activation.
func (e *Engine) SetDelay(caller common.Address, delay uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.cfg.Delay = delay
	return nil
}

// SetVotingPeriod sets the number of blocks a proposal stays active.
func (e *Engine) SetVotingPeriod(caller common.Address, period uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.cfg.VotingPeriod = period
	return nil
}

// SetActive engages or releases the global pause flag.
func (e *Engine) SetActive(caller common.Address, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.cfg.Active = active
	e.log.Info("Active flag set", "active", active)
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (e *Engine) TransferOwnership(caller common.Address, newOwner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: new owner is the zero address", ErrInvalidParameter)
	}
	previous := e.owner
	e.owner = newOwner
	e.log.Info("Ownership transferred", "previous", previous, "new", newOwner)
	e.ownershipFeed.Send(OwnershipTransferredEvent{Previous: previous, New: newOwner})
	return nil
}

// RenounceOwnership clears the owner, permanently disabling the owner-only
// surface.
func (e *Engine) RenounceOwnership(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	previous := e.owner
	e.owner = common.Address{}
	e.log.Info("Ownership renounced", "previous", previous)
	e.ownershipFeed.Send(OwnershipTransferredEvent{Previous: previous, New: common.Address{}})
	return nil
}

// ── Read-only queries ────────────────────────────────────────────────────────

// State derives the lifecycle state of the proposal at the current block.
func (e *Engine) State(proposalID uint64) (types.ProposalState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, state, err := e.stateLocked(proposalID)
	return state, err
}

// GetProposal returns a copy of the stored proposal record.
func (e *Engine) GetProposal(proposalID uint64) (*types.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkProposalID(proposalID); err != nil {
		return nil, err
	}
	p, err := e.getProposal(proposalID)
	if err != nil {
		return nil, err
	}
	cp := *p
	cp.Targets, cp.Values = copyActions(p.Targets, p.Values)
	return &cp, nil
}

// GetReceipt returns the receipt for (proposalID, voter). A voter without a
// receipt gets the zero receipt.
func (e *Engine) GetReceipt(proposalID uint64, voter common.Address) (types.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkProposalID(proposalID); err != nil {
		return types.Receipt{}, err
	}
	r, err := govdb.ReadReceipt(e.db, proposalID, voter)
	if err != nil {
		return types.Receipt{}, err
	}
	if r == nil {
		return types.Receipt{}, nil
	}
	return *r, nil
}

// GetActions returns the raw (targets, values) tuple of a proposal.
func (e *Engine) GetActions(proposalID uint64) ([]common.Address, []*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkProposalID(proposalID); err != nil {
		return nil, nil, err
	}
	p, err := e.getProposal(proposalID)
	if err != nil {
		return nil, nil, err
	}
	targets, values := copyActions(p.Targets, p.Values)
	return targets, values, nil
}

// ProposalCount returns the number of proposals ever created.
func (e *Engine) ProposalCount() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return govdb.ReadProposalCount(e.db)
}

// IsApprovedStrategy reports whether strategy is on the approved list.
func (e *Engine) IsApprovedStrategy(strategy common.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return govdb.ReadStrategyApproval(e.db, strategy)
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Owner returns the current owner address.
func (e *Engine) Owner() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// ── Internals ────────────────────────────────────────────────────────────────

// copyActions clones an action payload. Stored proposals, query results and
// event payloads never alias caller-owned memory, so an in-process caller
// mutating a slice cannot make the cache diverge from the persisted record.
func copyActions(targets []common.Address, values []*uint256.Int) ([]common.Address, []*uint256.Int) {
	ct := make([]common.Address, len(targets))
	copy(ct, targets)
	cv := make([]*uint256.Int, len(values))
	for i, v := range values {
		cv[i] = new(uint256.Int).Set(v)
	}
	return ct, cv
}

// requireOwner rejects callers other than the current owner. Once ownership
// is renounced no caller passes.
func (e *Engine) requireOwner(caller common.Address) error {
	if e.owner == (common.Address{}) || caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

// checkProposalID validates that id falls in [1, proposalCount].
func (e *Engine) checkProposalID(id uint64) error {
	count, err := govdb.ReadProposalCount(e.db)
	if err != nil {
		return err
	}
	if id == 0 || id > count {
		return ErrInvalidProposalID
	}
	return nil
}

// stateLocked loads a proposal and derives its state at the current block.
// Caller holds e.mu.
func (e *Engine) stateLocked(id uint64) (*types.Proposal, types.ProposalState, error) {
	if err := e.checkProposalID(id); err != nil {
		return nil, 0, err
	}
	p, err := e.getProposal(id)
	if err != nil {
		return nil, 0, err
	}
	return p, p.StateAt(e.chain.CurrentBlock(), e.cfg.RequiredVotes), nil
}

// getProposal loads a proposal through the decode cache. The id has already
// been range-checked, so a missing record is store corruption.
func (e *Engine) getProposal(id uint64) (*types.Proposal, error) {
	if cached, ok := e.cache.Get(id); ok {
		return cached.(*types.Proposal), nil
	}
	p, err := govdb.ReadProposal(e.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("governance: proposal %d missing from store", id)
	}
	e.cache.Add(id, p)
	return p, nil
}
