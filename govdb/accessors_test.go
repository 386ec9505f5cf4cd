package govdb_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/governance/govdb"
	"github.com/tos-network/governance/govdb/memorydb"
	"github.com/tos-network/governance/types"
)

func TestProposalAccessors(t *testing.T) {
	require := require.New(t)
	db := memorydb.New()
	defer db.Close()

	// Absent reads.
	p, err := govdb.ReadProposal(db, 1)
	require.NoError(err)
	require.Nil(p)

	count, err := govdb.ReadProposalCount(db)
	require.NoError(err)
	require.Zero(count)

	want := &types.Proposal{
		ID:         1,
		Proposer:   common.Address{0x01},
		Strategy:   common.Address{0xaa},
		Targets:    []common.Address{{0x02}, {0x03}},
		Values:     []*uint256.Int{uint256.NewInt(10), uint256.NewInt(20)},
		StartBlock: 100,
		EndBlock:   200,
		VotesFor:   7,
	}
	require.NoError(govdb.WriteProposal(db, want))
	require.NoError(govdb.WriteProposalCount(db, 1))

	got, err := govdb.ReadProposal(db, 1)
	require.NoError(err)
	require.Equal(want, got)

	count, err = govdb.ReadProposalCount(db)
	require.NoError(err)
	require.Equal(uint64(1), count)

	// Mutate and overwrite in place, the way vote tallying does.
	got.VotesAgainst = 3
	got.Executed = true
	require.NoError(govdb.WriteProposal(db, got))

	reread, err := govdb.ReadProposal(db, 1)
	require.NoError(err)
	require.Equal(uint64(3), reread.VotesAgainst)
	require.True(reread.Executed)
}

func TestReceiptAccessors(t *testing.T) {
	require := require.New(t)
	db := memorydb.New()
	defer db.Close()

	voter := common.Address{0x11}

	ok, err := govdb.HasReceipt(db, 1, voter)
	require.NoError(err)
	require.False(ok)

	r, err := govdb.ReadReceipt(db, 1, voter)
	require.NoError(err)
	require.Nil(r)

	want := &types.Receipt{HasVoted: true, Support: true, Votes: 42}
	require.NoError(govdb.WriteReceipt(db, 1, voter, want))

	ok, err = govdb.HasReceipt(db, 1, voter)
	require.NoError(err)
	require.True(ok)

	got, err := govdb.ReadReceipt(db, 1, voter)
	require.NoError(err)
	require.Equal(want, got)

	// Same voter on a different proposal is a distinct key.
	ok, err = govdb.HasReceipt(db, 2, voter)
	require.NoError(err)
	require.False(ok)
}

func TestLatestProposalAccessors(t *testing.T) {
	require := require.New(t)
	db := memorydb.New()
	defer db.Close()

	proposer := common.Address{0x21}

	id, err := govdb.ReadLatestProposalID(db, proposer)
	require.NoError(err)
	require.Zero(id)

	require.NoError(govdb.WriteLatestProposalID(db, proposer, 5))
	id, err = govdb.ReadLatestProposalID(db, proposer)
	require.NoError(err)
	require.Equal(uint64(5), id)

	// Overwritten on every new proposal by the same actor.
	require.NoError(govdb.WriteLatestProposalID(db, proposer, 9))
	id, err = govdb.ReadLatestProposalID(db, proposer)
	require.NoError(err)
	require.Equal(uint64(9), id)
}

func TestStrategyApprovalAccessors(t *testing.T) {
	require := require.New(t)
	db := memorydb.New()
	defer db.Close()

	strategy := common.Address{0x31}

	ok, err := govdb.ReadStrategyApproval(db, strategy)
	require.NoError(err)
	require.False(ok)

	require.NoError(govdb.WriteStrategyApproval(db, strategy))
	ok, err = govdb.ReadStrategyApproval(db, strategy)
	require.NoError(err)
	require.True(ok)

	require.NoError(govdb.DeleteStrategyApproval(db, strategy))
	ok, err = govdb.ReadStrategyApproval(db, strategy)
	require.NoError(err)
	require.False(ok)
}

// TestBatchAtomicity verifies that nothing written through a batch is visible
// before Write, and everything is visible after.
func TestBatchAtomicity(t *testing.T) {
	require := require.New(t)
	db := memorydb.New()
	defer db.Close()

	proposer := common.Address{0x41}
	p := &types.Proposal{
		ID:         1,
		Proposer:   proposer,
		Targets:    []common.Address{{0x42}},
		Values:     []*uint256.Int{uint256.NewInt(1)},
		StartBlock: 1,
		EndBlock:   2,
	}

	batch := db.NewBatch()
	require.NoError(govdb.WriteProposal(batch, p))
	require.NoError(govdb.WriteLatestProposalID(batch, proposer, 1))
	require.NoError(govdb.WriteProposalCount(batch, 1))

	// Not visible yet.
	count, err := govdb.ReadProposalCount(db)
	require.NoError(err)
	require.Zero(count)

	require.NoError(batch.Write())

	count, err = govdb.ReadProposalCount(db)
	require.NoError(err)
	require.Equal(uint64(1), count)

	got, err := govdb.ReadProposal(db, 1)
	require.NoError(err)
	require.Equal(p, got)

	id, err := govdb.ReadLatestProposalID(db, proposer)
	require.NoError(err)
	require.Equal(uint64(1), id)
}
