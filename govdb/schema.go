package govdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Key schema. Every governance record lives under a short ASCII prefix so that
// unrelated data can share the same backing store.
var (
	// proposalCountKey tracks the number of proposals ever created (uint64 BE).
	proposalCountKey = []byte("governance-proposal-count")

	// proposalPrefix + id (8 byte BE) -> RLP(types.Proposal)
	proposalPrefix = []byte("gov-p")

	// receiptPrefix + id (8 byte BE) + voter (20 byte) -> RLP(types.Receipt)
	receiptPrefix = []byte("gov-r")

	// latestPrefix + proposer (20 byte) -> latest proposal id (8 byte BE)
	latestPrefix = []byte("gov-l")

	// strategyPrefix + strategy (20 byte) -> approval marker (1 byte)
	strategyPrefix = []byte("gov-s")
)

func encodeUint64(n uint64) []byte {
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], n)
	return enc[:]
}

// proposalKey = proposalPrefix + id (8 byte BE)
func proposalKey(id uint64) []byte {
	return append(append([]byte{}, proposalPrefix...), encodeUint64(id)...)
}

// receiptKey = receiptPrefix + id (8 byte BE) + voter.
// The composite (proposal, voter) key makes receipt lookups O(1) and the
// single-write-per-pair rule a plain existence check.
func receiptKey(id uint64, voter common.Address) []byte {
	key := append(append([]byte{}, receiptPrefix...), encodeUint64(id)...)
	return append(key, voter.Bytes()...)
}

// latestProposalKey = latestPrefix + proposer
func latestProposalKey(proposer common.Address) []byte {
	return append(append([]byte{}, latestPrefix...), proposer.Bytes()...)
}

// approvedStrategyKey = strategyPrefix + strategy
func approvedStrategyKey(strategy common.Address) []byte {
	return append(append([]byte{}, strategyPrefix...), strategy.Bytes()...)
}
