package govdb

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tos-network/governance/types"
)

// ReadProposalCount retrieves the number of proposals ever created, or 0 if
// none have been stored yet.
func ReadProposalCount(db KeyValueReader) (uint64, error) {
	ok, err := db.Has(proposalCountKey)
	if err != nil || !ok {
		return 0, err
	}
	data, err := db.Get(proposalCountKey)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("govdb: corrupt proposal count entry (%d bytes)", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// WriteProposalCount stores the number of proposals ever created.
func WriteProposalCount(db KeyValueWriter, count uint64) error {
	return db.Put(proposalCountKey, encodeUint64(count))
}

// ReadProposal retrieves the proposal with the given id. A missing proposal
// returns (nil, nil).
func ReadProposal(db KeyValueReader, id uint64) (*types.Proposal, error) {
	key := proposalKey(id)
	ok, err := db.Has(key)
	if err != nil || !ok {
		return nil, err
	}
	data, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	p := new(types.Proposal)
	if err := rlp.DecodeBytes(data, p); err != nil {
		return nil, fmt.Errorf("govdb: corrupt proposal %d: %w", id, err)
	}
	return p, nil
}

// WriteProposal stores a proposal record keyed by its id.
func WriteProposal(db KeyValueWriter, p *types.Proposal) error {
	data, err := rlp.EncodeToBytes(p)
	if err != nil {
		return fmt.Errorf("govdb: encode proposal %d: %w", p.ID, err)
	}
	return db.Put(proposalKey(p.ID), data)
}

// HasReceipt reports whether a receipt exists for (id, voter).
func HasReceipt(db KeyValueReader, id uint64, voter common.Address) (bool, error) {
	return db.Has(receiptKey(id, voter))
}

// ReadReceipt retrieves the receipt for (id, voter). A missing receipt
// returns (nil, nil).
func ReadReceipt(db KeyValueReader, id uint64, voter common.Address) (*types.Receipt, error) {
	key := receiptKey(id, voter)
	ok, err := db.Has(key)
	if err != nil || !ok {
		return nil, err
	}
	data, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	r := new(types.Receipt)
	if err := rlp.DecodeBytes(data, r); err != nil {
		return nil, fmt.Errorf("govdb: corrupt receipt %d/%s: %w", id, voter.Hex(), err)
	}
	return r, nil
}

// WriteReceipt stores the receipt for (id, voter).
func WriteReceipt(db KeyValueWriter, id uint64, voter common.Address, r *types.Receipt) error {
	data, err := rlp.EncodeToBytes(r)
	if err != nil {
		return fmt.Errorf("govdb: encode receipt %d/%s: %w", id, voter.Hex(), err)
	}
	return db.Put(receiptKey(id, voter), data)
}

// ReadLatestProposalID retrieves the id of the most recent proposal created by
// proposer, or 0 if the proposer has never proposed.
func ReadLatestProposalID(db KeyValueReader, proposer common.Address) (uint64, error) {
	key := latestProposalKey(proposer)
	ok, err := db.Has(key)
	if err != nil || !ok {
		return 0, err
	}
	data, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("govdb: corrupt latest-proposal entry for %s (%d bytes)", proposer.Hex(), len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// WriteLatestProposalID stores the latest proposal id for proposer,
// overwriting any previous value.
func WriteLatestProposalID(db KeyValueWriter, proposer common.Address, id uint64) error {
	return db.Put(latestProposalKey(proposer), encodeUint64(id))
}

// ReadStrategyApproval reports whether strategy is on the approved list.
func ReadStrategyApproval(db KeyValueReader, strategy common.Address) (bool, error) {
	return db.Has(approvedStrategyKey(strategy))
}

// WriteStrategyApproval marks strategy as approved.
func WriteStrategyApproval(db KeyValueWriter, strategy common.Address) error {
	return db.Put(approvedStrategyKey(strategy), []byte{0x01})
}

// DeleteStrategyApproval removes strategy from the approved list.
func DeleteStrategyApproval(db KeyValueWriter, strategy common.Address) error {
	return db.Delete(approvedStrategyKey(strategy))
}
