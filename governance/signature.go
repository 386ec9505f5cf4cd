package governance

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Canonical EIP-712 type strings. Off-chain signers hash exactly these bytes;
// changing either invalidates every ballot already signed.
var (
	domainTypehash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,uint256 chainId,address verifyingContract)"))
	ballotTypehash = crypto.Keccak256Hash([]byte("Ballot(uint256 proposalId,bool support)"))
)

// BallotVerifier builds domain-separated ballot digests and recovers the
// signer of a delegated (off-chain-signed) ballot. The domain separator binds
// signatures to one contract name, chain id and verifying address, so a
// ballot signed for one deployment cannot be replayed against another.
type BallotVerifier struct {
	name     string
	chainID  *big.Int
	contract common.Address

	separator common.Hash // precomputed, the inputs are deployment constants
}

// NewBallotVerifier creates a verifier for the given deployment identity.
func NewBallotVerifier(name string, chainID *big.Int, contract common.Address) *BallotVerifier {
	v := &BallotVerifier{
		name:     name,
		chainID:  new(big.Int).Set(chainID),
		contract: contract,
	}
	v.separator = crypto.Keccak256Hash(
		domainTypehash.Bytes(),
		crypto.Keccak256Hash([]byte(name)).Bytes(),
		common.BigToHash(v.chainID).Bytes(),
		common.BytesToHash(contract.Bytes()).Bytes(), // address left-padded to a 32 byte word
	)
	return v
}

// DomainSeparator returns hash(DOMAIN_TYPEHASH, hash(name), chainId, contract).
func (v *BallotVerifier) DomainSeparator() common.Hash {
	return v.separator
}

// BallotDigest returns the signable digest for a ballot:
// hash("\x19\x01" || domainSeparator || hash(BALLOT_TYPEHASH, proposalId, support)).
func (v *BallotVerifier) BallotDigest(proposalID uint64, support bool) common.Hash {
	var supportWord common.Hash
	if support {
		supportWord[31] = 1
	}
	structHash := crypto.Keccak256Hash(
		ballotTypehash.Bytes(),
		common.BigToHash(new(big.Int).SetUint64(proposalID)).Bytes(),
		supportWord.Bytes(),
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, v.separator.Bytes(), structHash.Bytes())
}

// RecoverVoter recovers the ballot signer from a (v, r, s) signature over the
// ballot digest. Both the legacy 27/28 and the raw 0/1 recovery id encodings
// are accepted. Returns ErrInvalidSignature when the values are out of range,
// recovery fails, or the recovered address is zero.
func (bv *BallotVerifier) RecoverVoter(proposalID uint64, support bool, v byte, r, s common.Hash) (common.Address, error) {
	if v >= 27 {
		v -= 27
	}
	rb := new(big.Int).SetBytes(r[:])
	sb := new(big.Int).SetBytes(s[:])
	if !crypto.ValidateSignatureValues(v, rb, sb, true) {
		return common.Address{}, ErrInvalidSignature
	}
	// Encode the signature in uncompressed [R || S || V] format.
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = v

	digest := bv.BallotDigest(proposalID, support)
	pub, err := crypto.Ecrecover(digest[:], sig)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, ErrInvalidSignature
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	if addr == (common.Address{}) {
		return common.Address{}, ErrInvalidSignature
	}
	return addr, nil
}
