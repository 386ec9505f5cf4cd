package governance

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/governance/types"
)

// signBallot signs the verifier's digest for (proposalID, support) and returns
// the signature in (v, r, s) form with the legacy 27/28 recovery id.
func signBallot(t *testing.T, verifier *BallotVerifier, key *ecdsa.PrivateKey, proposalID uint64, support bool) (byte, common.Hash, common.Hash) {
	t.Helper()
	digest := verifier.BallotDigest(proposalID, support)
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		t.Fatalf("sign ballot: %v", err)
	}
	return sig[64] + 27, common.BytesToHash(sig[:32]), common.BytesToHash(sig[32:64])
}

func TestDomainSeparatorBinding(t *testing.T) {
	require := require.New(t)

	base := NewBallotVerifier("Governance", big.NewInt(1), tAddr(0xcc))

	// Deterministic for identical deployment identity.
	require.Equal(base.DomainSeparator(),
		NewBallotVerifier("Governance", big.NewInt(1), tAddr(0xcc)).DomainSeparator())

	// Any identity component change yields a different separator.
	require.NotEqual(base.DomainSeparator(),
		NewBallotVerifier("Other", big.NewInt(1), tAddr(0xcc)).DomainSeparator())
	require.NotEqual(base.DomainSeparator(),
		NewBallotVerifier("Governance", big.NewInt(5), tAddr(0xcc)).DomainSeparator())
	require.NotEqual(base.DomainSeparator(),
		NewBallotVerifier("Governance", big.NewInt(1), tAddr(0xcd)).DomainSeparator())
}

func TestBallotDigestCoversBallotFields(t *testing.T) {
	require := require.New(t)
	verifier := NewBallotVerifier("Governance", big.NewInt(1), tAddr(0xcc))

	d1 := verifier.BallotDigest(1, true)
	require.NotEqual(d1, verifier.BallotDigest(1, false))
	require.NotEqual(d1, verifier.BallotDigest(2, true))
	require.Equal(d1, verifier.BallotDigest(1, true))
}

func TestRecoverVoter(t *testing.T) {
	require := require.New(t)
	verifier := NewBallotVerifier("Governance", big.NewInt(1), tAddr(0xcc))

	key, err := crypto.GenerateKey()
	require.NoError(err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	v, r, s := signBallot(t, verifier, key, 7, true)

	// Legacy 27/28 encoding.
	got, err := verifier.RecoverVoter(7, true, v, r, s)
	require.NoError(err)
	require.Equal(signer, got)

	// Raw 0/1 encoding.
	got, err = verifier.RecoverVoter(7, true, v-27, r, s)
	require.NoError(err)
	require.Equal(signer, got)

	// A signature over different ballot fields recovers a different (or no)
	// signer.
	got, err = verifier.RecoverVoter(7, false, v, r, s)
	if err == nil {
		require.NotEqual(signer, got)
	}

	// Out-of-range values.
	_, err = verifier.RecoverVoter(7, true, 5, r, s)
	require.ErrorIs(err, ErrInvalidSignature)
	_, err = verifier.RecoverVoter(7, true, v, common.Hash{}, common.Hash{})
	require.ErrorIs(err, ErrInvalidSignature)

	// Malleable high-s form is rejected.
	var highS common.Hash
	sb := new(big.Int).Sub(crypto.S256().Params().N, new(big.Int).SetBytes(s[:]))
	sb.FillBytes(highS[:])
	_, err = verifier.RecoverVoter(7, true, v, r, highS)
	require.ErrorIs(err, ErrInvalidSignature)
}

// TestVoteBySigRoundTrip verifies that a signed ballot produces the identical
// receipt-write effect as the signer calling Vote directly, when signer and
// sender carry the same checkpointed weight.
func TestVoteBySigRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	id := env.propose(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	sender := tAddr(0x33)
	env.oracle.setPrior(signer, 1, 80)
	env.oracle.setPrior(sender, 1, 80)

	env.chain.height = 1
	v, r, s := signBallot(t, env.engine.ballot, key, id, true)
	if err := env.engine.VoteBySig(sender, id, true, v, r, s); err != nil {
		t.Fatalf("VoteBySig: %v", err)
	}

	// The receipt lands under the signer, exactly as a direct vote would
	// write it.
	receipt, err := env.engine.GetReceipt(id, signer)
	if err != nil {
		t.Fatalf("GetReceipt: %v", err)
	}
	want := types.Receipt{HasVoted: true, Support: true, Votes: 80}
	if receipt != want {
		t.Errorf("receipt = %+v, want %+v", receipt, want)
	}

	// The sender has no receipt of their own.
	senderReceipt, err := env.engine.GetReceipt(id, sender)
	if err != nil {
		t.Fatalf("GetReceipt(sender): %v", err)
	}
	if senderReceipt.HasVoted {
		t.Error("sender got a receipt for a delegated ballot")
	}

	// The signer cannot vote again directly.
	if err := env.engine.Vote(signer, id, false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("signer re-vote: want ErrAlreadyVoted, got %v", err)
	}
}

// TestVoteBySigWeightSource pins the deliberate asymmetry of delegated
// voting: the recovered signer is the receipt identity, but the recorded
// weight is the submitting sender's checkpointed balance. This test fails if
// the weight source is ever silently switched to the signer.
func TestVoteBySigWeightSource(t *testing.T) {
	env := newTestEnv(t)
	id := env.propose(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	sender := tAddr(0x33)
	env.oracle.setPrior(signer, 1, 999)
	env.oracle.setPrior(sender, 1, 60)

	env.chain.height = 1
	v, r, s := signBallot(t, env.engine.ballot, key, id, true)
	if err := env.engine.VoteBySig(sender, id, true, v, r, s); err != nil {
		t.Fatalf("VoteBySig: %v", err)
	}

	receipt, err := env.engine.GetReceipt(id, signer)
	if err != nil {
		t.Fatalf("GetReceipt: %v", err)
	}
	if receipt.Votes != 60 {
		t.Fatalf("receipt weight = %d, want the sender's 60", receipt.Votes)
	}
	if receipt.Votes == 999 {
		t.Fatal("delegated vote recorded the signer's weight")
	}
	p, err := env.engine.GetProposal(id)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if p.VotesFor != 60 {
		t.Errorf("VotesFor = %d, want 60", p.VotesFor)
	}
}

func TestVoteBySigInvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	id := env.propose(t)
	env.chain.height = 1

	// Zero r is rejected before any recovery attempt.
	err := env.engine.VoteBySig(tAddr(0x33), id, true, 27, common.Hash{}, common.Hash{0x02})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("want ErrInvalidSignature, got %v", err)
	}

	// No state was touched.
	p, err := env.engine.GetProposal(id)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if p.VotesFor != 0 || p.VotesAgainst != 0 {
		t.Errorf("tallies mutated by invalid signature: %d/%d", p.VotesFor, p.VotesAgainst)
	}
}
