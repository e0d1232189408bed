// Package keygenproto implements a reduced two-party seed-agreement
// handshake inspired by the DPF key-generation MPC protocol of
// original_source/dpf/key_generation_protocol/key_generation_protocol.{h,cc}.
//
// The original runs one oblivious-transfer round per GGM-tree level so
// two parties can jointly compute a DPF key without either one ever
// learning the other's share of alpha/beta in the clear (Doerner-Shelat
// MUX gates, bit Beaver triples consumed as OT correlations, a
// dedicated RPC service forwarding the OT messages). That whole
// protocol is out of scope for this core per the specification's
// Non-goals around full MPC and networking.
//
// What this package implements is the surrounding handshake shape the
// original relies on, without the OT primitive: parties commit to,
// then reveal, their seed contribution (standing in for the OT
// receiver/sender message rounds), fold both contributions into an
// agreed seed via HKDF, and derive Beaver-style bit triples from that
// seed (BitBeaverTriple in the original header) the way the original's
// precomputation stage hands each party correlated randomness for its
// MUX gates — here produced from the already-agreed seed, a trusted
// dealer, rather than by oblivious transfer. That substitution is the
// one simplification this package makes deliberately; everything
// around it (commit-reveal, HKDF derivation, per-level triples) is
// real.
//
// Once both parties have revealed and verified each other's
// contribution, Finalize combines their alpha/beta shares and calls
// dpf.GenerateKeysIncremental directly. A faithful two-party protocol
// would never let a single combine step see both shares; it would
// finish with each party already holding one complete DPF key,
// assembled round by round from the OT-based steps this package does
// not implement. Finalize exists to close the loop on the handshake
// this package DOES implement against the core's real key-generation
// entry point, not to claim a faithful 2PC simulation of it.
package keygenproto

import (
	"bytes"
	"math/big"

	"dpfgo/dpf"
	"dpfgo/internal/dpferr"
	"dpfgo/internal/params"
	"dpfgo/osrng"
	"dpfgo/valuetype"
)

// Protocol wraps a validated parameter vector and the DPF engine the
// handshake ultimately generates keys through.
type Protocol struct {
	dpf    *dpf.DistributedPointFunction
	params []params.Parameter
}

// Create validates ps and builds the DPF engine Finalize will generate
// keys through.
func Create(ps []params.Parameter) (*Protocol, error) {
	d, err := dpf.NewIncremental(ps)
	if err != nil {
		return nil, err
	}
	return &Protocol{dpf: d, params: ps}, nil
}

// ProtocolState is one party's local handshake state. PartyID
// distinguishes the two parties only to fix a deterministic ordering
// when contributions are combined; it carries no other meaning.
type ProtocolState struct {
	partyID          int
	seedContribution []byte
	commitment       *Commitment
	agreedSeed       []byte
	triples          []BitBeaverTriple
	alphaShare       *big.Int
	betaShares       []valuetype.Value
}

// Initialize is round 1: it samples this party's seed contribution and
// commits to it, ready to be sent to the other party before either one
// reveals. alphaShare and betaShares are this party's additive shares
// of the DPF's alpha/beta that Finalize will later combine.
func (p *Protocol) Initialize(partyID int, alphaShare *big.Int, betaShares []valuetype.Value) (*ProtocolState, error) {
	if len(betaShares) != len(p.params) {
		return nil, dpferr.InvalidArgumentf("expected %d beta shares, got %d", len(p.params), len(betaShares))
	}
	contribution, err := osrng.Seed128()
	if err != nil {
		return nil, dpferr.Internalf("sampling seed contribution: %v", err)
	}
	commitment, err := Commit(contribution)
	if err != nil {
		return nil, err
	}
	return &ProtocolState{
		partyID:          partyID,
		seedContribution: contribution,
		commitment:       commitment,
		alphaShare:       alphaShare,
		betaShares:       betaShares,
	}, nil
}

// Commitment returns this party's round-1 commitment, to be sent to
// the peer before either party reveals its contribution.
func (s *ProtocolState) Commitment() *Commitment { return s.commitment }

// Reveal returns this party's seed contribution. It must only be sent
// to the peer after both parties have exchanged commitments.
func (s *ProtocolState) Reveal() []byte { return s.seedContribution }

// Triples returns the Beaver-style bit triples derived for this
// party once ApplyPeerContribution has run, one per hierarchy level.
func (s *ProtocolState) Triples() []BitBeaverTriple { return s.triples }

// ApplyPeerContribution is round 2: it checks the peer's revealed
// contribution against their earlier commitment, then derives the
// agreed seed and this party's Beaver triples from both contributions.
func (p *Protocol) ApplyPeerContribution(state *ProtocolState, peerCommitment *Commitment, peerContribution []byte) error {
	if !VerifyCommitment(peerCommitment, peerContribution) {
		return dpferr.InvalidArgument("peer contribution does not match its commitment")
	}

	contributions := [][]byte{state.seedContribution, peerContribution}
	if state.partyID != 0 {
		contributions = [][]byte{peerContribution, state.seedContribution}
	}
	seed, err := DeriveAgreedSeed(contributions, "keygenproto/agreed-seed")
	if err != nil {
		return err
	}
	triples, err := GenerateBeaverTriples(seed, len(p.params))
	if err != nil {
		return err
	}

	state.agreedSeed = seed
	state.triples = triples
	return nil
}

// Finalize combines both parties' alpha/beta shares (alpha shares
// added modulo the domain size, beta shares added per hierarchy level
// under each level's value type) and generates the DPF key pair the
// handshake agreed on. Both states must have already run
// ApplyPeerContribution and must agree on the derived seed.
func (p *Protocol) Finalize(a, b *ProtocolState) (*dpf.Key, *dpf.Key, error) {
	if a.agreedSeed == nil || b.agreedSeed == nil {
		return nil, nil, dpferr.FailedPrecondition("both parties must apply the peer contribution before finalizing")
	}
	if !bytes.Equal(a.agreedSeed, b.agreedSeed) {
		return nil, nil, dpferr.Internal("parties disagree on the agreed seed")
	}

	maxDomainBits := p.params[len(p.params)-1].LogDomainSize
	modulus := new(big.Int).Lsh(big.NewInt(1), uint(maxDomainBits))
	alpha := new(big.Int).Add(a.alphaShare, b.alphaShare)
	if modulus.Sign() != 0 {
		alpha.Mod(alpha, modulus)
	}

	betas := make([]valuetype.Value, len(p.params))
	for i, param := range p.params {
		betas[i] = valuetype.Add(param.ValueType, a.betaShares[i], b.betaShares[i])
	}

	return p.dpf.GenerateKeysIncremental(alpha, betas)
}
