package keygenproto_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpfgo/internal/params"
	"dpfgo/keygenproto"
	"dpfgo/valuetype"
)

func singleLevelParams(logDomainSize int) []params.Parameter {
	return []params.Parameter{{LogDomainSize: logDomainSize, ValueType: valuetype.XorWrapper(128)}}
}

func TestHandshakeRecoversAgreedKeyPair(t *testing.T) {
	ps := singleLevelParams(8)
	proto, err := keygenproto.Create(ps)
	require.NoError(t, err)

	alpha := big.NewInt(42)
	alphaShareA := big.NewInt(17)
	alphaShareB := new(big.Int).Sub(alpha, alphaShareA)

	betaA := valuetype.FromUint64(ps[0].ValueType, 0xAAAA)
	betaFull := valuetype.FromUint64(ps[0].ValueType, 0xAAAA^0x5555)
	betaB := valuetype.Sub(ps[0].ValueType, betaFull, betaA)

	stateA, err := proto.Initialize(0, alphaShareA, []valuetype.Value{betaA})
	require.NoError(t, err)
	stateB, err := proto.Initialize(1, alphaShareB, []valuetype.Value{betaB})
	require.NoError(t, err)

	err = proto.ApplyPeerContribution(stateA, stateB.Commitment(), stateB.Reveal())
	require.NoError(t, err)
	err = proto.ApplyPeerContribution(stateB, stateA.Commitment(), stateA.Reveal())
	require.NoError(t, err)

	require.Len(t, stateA.Triples(), len(ps))
	require.Len(t, stateB.Triples(), len(ps))

	key0, key1, err := proto.Finalize(stateA, stateB)
	require.NoError(t, err)
	require.NotNil(t, key0)
	require.NotNil(t, key1)
}

func TestApplyPeerContributionRejectsForgedReveal(t *testing.T) {
	ps := singleLevelParams(8)
	proto, err := keygenproto.Create(ps)
	require.NoError(t, err)

	stateA, err := proto.Initialize(0, big.NewInt(1), []valuetype.Value{valuetype.Zero(ps[0].ValueType)})
	require.NoError(t, err)
	stateB, err := proto.Initialize(1, big.NewInt(2), []valuetype.Value{valuetype.Zero(ps[0].ValueType)})
	require.NoError(t, err)

	forged := append([]byte(nil), stateB.Reveal()...)
	forged[0] ^= 0xFF

	err = proto.ApplyPeerContribution(stateA, stateB.Commitment(), forged)
	require.Error(t, err)
}

func TestFinalizeRequiresBothPartiesToHaveAppliedPeerContribution(t *testing.T) {
	ps := singleLevelParams(8)
	proto, err := keygenproto.Create(ps)
	require.NoError(t, err)

	stateA, err := proto.Initialize(0, big.NewInt(1), []valuetype.Value{valuetype.Zero(ps[0].ValueType)})
	require.NoError(t, err)
	stateB, err := proto.Initialize(1, big.NewInt(2), []valuetype.Value{valuetype.Zero(ps[0].ValueType)})
	require.NoError(t, err)

	_, _, err = proto.Finalize(stateA, stateB)
	require.Error(t, err)
}

func TestDeriveAgreedSeedIsOrderSensitiveButDeterministic(t *testing.T) {
	a := []byte("0123456789abcdef")
	b := []byte("fedcba9876543210")

	seed1, err := keygenproto.DeriveAgreedSeed([][]byte{a, b}, "info")
	require.NoError(t, err)
	seed2, err := keygenproto.DeriveAgreedSeed([][]byte{a, b}, "info")
	require.NoError(t, err)
	assert.Equal(t, seed1, seed2)

	seed3, err := keygenproto.DeriveAgreedSeed([][]byte{b, a}, "info")
	require.NoError(t, err)
	assert.NotEqual(t, seed1, seed3)
}

func TestGenerateBeaverTriplesIsDeterministicPerSeed(t *testing.T) {
	seed := []byte("0123456789abcdef")
	triples1, err := keygenproto.GenerateBeaverTriples(seed, 10)
	require.NoError(t, err)
	triples2, err := keygenproto.GenerateBeaverTriples(seed, 10)
	require.NoError(t, err)
	require.Equal(t, triples1, triples2)
	for _, tr := range triples1 {
		assert.Equal(t, tr.A && tr.B, tr.C)
	}
}

func TestCommitVerifyRoundTrip(t *testing.T) {
	contribution := []byte("a 16 byte value!")
	commitment, err := keygenproto.Commit(contribution)
	require.NoError(t, err)
	assert.True(t, keygenproto.VerifyCommitment(commitment, contribution))

	tampered := append([]byte(nil), contribution...)
	tampered[0] ^= 1
	assert.False(t, keygenproto.VerifyCommitment(commitment, tampered))
}
