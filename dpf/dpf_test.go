package dpf_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpfgo/dpf"
	"dpfgo/internal/params"
	"dpfgo/valuetype"
)

// sumAt evaluates both keys at x and returns key0's share plus key1's
// share in the group described by vt.
func sumAt(t *testing.T, d *dpf.DistributedPointFunction, vt valuetype.ValueType, k0, k1 *dpf.Key, x int64) valuetype.Value {
	t.Helper()
	v0, err := d.EvaluateAt(k0, 0, []*big.Int{big.NewInt(x)})
	require.NoError(t, err)
	v1, err := d.EvaluateAt(k1, 0, []*big.Int{big.NewInt(x)})
	require.NoError(t, err)
	return valuetype.Add(vt, v0[0], v1[0])
}

func TestSmallestNontrivialDomain(t *testing.T) {
	u32 := valuetype.Integer(32)
	d, err := dpf.New(1, u32)
	require.NoError(t, err)

	beta := valuetype.FromUint64(u32, 42)
	k0, k1, err := d.GenerateKeys(big.NewInt(1), beta)
	require.NoError(t, err)

	zero := sumAt(t, d, u32, k0, k1, 0)
	assert.Equal(t, uint64(0), zero.Int.Uint64())

	one := sumAt(t, d, u32, k0, k1, 1)
	assert.Equal(t, uint64(42), one.Int.Uint64())
}

func TestU128ValueAtAllDomainPoints(t *testing.T) {
	u128 := valuetype.Integer(128)
	d, err := dpf.New(5, u128)
	require.NoError(t, err)

	betaInt := new(big.Int).Lsh(big.NewInt(1), 100)
	betaInt.Add(betaInt, big.NewInt(1))
	beta := valuetype.FromBigInt(u128, betaInt)

	k0, k1, err := d.GenerateKeys(big.NewInt(17), beta)
	require.NoError(t, err)

	for x := int64(0); x < 32; x++ {
		got := sumAt(t, d, u128, k0, k1, x)
		if x == 17 {
			assert.Equal(t, 0, got.Int.Cmp(betaInt), "x=%d", x)
		} else {
			assert.Equal(t, uint64(0), got.Int.Uint64(), "x=%d", x)
		}
	}
}

func TestTwoLevelIncremental(t *testing.T) {
	u32 := valuetype.Integer(32)
	ps := []params.Parameter{
		{LogDomainSize: 5, ValueType: u32},
		{LogDomainSize: 10, ValueType: u32},
	}
	d, err := dpf.NewIncremental(ps)
	require.NoError(t, err)

	beta0 := valuetype.FromUint64(u32, 1)
	beta1 := valuetype.FromUint64(u32, 2)
	k0, k1, err := d.GenerateKeysIncremental(big.NewInt(777), []valuetype.Value{beta0, beta1})
	require.NoError(t, err)

	for prefix := int64(0); prefix < 32; prefix++ {
		v0, err := d.EvaluateAt(k0, 0, []*big.Int{big.NewInt(prefix)})
		require.NoError(t, err)
		v1, err := d.EvaluateAt(k1, 0, []*big.Int{big.NewInt(prefix)})
		require.NoError(t, err)
		sum := valuetype.Add(u32, v0[0], v1[0])
		if prefix == 777>>5 {
			assert.Equal(t, uint64(1), sum.Int.Uint64(), "prefix=%d", prefix)
		} else {
			assert.Equal(t, uint64(0), sum.Int.Uint64(), "prefix=%d", prefix)
		}
	}

	for x := int64(0); x < 1024; x++ {
		v0, err := d.EvaluateAt(k0, 1, []*big.Int{big.NewInt(x)})
		require.NoError(t, err)
		v1, err := d.EvaluateAt(k1, 1, []*big.Int{big.NewInt(x)})
		require.NoError(t, err)
		sum := valuetype.Add(u32, v0[0], v1[0])
		if x == 777 {
			assert.Equal(t, uint64(2), sum.Int.Uint64(), "x=%d", x)
		} else {
			assert.Equal(t, uint64(0), sum.Int.Uint64(), "x=%d", x)
		}
	}
}

// allIndices returns 0..n-1 as *big.Int, the full set of tree-index
// prefixes a prior EvaluateUntil call at full coverage produced.
func allIndices(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(int64(i))
	}
	return out
}

func TestContextContinuation(t *testing.T) {
	u32 := valuetype.Integer(32)
	ps := []params.Parameter{
		{LogDomainSize: 2, ValueType: u32},
		{LogDomainSize: 3, ValueType: u32},
		{LogDomainSize: 5, ValueType: u32},
	}
	d, err := dpf.NewIncremental(ps)
	require.NoError(t, err)

	beta := []valuetype.Value{
		valuetype.FromUint64(u32, 1),
		valuetype.FromUint64(u32, 2),
		valuetype.FromUint64(u32, 3),
	}
	alpha := big.NewInt(9)
	k0, k1, err := d.GenerateKeysIncremental(alpha, beta)
	require.NoError(t, err)

	ctx0, err := d.CreateEvaluationContext(k0)
	require.NoError(t, err)
	ctx1, err := d.CreateEvaluationContext(k1)
	require.NoError(t, err)

	// u32's elements-per-block is 128/32 = 4, constant across all three
	// hierarchy levels here; a call's tree-index (leaf) count is its
	// result count divided by that, independent of each level's delta.
	const elementsPerBlock = 4

	// First call must cover hierarchy level 0 with empty prefixes.
	res0a, err := ctx0.EvaluateUntil(0, nil)
	require.NoError(t, err)
	res0b, err := ctx1.EvaluateUntil(0, nil)
	require.NoError(t, err)
	require.Len(t, res0a, 4)
	assertSingleMatch(t, u32, res0a, res0b, int(alpha.Int64())>>3, 1)

	// A repeated or out-of-order call on the same context is rejected.
	_, err = ctx0.EvaluateUntil(0, nil)
	require.Error(t, err)

	// Continue to level 1, consuming every tree index level 0 produced.
	res1a, err := ctx0.EvaluateUntil(1, allIndices(len(res0a)/elementsPerBlock))
	require.NoError(t, err)
	res1b, err := ctx1.EvaluateUntil(1, allIndices(len(res0b)/elementsPerBlock))
	require.NoError(t, err)
	require.Len(t, res1a, 8)
	assertSingleMatch(t, u32, res1a, res1b, int(alpha.Int64())>>2, 2)
	require.Equal(t, 1, ctx0.PreviousHierarchyLevel())

	// An unknown prefix (never produced by the level 1 call) fails.
	_, err = ctx0.EvaluateUntil(2, []*big.Int{big.NewInt(99)})
	require.Error(t, err)

	// Continue to the final level, again consuming every produced index.
	res2a, err := ctx0.EvaluateUntil(2, allIndices(len(res1a)/elementsPerBlock))
	require.NoError(t, err)
	res2b, err := ctx1.EvaluateUntil(2, allIndices(len(res1b)/elementsPerBlock))
	require.NoError(t, err)
	require.Len(t, res2a, 32)
	assertSingleMatch(t, u32, res2a, res2b, int(alpha.Int64()), 3)
	require.Equal(t, 2, ctx0.PreviousHierarchyLevel())

	// The context is now fully evaluated; any further call fails.
	_, err = ctx0.EvaluateUntil(2, allIndices(len(res2a)/elementsPerBlock))
	require.Error(t, err)
}

// assertSingleMatch checks that summing a's and b's shares elementwise
// yields betaVal at exactly wantIndex and zero everywhere else.
func assertSingleMatch(t *testing.T, vt valuetype.ValueType, a, b []valuetype.Value, wantIndex int, betaVal uint64) {
	t.Helper()
	require.Len(t, b, len(a))
	for i := range a {
		sum := valuetype.Add(vt, a[i], b[i])
		if i == wantIndex {
			assert.Equal(t, betaVal, sum.Int.Uint64(), "index=%d", i)
		} else {
			assert.Equal(t, uint64(0), sum.Int.Uint64(), "index=%d", i)
		}
	}
}

func TestTupleOfTwoU32s(t *testing.T) {
	u32 := valuetype.Integer(32)
	vt := valuetype.Tuple(u32, u32)
	d, err := dpf.New(5, vt)
	require.NoError(t, err)

	beta := valuetype.Value{Tuple: []valuetype.Value{
		valuetype.FromUint64(u32, 42),
		valuetype.FromUint64(u32, 42),
	}}
	k0, k1, err := d.GenerateKeys(big.NewInt(3), beta)
	require.NoError(t, err)

	for x := int64(0); x < 32; x++ {
		v0, err := d.EvaluateAt(k0, 0, []*big.Int{big.NewInt(x)})
		require.NoError(t, err)
		v1, err := d.EvaluateAt(k1, 0, []*big.Int{big.NewInt(x)})
		require.NoError(t, err)
		sum := valuetype.Add(vt, v0[0], v1[0])
		require.Len(t, sum.Tuple, 2)
		if x == 3 {
			assert.Equal(t, uint64(42), sum.Tuple[0].Int.Uint64(), "x=%d", x)
			assert.Equal(t, uint64(42), sum.Tuple[1].Int.Uint64(), "x=%d", x)
		} else {
			assert.Equal(t, uint64(0), sum.Tuple[0].Int.Uint64(), "x=%d", x)
			assert.Equal(t, uint64(0), sum.Tuple[1].Int.Uint64(), "x=%d", x)
		}
	}
}

func TestGenerateKeysIncrementalRejectsMismatchedBetaCount(t *testing.T) {
	u32 := valuetype.Integer(32)
	ps := []params.Parameter{
		{LogDomainSize: 4, ValueType: u32},
		{LogDomainSize: 8, ValueType: u32},
	}
	d, err := dpf.NewIncremental(ps)
	require.NoError(t, err)

	_, _, err = d.GenerateKeysIncremental(big.NewInt(1), []valuetype.Value{valuetype.FromUint64(u32, 1)})
	require.Error(t, err)
}

func TestGenerateKeysRejectsAlphaOutOfRange(t *testing.T) {
	u32 := valuetype.Integer(32)
	d, err := dpf.New(4, u32)
	require.NoError(t, err)

	_, _, err = d.GenerateKeys(big.NewInt(16), valuetype.FromUint64(u32, 1))
	require.Error(t, err)

	_, _, err = d.GenerateKeys(big.NewInt(-1), valuetype.FromUint64(u32, 1))
	require.Error(t, err)
}

func TestGenerateKeysRejectsBetaNotFittingValueType(t *testing.T) {
	u8 := valuetype.Integer(8)
	d, err := dpf.New(4, u8)
	require.NoError(t, err)

	oversized := valuetype.Value{Int: big.NewInt(1000)}
	_, _, err = d.GenerateKeys(big.NewInt(1), oversized)
	require.Error(t, err)
}

func TestEvaluateAtRejectsPointOutOfDomain(t *testing.T) {
	u32 := valuetype.Integer(32)
	d, err := dpf.New(4, u32)
	require.NoError(t, err)

	k0, _, err := d.GenerateKeys(big.NewInt(1), valuetype.FromUint64(u32, 1))
	require.NoError(t, err)

	_, err = d.EvaluateAt(k0, 0, []*big.Int{big.NewInt(16)})
	require.Error(t, err)
}

func TestEvaluateAtRejectsMalformedKey(t *testing.T) {
	u32 := valuetype.Integer(32)
	d, err := dpf.New(4, u32)
	require.NoError(t, err)

	k0, _, err := d.GenerateKeys(big.NewInt(1), valuetype.FromUint64(u32, 1))
	require.NoError(t, err)

	truncated := &dpf.Key{Party: k0.Party, Seed: k0.Seed}
	_, err = d.EvaluateAt(truncated, 0, []*big.Int{big.NewInt(1)})
	require.Error(t, err)
}

func TestBatchEvaluateRejectsLengthMismatch(t *testing.T) {
	u32 := valuetype.Integer(32)
	d, err := dpf.New(4, u32)
	require.NoError(t, err)

	k0, _, err := d.GenerateKeys(big.NewInt(1), valuetype.FromUint64(u32, 1))
	require.NoError(t, err)

	_, err = d.BatchEvaluate([]*dpf.Key{k0, k0}, 0, []*big.Int{big.NewInt(1)})
	require.Error(t, err)
}
