package prg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpfgo/prg"
)

func TestFixedKeyHashDeterministic(t *testing.T) {
	in := []prg.Block{{1, 2, 3}}
	out1 := make([]prg.Block, 1)
	out2 := make([]prg.Block, 1)

	require.NoError(t, prg.Left().Evaluate(in, out1))
	require.NoError(t, prg.Left().Evaluate(in, out2))
	assert.Equal(t, out1, out2)
}

func TestThreePRGsAreIndependent(t *testing.T) {
	in := []prg.Block{{9, 9, 9, 9}}
	l := make([]prg.Block, 1)
	r := make([]prg.Block, 1)
	v := make([]prg.Block, 1)

	require.NoError(t, prg.Left().Evaluate(in, l))
	require.NoError(t, prg.Right().Evaluate(in, r))
	require.NoError(t, prg.Value().Evaluate(in, v))

	assert.NotEqual(t, l[0], r[0])
	assert.NotEqual(t, l[0], v[0])
	assert.NotEqual(t, r[0], v[0])
}

func TestEvaluateRejectsLengthMismatch(t *testing.T) {
	in := []prg.Block{{1}, {2}}
	out := make([]prg.Block, 1)
	err := prg.Left().Evaluate(in, out)
	require.Error(t, err)
}

func TestExpandOneClearsControlBit(t *testing.T) {
	seed := prg.Block{1, 2, 3, 4}
	ls, _, rs, _, err := prg.ExpandOne(seed)
	require.NoError(t, err)
	assert.Equal(t, byte(0), ls[15]&1)
	assert.Equal(t, byte(0), rs[15]&1)
}

func TestExpandManyMatchesExpandOne(t *testing.T) {
	seeds := []prg.Block{{1, 2}, {3, 4}, {5, 6}}

	ls, lb, rs, rb, err := prg.ExpandMany(seeds)
	require.NoError(t, err)

	for i, s := range seeds {
		els, elb, ers, erb, err := prg.ExpandOne(s)
		require.NoError(t, err)
		assert.Equal(t, els, ls[i])
		assert.Equal(t, elb, lb[i])
		assert.Equal(t, ers, rs[i])
		assert.Equal(t, erb, rb[i])
	}
}

func TestValueBlocksMatchesValueBlock(t *testing.T) {
	seeds := []prg.Block{{1}, {2}, {3}}
	batch, err := prg.ValueBlocks(seeds)
	require.NoError(t, err)
	for i, s := range seeds {
		single, err := prg.ValueBlock(s)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestXORSelfInverse(t *testing.T) {
	a := prg.Block{1, 2, 3}
	b := prg.Block{4, 5, 6}
	x := prg.XOR(a, b)
	back := prg.XOR(x, b)
	assert.Equal(t, a, back)
}
