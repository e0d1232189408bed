package pirhashing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpfgo/pirhashing"
)

func TestCreateHashFunctionsSeedsByIndex(t *testing.T) {
	var seeds []string
	family := func(seed string) pirhashing.HashFunction {
		seeds = append(seeds, seed)
		return func(input string, upperBound int) int { return 0 }
	}

	fns, err := pirhashing.CreateHashFunctions(family, 3)
	require.NoError(t, err)
	assert.Len(t, fns, 3)
	assert.Equal(t, []string{"0", "1", "2"}, seeds)
}

func TestCreateHashFunctionsRejectsNegativeCount(t *testing.T) {
	_, err := pirhashing.CreateHashFunctions(pirhashing.SHA256HashFamily, -1)
	require.Error(t, err)
}

func TestWrapWithSeedPrependsFamilySeed(t *testing.T) {
	var seenSeed string
	inner := func(seed string) pirhashing.HashFunction {
		seenSeed = seed
		return func(input string, upperBound int) int { return 0 }
	}
	wrapped := pirhashing.WrapWithSeed(inner, "prefix-")
	wrapped("suffix")
	assert.Equal(t, "prefix-suffix", seenSeed)
}

func TestHashFunctionsStayWithinBound(t *testing.T) {
	for _, family := range []pirhashing.HashFamily{
		pirhashing.SHA256HashFamily,
		pirhashing.BLAKE3HashFamily,
		pirhashing.SHA3HashFamily,
	} {
		hf := family("seed")
		for i := 0; i < 50; i++ {
			v := hf("input", 17)
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, 17)
		}
	}
}

func TestHashFunctionsAreDeterministic(t *testing.T) {
	for _, family := range []pirhashing.HashFamily{
		pirhashing.SHA256HashFamily,
		pirhashing.BLAKE3HashFamily,
		pirhashing.SHA3HashFamily,
	} {
		hf := family("seed")
		a := hf("same-input", 1000)
		b := hf("same-input", 1000)
		assert.Equal(t, a, b)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := pirhashing.SHA256HashFamily("seed-a")("x", 1<<20)
	b := pirhashing.SHA256HashFamily("seed-b")("x", 1<<20)
	assert.NotEqual(t, a, b)
}
