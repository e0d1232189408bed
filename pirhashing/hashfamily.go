// Package pirhashing implements the hash-family abstraction and the two
// bucket-assignment strategies (simple and cuckoo) that sparse
// DPF-based PIR uses to map a large key space onto a small number of
// database buckets, each queried with one DPF.
//
// Grounded on original_source/pir/hashing/hash_family.h,
// simple_hash_table.{h,cc}, and cuckoo_hash_table.{h,cc}. This package
// is a pure data-structure layer: it has no cryptographic core of its
// own, composing only hash functions and the dpf/dcf packages' public
// surface where a PIR server or client needs one.
package pirhashing

import (
	"strconv"

	"dpfgo/internal/dpferr"
)

// HashFunction hashes input to a value in [0, upperBound).
type HashFunction func(input string, upperBound int) int

// HashFamily returns a HashFunction seeded with seed. Calling a family
// with different seeds yields independent hash functions.
type HashFamily func(seed string) HashFunction

// WrapWithSeed returns a HashFamily that prepends familySeed to every
// seed passed to family, letting one family be derived into several
// independently-seeded ones.
func WrapWithSeed(family HashFamily, familySeed string) HashFamily {
	return func(seed string) HashFunction {
		return family(familySeed + seed)
	}
}

// CreateHashFunctions builds numHashFunctions HashFunctions from
// family, seeding the i-th one with the decimal string of i.
func CreateHashFunctions(family HashFamily, numHashFunctions int) ([]HashFunction, error) {
	if numHashFunctions < 0 {
		return nil, dpferr.InvalidArgument("num_hash_functions must not be negative")
	}
	result := make([]HashFunction, numHashFunctions)
	for i := range result {
		result[i] = family(strconv.Itoa(i))
	}
	return result, nil
}
