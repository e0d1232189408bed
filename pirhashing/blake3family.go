package pirhashing

import (
	"github.com/zeebo/blake3"
)

// BLAKE3HashFamily builds HashFunctions computing
// BLAKE3(BLAKE3(seed)||input), reduced to [0, upperBound) the same way
// SHA256HashFamily does.
//
// Not present in original_source: the reference implementation only
// ships SHA256 and a non-cryptographic FarmHash family. This gives the
// hash-family abstraction a second cryptographic implementation, the
// way the spec's hash-family section calls for it to be pluggable.
func BLAKE3HashFamily(seed string) HashFunction {
	h := blake3.New()
	h.Write([]byte(seed))
	state := h.Sum(nil)

	return func(input string, upperBound int) int {
		hh := blake3.New()
		hh.Write(state)
		hh.Write([]byte(input))
		return reduceDigest(hh.Sum(nil), upperBound)
	}
}
