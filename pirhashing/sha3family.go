package pirhashing

import (
	"golang.org/x/crypto/sha3"
)

// SHA3HashFamily builds HashFunctions computing SHA3-256(seed||input),
// reduced to [0, upperBound) the same way SHA256HashFamily does.
//
// Not present in original_source; a third cryptographic hash-family
// implementation alongside SHA256 and BLAKE3, giving sparse PIR's hash
// tables a choice of three independent families for cases where a
// cuckoo table's construction needs to retry with fresh seeds.
func SHA3HashFamily(seed string) HashFunction {
	prefix := []byte(seed)

	return func(input string, upperBound int) int {
		h := sha3.New256()
		h.Write(prefix)
		h.Write([]byte(input))
		return reduceDigest(h.Sum(nil), upperBound)
	}
}
