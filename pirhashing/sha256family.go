package pirhashing

import (
	"crypto/sha256"
	"encoding"
	"math/big"
)

// SHA256HashFamily builds HashFunctions computing SHA256(seed||input),
// reduced to [0, upperBound) by treating the 32-byte digest as a single
// big-endian integer and taking it modulo upperBound.
//
// Grounded on original_source/pir/hashing/sha256_hash_family.{h,cc}:
// the original keeps a SHA256_CTX already fed with seed around and
// copies it per call to avoid re-hashing seed every time, then reduces
// the digest via three rounds of 128-bit "long division". Go's
// crypto/sha256 digest implements encoding.BinaryMarshaler, so the
// same seed-prefix caching trick is available directly: Sum's
// marshaled state is restored fresh for every call instead of
// re-writing seed. The three-step long division is algebraically just
// digest mod upper_bound; math/big computes that directly.
func SHA256HashFamily(seed string) HashFunction {
	h := sha256.New()
	h.Write([]byte(seed))
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		// sha256's digest always supports marshaling; this only fails
		// if the stdlib implementation changes incompatibly.
		panic("pirhashing: sha256 digest does not support state marshaling: " + err.Error())
	}

	return func(input string, upperBound int) int {
		hh := sha256.New()
		if err := hh.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
			panic("pirhashing: sha256 digest does not support state unmarshaling: " + err.Error())
		}
		hh.Write([]byte(input))
		digest := hh.Sum(nil)
		return reduceDigest(digest, upperBound)
	}
}

// reduceDigest reduces digest, read as a big-endian unsigned integer,
// modulo upperBound.
func reduceDigest(digest []byte, upperBound int) int {
	n := new(big.Int).SetBytes(digest)
	n.Mod(n, big.NewInt(int64(upperBound)))
	return int(n.Int64())
}
