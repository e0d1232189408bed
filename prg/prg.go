// Package prg implements the fixed-key pseudorandom generator used to
// expand the GGM tree during DPF key generation and evaluation: three
// independent Davies-Meyer AES-128 hash functions, PRGLeft, PRGRight,
// and PRGValue, each built from a distinct public 128-bit constant.
//
// Grounded on dpf_utils.go's PRG (AES used as a stream cipher to
// expand a seed) generalised to the Davies-Meyer fixed-key
// construction AES_k(x) XOR x the specification calls for, and on the
// batched multi-block AES pattern in the pack's
// privacy-sandbox-aggregation-service dpf-server.go.go (prf()).
package prg

import (
	"crypto/aes"
	"crypto/cipher"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"dpfgo/internal/dpferr"
)

// Block is a 128-bit value, the unit the GGM tree is expanded and
// packed in.
type Block [16]byte

// Aes128FixedKeyHash is a Davies-Meyer hash built from a fixed AES-128
// key: Evaluate(x) = AES_key(x) XOR x. Fixing the key (rather than
// deriving it from the input) is what makes this usable as a PRG in
// the GGM construction: the same public key is baked into every
// instance of the engine, and the seed being expanded is the plaintext.
type Aes128FixedKeyHash struct {
	block cipher.Block
}

// newFixedKeyHash constructs a hash instance from a public 128-bit
// constant. The constant is never secret; it only needs to be fixed
// and distinct across PRGLeft/PRGRight/PRGValue so the three PRGs are
// independent.
func newFixedKeyHash(key [16]byte) *Aes128FixedKeyHash {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// aes.NewCipher only fails on a bad key length; our keys are a
		// compile-time constant 16 bytes, so this is unreachable.
		panic("prg: invalid fixed AES-128 key: " + err.Error())
	}
	return &Aes128FixedKeyHash{block: block}
}

// Evaluate computes out[i] = AES_key(in[i]) XOR in[i] for every i,
// requiring len(out) == len(in). Inputs are processed independently;
// the AES engine amortises the per-call overhead across the whole
// batch, which is why callers are expected to expand entire tree
// frontiers at once rather than block-by-block.
func (h *Aes128FixedKeyHash) Evaluate(in []Block, out []Block) error {
	if len(in) != len(out) {
		return dpferr.InvalidArgument("prg: in and out must have equal length")
	}
	var cipherText [16]byte
	for i := range in {
		h.block.Encrypt(cipherText[:], in[i][:])
		for j := 0; j < 16; j++ {
			out[i][j] = cipherText[j] ^ in[i][j]
		}
	}
	return nil
}

// The three fixed public constants backing PRGLeft, PRGRight, and
// PRGValue. These are arbitrary but must be distinct and stable across
// every instance of the library, since two parties only agree on
// shares if they expand with the same PRGs.
var (
	prgLeftKey  = [16]byte{0x5d, 0xa4, 0x3b, 0x12, 0x8f, 0x01, 0xcc, 0x77, 0x4e, 0x9a, 0x21, 0xe6, 0xb8, 0x0d, 0x5f, 0x63}
	prgRightKey = [16]byte{0x9e, 0x2c, 0x71, 0xa8, 0x3d, 0xf4, 0x06, 0x1b, 0xc5, 0x88, 0x34, 0x7f, 0xe1, 0x0a, 0x92, 0x56}
	prgValueKey = [16]byte{0x11, 0x6f, 0xd8, 0x40, 0xa7, 0x2e, 0x99, 0x03, 0x5c, 0xb1, 0x7d, 0x44, 0x28, 0xe3, 0x6a, 0x15}
)

var (
	once                        sync.Once
	prgLeft, prgRight, prgValue *Aes128FixedKeyHash
	aesniAvailable              bool
)

func init() {
	once.Do(func() {
		prgLeft = newFixedKeyHash(prgLeftKey)
		prgRight = newFixedKeyHash(prgRightKey)
		prgValue = newFixedKeyHash(prgValueKey)
		aesniAvailable = cpuid.CPU.Supports(cpuid.AESNI)
	})
}

// Left returns the PRG used to derive the left child's seed/control
// bit during GGM tree expansion.
func Left() *Aes128FixedKeyHash { return prgLeft }

// Right returns the PRG used to derive the right child's seed/control
// bit during GGM tree expansion.
func Right() *Aes128FixedKeyHash { return prgRight }

// Value returns the PRG used to map a leaf seed to a pseudorandom
// value block during value correction.
func Value() *Aes128FixedKeyHash { return prgValue }

// AESNIAvailable reports whether the CPU advertises hardware AES
// support. The PRG always uses crypto/aes, which uses AES-NI
// transparently when the Go runtime detects it; this is purely an
// observability hook so callers can log or benchmark accordingly.
func AESNIAvailable() bool { return aesniAvailable }
