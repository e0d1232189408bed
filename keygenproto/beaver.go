package keygenproto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"dpfgo/internal/dpferr"
)

// BitBeaverTriple is a single-bit multiplication triple, c = a AND b,
// named after BitBeaverTriple in
// original_source/dpf/key_generation_protocol/key_generation_protocol.h.
// The original obtains these from a pair of oblivious transfers per
// GGM-tree level so that neither party learns the other's a/b bit;
// here they are stretched directly out of the already-agreed seed, a
// trusted-dealer simplification documented at the package level.
type BitBeaverTriple struct {
	A, B, C bool
}

// GenerateBeaverTriples derives n independent BitBeaverTriples from
// seed, one per hierarchy level a key-generation protocol run would
// need to mask a level's seed/control-bit correction.
func GenerateBeaverTriples(seed []byte, n int) ([]BitBeaverTriple, error) {
	if n < 0 {
		return nil, dpferr.InvalidArgument("n must not be negative")
	}
	reader := hkdf.New(sha256.New, seed, nil, []byte("keygenproto/beaver-triple"))
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return nil, dpferr.Internalf("deriving beaver triples: %v", err)
	}
	triples := make([]BitBeaverTriple, n)
	for i, b := range raw {
		a := b&1 != 0
		bb := b&2 != 0
		triples[i] = BitBeaverTriple{A: a, B: bb, C: a && bb}
	}
	return triples, nil
}
