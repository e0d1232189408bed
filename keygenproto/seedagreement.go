package keygenproto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"dpfgo/internal/dpferr"
)

// seedSize is the width, in bytes, of an agreed seed and of a party's
// raw seed contribution: 128 bits, matching the core's own GGM-tree
// seed width.
const seedSize = 16

// DeriveAgreedSeed folds contributions (in a fixed, caller-chosen
// order) into a single agreed seed via HKDF, domain-separated by info
// so the same contributions never collide across different derivation
// purposes.
func DeriveAgreedSeed(contributions [][]byte, info string) ([]byte, error) {
	ikm := make([]byte, 0, seedSize*len(contributions))
	for _, c := range contributions {
		ikm = append(ikm, c...)
	}
	reader := hkdf.New(sha256.New, ikm, nil, []byte(info))
	out := make([]byte, seedSize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, dpferr.Internalf("deriving agreed seed: %v", err)
	}
	return out, nil
}
