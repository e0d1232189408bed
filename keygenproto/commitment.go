package keygenproto

import (
	"crypto/sha256"
	"crypto/subtle"

	"dpfgo/internal/dpferr"
	"dpfgo/osrng"
)

// Commitment binds a party to a seed contribution before it is
// revealed, the commit-reveal stand-in for the original protocol's OT
// receiver/sender message exchange.
type Commitment struct {
	Digest []byte
	Nonce  []byte
}

// Commit hashes a fresh random nonce together with contribution,
// binding the committer to contribution without revealing it.
func Commit(contribution []byte) (*Commitment, error) {
	nonce := make([]byte, 16)
	if _, err := osrng.Read(nonce); err != nil {
		return nil, dpferr.Internalf("sampling commitment nonce: %v", err)
	}
	h := sha256.New()
	h.Write(nonce)
	h.Write(contribution)
	return &Commitment{Digest: h.Sum(nil), Nonce: nonce}, nil
}

// VerifyCommitment reports whether contribution matches commitment,
// recomputing the digest from the revealed nonce in constant time.
func VerifyCommitment(commitment *Commitment, contribution []byte) bool {
	h := sha256.New()
	h.Write(commitment.Nonce)
	h.Write(contribution)
	return subtle.ConstantTimeCompare(h.Sum(nil), commitment.Digest) == 1
}
