// Package osrng wraps the OS entropy source behind a fixed-key AES-CTR
// DRBG, the "OpenSSL/AES PRNG wrapper" the distributed point function
// specification names as an external collaborator of the core: the
// core's only blocking operation is the brief read of OS entropy during
// key generation and seed sampling.
package osrng

import (
	"io"
	"sync"

	drbg "github.com/sixafter/aes-ctr-drbg"
)

// readerImpl is a package-level, lazily-initialized DRBG-backed
// io.Reader. It is safe for concurrent use: the underlying DRBG instance
// serializes reads internally, and key generation is expected to be
// called from many goroutines each owning independent keys/contexts.
var (
	once       sync.Once
	readerImpl io.Reader
)

func reader() io.Reader {
	once.Do(func() {
		r, err := drbg.NewReader()
		if err != nil {
			// The DRBG only fails to construct if the OS entropy
			// source itself is unavailable; there is no sane fallback.
			panic("osrng: failed to initialize AES-CTR DRBG: " + err.Error())
		}
		readerImpl = r
	})
	return readerImpl
}

// Read fills b with cryptographically secure random bytes drawn from
// the DRBG. It has the signature of io.Reader's Read method, filling
// all of b or returning an error.
func Read(b []byte) (int, error) {
	return io.ReadFull(reader(), b)
}

// Seed128 returns 16 fresh random bytes, used to sample the initial
// GGM-tree seeds s0, s1 at key generation time.
func Seed128() ([]byte, error) {
	b := make([]byte, 16)
	if _, err := Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Rand64 draws 8 random bytes and reassembles them into a uint64,
// matching the original BasicRng::Rand64 construction with its
// off-by-one corrected: the original indexes the output buffer as
// rand[8-i] for i in [0,8), which reads one byte past an 8-byte array.
// That extra byte happened to be harmless because the result is always
// reduced modulo a sampling bound, but the intended indexing is
// rand[7-i]; that is what this implementation does.
func Rand64() (uint64, error) {
	b := make([]byte, 8)
	if _, err := Read(b); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[7-i]) << (8 * uint(i))
	}
	return v, nil
}
