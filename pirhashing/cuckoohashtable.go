package pirhashing

import (
	"math/rand"

	"dpfgo/internal/dpferr"
	"dpfgo/osrng"
)

// CuckooHashTable hashes each element with one of several hash
// functions, chosen at random on every attempt. If that bucket is
// empty the element is placed there; otherwise it swaps places with
// the occupant, and the evicted element is re-inserted the same way.
// The other candidate buckets are not checked for a free slot first.
// After maxRelocations attempts the element still in hand is moved to
// an unbounded (unless maxStashSize is set) stash instead.
//
// Grounded on original_source/pir/hashing/cuckoo_hash_table.{h,cc}.
// The eviction target is chosen with a non-cryptographic RNG: it only
// breaks a data-structure-internal tie, not a security-relevant
// decision, matching the original's std::mt19937_64.
type CuckooHashTable struct {
	numBuckets     int
	maxRelocations int
	maxStashSize   *int
	hashFunctions  []HashFunction

	table []*string
	stash []string
	rng   *rand.Rand
}

// NewCuckooHashTable validates its arguments and builds an empty table
// with numBuckets slots, evicting at most maxRelocations times before
// stashing an element.
func NewCuckooHashTable(hashFunctions []HashFunction, numBuckets, maxRelocations int, maxStashSize *int) (*CuckooHashTable, error) {
	if numBuckets <= 0 {
		return nil, dpferr.InvalidArgument("num_buckets must be positive")
	}
	if len(hashFunctions) < 2 {
		return nil, dpferr.InvalidArgument("hash_functions.size() must be at least 2")
	}
	if maxRelocations < 0 {
		return nil, dpferr.InvalidArgument("max_relocations must be non-negative")
	}
	if maxStashSize != nil && *maxStashSize < 0 {
		return nil, dpferr.InvalidArgument("max_stash_size must be non-negative")
	}

	seedBytes, err := osrng.Seed128()
	if err != nil {
		return nil, dpferr.Internalf("seeding cuckoo table rng: %v", err)
	}
	var seed int64
	for _, b := range seedBytes[:8] {
		seed = seed<<8 | int64(b)
	}

	t := &CuckooHashTable{
		numBuckets:     numBuckets,
		maxRelocations: maxRelocations,
		maxStashSize:   maxStashSize,
		hashFunctions:  hashFunctions,
		table:          make([]*string, numBuckets),
		rng:            rand.New(rand.NewSource(seed)),
	}
	if maxStashSize != nil {
		t.stash = make([]string, 0, *maxStashSize)
	}
	return t, nil
}

// Insert places input in the table, evicting and relocating existing
// elements as needed, falling back to the stash once maxRelocations is
// exhausted.
func (t *CuckooHashTable) Insert(input string) error {
	current := input
	for i := 0; i < t.maxRelocations; i++ {
		hf := t.hashFunctions[t.rng.Intn(len(t.hashFunctions))]
		hash := hf(current, t.numBuckets)
		if t.table[hash] != nil {
			current, *t.table[hash] = *t.table[hash], current
		} else {
			v := current
			t.table[hash] = &v
			return nil
		}
	}
	if t.maxStashSize != nil && len(t.stash) >= *t.maxStashSize {
		return dpferr.Internal("cannot insert element: stash is full")
	}
	t.stash = append(t.stash, current)
	return nil
}

// GetTable returns the underlying slots, nil where empty.
func (t *CuckooHashTable) GetTable() []*string { return t.table }

// GetStash returns the elements that could not be placed within
// maxRelocations attempts.
func (t *CuckooHashTable) GetStash() []string { return t.stash }

// GetHashFunctions returns the hash functions this table was built
// with.
func (t *CuckooHashTable) GetHashFunctions() []HashFunction { return t.hashFunctions }
