package pirhashing

import (
	"dpfgo/internal/dpferr"
)

// SimpleHashTable stores each inserted element once per hash function,
// in the bucket that function assigns it to: with h hash functions, an
// element has h copies in the table, one per bucket list.
//
// Grounded on original_source/pir/hashing/simple_hash_table.{h,cc}.
type SimpleHashTable struct {
	numBuckets    int
	maxBucketSize *int
	hashFunctions []HashFunction
	table         [][]string
}

// NewSimpleHashTable validates its arguments and builds an empty table
// with numBuckets buckets. maxBucketSize is optional (nil means
// unbounded); pass a pointer obtained via e.g. new(int) and assignment,
// or the address of a local variable.
func NewSimpleHashTable(hashFunctions []HashFunction, numBuckets int, maxBucketSize *int) (*SimpleHashTable, error) {
	if numBuckets <= 0 {
		return nil, dpferr.InvalidArgument("num_buckets must be positive")
	}
	if len(hashFunctions) == 0 {
		return nil, dpferr.InvalidArgument("hash_functions must not be empty")
	}
	if maxBucketSize != nil && *maxBucketSize <= 0 {
		return nil, dpferr.InvalidArgument("max_bucket_size must be positive")
	}
	return &SimpleHashTable{
		numBuckets:    numBuckets,
		maxBucketSize: maxBucketSize,
		hashFunctions: hashFunctions,
		table:         make([][]string, numBuckets),
	}, nil
}

// Insert hashes input once per hash function and appends it to every
// resulting bucket. If any bucket would exceed max_bucket_size, no
// bucket is modified at all: insertion either succeeds everywhere or
// fails everywhere.
func (s *SimpleHashTable) Insert(input string) error {
	hashes := make([]int, len(s.hashFunctions))
	pending := make(map[int]int, len(s.hashFunctions))
	for i, hf := range s.hashFunctions {
		hashes[i] = hf(input, s.numBuckets)
		pending[hashes[i]]++
		if s.maxBucketSize != nil && len(s.table[hashes[i]])+pending[hashes[i]] > *s.maxBucketSize {
			return dpferr.Internal("cannot insert element: maximum bucket size reached")
		}
	}
	for _, h := range hashes {
		s.table[h] = append(s.table[h], input)
	}
	return nil
}

// GetTable returns the underlying buckets.
func (s *SimpleHashTable) GetTable() [][]string { return s.table }

// GetHashFunctions returns the hash functions this table was built
// with.
func (s *SimpleHashTable) GetHashFunctions() []HashFunction { return s.hashFunctions }
