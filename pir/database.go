// Package pir implements the simplest DPF-based private information
// retrieval composition: a dense database indexed by row number, where
// one DPF key pair selects exactly one row. Two independent servers,
// each holding one key of a pair, each compute a share of the selected
// row; XORing the two shares together recovers it, without either
// server learning which row was requested.
//
// Grounded on original_source/pir/dense_dpf_pir_database.h,
// dense_dpf_pir_server.{h,cc}, and dense_dpf_pir_client.{h,cc}. This
// package composes only dpf's public Gen/Eval surface, omitting the
// originals' Leader/Helper RPC forwarding, request encryption, and the
// one-time-pad response masking used to hide one server's traffic from
// the other — that layer is network/distribution plumbing, out of
// scope here the same way it is out of scope for the core.
package pir

import (
	"dpfgo/internal/dpferr"
	"dpfgo/valuetype"
)

// blockSize is the width, in bytes, of one XOR-masked chunk: 128 bits,
// matching DenseDpfPirDatabase's BlockType (XorWrapper<uint128>) and
// the DPF library's own PRG block size.
const blockSize = 16

// Database stores fixed-width rows, padded to a common multiple of
// blockSize so every row can be masked chunk-by-chunk with the same
// per-row selection share.
type Database struct {
	rows         [][]byte
	rowSize      int
	maxValueSize int
}

// Builder accumulates rows before Build freezes them into a Database.
// Grounded on DenseDpfPirDatabase::Builder's Insert/Clear/Build shape.
type Builder struct {
	values []string
	built  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Insert appends a record at the end of the database.
func (b *Builder) Insert(value string) *Builder {
	b.values = append(b.values, value)
	return b
}

// Clear removes all inserted records, leaving the builder otherwise
// reusable.
func (b *Builder) Clear() *Builder {
	b.values = nil
	return b
}

// Build freezes the builder's records into a Database, padding every
// row with zero bytes up to the longest record's length rounded up to
// a multiple of blockSize. Build invalidates the builder: a second
// call fails with a failed-precondition error, mirroring the original's
// has_been_built_ guard.
func (b *Builder) Build() (*Database, error) {
	if b.built {
		return nil, dpferr.FailedPrecondition("builder has already been built")
	}
	b.built = true

	maxValueSize := 0
	for _, v := range b.values {
		if len(v) > maxValueSize {
			maxValueSize = len(v)
		}
	}
	rowSize := ((maxValueSize + blockSize - 1) / blockSize) * blockSize
	if rowSize == 0 {
		rowSize = blockSize
	}

	rows := make([][]byte, len(b.values))
	for i, v := range b.values {
		row := make([]byte, rowSize)
		copy(row, v)
		rows[i] = row
	}
	return &Database{rows: rows, rowSize: rowSize, maxValueSize: maxValueSize}, nil
}

// Size returns the number of records in the database.
func (d *Database) Size() int { return len(d.rows) }

// NumSelectionBits equals Size: dense PIR needs exactly one selection
// value per row.
func (d *Database) NumSelectionBits() int { return d.Size() }

// MaxValueSizeInBytes returns the longest record's unpadded length.
func (d *Database) MaxValueSizeInBytes() int { return d.maxValueSize }

// InnerProductWith computes, for each query's selection vector, the
// XOR of every row ANDed with its corresponding selection share:
// response = XOR_k (selections[k] AND row[k]), applying the same
// 128-bit share value across every blockSize-chunk of a row. Because
// AND distributes over XOR in GF(2), summing two servers' responses
// for the same query (one per key of a pair) cancels every row except
// the one the pair's alpha points at, recovering it exactly (Lemma:
// (r AND d) XOR ((r XOR c) AND d) == c AND d).
func (d *Database) InnerProductWith(selections [][]valuetype.Value) ([][]byte, error) {
	vt := valuetype.XorWrapper(128)
	responses := make([][]byte, len(selections))
	for q, sel := range selections {
		if len(sel) < d.Size() {
			return nil, dpferr.InvalidArgumentf("selection vector %d has only %d entries for %d rows", q, len(sel), d.Size())
		}
		acc := make([]byte, d.rowSize)
		for k, row := range d.rows {
			mask := valuetype.ToBytes(vt, sel[k])
			for off := 0; off < d.rowSize; off += blockSize {
				for b := 0; b < blockSize; b++ {
					acc[off+b] ^= mask[b] & row[off+b]
				}
			}
		}
		responses[q] = acc
	}
	return responses, nil
}
