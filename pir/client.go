package pir

import (
	"bytes"
	"math/big"

	"dpfgo/dpf"
	"dpfgo/internal/dpferr"
	"dpfgo/valuetype"
)

// DenseClient issues dense PIR queries and reassembles the two
// servers' response shares into plaintext rows.
//
// Grounded on original_source/pir/dense_dpf_pir_client.{h,cc}'s
// Create/CreateRequest/HandleResponse, with the encryption and
// one-time-pad layers used to relay the helper's share through the
// leader server omitted: this client talks to both servers directly
// and XORs their shares together itself.
type DenseClient struct {
	dpf           *dpf.DistributedPointFunction
	numRecords    int
	logDomainSize int
}

// NewDenseClient builds a client for a database of numRecords rows.
func NewDenseClient(numRecords int) (*DenseClient, error) {
	d, err := buildDomainDPF(numRecords)
	if err != nil {
		return nil, err
	}
	return &DenseClient{dpf: d, numRecords: numRecords, logDomainSize: ceilLog2(numRecords)}, nil
}

// allOnes128 is the β every query uses: a full 128-bit all-ones mask,
// so that combining both servers' shares at the queried row recovers
// it untouched via bitwise AND.
func allOnes128() valuetype.Value {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	max.Sub(max, big.NewInt(1))
	return valuetype.FromBigInt(valuetype.XorWrapper(128), max)
}

// CreateRequest builds one DPF key pair per query index, to be sent to
// the two servers respectively (keys0[i] to server 0, keys1[i] to
// server 1).
func (c *DenseClient) CreateRequest(queryIndices []int) (keys0, keys1 []*dpf.Key, err error) {
	beta := allOnes128()
	keys0 = make([]*dpf.Key, len(queryIndices))
	keys1 = make([]*dpf.Key, len(queryIndices))
	for i, q := range queryIndices {
		if q < 0 || q >= c.numRecords {
			return nil, nil, dpferr.InvalidArgumentf("query index %d out of bounds for %d records", q, c.numRecords)
		}
		k0, k1, err := c.dpf.GenerateKeys(big.NewInt(int64(q)), beta)
		if err != nil {
			return nil, nil, err
		}
		keys0[i] = k0
		keys1[i] = k1
	}
	return keys0, keys1, nil
}

// HandleResponse XORs the two servers' response shares together,
// recovering each queried row, cuts it to maxValueSize bytes, and then
// strips trailing zero bytes (the database's padding). A record whose
// own content ends in zero bytes loses those bytes too.
func (c *DenseClient) HandleResponse(shares0, shares1 [][]byte, maxValueSize int) ([][]byte, error) {
	if len(shares0) != len(shares1) {
		return nil, dpferr.InvalidArgument("shares0 and shares1 must have the same length")
	}
	out := make([][]byte, len(shares0))
	for i := range shares0 {
		a, b := shares0[i], shares1[i]
		if len(a) != len(b) {
			return nil, dpferr.InvalidArgumentf("response %d has mismatched share lengths", i)
		}
		row := make([]byte, len(a))
		for j := range a {
			row[j] = a[j] ^ b[j]
		}
		if maxValueSize < len(row) {
			row = row[:maxValueSize]
		}
		out[i] = bytes.TrimRight(row, "\x00")
	}
	return out, nil
}
