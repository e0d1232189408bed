package pir

import (
	"math/big"

	"dpfgo/dpf"
	"dpfgo/internal/dpferr"
	"dpfgo/valuetype"
)

// DenseServer answers plain DPF-PIR requests over a Database, acting
// as one of the two non-colluding parties that together hold a key
// pair for each query.
//
// Grounded on original_source/pir/dense_dpf_pir_server.{h,cc}'s
// CreatePlain/HandlePlainRequest: build a DPF over the database's
// index domain with value type XorWrapper(kDpfBlockSize), evaluate
// the client's key over the whole domain, and inner-product the
// result with the database.
type DenseServer struct {
	database *Database
	dpf      *dpf.DistributedPointFunction
}

// NewDenseServer builds a server for database, sizing its internal DPF
// to the database's row count.
func NewDenseServer(database *Database) (*DenseServer, error) {
	if database == nil {
		return nil, dpferr.InvalidArgument("database must not be nil")
	}
	d, err := buildDomainDPF(database.Size())
	if err != nil {
		return nil, err
	}
	return &DenseServer{database: database, dpf: d}, nil
}

// HandleRequest evaluates each of keys over the whole database domain
// and returns this server's share of the masked response for each
// query, in the same order as keys.
func (s *DenseServer) HandleRequest(keys []*dpf.Key) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, dpferr.InvalidArgument("keys must not be empty")
	}
	selections := make([][]valuetype.Value, len(keys))
	for i, key := range keys {
		ctx, err := s.dpf.CreateEvaluationContext(key)
		if err != nil {
			return nil, err
		}
		vals, err := ctx.EvaluateNext(nil)
		if err != nil {
			return nil, err
		}
		selections[i] = vals
	}
	return s.database.InnerProductWith(selections)
}

// buildDomainDPF constructs the shared DPF both DenseServer and
// DenseClient use: domain size ceil(log2(numRecords)), value type
// XorWrapper(128) (one full PRG block per row).
func buildDomainDPF(numRecords int) (*dpf.DistributedPointFunction, error) {
	if numRecords <= 0 {
		return nil, dpferr.InvalidArgument("num_elements must be positive")
	}
	logDomainSize := ceilLog2(numRecords)
	return dpf.New(logDomainSize, valuetype.XorWrapper(128))
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := big.NewInt(int64(n - 1)).BitLen()
	return bits
}
