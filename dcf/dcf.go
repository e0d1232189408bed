// Package dcf implements the Distributed Comparison Function: a pair
// of keys such that Eval(k0,x)+Eval(k1,x) = beta * [x < alpha], built
// as a thin reduction to dpf's incremental engine.
//
// Grounded on the bit-accumulation algorithm in
// original_source/dcf/distributed_comparison_function.h's
// BatchEvaluate<T>: for each prefix length i in [0, log_domain_size),
// if bit i of x (most-significant first) is 0, evaluate the
// underlying incremental DPF's hierarchy level i at x's own top-i-bit
// prefix and accumulate the result; if the bit is 1, skip that level
// entirely (the documented timing side channel the construction
// accepts). The underlying DPF is built with one hierarchy level per
// bit of the domain (log_domain_size = 0, 1, ..., n-1), sharing alpha
// right-shifted by one bit, with beta placed at exactly the levels
// where alpha's own bit is 1 and the additive identity everywhere
// else — the standard "flip to zero" trick that makes the single
// shared-alpha incremental key compute the right partial sums.
package dcf

import (
	"math/big"

	"github.com/rs/zerolog/log"

	"dpfgo/dpf"
	"dpfgo/internal/dpferr"
	"dpfgo/internal/params"
	"dpfgo/valuetype"
)

// DcfParameters mirrors internal/params.Parameter with the extra
// requirement that log_domain_size is at least 1: a DCF only makes
// sense as a comparison over a domain with at least one bit.
type DcfParameters struct {
	LogDomainSize int
	ValueType     valuetype.ValueType
}

// Key is one party's share of a DCF, carrying the underlying DPF key.
type Key struct {
	inner *dpf.Key
}

// Party reports which of the two parties (0 or 1) this key belongs
// to, for gates built atop a DCF that need to know which share they
// are combining (e.g. fssgates's interval-containment correction).
func (k *Key) Party() uint8 { return k.inner.Party }

// DistributedComparisonFunction is the analogue of dpf's engine for
// the strict-less-than construction.
type DistributedComparisonFunction struct {
	params DcfParameters
	dpf    *dpf.DistributedPointFunction
}

// New validates parameters and builds the underlying incremental DPF.
func New(p DcfParameters) (*DistributedComparisonFunction, error) {
	if p.LogDomainSize < 1 {
		return nil, dpferr.InvalidArgument("a DCF must have log_domain_size >= 1")
	}
	if !p.ValueType.Valid() {
		return nil, dpferr.InvalidArgument("DcfParameters is missing a valid ValueType")
	}
	ps := make([]params.Parameter, p.LogDomainSize)
	for i := range ps {
		ps[i] = params.Parameter{LogDomainSize: i, ValueType: p.ValueType}
	}
	d, err := dpf.NewIncremental(ps)
	if err != nil {
		return nil, err
	}
	return &DistributedComparisonFunction{params: p, dpf: d}, nil
}

// GenerateKeys builds a key pair for the point function beta*[x<alpha].
func (c *DistributedComparisonFunction) GenerateKeys(alpha *big.Int, beta valuetype.Value) (*Key, *Key, error) {
	n := c.params.LogDomainSize
	if alpha.Sign() < 0 || alpha.BitLen() > n {
		return nil, nil, dpferr.InvalidArgumentf("alpha out of range for domain of %d bits", n)
	}

	zero := valuetype.Zero(c.params.ValueType)
	betas := make([]valuetype.Value, n)
	for i := 0; i < n; i++ {
		if bitMSB(alpha, n, i) {
			betas[i] = beta
		} else {
			betas[i] = zero
		}
	}

	// The underlying DPF's deepest hierarchy level only has n-1 domain
	// bits: alpha's own last bit never gates a prefix match, only
	// whether beta lands at the final level.
	dpfAlpha := new(big.Int).Rsh(alpha, 1)
	k0, k1, err := c.dpf.GenerateKeysIncremental(dpfAlpha, betas)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Int("log_domain_size", n).Msg("generated dcf key pair")
	return &Key{inner: k0}, &Key{inner: k1}, nil
}

// Evaluate returns one party's share of the comparison's output at x.
func (c *DistributedComparisonFunction) Evaluate(key *Key, x *big.Int) (valuetype.Value, error) {
	out, err := c.BatchEvaluate([]*Key{key}, []*big.Int{x})
	if err != nil {
		return valuetype.Value{}, err
	}
	return out[0], nil
}

// BatchEvaluate evaluates independent (key, point) pairs, switching
// per pair between the raw-key and context-reusing strategies per
// §4.5's save_context_cutoff table. Both strategies are bit-identical;
// the cutover only changes how many times the tree gets re-walked
// from the root.
func (c *DistributedComparisonFunction) BatchEvaluate(keys []*Key, xs []*big.Int) ([]valuetype.Value, error) {
	if len(keys) != len(xs) {
		return nil, dpferr.InvalidArgument("keys and evaluation points must have equal length")
	}
	n := c.params.LogDomainSize
	maxX := new(big.Int).Lsh(big.NewInt(1), uint(n))
	useContext := n >= saveContextCutoff(c.params.ValueType)

	out := make([]valuetype.Value, len(keys))
	for j, key := range keys {
		x := xs[j]
		if x.Sign() < 0 || x.Cmp(maxX) >= 0 {
			return nil, dpferr.InvalidArgumentf("evaluation point %s exceeds domain of %d bits", x, n)
		}
		var v valuetype.Value
		var err error
		if useContext {
			v, err = c.evaluateWithContext(key, x)
		} else {
			v, err = c.evaluateDirect(key, x)
		}
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

// evaluateDirect re-derives each needed hierarchy level straight from
// the raw key, walking the tree from the root every time.
func (c *DistributedComparisonFunction) evaluateDirect(key *Key, x *big.Int) (valuetype.Value, error) {
	n := c.params.LogDomainSize
	acc := valuetype.Zero(c.params.ValueType)
	for i := 0; i < n; i++ {
		if bitMSB(x, n, i) {
			continue
		}
		prefix := new(big.Int).Rsh(x, uint(n-i))
		vals, err := c.dpf.EvaluateAt(key.inner, i, []*big.Int{prefix})
		if err != nil {
			return valuetype.Value{}, err
		}
		acc = valuetype.Add(c.params.ValueType, acc, vals[0])
	}
	return acc, nil
}

// evaluateWithContext walks the tree once for x, reusing one
// EvaluationContext across every needed hierarchy level instead of
// restarting from the root each time. internal/params forces each
// hierarchy level i onto its own fresh tree level i, so a level's tree
// index is exactly x's own prefix at that level — but EvaluateUntil
// still packs ElementsPerBlock(vt) results per leaf (appendLeafResults
// in dpf/context.go), so for value types with more than one element
// per PRG block (anything narrower than 128 bits) a leaf's results
// still need the block-index worked out, the same way EvaluateAt does
// via blockIndexOf: leaf L's block m lives at result index L*epb+m.
func (c *DistributedComparisonFunction) evaluateWithContext(key *Key, x *big.Int) (valuetype.Value, error) {
	n := c.params.LogDomainSize
	epb := int64(c.params.ValueType.ElementsPerBlock())
	acc := valuetype.Zero(c.params.ValueType)

	ctx, err := c.dpf.CreateEvaluationContext(key.inner)
	if err != nil {
		return valuetype.Value{}, err
	}

	prevLevel := -1
	var prevPrefix *big.Int
	for i := 0; i < n; i++ {
		if bitMSB(x, n, i) {
			continue
		}
		prefix := new(big.Int).Rsh(x, uint(n-i))
		blockIndex := new(big.Int).And(prefix, big.NewInt(epb-1)).Int64()

		var vals []valuetype.Value
		var localOffset int64
		if prevLevel == -1 {
			vals, err = ctx.EvaluateUntil(i, nil)
			localOffset = prefix.Int64()*epb + blockIndex
		} else {
			vals, err = ctx.EvaluateUntil(i, []*big.Int{prevPrefix})
			base := new(big.Int).Lsh(prevPrefix, uint(i-prevLevel))
			leafOffset := new(big.Int).Sub(prefix, base).Int64()
			localOffset = leafOffset*epb + blockIndex
		}
		if err != nil {
			return valuetype.Value{}, err
		}
		if localOffset < 0 || int(localOffset) >= len(vals) {
			return valuetype.Value{}, dpferr.Internal("dcf context evaluation produced an unexpected result count")
		}
		acc = valuetype.Add(c.params.ValueType, acc, vals[localOffset])

		prevLevel = i
		prevPrefix = prefix
	}
	return acc, nil
}

// bitMSB reads bit pos (0 = most significant) of x's top totalBits
// bits.
func bitMSB(x *big.Int, totalBits, pos int) bool {
	return x.Bit(totalBits-1-pos) == 1
}

// saveContextCutoff is the per-value-type threshold from §4.5: at or
// above this log_domain_size, creating one EvaluationContext per
// (key, point) pair and reusing it across hierarchy levels wins over
// re-deriving every level from the raw key. Tuple and IntModN value
// types have no empirically measured cutoff and always use a context.
func saveContextCutoff(vt valuetype.ValueType) int {
	switch vt.Kind {
	case valuetype.KindInteger, valuetype.KindXorWrapper:
		switch vt.Bitsize {
		case 8:
			return 50
		case 16:
			return 34
		case 32:
			return 28
		case 64:
			return 24
		case 128:
			return 22
		}
	}
	return -1
}
