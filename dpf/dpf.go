// Package dpf implements the incremental Distributed Point Function
// engine: key generation and evaluation over the GGM pseudorandom
// tree built from prg, typed via valuetype, with tree/hierarchy level
// bookkeeping delegated to internal/params.
//
// Grounded on the single-level construction in
// dpf/2018_boyle_optimization/optreedpf.go (Gen/Eval, the seed and
// control-bit correction-word algebra, value correction via group
// arithmetic), generalised to multiple hierarchy levels and to
// internal/params's tree-level contract: the correction-word array
// holds one entry per tree level except the deepest, whose seed needs
// no further correction since nothing expands past it (confirmed
// against original_source/dpf/internal/proto_validator.cc, which
// requires len(correction_words) == tree_levels-1 and treats the
// deepest level's value correction specially via
// last_level_value_correction).
package dpf

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog/log"

	"dpfgo/internal/dpferr"
	"dpfgo/internal/params"
	"dpfgo/osrng"
	"dpfgo/prg"
	"dpfgo/valuetype"
)

// DistributedPointFunction is created once from a validated parameter
// vector and is immutable and safe to share across goroutines
// thereafter: its PRGs and level maps never change after New.
type DistributedPointFunction struct {
	params    []params.Parameter
	levelMaps params.LevelMaps
}

// New creates a single-level (non-incremental) DPF over one
// (log_domain_size, value type) pair.
func New(logDomainSize int, valueType valuetype.ValueType) (*DistributedPointFunction, error) {
	return NewIncremental([]params.Parameter{{LogDomainSize: logDomainSize, ValueType: valueType}})
}

// NewIncremental creates an incremental DPF over an ordered vector of
// hierarchy levels.
func NewIncremental(ps []params.Parameter) (*DistributedPointFunction, error) {
	if err := params.Validate(ps); err != nil {
		return nil, err
	}
	lm := params.ComputeLevelMaps(ps)
	return &DistributedPointFunction{params: ps, levelMaps: lm}, nil
}

// Parameters returns the validated hierarchy-level vector this engine
// was constructed with.
func (d *DistributedPointFunction) Parameters() []params.Parameter { return d.params }

func (d *DistributedPointFunction) maxDomainBits() int {
	return d.params[len(d.params)-1].LogDomainSize
}

func (d *DistributedPointFunction) numTreeLevels() int { return d.levelMaps.NumTreeLevels }

// GenerateKeys is the non-incremental convenience form: a single
// hierarchy level, single beta.
func (d *DistributedPointFunction) GenerateKeys(alpha *big.Int, beta valuetype.Value) (*Key, *Key, error) {
	if len(d.params) != 1 {
		return nil, nil, dpferr.InvalidArgument("GenerateKeys requires a single-level DPF; use GenerateKeysIncremental")
	}
	return d.GenerateKeysIncremental(alpha, []valuetype.Value{beta})
}

// GenerateKeysIncremental implements §4.4's key-generation algorithm:
// it walks the GGM tree from the root to the deepest tree level,
// emitting one correction word per tree level except the last, and
// folding in a value correction at every tree level that hosts a
// hierarchy level's read-out.
func (d *DistributedPointFunction) GenerateKeysIncremental(alpha *big.Int, betas []valuetype.Value) (*Key, *Key, error) {
	if len(betas) != len(d.params) {
		return nil, nil, dpferr.InvalidArgumentf("expected %d beta values, got %d", len(d.params), len(betas))
	}
	maxDomainBits := d.maxDomainBits()
	if alpha.Sign() < 0 || alpha.BitLen() > maxDomainBits {
		return nil, nil, dpferr.InvalidArgumentf("alpha out of range for domain of %d bits", maxDomainBits)
	}
	for i, p := range d.params {
		if !betaFits(p.ValueType, betas[i]) {
			return nil, nil, dpferr.InvalidArgumentf("beta[%d] does not fit its hierarchy level's value type", i)
		}
	}

	seedBytes0, err := osrng.Seed128()
	if err != nil {
		return nil, nil, dpferr.Internalf("sampling initial seed: %v", err)
	}
	seedBytes1, err := osrng.Seed128()
	if err != nil {
		return nil, nil, dpferr.Internalf("sampling initial seed: %v", err)
	}
	var s0, s1 prg.Block
	copy(s0[:], seedBytes0)
	copy(s1[:], seedBytes1)
	initialSeed0, initialSeed1 := s0, s1
	bit0, bit1 := false, true

	// A hierarchy level mapped to tree level t reads out using the seed
	// state as it stands BEFORE the t-th expansion (the state reached
	// after t prior expansions). The deepest tree level, NumTreeLevels-1,
	// is reached after the loop below finishes and has no correction
	// word of its own; every other tree level's correction word carries
	// both its seed/control-bit correction and, if a hierarchy level
	// reads out there, that level's value correction computed from the
	// pre-expansion state.
	numTreeLevels := d.numTreeLevels()
	numTransitions := numTreeLevels - 1
	correctionWords := make([]CorrectionWord, 0, numTransitions)

	for t := 0; t < numTransitions; t++ {
		var pendingCorrection []valuetype.Value
		if h, ok := d.hierarchyLevelAtTreeLevel(t); ok {
			local := localPrefix(alpha, maxDomainBits, d.params[h].LogDomainSize)
			blockIndex := blockIndexOf(local, d.params[h].ValueType, d.params[h].LogDomainSize)
			corr, err := computeValueCorrection(s0, s1, blockIndex, d.params[h].ValueType, betas[h], bit1)
			if err != nil {
				return nil, nil, err
			}
			pendingCorrection = corr
		}

		b := bitAt(alpha, maxDomainBits, t)

		left0, leftBit0, right0, rightBit0, err := prg.ExpandOne(s0)
		if err != nil {
			return nil, nil, dpferr.Internalf("prg expansion: %v", err)
		}
		left1, leftBit1, right1, rightBit1, err := prg.ExpandOne(s1)
		if err != nil {
			return nil, nil, dpferr.Internalf("prg expansion: %v", err)
		}

		var keep0Seed, lose0Seed, keep1Seed, lose1Seed prg.Block
		var keepBit0, loseBit0, keepBit1, loseBit1 bool
		if !b {
			keep0Seed, keepBit0, lose0Seed, loseBit0 = left0, leftBit0, right0, rightBit0
			keep1Seed, keepBit1, lose1Seed, loseBit1 = left1, leftBit1, right1, rightBit1
		} else {
			keep0Seed, keepBit0, lose0Seed, loseBit0 = right0, rightBit0, left0, leftBit0
			keep1Seed, keepBit1, lose1Seed, loseBit1 = right1, rightBit1, left1, leftBit1
		}

		seedCW := prg.XOR(lose0Seed, lose1Seed)
		cwKeep := keepBit0 != keepBit1 != true // XOR chain: keep gets forced to differ
		cwLose := loseBit0 != loseBit1

		var cwLeft, cwRight bool
		if !b {
			cwLeft, cwRight = cwKeep, cwLose
		} else {
			cwLeft, cwRight = cwLose, cwKeep
		}

		if bit0 {
			keep0Seed = prg.XOR(keep0Seed, seedCW)
			keepBit0 = keepBit0 != pick(b, cwLeft, cwRight)
		}
		if bit1 {
			keep1Seed = prg.XOR(keep1Seed, seedCW)
			keepBit1 = keepBit1 != pick(b, cwLeft, cwRight)
		}

		s0, bit0 = keep0Seed, keepBit0
		s1, bit1 = keep1Seed, keepBit1

		correctionWords = append(correctionWords, CorrectionWord{
			Seed: seedCW, ControlLeft: cwLeft, ControlRight: cwRight, ValueCorrection: pendingCorrection,
		})
	}

	// s0/s1 now hold the state at the deepest tree level, NumTreeLevels-1.
	lastHierarchyLevel := len(d.params) - 1
	lastLocal := localPrefix(alpha, maxDomainBits, d.params[lastHierarchyLevel].LogDomainSize)
	lastBlockIndex := blockIndexOf(lastLocal, d.params[lastHierarchyLevel].ValueType, d.params[lastHierarchyLevel].LogDomainSize)
	lastCorrection, err := computeValueCorrection(s0, s1, lastBlockIndex, d.params[lastHierarchyLevel].ValueType, betas[lastHierarchyLevel], bit1)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().Int("tree_levels", numTreeLevels).Int("hierarchy_levels", len(d.params)).Msg("generated dpf key pair")

	key0 := &Key{Party: 0, Seed: initialSeed0, CorrectionWords: correctionWords, LastLevelValueCorrection: lastCorrection}
	key1 := &Key{Party: 1, Seed: initialSeed1, CorrectionWords: correctionWords, LastLevelValueCorrection: lastCorrection}
	return key0, key1, nil
}

// hierarchyLevelAtTreeLevel returns the hierarchy level (other than
// the last) whose value correction belongs at tree level l, if any.
func (d *DistributedPointFunction) hierarchyLevelAtTreeLevel(l int) (int, bool) {
	h := d.levelMaps.TreeToHierarchy[l]
	if h < 0 || h == len(d.params)-1 {
		return 0, false
	}
	return h, true
}

func pick(b bool, onFalse, onTrue bool) bool {
	if b {
		return onTrue
	}
	return onFalse
}

// localPrefix extracts alpha's top logDomainSize bits (out of its full
// maxDomainBits width) as a standalone value, i.e. the same prefix a
// caller querying that hierarchy level's own domain would pass to
// EvaluateAt. A hierarchy level's block index is only meaningful
// relative to this narrower value, not to alpha's absolute low bits.
func localPrefix(alpha *big.Int, maxDomainBits, logDomainSize int) *big.Int {
	if logDomainSize == maxDomainBits {
		return alpha
	}
	return new(big.Int).Rsh(alpha, uint(maxDomainBits-logDomainSize))
}

// alphaPath packs x's top totalBits bits into a bitset. bitAt builds a
// fresh one on every call, so a tree walk rebuilds it once per level.
func alphaPath(x *big.Int, totalBits int) *bitset.BitSet {
	path := bitset.New(uint(totalBits))
	for i := 0; i < totalBits; i++ {
		if x.Bit(i) == 1 {
			path.Set(uint(i))
		}
	}
	return path
}

// bitAt returns the bit of x at position (totalBits-1-level), i.e.
// level 0 is the most significant of the top totalBits bits of x.
func bitAt(x *big.Int, totalBits, level int) bool {
	pos := totalBits - 1 - level
	if pos < 0 {
		return false
	}
	return alphaPath(x, totalBits).Test(uint(pos))
}

// blockIndexOf returns the low bits of x that select an element
// within the packed block at the tree leaf x's prefix maps to.
func blockIndexOf(x *big.Int, vt valuetype.ValueType, logDomainSize int) int {
	elementsPerBlock := vt.ElementsPerBlock()
	if elementsPerBlock <= 1 {
		return 0
	}
	mask := big.NewInt(int64(elementsPerBlock - 1))
	idx := new(big.Int).And(x, mask)
	return int(idx.Int64())
}

// betaFits reports whether v is a well-formed element of the group vt
// describes: present, non-negative, and within vt's bit-size or
// modulus, per §4.4's "element too large for its bit-size" failure.
func betaFits(vt valuetype.ValueType, v valuetype.Value) bool {
	switch vt.Kind {
	case valuetype.KindTuple:
		if len(v.Tuple) != len(vt.Elements) {
			return false
		}
		for i, e := range vt.Elements {
			if !betaFits(e, v.Tuple[i]) {
				return false
			}
		}
		return true
	case valuetype.KindIntModN:
		return v.Int != nil && v.Int.Sign() >= 0 && v.Int.Cmp(vt.Modulus) < 0
	default:
		if v.Int == nil || v.Int.Sign() < 0 {
			return false
		}
		bound := new(big.Int).Lsh(big.NewInt(1), uint(vt.Bitsize))
		return v.Int.Cmp(bound) < 0
	}
}
