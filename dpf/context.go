package dpf

import (
	"math/big"

	"golang.org/x/exp/slices"

	"dpfgo/internal/dpferr"
	"dpfgo/prg"
	"dpfgo/valuetype"
)

// frontierNode is one node of the GGM tree's current expansion
// frontier: a seed/control-bit pair at some tree level.
type frontierNode struct {
	seed prg.Block
	bit  bool
}

// partialEval is what EvaluationContext caches across EvaluateUntil
// calls: the seed/control-bit pair at the tree level of the last call,
// keyed by the tree-index prefix it was reached through.
//
// Simplification versus the fully tree-index-deduplicating design
// sketched in §4.4 step 2-3: this implementation keys partial
// evaluations directly by tree-index value (not by a raw domain
// prefix that might still carry low block-index bits), and expands
// one prefix at a time rather than batching the PRG calls for shared
// ancestors. Observable behaviour (ordering, failure on an unknown
// prefix, context-continuation results) is unaffected; only the
// internal amortisation described as a performance optimisation is
// simplified.
type partialEval struct {
	seed prg.Block
	bit  bool
}

// EvaluationContext is mutable, single-writer scratch for a sequence
// of EvaluateUntil calls against one key.
type EvaluationContext struct {
	dpf                     *DistributedPointFunction
	key                     *Key
	previousHierarchyLevel  int
	partialEvaluationsLevel int
	partialEvaluations      map[string]partialEval
}

// CreateEvaluationContext validates key against this engine's
// parameters and returns a fresh context with previousHierarchyLevel
// at -1 (nothing evaluated yet).
func (d *DistributedPointFunction) CreateEvaluationContext(key *Key) (*EvaluationContext, error) {
	if err := d.validateKey(key); err != nil {
		return nil, err
	}
	return &EvaluationContext{dpf: d, key: key, previousHierarchyLevel: -1}, nil
}

// PreviousHierarchyLevel reports the last hierarchy level this context
// was evaluated at, or -1 if it has not been evaluated yet.
func (ctx *EvaluationContext) PreviousHierarchyLevel() int { return ctx.previousHierarchyLevel }

// EvaluateNext is a convenience that calls EvaluateUntil at
// ctx.previousHierarchyLevel+1.
func (ctx *EvaluationContext) EvaluateNext(prefixes []*big.Int) ([]valuetype.Value, error) {
	return ctx.EvaluateUntil(ctx.previousHierarchyLevel+1, prefixes)
}

// EvaluateUntil implements §4.4's incremental evaluation with context
// reuse. On the first call (previousHierarchyLevel == -1) prefixes
// must be empty and the whole of hierarchyLevel's domain is expanded
// from the root. On later calls, prefixes are tree-index values at
// the previous hierarchy level's tree level, each of which must be
// present in ctx.partialEvaluations (populated by the prior call).
func (ctx *EvaluationContext) EvaluateUntil(hierarchyLevel int, prefixes []*big.Int) ([]valuetype.Value, error) {
	d := ctx.dpf
	if hierarchyLevel < 0 || hierarchyLevel >= len(d.params) {
		return nil, dpferr.InvalidArgumentf("hierarchy level %d out of range", hierarchyLevel)
	}
	if ctx.previousHierarchyLevel >= len(d.params)-1 {
		return nil, dpferr.FailedPrecondition("context has already been evaluated at the final hierarchy level")
	}
	if hierarchyLevel <= ctx.previousHierarchyLevel {
		return nil, dpferr.InvalidArgumentf("hierarchy_level %d must exceed the context's previous level %d", hierarchyLevel, ctx.previousHierarchyLevel)
	}

	firstCall := ctx.previousHierarchyLevel == -1
	if firstCall != (len(prefixes) == 0) {
		return nil, dpferr.InvalidArgument("prefixes must be empty if and only if this is the first call on the context")
	}

	targetTreeLevel := d.levelMaps.HierarchyToTree[hierarchyLevel]
	vt := d.params[hierarchyLevel].ValueType
	isFinal := hierarchyLevel == len(d.params)-1

	var results []valuetype.Value
	newPartial := make(map[string]partialEval)

	appendLeafResults := func(treeIndex *big.Int, leaf frontierNode) error {
		raw, err := prg.ValueBlock(leaf.seed)
		if err != nil {
			return dpferr.Internalf("prg value expansion: %v", err)
		}
		elems := valuetype.UnpackBlock(vt, raw)
		correction := d.valueCorrectionFor(ctx.key, hierarchyLevel, targetTreeLevel)
		corrected := applyValueCorrection(vt, elems, correction, leaf.bit, ctx.key.Party)
		results = append(results, corrected...)
		if !isFinal {
			newPartial[treeIndex.String()] = partialEval{seed: leaf.seed, bit: leaf.bit}
		}
		return nil
	}

	if firstCall {
		frontier := []frontierNode{{seed: ctx.key.Seed, bit: ctx.key.Party == 1}}
		frontier, err := d.expandFrontierTo(ctx.key, 0, targetTreeLevel, frontier)
		if err != nil {
			return nil, err
		}
		for i, leaf := range frontier {
			if err := appendLeafResults(big.NewInt(int64(i)), leaf); err != nil {
				return nil, err
			}
		}
	} else {
		prevTreeLevel := d.levelMaps.HierarchyToTree[ctx.previousHierarchyLevel]
		delta := targetTreeLevel - prevTreeLevel

		ordered := append([]*big.Int(nil), prefixes...)
		slices.SortFunc(ordered, func(a, b *big.Int) bool { return a.Cmp(b) < 0 })
		ordered = slices.CompactFunc(ordered, func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

		expanded := make(map[string][]frontierNode, len(ordered))
		for _, p := range ordered {
			pe, ok := ctx.partialEvaluations[p.String()]
			if !ok {
				return nil, dpferr.InvalidArgumentf("prefix %s not present in partial evaluations from hierarchy level %d", p, ctx.previousHierarchyLevel)
			}
			frontier := []frontierNode{{seed: pe.seed, bit: pe.bit}}
			frontier, err := d.expandFrontierTo(ctx.key, prevTreeLevel, targetTreeLevel, frontier)
			if err != nil {
				return nil, err
			}
			expanded[p.String()] = frontier
		}

		// Results follow the caller's prefix order, one contiguous run of
		// leaves per input prefix.
		for _, p := range prefixes {
			base := new(big.Int).Lsh(p, uint(delta))
			for j, leaf := range expanded[p.String()] {
				treeIndex := new(big.Int).Add(base, big.NewInt(int64(j)))
				if err := appendLeafResults(treeIndex, leaf); err != nil {
					return nil, err
				}
			}
		}
	}

	ctx.previousHierarchyLevel = hierarchyLevel
	if !isFinal {
		ctx.partialEvaluations = newPartial
		ctx.partialEvaluationsLevel = targetTreeLevel
	} else {
		ctx.partialEvaluations = nil
	}
	return results, nil
}

// expandFrontierTo expands every node in frontier, currently at tree
// level startTreeLevel, to targetTreeLevel, doubling the frontier at
// every transition via the stored correction word for that transition.
func (d *DistributedPointFunction) expandFrontierTo(key *Key, startTreeLevel, targetTreeLevel int, frontier []frontierNode) ([]frontierNode, error) {
	for t := startTreeLevel; t < targetTreeLevel; t++ {
		seeds := make([]prg.Block, len(frontier))
		for i, n := range frontier {
			seeds[i] = n.seed
		}
		leftSeeds, leftBits, rightSeeds, rightBits, err := prg.ExpandMany(seeds)
		if err != nil {
			return nil, dpferr.Internalf("prg expansion: %v", err)
		}

		cw := key.CorrectionWords[t]
		next := make([]frontierNode, 0, len(frontier)*2)
		for i, n := range frontier {
			leftSeed, leftBit, rightSeed, rightBit := leftSeeds[i], leftBits[i], rightSeeds[i], rightBits[i]
			if n.bit {
				leftSeed = prg.XOR(leftSeed, cw.Seed)
				leftBit = leftBit != cw.ControlLeft
				rightSeed = prg.XOR(rightSeed, cw.Seed)
				rightBit = rightBit != cw.ControlRight
			}
			next = append(next, frontierNode{seed: leftSeed, bit: leftBit}, frontierNode{seed: rightSeed, bit: rightBit})
		}
		frontier = next
	}
	return frontier, nil
}
