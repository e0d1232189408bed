package dpf

import (
	"math/big"

	"dpfgo/internal/dpferr"
	"dpfgo/prg"
	"dpfgo/valuetype"
)

// EvaluateAt implements §4.4's single-point evaluation: for each
// point, it walks the tree from the root to the target hierarchy
// level's tree level, applies the value correction, and unpacks the
// single requested element from its block.
func (d *DistributedPointFunction) EvaluateAt(key *Key, hierarchyLevel int, points []*big.Int) ([]valuetype.Value, error) {
	if hierarchyLevel < 0 || hierarchyLevel >= len(d.params) {
		return nil, dpferr.InvalidArgumentf("hierarchy level %d out of range", hierarchyLevel)
	}
	if err := d.validateKey(key); err != nil {
		return nil, err
	}

	targetTreeLevel := d.levelMaps.HierarchyToTree[hierarchyLevel]
	vt := d.params[hierarchyLevel].ValueType
	levelDomainBits := d.params[hierarchyLevel].LogDomainSize
	maxForLevel := new(big.Int).Lsh(big.NewInt(1), uint(levelDomainBits))

	out := make([]valuetype.Value, len(points))
	for i, x := range points {
		if x.Sign() < 0 || x.Cmp(maxForLevel) >= 0 {
			return nil, dpferr.InvalidArgumentf("point %s exceeds domain of hierarchy level %d", x, hierarchyLevel)
		}
		// x is a point in this hierarchy level's own domain, i.e. alpha's
		// top levelDomainBits bits: the tree path bits it yields for
		// t < targetTreeLevel coincide with the full-width walk's, since
		// targetTreeLevel never exceeds levelDomainBits.
		seed, bit, err := walkSinglePoint(key, key.CorrectionWords, levelDomainBits, targetTreeLevel, x)
		if err != nil {
			return nil, err
		}
		raw, err := prg.ValueBlock(seed)
		if err != nil {
			return nil, dpferr.Internalf("prg value expansion: %v", err)
		}
		elems := valuetype.UnpackBlock(vt, raw)
		correction := d.valueCorrectionFor(key, hierarchyLevel, targetTreeLevel)
		corrected := applyValueCorrection(vt, elems, correction, bit, key.Party)
		blockIndex := blockIndexOf(x, vt, d.params[hierarchyLevel].LogDomainSize)
		if blockIndex < 0 || blockIndex >= len(corrected) {
			return nil, dpferr.Internal("block index out of range during evaluation")
		}
		out[i] = corrected[blockIndex]
	}
	return out, nil
}

// BatchEvaluate evaluates independent (key, point) pairs at a common
// hierarchy level, returning results in input order.
func (d *DistributedPointFunction) BatchEvaluate(keys []*Key, hierarchyLevel int, points []*big.Int) ([]valuetype.Value, error) {
	if len(keys) != len(points) {
		return nil, dpferr.InvalidArgument("keys and points must have equal length")
	}
	out := make([]valuetype.Value, len(keys))
	for i := range keys {
		v, err := d.EvaluateAt(keys[i], hierarchyLevel, []*big.Int{points[i]})
		if err != nil {
			return nil, err
		}
		out[i] = v[0]
	}
	return out, nil
}

func (d *DistributedPointFunction) valueCorrectionFor(key *Key, hierarchyLevel, targetTreeLevel int) []valuetype.Value {
	if targetTreeLevel == d.numTreeLevels()-1 {
		return key.LastLevelValueCorrection
	}
	return key.CorrectionWords[targetTreeLevel].ValueCorrection
}

func (d *DistributedPointFunction) validateKey(key *Key) error {
	if key == nil {
		return dpferr.InvalidArgument("key must not be nil")
	}
	if len(key.CorrectionWords) != d.numTreeLevels()-1 {
		return dpferr.InvalidArgumentf("key has %d correction words, want %d", len(key.CorrectionWords), d.numTreeLevels()-1)
	}
	if len(key.LastLevelValueCorrection) == 0 {
		return dpferr.InvalidArgument("key is missing its last-level value correction")
	}
	for i := 0; i < len(d.params)-1; i++ {
		l := d.levelMaps.HierarchyToTree[i]
		if len(key.CorrectionWords[l].ValueCorrection) == 0 {
			return dpferr.InvalidArgumentf("key is missing a value correction for hierarchy level %d", i)
		}
	}
	return nil
}
