package dpf

import (
	"math/big"

	"dpfgo/internal/dpferr"
	"dpfgo/prg"
)

// walkSinglePoint descends the GGM tree along the path a point's bits
// select, from the root to targetTreeLevel, applying targetTreeLevel
// stored correction words (transition t uses cws[t] and moves the
// state from tree level t to t+1). The returned (seed, bit) is the
// state AT targetTreeLevel, ready for PRGValue expansion and value
// correction.
func walkSinglePoint(key *Key, cws []CorrectionWord, maxDomainBits, targetTreeLevel int, x *big.Int) (prg.Block, bool, error) {
	seed := key.Seed
	bit := key.Party == 1

	for t := 0; t < targetTreeLevel; t++ {
		b := bitAt(x, maxDomainBits, t)

		left, leftBit, right, rightBit, err := prg.ExpandOne(seed)
		if err != nil {
			return seed, bit, dpferr.Internalf("prg expansion: %v", err)
		}

		cw := cws[t]
		var chosenSeed prg.Block
		var chosenBit, cwBit bool
		if b {
			chosenSeed, chosenBit, cwBit = right, rightBit, cw.ControlRight
		} else {
			chosenSeed, chosenBit, cwBit = left, leftBit, cw.ControlLeft
		}
		if bit {
			chosenSeed = prg.XOR(chosenSeed, cw.Seed)
			chosenBit = chosenBit != cwBit
		}
		seed, bit = chosenSeed, chosenBit
	}
	return seed, bit, nil
}
