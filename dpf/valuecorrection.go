package dpf

import (
	"dpfgo/internal/dpferr"
	"dpfgo/prg"
	"dpfgo/valuetype"
)

// computeValueCorrection implements §4.4's value-correction step:
// given both parties' current seeds at a tree level, it derives the
// packed pseudorandom blocks a (party 0) and b (party 1), computes
// c = b - a element-wise, adds beta at blockIndex, and negates
// everything when invert is set. Both keys share the one correction
// this returns; key generation passes party 1's current control bit as
// invert, so the two parties' corrected outputs sum to beta at alpha
// and zero elsewhere.
//
// Grounded on optreedpf.go's genGroupCalc, generalised from a single
// field element to an arbitrary packed block of elements via
// valuetype.UnpackBlock/Sub/Add/Negate.
func computeValueCorrection(seedA, seedB prg.Block, blockIndex int, vt valuetype.ValueType, beta valuetype.Value, invert bool) ([]valuetype.Value, error) {
	rawA, err := prg.ValueBlock(seedA)
	if err != nil {
		return nil, dpferr.Internalf("prg value expansion: %v", err)
	}
	rawB, err := prg.ValueBlock(seedB)
	if err != nil {
		return nil, dpferr.Internalf("prg value expansion: %v", err)
	}

	a := valuetype.UnpackBlock(vt, rawA)
	b := valuetype.UnpackBlock(vt, rawB)
	if blockIndex < 0 || blockIndex >= len(a) {
		return nil, dpferr.Internal("value correction block index out of range")
	}

	c := make([]valuetype.Value, len(a))
	for i := range a {
		c[i] = valuetype.Sub(vt, b[i], a[i])
	}
	c[blockIndex] = valuetype.Add(vt, c[blockIndex], beta)

	if invert {
		for i := range c {
			c[i] = valuetype.Negate(vt, c[i])
		}
	}
	return c, nil
}

// applyValueCorrection folds a correction block into a copy of freshly
// expanded elements, leaving elems unchanged: added only when bit is
// set (the evaluating party's control bit at this tree level), negated
// for party 1.
func applyValueCorrection(vt valuetype.ValueType, elems []valuetype.Value, correction []valuetype.Value, bit bool, party uint8) []valuetype.Value {
	out := make([]valuetype.Value, len(elems))
	copy(out, elems)
	if bit {
		for i := range out {
			out[i] = valuetype.Add(vt, out[i], correction[i])
		}
	}
	if party == 1 {
		for i := range out {
			out[i] = valuetype.Negate(vt, out[i])
		}
	}
	return out
}
