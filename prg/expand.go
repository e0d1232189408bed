package prg

// ExpandOne runs PRGLeft and PRGRight on a single seed, producing the
// left and right child (seed, control bit) pairs. The low bit of each
// expanded block is reinterpreted as the child's control bit and
// cleared from the seed, per the GGM tree construction of §4.4.
func ExpandOne(seed Block) (leftSeed Block, leftBit bool, rightSeed Block, rightBit bool, err error) {
	leftOut := make([]Block, 1)
	rightOut := make([]Block, 1)
	in := []Block{seed}

	if err = prgLeft.Evaluate(in, leftOut); err != nil {
		return
	}
	if err = prgRight.Evaluate(in, rightOut); err != nil {
		return
	}

	leftSeed, leftBit = splitControlBit(leftOut[0])
	rightSeed, rightBit = splitControlBit(rightOut[0])
	return
}

// ExpandMany is the batched form of ExpandOne: given n seeds, it
// returns the n left children and n right children in the same order,
// amortising the AES batch across the whole frontier being expanded
// (used by EvaluateUntil's full-subtree expansion).
func ExpandMany(seeds []Block) (leftSeeds []Block, leftBits []bool, rightSeeds []Block, rightBits []bool, err error) {
	n := len(seeds)
	leftOut := make([]Block, n)
	rightOut := make([]Block, n)

	if err = prgLeft.Evaluate(seeds, leftOut); err != nil {
		return
	}
	if err = prgRight.Evaluate(seeds, rightOut); err != nil {
		return
	}

	leftSeeds = make([]Block, n)
	leftBits = make([]bool, n)
	rightSeeds = make([]Block, n)
	rightBits = make([]bool, n)
	for i := 0; i < n; i++ {
		leftSeeds[i], leftBits[i] = splitControlBit(leftOut[i])
		rightSeeds[i], rightBits[i] = splitControlBit(rightOut[i])
	}
	return
}

// ValueBlock maps a leaf seed to a pseudorandom output block via
// PRGValue, the final step before value correction is applied.
func ValueBlock(seed Block) (Block, error) {
	out := make([]Block, 1)
	if err := prgValue.Evaluate([]Block{seed}, out); err != nil {
		return Block{}, err
	}
	return out[0], nil
}

// ValueBlocks is the batched form of ValueBlock.
func ValueBlocks(seeds []Block) ([]Block, error) {
	out := make([]Block, len(seeds))
	if err := prgValue.Evaluate(seeds, out); err != nil {
		return nil, err
	}
	return out, nil
}

// splitControlBit reinterprets the low bit of b's last byte as the
// control bit and clears it from the returned seed.
func splitControlBit(b Block) (Block, bool) {
	bit := b[15]&1 != 0
	b[15] &^= 1
	return b, bit
}

// XOR returns a XOR b.
func XOR(a, b Block) Block {
	var out Block
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// XORInto XORs every block in bs with mask, in place.
func XORInto(bs []Block, mask Block) {
	for i := range bs {
		bs[i] = XOR(bs[i], mask)
	}
}
