// Package valuetype implements the ValueType registry (β's type
// system): unsigned integers up to 128 bits, fixed-size tuples,
// prime-modulus ring elements (IntModN), and XOR-wrapped integers.
// Every type exposes Add/Sub/Negate in its own group and a
// little-endian byte encoding used both for the wire format and for
// uniform sampling during key generation.
//
// Grounded on optreedpf.go's genGroupCalc/evalGroupCalc/convert (the
// value-correction shape: subtract, add beta, negate-if-invert over a
// field element) and original_source/dpf/int_mod_n.{h,cc} (IntModN's
// sampling-loop construction) and dpf/tuple.h (recursive per-element
// tuple arithmetic).
package valuetype

import (
	"math"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"dpfgo/internal/dpferr"
)

// Kind discriminates the variants of the ValueType sum type.
type Kind int

const (
	KindInteger Kind = iota
	KindTuple
	KindIntModN
	KindXorWrapper
)

// ValueType describes the shape of a single β component.
type ValueType struct {
	Kind Kind

	// Integer / XorWrapper: bitsize in {8,16,32,64,128}.
	Bitsize int

	// Tuple: recursive element types.
	Elements []ValueType

	// IntModN: Bitsize is the underlying integer bit width, Modulus the
	// prime modulus (must be at most 2^Bitsize).
	Modulus *big.Int
}

// Integer constructs an Integer{bitsize} value type.
func Integer(bitsize int) ValueType {
	return ValueType{Kind: KindInteger, Bitsize: bitsize}
}

// XorWrapper constructs an XOR-group integer value type.
func XorWrapper(bitsize int) ValueType {
	return ValueType{Kind: KindXorWrapper, Bitsize: bitsize}
}

// Tuple constructs a fixed tuple of the given element types.
func Tuple(elements ...ValueType) ValueType {
	return ValueType{Kind: KindTuple, Elements: elements}
}

// IntModN constructs a ring element modulo modulus, represented as an
// integer of the given base bitsize.
func IntModN(baseBitsize int, modulus *big.Int) ValueType {
	return ValueType{Kind: KindIntModN, Bitsize: baseBitsize, Modulus: modulus}
}

// Secp256k1Modulus returns the secp256k1 base field prime, a
// convenience constructor for the common "β is a group element of a
// well-known curve" case (mirrors OpTreeDPF.BetaMax / convert, which
// hide β's group inside the secp256k1 base field).
func Secp256k1Modulus() *big.Int {
	return new(big.Int).Set(ecc.SECP256K1.BaseField())
}

func isPowerOfTwoIntegerBitsize(b int) bool {
	switch b {
	case 8, 16, 32, 64, 128:
		return true
	default:
		return false
	}
}

// Valid reports whether t is well-formed: bitsizes are one of the
// supported powers of two (at most 128), tuple element bitsizes sum to
// at most 128, and an IntModN's modulus fits in its base bitsize.
func (t ValueType) Valid() bool {
	switch t.Kind {
	case KindInteger, KindXorWrapper:
		return isPowerOfTwoIntegerBitsize(t.Bitsize)
	case KindTuple:
		if len(t.Elements) == 0 {
			return false
		}
		total := 0
		for _, e := range t.Elements {
			if !e.Valid() {
				return false
			}
			total += e.TotalBitsize()
		}
		return total <= 128
	case KindIntModN:
		if !isPowerOfTwoIntegerBitsize(t.Bitsize) || t.Modulus == nil {
			return false
		}
		if t.Modulus.Sign() <= 0 {
			return false
		}
		maxForBase := new(big.Int).Lsh(big.NewInt(1), uint(t.Bitsize))
		return t.Modulus.Cmp(maxForBase) <= 0
	default:
		return false
	}
}

// TotalBitsize returns the combined bit-size of one element of type t.
func (t ValueType) TotalBitsize() int {
	switch t.Kind {
	case KindInteger, KindXorWrapper, KindIntModN:
		return t.Bitsize
	case KindTuple:
		total := 0
		for _, e := range t.Elements {
			total += e.TotalBitsize()
		}
		return total
	default:
		return 0
	}
}

// ElementsPerBlock returns floor(128 / TotalBitsize), the number of
// packed elements of this type that fit in one 128-bit Block. Types
// whose total bitsize does not evenly divide into a block still report
// the floor; the block's remaining bits are simply unused.
func (t ValueType) ElementsPerBlock() int {
	bits := t.TotalBitsize()
	if bits <= 0 || bits > 128 {
		return 1
	}
	n := 128 / bits
	if n < 1 {
		n = 1
	}
	return n
}

// Value is an element of the group described by a ValueType: an
// arbitrary-precision non-negative integer, or (for tuples) a slice of
// sub-values. It is the wire/arithmetic-neutral representation used by
// Add/Sub/Negate/ToBytes/FromBytes.
type Value struct {
	Int   *big.Int
	Tuple []Value
}

// Zero returns the additive identity for t.
func Zero(t ValueType) Value {
	if t.Kind == KindTuple {
		elems := make([]Value, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = Zero(e)
		}
		return Value{Tuple: elems}
	}
	return Value{Int: big.NewInt(0)}
}

// FromUint64 constructs an Integer/XorWrapper/IntModN Value from a
// uint64, reducing modulo the type's modulus or 2^bitsize as required.
func FromUint64(t ValueType, v uint64) Value {
	return normalize(t, new(big.Int).SetUint64(v))
}

// FromBigInt constructs a Value from an arbitrary-precision integer,
// reducing it into the group t describes.
func FromBigInt(t ValueType, v *big.Int) Value {
	return normalize(t, new(big.Int).Set(v))
}

func normalize(t ValueType, v *big.Int) Value {
	switch t.Kind {
	case KindInteger, KindXorWrapper:
		mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bitsize))
		return Value{Int: new(big.Int).Mod(v, mod)}
	case KindIntModN:
		return Value{Int: new(big.Int).Mod(v, t.Modulus)}
	default:
		return Value{Int: new(big.Int).Set(v)}
	}
}

// Add returns a+b in the group described by t.
func Add(t ValueType, a, b Value) Value {
	switch t.Kind {
	case KindTuple:
		out := make([]Value, len(t.Elements))
		for i, e := range t.Elements {
			out[i] = Add(e, a.Tuple[i], b.Tuple[i])
		}
		return Value{Tuple: out}
	case KindXorWrapper:
		return Value{Int: new(big.Int).Xor(a.Int, b.Int)}
	case KindIntModN:
		return Value{Int: modNAdd(t, a.Int, b.Int)}
	default: // Integer
		mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bitsize))
		sum := new(big.Int).Add(a.Int, b.Int)
		return Value{Int: sum.Mod(sum, mod)}
	}
}

// Sub returns a-b in the group described by t.
func Sub(t ValueType, a, b Value) Value {
	return Add(t, a, Negate(t, b))
}

// Negate returns -a in the group described by t.
func Negate(t ValueType, a Value) Value {
	switch t.Kind {
	case KindTuple:
		out := make([]Value, len(t.Elements))
		for i, e := range t.Elements {
			out[i] = Negate(e, a.Tuple[i])
		}
		return Value{Tuple: out}
	case KindXorWrapper:
		// XOR is its own inverse.
		return Value{Int: new(big.Int).Set(a.Int)}
	case KindIntModN:
		if a.Int.Sign() == 0 {
			return Value{Int: big.NewInt(0)}
		}
		return Value{Int: new(big.Int).Sub(t.Modulus, a.Int)}
	default: // Integer
		mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bitsize))
		neg := new(big.Int).Sub(mod, a.Int)
		return Value{Int: neg.Mod(neg, mod)}
	}
}

// modNAdd uses the fast secp256k1 ModNScalar path whenever the
// modulus matches the secp256k1 group order (the common case when β
// lives in a PCG-style elliptic-curve scalar field), falling back to
// generic big.Int modular addition otherwise.
func modNAdd(t ValueType, a, b *big.Int) *big.Int {
	if t.Modulus.Cmp(secp256k1.S256().N) == 0 {
		var as, bs secp256k1.ModNScalar
		as.SetByteSlice(leftPad(a.Bytes(), 32))
		bs.SetByteSlice(leftPad(b.Bytes(), 32))
		as.Add(&bs)
		out := as.Bytes()
		return new(big.Int).SetBytes(out[:])
	}
	sum := new(big.Int).Add(a, b)
	return sum.Mod(sum, t.Modulus)
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// ToBytes serializes v in little-endian order. Integer/XorWrapper/
// IntModN are encoded in ceil(bitsize/8) bytes; tuples are the
// concatenation of their elements' encodings, in element order.
func ToBytes(t ValueType, v Value) []byte {
	switch t.Kind {
	case KindTuple:
		var out []byte
		for i, e := range t.Elements {
			out = append(out, ToBytes(e, v.Tuple[i])...)
		}
		return out
	default:
		n := (t.Bitsize + 7) / 8
		b := v.Int.Bytes() // big-endian, shortest form
		out := make([]byte, n)
		// reverse into little-endian, left-aligned (least significant
		// byte of b at index 0 of out)
		for i := 0; i < len(b) && i < n; i++ {
			out[i] = b[len(b)-1-i]
		}
		return out
	}
}

// FromBytes is the inverse of ToBytes: it consumes exactly
// TotalBitsize/8 (rounded per-field) bytes from b's front and returns
// the decoded Value plus the number of bytes consumed.
func FromBytes(t ValueType, b []byte) (Value, int) {
	switch t.Kind {
	case KindTuple:
		out := make([]Value, len(t.Elements))
		off := 0
		for i, e := range t.Elements {
			v, n := FromBytes(e, b[off:])
			out[i] = v
			off += n
		}
		return Value{Tuple: out}, off
	default:
		n := (t.Bitsize + 7) / 8
		be := make([]byte, n)
		for i := 0; i < n; i++ {
			be[n-1-i] = b[i]
		}
		return normalize(t, new(big.Int).SetBytes(be)), n
	}
}

// PackBlock serializes an array of ElementsPerBlock(t) elements into a
// single 128-bit block, little-endian, low-index elements occupying
// the low bits.
func PackBlock(t ValueType, elems []Value) [16]byte {
	var block [16]byte
	stride := (t.TotalBitsize() + 7) / 8
	off := 0
	for _, e := range elems {
		b := ToBytes(t, e)
		copy(block[off:off+len(b)], b)
		off += stride
	}
	return block
}

// UnpackBlock is the inverse of PackBlock, decoding ElementsPerBlock(t)
// elements from a 128-bit block.
func UnpackBlock(t ValueType, block [16]byte) []Value {
	n := t.ElementsPerBlock()
	stride := (t.TotalBitsize() + 7) / 8
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		v, _ := FromBytes(t, block[i*stride:])
		out[i] = v
	}
	return out
}

// SecurityLevel returns the statistical security (in bits) achievable
// by SampleFromBytes when drawing numSamples independent elements
// uniformly from [0, modulus): sigma = 131 - log2(N) - log2(n) -
// log2(n+1).
func SecurityLevel(modulus *big.Int, numSamples int) float64 {
	logN := log2BigInt(modulus)
	n := float64(numSamples)
	return 131 - logN - log2f(n) - log2f(n+1)
}

// BytesRequired returns the minimum byte length SampleFromBytes needs
// to draw numSamples elements from [0, modulus) at securityParameter
// bits of statistical security, or an error if that security level is
// unachievable for any byte length.
func BytesRequired(baseBitsize int, modulus *big.Int, numSamples int, securityParameter float64) (int, error) {
	if numSamples <= 0 {
		return 0, dpferr.InvalidArgument("num_samples must be positive")
	}
	sigma := SecurityLevel(modulus, numSamples)
	if securityParameter > sigma {
		return 0, dpferr.InvalidArgument("requested security parameter exceeds achievable security for this modulus/sample count")
	}
	baseBytes := (baseBitsize + 7) / 8
	return 16 + baseBytes*(numSamples-1), nil
}

// SampleFromBytes draws numSamples independent elements uniformly in
// [0, modulus) from bytes, per §4.1: the first 16 bytes are
// interpreted little-endian as a 128-bit r; each sample is r mod N,
// after which r <- (r/N) << 8*baseBytes | next_chunk, consuming the
// next baseBytes bytes of the input each time.
func SampleFromBytes(baseBitsize int, modulus *big.Int, bytes []byte, numSamples int, securityParameter float64) ([]*big.Int, error) {
	need, err := BytesRequired(baseBitsize, modulus, numSamples, securityParameter)
	if err != nil {
		return nil, err
	}
	if len(bytes) < need {
		return nil, dpferr.InvalidArgument("insufficient bytes supplied for the requested security level")
	}

	baseBytes := (baseBitsize + 7) / 8
	r := new(big.Int).SetBytes(reverseBytes(bytes[:16]))

	out := make([]*big.Int, numSamples)
	off := 16
	for i := 0; i < numSamples; i++ {
		out[i] = new(big.Int).Mod(r, modulus)
		if i < numSamples-1 {
			div := new(big.Int).Div(r, modulus)
			div.Lsh(div, uint(8*baseBytes))
			chunk := new(big.Int).SetBytes(reverseBytes(bytes[off : off+baseBytes]))
			r = new(big.Int).Or(div, chunk)
			off += baseBytes
		}
	}
	return out, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func log2f(x float64) float64 {
	return math.Log2(x)
}

func log2BigInt(v *big.Int) float64 {
	return float64(v.BitLen()) - 1 + log2Mantissa(v)
}

// log2Mantissa refines the bit-length estimate with the fractional part
// of the logarithm, since BitLen alone only gives an integer bound.
func log2Mantissa(v *big.Int) float64 {
	bl := v.BitLen()
	if bl <= 64 {
		f := float64(v.Uint64())
		if f <= 0 {
			return 0
		}
		return math.Log2(f) - float64(bl-1)
	}
	top := new(big.Int).Rsh(v, uint(bl-64))
	f := float64(top.Uint64())
	return math.Log2(f) - 63
}
