package fssgates_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dpfgo/fssgates"
)

func TestMultipleIntervalContainment(t *testing.T) {
	logGroupSize := 6
	n := new(big.Int).Lsh(big.NewInt(1), uint(logGroupSize))

	params := fssgates.MicParameters{
		LogGroupSize: logGroupSize,
		Intervals: []fssgates.Interval{
			{Lower: big.NewInt(5), Upper: big.NewInt(10)},
			{Lower: big.NewInt(40), Upper: big.NewInt(45)},
		},
	}
	gate, err := fssgates.Create(params)
	require.NoError(t, err)

	rIn := big.NewInt(17)
	rOut := []*big.Int{big.NewInt(3), big.NewInt(9)}
	k0, k1, err := gate.Gen(rIn, rOut)
	require.NoError(t, err)

	for xReal := int64(0); xReal < int64(logGroupSize)*10; xReal++ {
		x := new(big.Int).Mod(big.NewInt(xReal), n)
		masked := new(big.Int).Mod(new(big.Int).Add(x, rIn), n)

		res0, err := gate.BatchEval([]*fssgates.MicKey{k0}, []*big.Int{masked})
		require.NoError(t, err)
		res1, err := gate.BatchEval([]*fssgates.MicKey{k1}, []*big.Int{masked})
		require.NoError(t, err)
		require.Len(t, res0, 2)
		require.Len(t, res1, 2)

		for j, iv := range params.Intervals {
			sum := new(big.Int).Mod(new(big.Int).Add(res0[j], res1[j]), n)
			inInterval := x.Cmp(iv.Lower) >= 0 && x.Cmp(iv.Upper) <= 0
			want := new(big.Int).Set(rOut[j])
			if inInterval {
				want.Add(want, big.NewInt(1))
			}
			want.Mod(want, n)
			assert.Equal(t, want.String(), sum.String(), "x=%d interval=%d", xReal, j)
		}
	}
}

func TestCreateRejectsEmptyInterval(t *testing.T) {
	_, err := fssgates.Create(fssgates.MicParameters{
		LogGroupSize: 8,
		Intervals:    []fssgates.Interval{{Lower: nil, Upper: big.NewInt(1)}},
	})
	require.Error(t, err)
}

func TestCreateRejectsInvertedBounds(t *testing.T) {
	_, err := fssgates.Create(fssgates.MicParameters{
		LogGroupSize: 8,
		Intervals:    []fssgates.Interval{{Lower: big.NewInt(10), Upper: big.NewInt(1)}},
	})
	require.Error(t, err)
}

func TestCreateRejectsLogGroupSizeOutOfRange(t *testing.T) {
	_, err := fssgates.Create(fssgates.MicParameters{LogGroupSize: 128})
	require.Error(t, err)

	_, err = fssgates.Create(fssgates.MicParameters{LogGroupSize: -1})
	require.Error(t, err)
}

func TestGenRejectsMaskCountMismatch(t *testing.T) {
	gate, err := fssgates.Create(fssgates.MicParameters{
		LogGroupSize: 8,
		Intervals:    []fssgates.Interval{{Lower: big.NewInt(1), Upper: big.NewInt(2)}},
	})
	require.NoError(t, err)

	_, _, err = gate.Gen(big.NewInt(0), nil)
	require.Error(t, err)
}

func TestBatchEvalRejectsLengthMismatch(t *testing.T) {
	gate, err := fssgates.Create(fssgates.MicParameters{
		LogGroupSize: 8,
		Intervals:    []fssgates.Interval{{Lower: big.NewInt(1), Upper: big.NewInt(2)}},
	})
	require.NoError(t, err)
	k0, _, err := gate.Gen(big.NewInt(0), []*big.Int{big.NewInt(0)})
	require.NoError(t, err)

	_, err = gate.BatchEval([]*fssgates.MicKey{k0, k0}, []*big.Int{big.NewInt(0)})
	require.Error(t, err)
}
