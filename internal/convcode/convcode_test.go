package convcode

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(8, 64).Draw(t, "n")
		bits := make([]int, n)
		for i := range bits {
			bits[i] = rapid.IntRange(0, 1).Draw(t, "bit")
		}
		coded := Encode(bits)
		require.Len(t, coded, n*3)

		decoded := Decode(coded, n)
		require.Equal(t, bits, decoded)
	})
}

func TestEncodeDeterministic(t *testing.T) {
	bits := []int{1, 0, 1, 1, 0, 0, 1, 0}
	a := Encode(bits)
	b := Encode(bits)
	require.Equal(t, a, b)
}
