package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSparse_MulVecRight(t *testing.T) {
	// H = [[1,1,0],[0,1,1]], v = [1,0,1] -> row0: 1^0=1, row1: 0^1=1
	h := NewFromRowSets(2, 3, [][]int{{0, 1}, {1, 2}})
	got := h.MulVecRight([]byte{1, 0, 1})
	assert.Equal(t, []byte{1, 1}, got)
}

func TestSparse_MulVecLeft(t *testing.T) {
	// G = [[1,0,1],[0,1,1]] (2x3), b = [1,1] -> row0 ^ row1 = [1,1,0]
	g := NewFromRowSets(2, 3, [][]int{{0, 2}, {1, 2}})
	got := g.MulVecLeft([]byte{1, 1})
	assert.Equal(t, []byte{1, 1, 0}, got)
}

func TestDense_RoundTripThroughSparse(t *testing.T) {
	rowSets := [][]int{{0, 2, 4}, {1, 3}, {}}
	s := NewFromRowSets(3, 5, rowSets)
	d := FromSparse(s)
	s2 := d.ToSparse()
	for i := 0; i < 3; i++ {
		assert.Equal(t, s.Row(i), s2.Row(i))
	}
}

func TestDense_XorRowInto(t *testing.T) {
	d := NewDense(2, 4)
	d.Set(0, 0, 1)
	d.Set(0, 2, 1)
	d.Set(1, 2, 1)
	d.Set(1, 3, 1)
	d.XorRowInto(0, 1)
	assert.Equal(t, []int{0, 3}, d.Row(0))
}

// TestSparse_MulVecRight_AgreesWithDense is a property test checking the
// sparse and dense multiply paths agree for random matrices and vectors —
// a consistency property underlying every H*r / b*G computation in the
// encoder and decoder.
func TestSparse_MulVecRight_AgreesWithDense(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.IntRange(1, 12).Draw(t, "rows")
		cols := rapid.IntRange(1, 12).Draw(t, "cols")

		rowSets := make([][]int, rows)
		for i := range rowSets {
			var set []int
			for j := 0; j < cols; j++ {
				if rapid.Bool().Draw(t, "bit") {
					set = append(set, j)
				}
			}
			rowSets[i] = set
		}
		s := NewFromRowSets(rows, cols, rowSets)
		d := FromSparse(s)

		v := make([]byte, cols)
		for j := range v {
			if rapid.Bool().Draw(t, "v") {
				v[j] = 1
			}
		}

		sparseResult := s.MulVecRight(v)
		for i := 0; i < rows; i++ {
			var acc byte
			for j := 0; j < cols; j++ {
				acc ^= d.Get(i, j) & v[j]
			}
			require.Equal(t, acc, sparseResult[i], "row %d mismatch", i)
		}
	})
}
