// Package matrix implements the sparse binary matrix module (component
// C3): compressed sparse row (CSR) storage for GF(2) matrices, with the
// row-iteration and multiply primitives the LDPC code generator, encoder,
// and decoder build on. Every stored value is 0 or 1 and all arithmetic is
// modulo 2 (spec.md §3 LdpcMatrices, §9 "sparse matrix ops").
package matrix

import "math/bits"

// Sparse is a binary (GF(2)) matrix stored in compressed-sparse-row form:
// for row i, the set columns are RowStart[i]:RowStart[i+1] within ColIndex.
// All stored entries are implicitly 1; there is no separate value array.
type Sparse struct {
	Rows, Cols int
	RowStart   []int
	ColIndex   []int
}

// NewFromRowSets builds a Sparse matrix from cols and, for each row, the
// (not necessarily sorted) set of column indices that are 1.
func NewFromRowSets(rows, cols int, rowSets [][]int) *Sparse {
	m := &Sparse{Rows: rows, Cols: cols, RowStart: make([]int, rows+1)}
	total := 0
	for _, set := range rowSets {
		total += len(set)
	}
	m.ColIndex = make([]int, 0, total)
	for i, set := range rowSets {
		m.RowStart[i] = len(m.ColIndex)
		sorted := append([]int(nil), set...)
		insertionSortInts(sorted)
		m.ColIndex = append(m.ColIndex, sorted...)
	}
	m.RowStart[rows] = len(m.ColIndex)
	return m
}

// Row returns the sorted column indices with a 1 entry in row i.
func (m *Sparse) Row(i int) []int {
	return m.ColIndex[m.RowStart[i]:m.RowStart[i+1]]
}

// RowWeight returns the number of 1 entries in row i.
func (m *Sparse) RowWeight(i int) int {
	return m.RowStart[i+1] - m.RowStart[i]
}

// Get reports the bit at (i, j). It's O(row weight); only used by tests
// and small diagnostic paths, never the hot encode/decode loop.
func (m *Sparse) Get(i, j int) byte {
	for _, c := range m.Row(i) {
		if c == j {
			return 1
		}
		if c > j {
			break
		}
	}
	return 0
}

// MulVecRight computes M * v (mod 2), where v has length Cols and the
// result has length Rows. This is the syndrome computation H*r used by
// the decoder (spec.md §4.5).
func (m *Sparse) MulVecRight(v []byte) []byte {
	out := make([]byte, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var acc byte
		for _, c := range m.Row(i) {
			acc ^= v[c]
		}
		out[i] = acc
	}
	return out
}

// MulVecLeft computes v^T * M (mod 2), where v has length Rows and the
// result has length Cols. This is the encoding operation b*G used by the
// encoder (spec.md §4.4): for every set bit in v, XOR that row of M into
// the accumulator.
func (m *Sparse) MulVecLeft(v []byte) []byte {
	out := make([]byte, m.Cols)
	for i := 0; i < m.Rows; i++ {
		if v[i] == 0 {
			continue
		}
		for _, c := range m.Row(i) {
			out[c] ^= 1
		}
	}
	return out
}

// insertionSortInts sorts small slices without pulling in sort for a hot
// construction path; row weights here are always small (see §4.3).
func insertionSortInts(s []int) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// PopCount exposes math/bits.OnesCount64 for callers counting set bits in
// packed bit words (used by Dense.RowWeight).
func PopCount(x uint64) int {
	return bits.OnesCount64(x)
}
