// Package ldpccode builds the (G, H) matrix pair for a (rate, block
// length) code and caches it (component C4), per spec.md §4.3. It resolves
// the §9 open question on generator-matrix construction by deriving G from
// H via GF(2) Gaussian elimination (choice (b)), so H·Gᵀ = 0 holds for
// every generated code rather than only probabilistically.
package ldpccode

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/spacelinkd/corecomm/internal/matrix"
	"github.com/spacelinkd/corecomm/internal/model"
)

// ErrOutOfBudget is returned when the memory estimate for (rate, n)
// exceeds the configured limit, before any allocation happens.
var ErrOutOfBudget = model.ErrOutOfBudget

// Matrices is the (G, H) pair for one code, plus the parameters used to
// build it (spec.md §3 LdpcMatrices).
type Matrices struct {
	G, H        *matrix.Sparse
	K, N, M     int
	Params      model.CodeParameters
}

// MemoryEstimateBytes returns the 8*(n*k + n*m) byte estimate spec.md
// §4.3 specifies, computed before any allocation.
func MemoryEstimateBytes(n, k, m int) int64 {
	return 8 * (int64(n)*int64(k) + int64(n)*int64(m))
}

// rowWeight implements spec.md §4.3's max(3, floor(sqrt(n)/2)) rule.
func rowWeight(n int) int {
	w := int(math.Sqrt(float64(n)) / 2)
	if w < 3 {
		return 3
	}
	return w
}

// maxGenerationAttempts bounds the retries Generate makes to find an H
// whose last m columns form an invertible GF(2) submatrix (needed for the
// systematic G = [I_k | P] construction). Random sparse H is invertible in
// its last m columns with high probability for any reasonably sized block,
// so a handful of attempts suffices in practice.
const maxGenerationAttempts = 64

// Generate builds (G, H) for the given CodeParameters, subject to
// memoryLimitBytes (0 means unlimited). It never allocates the matrices
// before checking the memory estimate (spec.md §4.3's OutOfBudget rule).
func Generate(params model.CodeParameters, memoryLimitBytes int64, rng *rand.Rand) (*Matrices, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := params.BlockLength
	k := params.InfoBits()
	m := n - k
	if k <= 0 || m <= 0 {
		return nil, model.ErrInvalidInput
	}

	if memoryLimitBytes > 0 {
		if MemoryEstimateBytes(n, k, m) > memoryLimitBytes {
			return nil, fmt.Errorf("%w: estimated %d bytes exceeds limit %d", ErrOutOfBudget, MemoryEstimateBytes(n, k, m), memoryLimitBytes)
		}
	}

	weight := rowWeight(n)

	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		h := generateH(n, m, weight, rng)
		g, ok := deriveSystematicG(h, n, k, m)
		if !ok {
			continue
		}
		return &Matrices{G: g, H: h, K: k, N: n, M: m, Params: params}, nil
	}

	return nil, errors.New("ldpccode: could not find an invertible parity submatrix after repeated attempts")
}

// generateH samples m rows, each with `weight` distinct column indices
// drawn without replacement from [0, n), per spec.md §4.3.
func generateH(n, m, weight int, rng *rand.Rand) *matrix.Sparse {
	if weight > n {
		weight = n
	}
	rowSets := make([][]int, m)
	for i := 0; i < m; i++ {
		rowSets[i] = sampleWithoutReplacement(n, weight, rng)
	}
	return matrix.NewFromRowSets(m, n, rowSets)
}

func sampleWithoutReplacement(n, k int, rng *rand.Rand) []int {
	// Partial Fisher-Yates over an index pool; fine for the small row
	// weights (a few tens at most) this module ever samples.
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := append([]int(nil), pool[:k]...)
	return out
}

// deriveSystematicG computes G = [I_k | P] such that H*G^T = 0, by
// inverting H's last-m-columns submatrix H_B and setting
// P = (H_B^-1 * H_A)^T, where H_A is H's first k columns. Returns ok=false
// if H_B is singular, in which case Generate retries with a fresh H.
func deriveSystematicG(h *matrix.Sparse, n, k, m int) (*matrix.Sparse, bool) {
	dense := matrix.FromSparse(h)
	hA := dense.SubCols(0, k)
	hB := dense.SubCols(k, n)

	hBInv, ok := hB.Invert()
	if !ok {
		return nil, false
	}

	mMat := matrix.MatMul(hBInv, hA) // m x k
	p := mMat.Transpose()            // k x m

	rowSets := make([][]int, k)
	for j := 0; j < k; j++ {
		set := make([]int, 0, 1+p.RowWeight(j))
		set = append(set, j) // identity part
		for _, col := range p.Row(j) {
			set = append(set, k+col)
		}
		rowSets[j] = set
	}
	return matrix.NewFromRowSets(k, n, rowSets), true
}
