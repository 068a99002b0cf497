package ldpc

import (
	"crypto/sha256"
	"fmt"
	"math"
	"time"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/model"
)

// Decoder recovers information bits from received (possibly corrupted)
// codewords via iterative bit-flipping (spec.md §4.5).
type Decoder struct {
	cache               *ldpccode.Cache
	clock               clock.Clock
	consecutiveFailures int
	degradedMode        bool
}

// NewDecoder returns a Decoder drawing matrices from cache.
func NewDecoder(cache *ldpccode.Cache, c clock.Clock) *Decoder {
	return &Decoder{cache: cache, clock: c}
}

// DegradedMode reports the decoder-local failure latch (independent of the
// encoder's and the scheduler's own degraded-mode flags).
func (d *Decoder) DegradedMode() bool { return d.degradedMode }

// Decode reverses Encode, per spec.md §4.5. A malformed meta (zero
// OriginalBitLength with non-empty received bits) is a hard error; any
// other failure to converge or verify is reported via a failed
// DecodingResult rather than an error, so callers can continue.
func (d *Decoder) Decode(params model.CodeParameters, received []byte, meta model.EncodedBlockMeta, timeout time.Duration) (model.DecodingResult, error) {
	start := d.clock.Now()
	deadline := start.Add(timeout)

	if meta.OriginalBitLength == 0 && len(received) > 0 {
		return model.DecodingResult{}, fmt.Errorf("%w: metadata missing original bit length", model.ErrInvalidInput)
	}

	mats, err := d.cache.Get(params)
	if err != nil {
		d.recordFailure()
		return model.DecodingResult{}, err
	}
	k, n := mats.K, mats.N

	var decodedBlocks [][]byte
	totalIterations := 0
	maxSyndromeNorm := 0.0
	var errorPositions []int
	allConverged := true

	for i := 0; i < len(received); i += n {
		if timeout > 0 && d.clock.Now().After(deadline) {
			d.recordFailure()
			return model.DecodingResult{
				Success:      false,
				DecodingTime: d.clock.Now().Sub(start),
				BitErrorRate: 1.0,
			}, nil
		}

		end := i + n
		var block []byte
		if end <= len(received) {
			block = append([]byte(nil), received[i:end]...)
		} else {
			block = make([]byte, n)
			copy(block, received[i:])
		}

		decodedBlock, iterations, syndromeNorm, blockErrors, converged := decodeBlock(block, mats.H, k, params)
		decodedBlocks = append(decodedBlocks, decodedBlock)
		totalIterations += iterations
		if syndromeNorm > maxSyndromeNorm {
			maxSyndromeNorm = syndromeNorm
		}
		if !converged {
			allConverged = false
		}
		for _, pos := range blockErrors {
			errorPositions = append(errorPositions, pos+i)
		}
	}

	decoded := make([]byte, 0, len(decodedBlocks)*k)
	for _, b := range decodedBlocks {
		decoded = append(decoded, b...)
	}

	padded := append([]byte(nil), decoded...)
	if meta.PaddingBits > 0 && meta.PaddingBits <= len(decoded) {
		decoded = decoded[:len(decoded)-meta.PaddingBits]
	}
	if meta.OriginalBitLength <= len(decoded) {
		decoded = decoded[:meta.OriginalBitLength]
	}

	success := allConverged
	if meta.HasDigest {
		success = success && (sha256.Sum256(padded) == meta.Digest)
	}

	ber := float64(len(errorPositions)) / math.Max(float64(len(received)), 1)

	result := model.DecodingResult{
		Success:        success,
		CorrectedBits:  decoded,
		IterationsUsed: totalIterations,
		SyndromeNorm:   maxSyndromeNorm,
		ErrorPositions: errorPositions,
		DecodingTime:   d.clock.Now().Sub(start),
		BitErrorRate:   ber,
	}

	if success {
		d.consecutiveFailures = 0
		d.degradedMode = false
	} else {
		d.recordFailure()
	}

	return result, nil
}

// decodeBlock runs the bit-flipping loop of spec.md §4.5 on one received
// block, returning (decoded info bits, iterations used, final syndrome
// norm, synthetic/real error positions, converged).
func decodeBlock(block []byte, h interface {
	Row(int) []int
	MulVecRight([]byte) []byte
}, k int, params model.CodeParameters) ([]byte, int, float64, []int, bool) {
	n := len(block)

	used := 0
	for iter := 1; iter <= params.MaxIterations; iter++ {
		used = iter
		syndrome := h.MulVecRight(block)
		norm := syndromeNorm(syndrome)
		if norm < float64(params.SyndromeThreshold) {
			return append([]byte(nil), block[:k]...), iter, norm, nil, true
		}

		votes := voteFlips(h, block, syndrome)
		threshold := meanPlusStdDev(votes)
		var flips []int
		for j, v := range votes {
			if float64(v) > threshold {
				flips = append(flips, j)
			}
		}
		if len(flips) == 0 {
			break
		}
		block = append([]byte(nil), block...)
		for _, j := range flips {
			block[j] ^= 1
		}
	}

	limit := 10
	if limit > n {
		limit = n
	}
	synthetic := make([]int, limit)
	for i := range synthetic {
		synthetic[i] = i
	}
	return append([]byte(nil), block[:k]...), used, math.Inf(1), synthetic, false
}

// voteFlips implements spec.md §4.5 step 2: for every parity row whose
// syndrome bit is 1, every column it touches gets one vote.
func voteFlips(h interface{ Row(int) []int }, block, syndrome []byte) []int {
	votes := make([]int, len(block))
	for i, s := range syndrome {
		if s == 0 {
			continue
		}
		for _, j := range h.Row(i) {
			votes[j]++
		}
	}
	return votes
}

func meanPlusStdDev(votes []int) float64 {
	if len(votes) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range votes {
		sum += float64(v)
	}
	mean := sum / float64(len(votes))

	variance := 0.0
	for _, v := range votes {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(votes))

	return mean + math.Sqrt(variance)
}

func syndromeNorm(syndrome []byte) float64 {
	var sum float64
	for _, s := range syndrome {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum)
}

func (d *Decoder) recordFailure() {
	d.consecutiveFailures++
	if d.consecutiveFailures > 3 {
		d.degradedMode = true
	}
}
