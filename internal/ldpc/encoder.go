// Package ldpc implements the block encoder and bit-flipping decoder
// (components C5, C6) on top of the cached matrices in internal/ldpccode.
// The algorithms follow spec.md §4.4-4.5, which in turn generalizes the
// encode/decode path of the teacher's original Python LDPCEncoder.
package ldpc

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/model"
)

// maxConsecutiveFailures is the encoder-local degraded-mode latch spec.md
// §4.4 specifies, independent of the scheduler's own degraded mode.
const maxConsecutiveFailures = 5

// Encoder turns bit-streams into LDPC codewords, block by block.
type Encoder struct {
	cache               *ldpccode.Cache
	clock               clock.Clock
	consecutiveFailures int
	degradedMode        bool
}

// NewEncoder returns an Encoder drawing matrices from cache.
func NewEncoder(cache *ldpccode.Cache, c clock.Clock) *Encoder {
	return &Encoder{cache: cache, clock: c}
}

// DegradedMode reports whether repeated encoding failures have latched the
// encoder into its degraded state (spec.md §4.4).
func (e *Encoder) DegradedMode() bool { return e.degradedMode }

// Encode validates, pads, and block-encodes bits per spec.md §4.4. It
// returns model.ErrTimeout if the whole operation exceeds timeout.
func (e *Encoder) Encode(params model.CodeParameters, bits []byte, timeout time.Duration) ([]byte, model.EncodedBlockMeta, error) {
	start := e.clock.Now()
	deadline := start.Add(timeout)

	for _, b := range bits {
		if b != 0 && b != 1 {
			return nil, model.EncodedBlockMeta{}, fmt.Errorf("%w: bits must be 0 or 1", model.ErrInvalidInput)
		}
	}

	mats, err := e.cache.Get(params)
	if err != nil {
		e.recordFailure()
		return nil, model.EncodedBlockMeta{}, err
	}
	k := mats.K

	padding := (k - (len(bits) % k)) % k
	padded := make([]byte, len(bits)+padding)
	copy(padded, bits)

	encoded := make([]byte, 0, (len(padded)/k)*mats.N)
	for i := 0; i < len(padded); i += k {
		if timeout > 0 && e.clock.Now().After(deadline) {
			e.recordFailure()
			return nil, model.EncodedBlockMeta{}, model.ErrTimeout
		}
		block := padded[i : i+k]
		codeword := mats.G.MulVecLeft(block)
		encoded = append(encoded, codeword...)
	}

	digest := sha256.Sum256(padded)
	meta := model.EncodedBlockMeta{
		OriginalBitLength: len(bits),
		EncodedBitLength:  len(encoded),
		CodeRate:          params.CodeRate,
		BlockLength:       params.BlockLength,
		PaddingBits:       padding,
		EncodingLatency:   e.clock.Now().Sub(start),
		ActiveMode:        model.ModeForCodeRate(params.CodeRate),
		Digest:            digest,
		HasDigest:         true,
	}

	e.consecutiveFailures = 0
	if e.degradedMode {
		e.degradedMode = false
	}

	return encoded, meta, nil
}

func (e *Encoder) recordFailure() {
	e.consecutiveFailures++
	if e.consecutiveFailures > maxConsecutiveFailures {
		e.degradedMode = true
	}
}
