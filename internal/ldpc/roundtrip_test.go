package ldpc

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/model"
)

func testParams() model.CodeParameters {
	return model.CodeParameters{
		CodeRate:          0.5,
		BlockLength:       1024,
		MaxIterations:     50,
		SyndromeThreshold: 1,
	}
}

func bitsFromASCII(s string) []byte {
	bits := make([]byte, 0, len(s)*8)
	for _, c := range []byte(s) {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (c>>uint(i))&1)
		}
	}
	return bits
}

func newHarness(seed int64) (*Encoder, *Decoder) {
	fc := clock.NewFake(time.Unix(0, 0))
	cache := ldpccode.NewCache(fc, rand.New(rand.NewSource(seed)), 0)
	return NewEncoder(cache, fc), NewDecoder(cache, fc)
}

// TestRoundTrip_CleanChannel is spec.md §8 scenario 5.
func TestRoundTrip_CleanChannel(t *testing.T) {
	enc, dec := newHarness(1)
	bits := bitsFromASCII("HELLO WORLD")
	require.Len(t, bits, 88)

	params := testParams()
	codeword, meta, err := enc.Encode(params, bits, time.Second)
	require.NoError(t, err)

	result, err := dec.Decode(params, codeword, meta, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, bits, result.CorrectedBits)
}

// TestRoundTrip_5PercentBER is spec.md §8 scenario 6.
func TestRoundTrip_5PercentBER(t *testing.T) {
	enc, dec := newHarness(2)
	bits := bitsFromASCII("HELLO WORLD")
	params := testParams()

	codeword, meta, err := enc.Encode(params, bits, time.Second)
	require.NoError(t, err)

	corrupted := corruptBits(codeword, 0.05, rand.New(rand.NewSource(42)))

	result, err := dec.Decode(params, corrupted, meta, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, bits, result.CorrectedBits)
	assert.LessOrEqual(t, result.BitErrorRate, 0.06)
	assert.LessOrEqual(t, result.IterationsUsed, params.MaxIterations*((len(codeword)+params.BlockLength-1)/params.BlockLength))
}

// TestDecode_IterationsNeverExceedMax checks the invariant from spec.md §8
// on a heavily corrupted codeword. IterationsUsed sums over blocks, so the
// bound is MaxIterations per block (this input fits in a single block).
func TestDecode_IterationsNeverExceedMax(t *testing.T) {
	enc, dec := newHarness(3)
	bits := bitsFromASCII("the quick brown fox jumps over the lazy dog")
	params := testParams()

	codeword, meta, err := enc.Encode(params, bits, time.Second)
	require.NoError(t, err)

	corrupted := corruptBits(codeword, 0.2, rand.New(rand.NewSource(99)))
	result, err := dec.Decode(params, corrupted, meta, time.Second)
	require.NoError(t, err)

	numBlocks := (len(codeword) + params.BlockLength - 1) / params.BlockLength
	assert.LessOrEqual(t, result.IterationsUsed, params.MaxIterations*numBlocks)
}

// TestDecode_StochasticSuccessRate is the stochastic property from spec.md
// §8: at p <= 0.02 and block length >= 1024, success rate over 100 trials
// must be >= 0.95.
func TestDecode_StochasticSuccessRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stochastic trial in short mode")
	}
	params := model.CodeParameters{
		CodeRate:          0.5,
		BlockLength:       1024,
		MaxIterations:     50,
		SyndromeThreshold: 1,
	}
	bits := bitsFromASCII("a representative message payload of moderate length")

	successes := 0
	trials := 100
	for i := 0; i < trials; i++ {
		enc, dec := newHarness(int64(1000 + i))
		codeword, meta, err := enc.Encode(params, bits, time.Second)
		require.NoError(t, err)

		corrupted := corruptBits(codeword, 0.02, rand.New(rand.NewSource(int64(i))))
		result, err := dec.Decode(params, corrupted, meta, time.Second)
		require.NoError(t, err)
		if result.Success {
			successes++
		}
	}
	assert.GreaterOrEqual(t, float64(successes)/float64(trials), 0.95)
}

func TestEncode_RejectsNonBinaryInput(t *testing.T) {
	enc, _ := newHarness(4)
	_, _, err := enc.Encode(testParams(), []byte{0, 1, 2}, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestDecode_MalformedMetadataIsHardError(t *testing.T) {
	_, dec := newHarness(5)
	_, err := dec.Decode(testParams(), []byte{1, 0, 1, 0}, model.EncodedBlockMeta{}, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func corruptBits(bits []byte, rate float64, rng *rand.Rand) []byte {
	out := append([]byte(nil), bits...)
	for i := range out {
		if rng.Float64() < rate {
			out[i] ^= 1
		}
	}
	return out
}
