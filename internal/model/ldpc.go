package model

import (
	"math"
	"time"
)

// CodeParameters configures the LDPC code family in use (spec.md §3).
type CodeParameters struct {
	CodeRate          float64 // in (0, 1)
	BlockLength       int     // > 0
	MaxIterations     int     // > 0
	SyndromeThreshold int     // > 0
}

// Validate checks CodeParameters' invariants.
func (p CodeParameters) Validate() error {
	if p.CodeRate <= 0 || p.CodeRate >= 1 {
		return ErrInvalidInput
	}
	if p.BlockLength <= 0 {
		return ErrInvalidInput
	}
	if p.MaxIterations <= 0 {
		return ErrInvalidInput
	}
	if p.SyndromeThreshold <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// InfoBits returns k = floor(BlockLength * CodeRate), the number of
// information (message) bits per block.
func (p CodeParameters) InfoBits() int {
	return int(float64(p.BlockLength) * p.CodeRate)
}

// ParityBits returns m = n - k, the number of parity-check bits per block.
func (p CodeParameters) ParityBits() int {
	return p.BlockLength - p.InfoBits()
}

// EncodedBlockMeta describes one encode() call's output (spec.md §3).
type EncodedBlockMeta struct {
	OriginalBitLength int
	EncodedBitLength  int
	CodeRate          float64
	BlockLength       int
	PaddingBits       int
	EncodingLatency   time.Duration
	ActiveMode        ErrorCorrectionMode
	Digest            [32]byte
	HasDigest         bool
}

// DecodingResult is the outcome of decode() (spec.md §3).
type DecodingResult struct {
	Success         bool
	CorrectedBits   []byte // one byte per bit, value 0 or 1
	IterationsUsed  int
	SyndromeNorm    float64
	ErrorPositions  []int
	DecodingTime    time.Duration
	BitErrorRate    float64
}

// ChannelCondition is a coarse BER classification (spec.md §3).
type ChannelCondition int

const (
	Excellent ChannelCondition = iota // < 1% BER
	Good                              // 1-5%
	Poor                              // 5-15%
	Severe                            // >= 15%
)

func (c ChannelCondition) String() string {
	switch c {
	case Excellent:
		return "EXCELLENT"
	case Good:
		return "GOOD"
	case Poor:
		return "POOR"
	case Severe:
		return "SEVERE"
	default:
		return "UNKNOWN"
	}
}

// ClassifyBER maps a bit error rate to a ChannelCondition using the fixed
// thresholds spec.md §3 defines.
func ClassifyBER(ber float64) ChannelCondition {
	switch {
	case ber < 0.01:
		return Excellent
	case ber < 0.05:
		return Good
	case ber < 0.15:
		return Poor
	default:
		return Severe
	}
}

// ErrorCorrectionMode selects the active code rate family (spec.md §3).
type ErrorCorrectionMode int

const (
	Fast             ErrorCorrectionMode = iota // rate 0.75
	Standard                                    // rate 0.5
	HighRedundancy                               // rate 0.33
	Adaptive
)

func (m ErrorCorrectionMode) String() string {
	switch m {
	case Fast:
		return "FAST"
	case Standard:
		return "STANDARD"
	case HighRedundancy:
		return "HIGH_REDUNDANCY"
	case Adaptive:
		return "ADAPTIVE"
	default:
		return "UNKNOWN"
	}
}

// CodeRateFor returns the nominal code rate for a non-adaptive mode.
func CodeRateFor(mode ErrorCorrectionMode) float64 {
	switch mode {
	case Fast:
		return 0.75
	case Standard:
		return 0.5
	case HighRedundancy:
		return 1.0 / 3.0
	default:
		return 0.5
	}
}

// ModeForCodeRate is CodeRateFor's inverse: given an effective code rate
// (as carried on CodeParameters), returns the non-adaptive mode whose
// nominal rate is closest to it. Used by the encoder to record the mode
// actually exercised in EncodedBlockMeta.ActiveMode (spec.md §4.4), since
// CodeParameters only carries the rate, not the mode that produced it.
func ModeForCodeRate(rate float64) ErrorCorrectionMode {
	best := Fast
	bestDelta := math.Abs(rate - CodeRateFor(Fast))
	for _, m := range []ErrorCorrectionMode{Standard, HighRedundancy} {
		if delta := math.Abs(rate - CodeRateFor(m)); delta < bestDelta {
			best = m
			bestDelta = delta
		}
	}
	return best
}

// ModeForCondition implements spec.md §4.6's monotone mode selection.
func ModeForCondition(c ChannelCondition) ErrorCorrectionMode {
	switch c {
	case Excellent:
		return Fast
	case Good:
		return Standard
	default: // Poor, Severe
		return HighRedundancy
	}
}
