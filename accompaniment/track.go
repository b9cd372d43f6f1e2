package accompaniment

import (
	"gonum.org/v1/gonum/floats"
)

// Track is a mono audio buffer with its sample rate.
type Track struct {
	Samples    []float64
	SampleRate int
	Duration   float64 // seconds
}

// NewTrack wraps samples and derives the duration from the sample count.
func NewTrack(samples []float64, sampleRate int) Track {
	t := Track{Samples: samples, SampleRate: sampleRate}
	if sampleRate > 0 {
		t.Duration = float64(len(samples)) / float64(sampleRate)
	}
	return t
}

// Len returns the number of samples.
func (t Track) Len() int { return len(t.Samples) }

// Assemble mixes other into t sample by sample and returns a new Track at
// t's sample rate. Neither input is modified.
func (t Track) Assemble(other Track) Track {
	return NewTrack(Assemble(t.Samples, other.Samples), t.SampleRate)
}

// Assemble returns the elementwise sum of a and b in a new buffer of
// max(len(a), len(b)) samples; the shorter input is zero-padded at the tail.
// The sum is neither normalized nor clipped.
func Assemble(a, b []float64) []float64 {
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	out := make([]float64, len(longer))
	copy(out, longer)
	floats.Add(out[:len(shorter)], shorter)
	return out
}
