package temporal

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/RyanBlaney/sonido-accompany/algorithms/spectral"
)

var (
	// ErrInvalidParameter is the parent of every Beat construction error.
	ErrInvalidParameter = errors.New("temporal: invalid parameter")

	// ErrInvalidTempo is returned for a tempo that is not a positive finite number.
	ErrInvalidTempo = fmt.Errorf("%w: tempo must be positive", ErrInvalidParameter)

	// ErrInvalidRhythm is returned for a non-positive beats-per-measure value.
	ErrInvalidRhythm = fmt.Errorf("%w: rhythm must be positive", ErrInvalidParameter)
)

// Beat is the timing model of a performance: beats per measure and tempo.
//
// The beat interval is derived from the tempo once, in NewBeat, and never set
// on its own. A Beat is immutable and safe to share.
type Beat struct {
	rhythm   int     // time-signature numerator
	tempo    float64 // beats per minute
	interval float64 // seconds per beat
}

// NewBeat creates a Beat for the given beats-per-measure and tempo in BPM.
func NewBeat(rhythm int, tempo float64) (*Beat, error) {
	if rhythm <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRhythm, rhythm)
	}
	if tempo <= 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTempo, tempo)
	}
	return &Beat{
		rhythm:   rhythm,
		tempo:    tempo,
		interval: 60.0 / tempo,
	}, nil
}

// Rhythm returns the number of beats per measure.
func (b *Beat) Rhythm() int { return b.rhythm }

// Tempo returns the tempo in beats per minute.
func (b *Beat) Tempo() float64 { return b.tempo }

// Interval returns the number of seconds per beat (60 / tempo).
func (b *Beat) Interval() float64 { return b.interval }

// Fraction returns how many slices a beat is subdivided into.
//
// Only a rhythm of exactly 4 gets quarter subdivision; every other rhythm,
// including 3, 5 and 6, is split in two.
func (b *Beat) Fraction() int {
	if b.rhythm == 4 {
		return 4
	}
	return 2
}

// Step returns the spacing between consecutive timings.
func (b *Beat) Step(subdivided bool) float64 {
	if subdivided {
		return b.interval / float64(b.Fraction())
	}
	return b.interval
}

// Count returns how many timings fall strictly below duration.
func (b *Beat) Count(duration float64, subdivided bool) int {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	step := b.Step(subdivided)
	n := int(math.Ceil(duration / step))
	// the division rounds, so settle n against the offsets Timings yields
	for n > 0 && float64(n-1)*step >= duration {
		n--
	}
	for float64(n)*step < duration {
		n++
	}
	return n
}

// Timings yields the offsets 0, step, 2*step, ... that are below duration.
//
// Offsets are computed as i*step rather than by accumulation so that long
// recordings do not drift. The sequence can be ranged over any number of times.
func (b *Beat) Timings(duration float64, subdivided bool) iter.Seq[float64] {
	n := b.Count(duration, subdivided)
	step := b.Step(subdivided)
	return func(yield func(float64) bool) {
		for i := range n {
			if !yield(float64(i) * step) {
				return
			}
		}
	}
}

// Frames converts the timings for duration into STFT frame indices for the
// given hop length and sample rate.
func (b *Beat) Frames(duration float64, subdivided bool, hopLength, sampleRate int) []int {
	times := make([]float64, 0, b.Count(duration, subdivided))
	for t := range b.Timings(duration, subdivided) {
		times = append(times, t)
	}
	return spectral.TimeToFrames(times, hopLength, sampleRate)
}

// String implements fmt.Stringer.
func (b *Beat) String() string {
	return fmt.Sprintf("%d/%.2fbpm", b.rhythm, b.tempo)
}
