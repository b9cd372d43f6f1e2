package accompaniment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/logging"
)

// Vocal is a recorded performance together with its declared timing.
type Vocal struct {
	Track
	Beat *temporal.Beat
}

// NewVocal pairs a track with its beat.
func NewVocal(track Track, beat *temporal.Beat) *Vocal {
	return &Vocal{Track: track, Beat: beat}
}

// Analyze computes the beat-synchronous harmonic matrix of the vocal: a CQT
// chromagram aggregated with the median over every subdivided beat. The
// result has 12 rows and one column per subdivided beat.
func (v *Vocal) Analyze(cfg chroma.CQTConfig) (*mat.Dense, error) {
	if len(v.Samples) == 0 {
		return nil, fmt.Errorf("%w: vocal track is empty", ErrInvalidInput)
	}
	if v.Beat == nil {
		return nil, fmt.Errorf("%w: vocal has no beat", ErrInvalidInput)
	}

	cqt, err := chroma.NewChromaCQT(v.SampleRate, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	chromagram, err := cqt.Compute(v.Samples)
	if err != nil {
		return nil, err
	}

	frames := v.Beat.Frames(v.Duration, true, cfg.HopLength, v.SampleRate)
	harmonic, err := chroma.Sync(chromagram, frames, chroma.Median)
	if err != nil {
		return nil, err
	}

	_, cols := harmonic.Dims()
	logging.Debug("Vocal analyzed", logging.Fields{
		"component": "vocal",
		"function":  "Analyze",
		"duration":  v.Duration,
		"beats":     len(frames),
		"columns":   cols,
	})
	return harmonic, nil
}
