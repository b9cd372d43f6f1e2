package accompaniment

import (
	"fmt"

	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/storage"
)

// NewBundle captures a track and its beat for storage.
func NewBundle(track Track, beat *temporal.Beat) *storage.Bundle {
	return &storage.Bundle{
		Rhythm:     beat.Rhythm(),
		Tempo:      beat.Tempo(),
		Interval:   beat.Interval(),
		Samples:    track.Samples,
		Duration:   track.Duration,
		SampleRate: track.SampleRate,
	}
}

// VocalFromBundle rebuilds the beat and vocal stored in b. The beat interval
// is recomputed from the tempo; the stored value is informational.
func VocalFromBundle(b *storage.Bundle) (*Vocal, error) {
	beat, err := temporal.NewBeat(b.Rhythm, b.Tempo)
	if err != nil {
		return nil, err
	}
	if b.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: bundle sample rate %d", ErrInvalidInput, b.SampleRate)
	}
	track := Track{
		Samples:    b.Samples,
		SampleRate: b.SampleRate,
		Duration:   b.Duration,
	}
	return NewVocal(track, beat), nil
}
