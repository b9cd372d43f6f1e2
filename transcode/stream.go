package transcode

import (
	"fmt"

	"github.com/gopxl/beep"
)

// SliceStreamer plays a mono sample slice as a beep.Streamer, duplicating each
// sample onto both channels.
type SliceStreamer struct {
	samples []float64
	pos     int
}

// NewSliceStreamer wraps samples. The slice is read, never written.
func NewSliceStreamer(samples []float64) *SliceStreamer {
	return &SliceStreamer{samples: samples}
}

// Stream implements beep.Streamer.
func (s *SliceStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := min(len(buf), len(s.samples)-s.pos)
	for i := range n {
		v := s.samples[s.pos+i]
		buf[i] = [2]float64{v, v}
	}
	s.pos += n
	return n, true
}

// Err implements beep.Streamer.
func (s *SliceStreamer) Err() error { return nil }

// Len implements beep.StreamSeeker.
func (s *SliceStreamer) Len() int { return len(s.samples) }

// Position implements beep.StreamSeeker.
func (s *SliceStreamer) Position() int { return s.pos }

// Seek implements beep.StreamSeeker.
func (s *SliceStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}

// Drain reads s to the end and returns the channel average of every frame.
func Drain(s beep.Streamer) ([]float64, error) {
	var out []float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := range n {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

// ResampleQuality is the interpolation quality passed to beep.Resample.
const ResampleQuality = 4

// Resample converts mono samples between sample rates with beep's resampler.
// Equal rates return a copy.
func Resample(samples []float64, from, to int) ([]float64, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from, to)
	}
	if from == to || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}
	r := beep.Resample(ResampleQuality, beep.SampleRate(from), beep.SampleRate(to), NewSliceStreamer(samples))
	return Drain(r)
}
