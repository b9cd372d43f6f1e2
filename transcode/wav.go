package transcode

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-accompany/storage"
)

// DecodeWAV reads a WAV stream and returns its mono samples and sample rate.
// Multi-channel input is averaged down to mono.
func DecodeWAV(r io.Reader) ([]float64, int, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	defer s.Close()

	samples, err := Drain(s)
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	rescalePCM(samples, format.Precision)
	return samples, int(format.SampleRate), nil
}

// rescalePCM restores full scale for signed PCM. The wav decoder divides
// n-bit samples by 2^n-1 while the encoder multiplies by 2^(n-1)-1, which
// halves every amplitude.
func rescalePCM(samples []float64, precision int) {
	if precision < 2 {
		return
	}
	bits := float64(8 * precision)
	floats.Scale((math.Exp2(bits)-1)/(math.Exp2(bits-1)-1), samples)
	for i, v := range samples {
		samples[i] = max(-1, min(1, v))
	}
}

// EncodeWAV writes mono 16-bit PCM. Samples outside [-1, 1] are clipped by
// the encoder.
func EncodeWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("encode wav: invalid sample rate %d", sampleRate)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, NewSliceStreamer(samples), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// SampleLoader loads "<dir>/<name>.wav" files from a FileStore and resamples
// them to the requested rate.
type SampleLoader struct {
	files storage.FileStore
	dir   string
}

// NewSampleLoader creates a loader reading from dir inside files.
func NewSampleLoader(files storage.FileStore, dir string) *SampleLoader {
	return &SampleLoader{files: files, dir: dir}
}

// LoadSample returns the named sample as mono audio at sampleRate. A missing
// file yields an error wrapping fs.ErrNotExist.
func (l *SampleLoader) LoadSample(ctx context.Context, name string, sampleRate int) ([]float64, error) {
	p := path.Join(l.dir, name+".wav")
	r, err := l.files.Read(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load sample %s: %w", p, err)
	}
	defer r.Close()

	samples, rate, err := DecodeWAV(r)
	if err != nil {
		return nil, fmt.Errorf("load sample %s: %w", p, err)
	}
	return Resample(samples, rate, sampleRate)
}
