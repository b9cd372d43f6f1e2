package chroma

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/common"
	"github.com/RyanBlaney/sonido-accompany/algorithms/spectral"
	"github.com/RyanBlaney/sonido-accompany/algorithms/windowing"
	"github.com/RyanBlaney/sonido-accompany/logging"
)

// Bins is the number of chroma bins (pitch classes C through B).
const Bins = 12

var (
	// ErrEmptySignal is returned when there is nothing to analyze.
	ErrEmptySignal = errors.New("chroma: empty signal")

	// ErrInvalidConfig is returned for CQT settings that cannot produce a kernel.
	ErrInvalidConfig = errors.New("chroma: invalid configuration")
)

// Labels returns the chroma bin labels
func Labels() []string {
	return []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
}

// CQTConfig holds the constant-Q analysis parameters.
type CQTConfig struct {
	HopLength     int     `yaml:"hop_length"`
	MinFreq       float64 `yaml:"min_freq"`        // lowest bin, C2 by default
	Octaves       int     `yaml:"octaves"`         // octaves covered above MinFreq
	BinsPerOctave int     `yaml:"bins_per_octave"` // 12 = semitone resolution
	TuningFreq    float64 `yaml:"tuning_freq"`     // A4 reference
	Sparsity      float64 `yaml:"sparsity"`        // kernel entries below this share of the peak are dropped
}

// DefaultCQTConfig returns the settings used for vocal analysis.
func DefaultCQTConfig() CQTConfig {
	return CQTConfig{
		HopLength:     512,
		MinFreq:       65.41, // C2
		Octaves:       6,
		BinsPerOctave: 12,
		TuningFreq:    440.0,
		Sparsity:      0.01,
	}
}

// Validate checks the configuration against a sample rate.
func (c CQTConfig) Validate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, sampleRate)
	}
	if c.HopLength <= 0 {
		return fmt.Errorf("%w: hop length must be positive, got %d", ErrInvalidConfig, c.HopLength)
	}
	if c.MinFreq <= 0 || c.Octaves <= 0 || c.BinsPerOctave <= 0 || c.TuningFreq <= 0 {
		return fmt.Errorf("%w: frequency range must be positive", ErrInvalidConfig)
	}
	maxFreq := c.MinFreq * c.tuningRatio() * math.Pow(2, float64(c.Octaves))
	if maxFreq >= float64(sampleRate)/2 {
		return fmt.Errorf("%w: top bin %.1f Hz is above Nyquist for %d Hz", ErrInvalidConfig, maxFreq, sampleRate)
	}
	return nil
}

func (c CQTConfig) tuningRatio() float64 {
	return c.TuningFreq / 440.0
}

// sparseKernel is the conjugated spectrum of one CQT filter, with near-zero
// entries removed.
type sparseKernel struct {
	index []int
	value []complex128
}

// ChromaCQT computes a chromagram from a constant-Q transform.
//
// Each CQT bin is a Hann-windowed complex exponential whose length shrinks as
// frequency rises (constant Q). The kernels are applied in the frequency
// domain against one FFT per hop, then folded across octaves into 12 pitch
// classes and max-normalized per frame so that values fall in [0, 1].
type ChromaCQT struct {
	sampleRate int
	config     CQTConfig
	fft        *spectral.FFT

	fftSize   int
	freqs     []float64
	chromaMap []int
	kernels   []sparseKernel
}

// NewChromaCQT builds the CQT kernels for the given sample rate.
func NewChromaCQT(sampleRate int, config CQTConfig) (*ChromaCQT, error) {
	if err := config.Validate(sampleRate); err != nil {
		return nil, err
	}
	cqt := &ChromaCQT{
		sampleRate: sampleRate,
		config:     config,
		fft:        spectral.NewFFT(),
	}
	cqt.computeKernels()
	return cqt, nil
}

// NewChromaCQTDefault creates a CQT chromagram with DefaultCQTConfig.
func NewChromaCQTDefault(sampleRate int) (*ChromaCQT, error) {
	return NewChromaCQT(sampleRate, DefaultCQTConfig())
}

func (cqt *ChromaCQT) qFactor() float64 {
	return 1.0 / (math.Pow(2, 1.0/float64(cqt.config.BinsPerOctave)) - 1)
}

func (cqt *ChromaCQT) kernelLength(freq float64) int {
	return int(math.Ceil(cqt.qFactor() * float64(cqt.sampleRate) / freq))
}

func (cqt *ChromaCQT) computeKernels() {
	totalBins := cqt.config.Octaves * cqt.config.BinsPerOctave
	fmin := cqt.config.MinFreq * cqt.config.tuningRatio()

	cqt.freqs = make([]float64, totalBins)
	cqt.chromaMap = make([]int, totalBins)
	for k := range totalBins {
		freq := fmin * math.Pow(2.0, float64(k)/float64(cqt.config.BinsPerOctave))
		cqt.freqs[k] = freq

		midi := 69.0 + 12.0*math.Log2(freq/cqt.config.TuningFreq)
		bin := int(math.Round(midi)) % Bins
		if bin < 0 {
			bin += Bins
		}
		cqt.chromaMap[k] = bin
	}

	// the lowest bin has the longest kernel
	cqt.fftSize = spectral.NextPowerOfTwo(cqt.kernelLength(cqt.freqs[0]))
	cqt.kernels = make([]sparseKernel, totalBins)

	for k, freq := range cqt.freqs {
		length := cqt.kernelLength(freq)
		window := windowing.NewHann(length, false)
		coeffs := window.Coefficients()
		norm := window.Sum()

		kernel := make([]complex128, cqt.fftSize)
		start := (cqt.fftSize - length) / 2
		for n := range length {
			phase := 2.0 * math.Pi * freq * float64(n-length/2) / float64(cqt.sampleRate)
			kernel[start+n] = complex(coeffs[n]/norm, 0) * cmplx.Exp(complex(0, phase))
		}

		spectrum := cqt.fft.ComputeComplex(kernel)

		peak := 0.0
		for _, v := range spectrum {
			peak = math.Max(peak, cmplx.Abs(v))
		}
		limit := peak * cqt.config.Sparsity

		var sk sparseKernel
		for j, v := range spectrum {
			if cmplx.Abs(v) > limit {
				sk.index = append(sk.index, j)
				sk.value = append(sk.value, cmplx.Conj(v)/complex(float64(cqt.fftSize), 0))
			}
		}
		cqt.kernels[k] = sk
	}
}

// Frames returns the number of frames Compute produces for n samples.
func (cqt *ChromaCQT) Frames(n int) int {
	return 1 + n/cqt.config.HopLength
}

// Compute returns a 12 x frames chromagram. Frame t is centered on sample
// t*HopLength; the signal is treated as zero outside its bounds.
func (cqt *ChromaCQT) Compute(signal []float64) (*mat.Dense, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	logger := logging.WithFields(logging.Fields{
		"component": "chroma_cqt",
		"function":  "Compute",
	})

	numFrames := cqt.Frames(len(signal))
	columns := make([][]float64, numFrames)

	jobs := make(chan int, numFrames)
	for t := range numFrames {
		jobs <- t
	}
	close(jobs)

	var wg sync.WaitGroup
	for range cqt.workerCount(numFrames) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frame := make([]float64, cqt.fftSize)
			for t := range jobs {
				columns[t] = cqt.computeFrame(signal, t, frame)
			}
		}()
	}
	wg.Wait()

	chromagram := mat.NewDense(Bins, numFrames, nil)
	for t, col := range columns {
		chromagram.SetCol(t, col)
	}

	logger.Debug("Chromagram computed", logging.Fields{
		"samples":  len(signal),
		"frames":   numFrames,
		"fft_size": cqt.fftSize,
		"cqt_bins": len(cqt.freqs),
	})

	return chromagram, nil
}

func (cqt *ChromaCQT) computeFrame(signal []float64, t int, frame []float64) []float64 {
	start := t*cqt.config.HopLength - cqt.fftSize/2
	for i := range frame {
		idx := start + i
		if idx >= 0 && idx < len(signal) {
			frame[i] = signal[idx]
		} else {
			frame[i] = 0
		}
	}

	spectrum := cqt.fft.Compute(frame)

	chromaFrame := make([]float64, Bins)
	for k, kernel := range cqt.kernels {
		var acc complex128
		for i, j := range kernel.index {
			acc += spectrum[j] * kernel.value[i]
		}
		chromaFrame[cqt.chromaMap[k]] += cmplx.Abs(acc)
	}

	common.MaxNormalize(chromaFrame, 1e-10)
	return chromaFrame
}

func (cqt *ChromaCQT) workerCount(numFrames int) int {
	return max(1, min(runtime.NumCPU(), numFrames))
}
