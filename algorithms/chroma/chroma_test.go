package chroma_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
)

func sine(freq float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestCQTPureToneLandsOnPitchClass(t *testing.T) {
	const sr = 22050
	cqt, err := chroma.NewChromaCQTDefault(sr)
	if err != nil {
		t.Fatalf("NewChromaCQTDefault: %v", err)
	}

	tests := []struct {
		freq float64
		bin  int
	}{
		{440.0, 9},   // A4
		{261.63, 0},  // C4
		{392.0, 7},   // G4
		{329.63, 4},  // E4
	}
	for _, tt := range tests {
		signal := sine(tt.freq, sr, 1.0)
		m, err := cqt.Compute(signal)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		rows, cols := m.Dims()
		if rows != chroma.Bins || cols != cqt.Frames(len(signal)) {
			t.Fatalf("dims = %dx%d", rows, cols)
		}

		// middle frame, away from the zero-padded edges
		mid := cols / 2
		best := 0
		for r := range rows {
			if m.At(r, mid) > m.At(best, mid) {
				best = r
			}
		}
		if best != tt.bin {
			t.Errorf("%.2f Hz: dominant bin = %s, want %s", tt.freq, chroma.Labels()[best], chroma.Labels()[tt.bin])
		}
		if m.At(best, mid) != 1 {
			t.Errorf("%.2f Hz: frame not max-normalized, peak = %v", tt.freq, m.At(best, mid))
		}
	}
}

func TestCQTValuesInUnitRange(t *testing.T) {
	cqt, err := chroma.NewChromaCQTDefault(22050)
	if err != nil {
		t.Fatal(err)
	}
	signal := sine(523.25, 22050, 0.5)
	for i := range signal {
		signal[i] += 0.3 * math.Sin(2*math.Pi*659.25*float64(i)/22050)
	}
	m, err := cqt.Compute(signal)
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := m.Dims()
	for r := range rows {
		for c := range cols {
			if v := m.At(r, c); v < 0 || v > 1 {
				t.Fatalf("value (%d,%d) = %v out of [0,1]", r, c, v)
			}
		}
	}
}

func TestCQTErrors(t *testing.T) {
	cqt, err := chroma.NewChromaCQTDefault(22050)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cqt.Compute(nil); !errors.Is(err, chroma.ErrEmptySignal) {
		t.Errorf("empty signal err = %v", err)
	}

	cfg := chroma.DefaultCQTConfig()
	cfg.Octaves = 10
	if _, err := chroma.NewChromaCQT(22050, cfg); !errors.Is(err, chroma.ErrInvalidConfig) {
		t.Errorf("above-Nyquist config err = %v", err)
	}
	cfg = chroma.DefaultCQTConfig()
	cfg.HopLength = 0
	if _, err := chroma.NewChromaCQT(22050, cfg); !errors.Is(err, chroma.ErrInvalidConfig) {
		t.Errorf("zero hop err = %v", err)
	}
}

func TestBoundaries(t *testing.T) {
	got := chroma.Boundaries([]int{0, 3, 3, 7, 12, -1}, 10)
	want := []int{0, 3, 7, 10}
	if !slices.Equal(got, want) {
		t.Fatalf("Boundaries = %v, want %v", got, want)
	}
}

func TestSyncMedian(t *testing.T) {
	features := mat.NewDense(2, 6, []float64{
		1, 5, 3, 10, 20, 30,
		0, 0, 1, 4, 2, 8,
	})

	synced, err := chroma.Sync(features, []int{0, 3}, nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, cols := synced.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", rows, cols)
	}
	want := [][]float64{{3, 20}, {0, 4}}
	for r := range want {
		for c := range want[r] {
			if got := synced.At(r, c); got != want[r][c] {
				t.Errorf("(%d,%d) = %v, want %v", r, c, got, want[r][c])
			}
		}
	}
}

func TestSyncCustomAggregatorAndErrors(t *testing.T) {
	features := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	sum := func(v []float64) float64 {
		s := 0.0
		for _, x := range v {
			s += x
		}
		return s
	}
	synced, err := chroma.Sync(features, []int{2}, sum)
	if err != nil {
		t.Fatal(err)
	}
	if synced.At(0, 0) != 3 || synced.At(0, 1) != 7 {
		t.Fatalf("sums = %v", mat.Formatted(synced))
	}

	var empty mat.Dense
	if _, err := chroma.Sync(&empty, nil, nil); !errors.Is(err, chroma.ErrEmptyMatrix) {
		t.Fatalf("empty err = %v", err)
	}
}
