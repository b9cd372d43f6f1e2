package tonal_test

import (
	"errors"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
)

// harmonicMatrix builds a 12 x cols matrix where every listed pitch class has
// value v in every column and all others are zero.
func harmonicMatrix(cols int, v float64, pitches ...int) *mat.Dense {
	m := mat.NewDense(12, cols, nil)
	for _, p := range pitches {
		for c := range cols {
			m.Set(p, c, v)
		}
	}
	return m
}

func TestDefaultScales(t *testing.T) {
	scales := tonal.DefaultScales()
	if len(scales) != 24 {
		t.Fatalf("len = %d, want 24", len(scales))
	}

	if want := [7]int{0, 2, 4, 5, 7, 9, 11}; scales[0].Notes != want || scales[0].Mode != tonal.KeyModeMajor {
		t.Errorf("C major = %+v", scales[0])
	}
	if want := [7]int{0, 2, 3, 5, 7, 8, 10}; scales[12].Notes != want || scales[12].Mode != tonal.KeyModeMinor {
		t.Errorf("C minor = %+v", scales[12])
	}
	if want := [7]int{1, 3, 4, 6, 8, 9, 11}; scales[4].Notes != want {
		t.Errorf("E major = %v, want %v", scales[4].Notes, want)
	}
	for i, s := range scales {
		if s.Root != i%12 {
			t.Errorf("scale %d root = %d", i, s.Root)
		}
		if !slices.IsSorted(s.Notes[:]) {
			t.Errorf("scale %d notes unsorted: %v", i, s.Notes)
		}
	}
	if scales[21].Name() != "A minor" {
		t.Errorf("Name = %q", scales[21].Name())
	}
}

func TestNewScaleRejectsBadInput(t *testing.T) {
	if _, err := tonal.NewScale(12, tonal.KeyModeMajor, []int{2, 2, 1, 2, 2, 2}); !errors.Is(err, tonal.ErrInvalidInput) {
		t.Errorf("root 12 err = %v", err)
	}
	if _, err := tonal.NewScale(0, tonal.KeyModeMajor, []int{2, 2}); !errors.Is(err, tonal.ErrInvalidInput) {
		t.Errorf("short steps err = %v", err)
	}
}

func TestScoreThresholdsAreExclusive(t *testing.T) {
	m := mat.NewDense(12, 4, nil)
	m.SetRow(0, []float64{0.95, 0.85, 0.80, 0.90})
	cMajor := tonal.DefaultScales()[0]

	if got := tonal.Score(m, cMajor, tonal.DefaultFitParams()); got != 2.0 {
		t.Fatalf("Score = %v, want 2.0 (1 + 0.5 + 0 + 0.5)", got)
	}
}

func TestFitPicksMatchingScale(t *testing.T) {
	// E major members, strongly present
	m := harmonicMatrix(8, 0.95, 1, 3, 4, 6, 8, 9, 11)
	melody := tonal.NewMelody()
	if err := melody.Fit(m); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	root, ok := melody.Root()
	if !ok || root != 4 || melody.Scale.Mode != tonal.KeyModeMajor {
		t.Fatalf("fitted %s, want E major", melody.Scale.Name())
	}
	if len(melody.Scores()) != 24 {
		t.Fatalf("Scores len = %d", len(melody.Scores()))
	}
}

func TestFitTieKeepsEarliestCandidate(t *testing.T) {
	// A natural minor has the same pitch classes as C major; C major comes first.
	m := harmonicMatrix(4, 0.99, 9, 11, 0, 2, 4, 5, 7)
	melody := tonal.NewMelody()
	if err := melody.Fit(m); err != nil {
		t.Fatal(err)
	}
	if melody.Scale.Root != 0 || melody.Scale.Mode != tonal.KeyModeMajor {
		t.Fatalf("fitted %s, want C major", melody.Scale.Name())
	}

	// Only C# is present; C# major (mode 0, root 1) is the first candidate holding it.
	m = harmonicMatrix(3, 1.0, 1)
	melody = tonal.NewMelody()
	if err := melody.Fit(m); err != nil {
		t.Fatal(err)
	}
	if melody.Scale.Root != 1 || melody.Scale.Mode != tonal.KeyModeMajor {
		t.Fatalf("fitted %s, want C# major", melody.Scale.Name())
	}
}

func TestFitAllZeroChoosesFirst(t *testing.T) {
	melody := tonal.NewMelody()
	if err := melody.Fit(mat.NewDense(12, 2, nil)); err != nil {
		t.Fatal(err)
	}
	if melody.Scale.Name() != "C major" {
		t.Fatalf("fitted %s, want C major", melody.Scale.Name())
	}
}

func TestFitIsIdempotent(t *testing.T) {
	m := harmonicMatrix(5, 0.85, 2, 4, 6, 7, 9, 11, 1)
	m.Set(7, 2, 0.97)

	melody := tonal.NewMelody()
	if err := melody.Fit(m); err != nil {
		t.Fatal(err)
	}
	first := *melody.Scale
	if err := melody.Fit(m); err != nil {
		t.Fatal(err)
	}
	if *melody.Scale != first {
		t.Fatalf("refit changed scale: %v -> %v", first, *melody.Scale)
	}
}

func TestFitRejectsWrongRowCount(t *testing.T) {
	melody := tonal.NewMelody()
	err := melody.Fit(mat.NewDense(11, 3, nil))
	if !errors.Is(err, tonal.ErrInvalidMatrix) || !errors.Is(err, tonal.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if melody.Scale != nil {
		t.Fatal("scale should stay unset after a failed fit")
	}
}

func TestSimpleTransform(t *testing.T) {
	m := mat.NewDense(12, 4, nil)
	// column 0: G strongest
	m.Set(7, 0, 0.9)
	m.Set(0, 0, 0.2)
	// column 1: C# is strongest overall but not in C major; D wins among members
	m.Set(1, 1, 1.0)
	m.Set(2, 1, 0.6)
	// column 2: tie between E and A, E comes first
	m.Set(4, 2, 0.7)
	m.Set(9, 2, 0.7)
	// column 3: silent, first member wins

	melody := tonal.NewMelody()
	c := tonal.DefaultScales()[0]
	melody.Scale = &c

	if err := melody.SimpleTransform(m); err != nil {
		t.Fatalf("SimpleTransform: %v", err)
	}
	want := []int{7, 2, 4, 0}
	if !slices.Equal(melody.Notations, want) {
		t.Fatalf("Notations = %v, want %v", melody.Notations, want)
	}

	// rerunning does not append a second copy
	if err := melody.SimpleTransform(m); err != nil {
		t.Fatal(err)
	}
	if len(melody.Notations) != 4 {
		t.Fatalf("len = %d after rerun", len(melody.Notations))
	}
}

func TestSimpleTransformLengthMatchesColumns(t *testing.T) {
	for _, cols := range []int{1, 7, 64} {
		m := harmonicMatrix(cols, 0.5, 0, 4, 7)
		melody := tonal.NewMelody()
		if err := melody.Fit(m); err != nil {
			t.Fatal(err)
		}
		if err := melody.SimpleTransform(m); err != nil {
			t.Fatal(err)
		}
		if len(melody.Notations) != cols {
			t.Errorf("cols %d: len = %d", cols, len(melody.Notations))
		}
		for _, n := range melody.Notations {
			if !melody.Scale.Contains(n) {
				t.Errorf("notation %d outside %s", n, melody.Scale.Name())
			}
		}
	}
}

func TestSimpleTransformBeforeFit(t *testing.T) {
	err := tonal.NewMelody().SimpleTransform(mat.NewDense(12, 2, nil))
	if !errors.Is(err, tonal.ErrNotFitted) || !errors.Is(err, tonal.ErrPrecondition) {
		t.Fatalf("err = %v", err)
	}
}
