package tonal

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
	"github.com/RyanBlaney/sonido-accompany/logging"
)

var (
	// ErrInvalidInput is the parent of malformed-input errors.
	ErrInvalidInput = errors.New("tonal: invalid input")

	// ErrInvalidMatrix is returned for a harmonic matrix without 12 rows.
	ErrInvalidMatrix = fmt.Errorf("%w: harmonic matrix must have %d rows", ErrInvalidInput, chroma.Bins)

	// ErrPrecondition is the parent of call-order errors.
	ErrPrecondition = errors.New("tonal: precondition failed")

	// ErrNotFitted is returned when notes are extracted before a scale is fitted.
	ErrNotFitted = fmt.Errorf("%w: melody has no fitted scale", ErrPrecondition)
)

// FitParams holds the thresholds used to score a scale against a chromagram.
// A value above StrongThreshold adds StrongWeight; otherwise a value above
// WeakThreshold adds WeakWeight.
type FitParams struct {
	StrongThreshold float64 `yaml:"strong_threshold"`
	WeakThreshold   float64 `yaml:"weak_threshold"`
	StrongWeight    float64 `yaml:"strong_weight"`
	WeakWeight      float64 `yaml:"weak_weight"`
}

// DefaultFitParams returns the 0.90 / 0.80 thresholds with 1 / 0.5 weights.
func DefaultFitParams() FitParams {
	return FitParams{
		StrongThreshold: 0.90,
		WeakThreshold:   0.80,
		StrongWeight:    1.0,
		WeakWeight:      0.5,
	}
}

// ScaleScore pairs a scale with its fit score.
type ScaleScore struct {
	Scale Scale
	Score float64
}

// Melody holds the fitted scale and the note-per-step sequence extracted
// from a harmonic matrix.
type Melody struct {
	Scale     *Scale // nil until Fit succeeds
	Notations []int  // one pitch class per matrix column

	params FitParams
	scales []Scale
	scores []ScaleScore
}

// NewMelody creates a melody that fits against the 24 default scales.
func NewMelody() *Melody {
	return NewMelodyWithParams(DefaultFitParams(), DefaultScales())
}

// NewMelodyWithParams creates a melody with custom thresholds and candidate
// scales. Candidate order decides ties.
func NewMelodyWithParams(params FitParams, scales []Scale) *Melody {
	return &Melody{params: params, scales: scales}
}

// Root returns the tonic of the fitted scale.
func (m *Melody) Root() (int, bool) {
	if m.Scale == nil {
		return 0, false
	}
	return m.Scale.Root, true
}

// Scores returns every candidate's score from the last Fit, in candidate order.
func (m *Melody) Scores() []ScaleScore {
	return m.scores
}

func checkMatrix(harmonic mat.Matrix) (cols int, err error) {
	rows, cols := harmonic.Dims()
	if rows != chroma.Bins {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidMatrix, rows)
	}
	return cols, nil
}

// Score sums, over every scale note and every column, the weight of the
// threshold bucket the value falls in.
func Score(harmonic mat.Matrix, s Scale, p FitParams) float64 {
	_, cols := harmonic.Dims()
	score := 0.0
	for _, note := range s.Notes {
		for c := range cols {
			v := harmonic.At(note, c)
			if v > p.StrongThreshold {
				score += p.StrongWeight
			} else if v > p.WeakThreshold {
				score += p.WeakWeight
			}
		}
	}
	return score
}

// Fit scores every candidate scale and keeps the one with the strictly
// greatest score; on a tie the earlier candidate stays. If no candidate scores
// above zero the first candidate is chosen.
func (m *Melody) Fit(harmonic mat.Matrix) error {
	if _, err := checkMatrix(harmonic); err != nil {
		return err
	}
	if len(m.scales) == 0 {
		return fmt.Errorf("%w: no candidate scales", ErrInvalidInput)
	}

	scores := make([]ScaleScore, len(m.scales))
	best := 0
	for i, s := range m.scales {
		scores[i] = ScaleScore{Scale: s, Score: Score(harmonic, s, m.params)}
		if scores[i].Score > scores[best].Score {
			best = i
		}
	}

	winner := m.scales[best]
	m.Scale = &winner
	m.scores = scores

	logging.WithFields(logging.Fields{
		"component": "melody",
		"function":  "Fit",
	}).Debug("Scale fitted", logging.Fields{
		"scale": winner.Name(),
		"notes": winner.Notes,
		"score": scores[best].Score,
	})

	return nil
}

// SimpleTransform picks, for every column, the scale note with the largest
// value; the first note in ascending pitch-class order wins ties. Notations is
// rebuilt from scratch so its length always equals the column count.
func (m *Melody) SimpleTransform(harmonic mat.Matrix) error {
	if m.Scale == nil {
		return ErrNotFitted
	}
	cols, err := checkMatrix(harmonic)
	if err != nil {
		return err
	}

	notations := make([]int, 0, cols)
	for c := range cols {
		best := m.Scale.Notes[0]
		for _, note := range m.Scale.Notes[1:] {
			if harmonic.At(note, c) > harmonic.At(best, c) {
				best = note
			}
		}
		notations = append(notations, best)
	}
	m.Notations = notations
	return nil
}
