package tonal

import (
	"fmt"
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	switch m {
	case KeyModeMajor:
		return "major"
	case KeyModeMinor:
		return "minor"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ScaleSteps is the interval walk, in semitones, from the root to the
// remaining six degrees of a seven-note scale.
type ScaleSteps struct {
	Mode  KeyMode
	Steps []int
}

// DefaultScaleSteps are the two built-in templates in fitting order: major
// first, then natural minor.
var DefaultScaleSteps = []ScaleSteps{
	{Mode: KeyModeMajor, Steps: []int{2, 2, 1, 2, 2, 2}},
	{Mode: KeyModeMinor, Steps: []int{2, 1, 2, 2, 1, 2}},
}

// Scale is a seven-note pitch-class set built on a root.
type Scale struct {
	Root  int     // pitch class of the tonic, 0=C ... 11=B
	Mode  KeyMode // major or minor
	Notes [7]int  // member pitch classes in ascending order
}

// NewScale walks steps upward from root and reduces every degree mod 12.
func NewScale(root int, mode KeyMode, steps []int) (Scale, error) {
	if root < 0 || root >= chroma.Bins {
		return Scale{}, fmt.Errorf("%w: root %d", ErrInvalidInput, root)
	}
	if len(steps) != 6 {
		return Scale{}, fmt.Errorf("%w: need 6 steps, got %d", ErrInvalidInput, len(steps))
	}

	s := Scale{Root: root, Mode: mode}
	s.Notes[0] = root
	x := 0
	for i, step := range steps {
		x += step
		s.Notes[i+1] = (root + x) % chroma.Bins
	}
	slices.Sort(s.Notes[:])
	return s, nil
}

// Contains reports whether pitch class pc belongs to the scale.
func (s Scale) Contains(pc int) bool {
	return slices.Contains(s.Notes[:], pc)
}

// Name returns a human-readable name such as "A minor".
func (s Scale) Name() string {
	return fmt.Sprintf("%s %s", chroma.Labels()[s.Root], s.Mode)
}

// BuildScales returns one scale per (template, root) pair, ordered template
// by template and root 0 through 11 within each. This order is the fitting
// tie-break order.
func BuildScales(templates []ScaleSteps) ([]Scale, error) {
	scales := make([]Scale, 0, len(templates)*chroma.Bins)
	for _, tpl := range templates {
		for root := range chroma.Bins {
			s, err := NewScale(root, tpl.Mode, tpl.Steps)
			if err != nil {
				return nil, err
			}
			scales = append(scales, s)
		}
	}
	return scales, nil
}

var defaultScales = sync.OnceValue(func() []Scale {
	scales, err := BuildScales(DefaultScaleSteps)
	if err != nil {
		panic(err)
	}
	return scales
})

// DefaultScales returns the 24 major and minor scales. The slice is shared;
// callers must not modify it.
func DefaultScales() []Scale {
	return defaultScales()
}
