package accompaniment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
	"github.com/RyanBlaney/sonido-accompany/logging"
)

const (
	// DefaultSampleRate is the rate piano samples are loaded and rendered at.
	DefaultSampleRate = 44100

	// DefaultMeasures is the number of pattern repetitions rendered.
	DefaultMeasures = 6
)

// DefaultNoteNames names the sample file for each pitch class, C through B.
func DefaultNoteNames() []string {
	return []string{"C5", "C5s", "D5", "D5s", "E5", "F5", "F5s", "G5", "G5s", "A5", "A5s", "B5"}
}

// DefaultPattern is the beat count of each step in one measure.
func DefaultPattern() []int {
	return []int{4, 4, 1, 1, 2, 2, 2}
}

// Sounds holds one mono sample per pitch class.
type Sounds [12][]float64

// SoundLoader loads a named sample at a sample rate. A missing sample must be
// reported with an error wrapping fs.ErrNotExist.
type SoundLoader interface {
	LoadSample(ctx context.Context, name string, sampleRate int) ([]float64, error)
}

// LoadSounds loads the twelve pitch-class samples named by names, in order.
func LoadSounds(ctx context.Context, loader SoundLoader, names []string, sampleRate int) (*Sounds, error) {
	if len(names) != len(Sounds{}) {
		return nil, fmt.Errorf("%w: need %d note names, got %d", ErrInvalidInput, len(Sounds{}), len(names))
	}

	var sounds Sounds
	for pc, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := loader.LoadSample(ctx, name, sampleRate)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: sample %q: %w", ErrResourceNotFound, name, err)
		}
		if err != nil {
			return nil, fmt.Errorf("load sample %q: %w", name, err)
		}
		sounds[pc] = samples
	}
	return &sounds, nil
}

// OverrunPolicy decides what happens when the pattern needs a notation past
// the end of the melody.
type OverrunPolicy int

const (
	// OverrunError fails with ErrOutOfRange before anything is rendered.
	OverrunError OverrunPolicy = iota
	// OverrunClamp keeps playing the last notation.
	OverrunClamp
)

func (o OverrunPolicy) String() string {
	switch o {
	case OverrunError:
		return "error"
	case OverrunClamp:
		return "clamp"
	default:
		return fmt.Sprintf("OverrunPolicy(%d)", int(o))
	}
}

// ParseOverrunPolicy parses "error" or "clamp".
func ParseOverrunPolicy(s string) (OverrunPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "":
		return OverrunError, nil
	case "clamp":
		return OverrunClamp, nil
	}
	return 0, fmt.Errorf("%w: unknown overrun policy %q", ErrInvalidInput, s)
}

// SynthParams controls pattern synthesis.
type SynthParams struct {
	Pattern    []int // beats per step; the cursor advances by each value
	Measures   int   // pattern repetitions; 0 renders every complete measure the melody covers
	SampleRate int
	Overrun    OverrunPolicy
}

// DefaultSynthParams returns the default pattern, six measures at 44.1 kHz.
func DefaultSynthParams() SynthParams {
	return SynthParams{
		Pattern:    DefaultPattern(),
		Measures:   DefaultMeasures,
		SampleRate: DefaultSampleRate,
		Overrun:    OverrunError,
	}
}

// Validate checks the parameters.
func (p SynthParams) Validate() error {
	if len(p.Pattern) == 0 {
		return fmt.Errorf("%w: empty rhythm pattern", ErrInvalidInput)
	}
	for _, inc := range p.Pattern {
		if inc <= 0 {
			return fmt.Errorf("%w: rhythm pattern steps must be positive, got %v", ErrInvalidInput, p.Pattern)
		}
	}
	if p.Measures < 0 {
		return fmt.Errorf("%w: negative measure count %d", ErrInvalidInput, p.Measures)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidInput, p.SampleRate)
	}
	return nil
}

// MeasureLength returns how many notations one measure consumes.
func (p SynthParams) MeasureLength() int {
	n := 0
	for _, inc := range p.Pattern {
		n += inc
	}
	return n
}

// StepLength returns the number of samples a step of inc beats lasts.
func StepLength(beat *temporal.Beat, inc, sampleRate int) int {
	return int(math.Floor(beat.Interval() * float64(inc) * float64(sampleRate) / float64(beat.Fraction())))
}

type pianoStep struct {
	note   int
	length int
}

// Synthesize renders notations by concatenating the head of each step's
// pitch-class sample. A sample shorter than its step is used whole, without
// padding.
func Synthesize(notations []int, beat *temporal.Beat, sounds *Sounds, p SynthParams) ([]float64, error) {
	if beat == nil || sounds == nil {
		return nil, fmt.Errorf("%w: beat and sounds are required", ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	measures := p.Measures
	if measures == 0 {
		measures = len(notations) / p.MeasureLength()
	}

	// plan first so an overrun fails before any rendering
	steps := make([]pianoStep, 0, measures*len(p.Pattern))
	total := 0
	cursor := 0
	for range measures {
		for _, inc := range p.Pattern {
			idx := cursor
			if idx >= len(notations) {
				if p.Overrun != OverrunClamp || len(notations) == 0 {
					return nil, fmt.Errorf("%w: step needs notation %d, melody has %d", ErrOutOfRange, idx, len(notations))
				}
				idx = len(notations) - 1
			}
			note := notations[idx]
			if note < 0 || note >= len(sounds) {
				return nil, fmt.Errorf("%w: notation %d is not a pitch class", ErrInvalidInput, note)
			}
			length := min(StepLength(beat, inc, p.SampleRate), len(sounds[note]))
			steps = append(steps, pianoStep{note: note, length: length})
			total += length
			cursor += inc
		}
	}

	out := make([]float64, 0, total)
	for _, s := range steps {
		out = append(out, sounds[s.note][:s.length]...)
	}
	return out, nil
}

// NaivePiano is a piano part rendered from a melody by repeating a fixed
// rhythm pattern, ignoring how long each note was actually sung.
type NaivePiano struct {
	Melody *tonal.Melody
	Beat   *temporal.Beat
	Sounds *Sounds
	Track  Track
}

// NewNaivePiano renders the melody's notations once and keeps the result.
func NewNaivePiano(melody *tonal.Melody, beat *temporal.Beat, sounds *Sounds, p SynthParams) (*NaivePiano, error) {
	if melody == nil {
		return nil, fmt.Errorf("%w: melody is required", ErrInvalidInput)
	}
	samples, err := Synthesize(melody.Notations, beat, sounds, p)
	if err != nil {
		return nil, err
	}

	logging.Debug("Piano rendered", logging.Fields{
		"component": "naive_piano",
		"function":  "NewNaivePiano",
		"notations": len(melody.Notations),
		"measures":  p.Measures,
		"samples":   len(samples),
	})

	return &NaivePiano{
		Melody: melody,
		Beat:   beat,
		Sounds: sounds,
		Track:  NewTrack(samples, p.SampleRate),
	}, nil
}
