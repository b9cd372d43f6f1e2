package accompaniment

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
	"github.com/RyanBlaney/sonido-accompany/algorithms/common"
	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
	"github.com/RyanBlaney/sonido-accompany/logging"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

// Options configures every stage of a Pipeline.
type Options struct {
	Analysis  chroma.CQTConfig
	Fit       tonal.FitParams
	NoteNames []string
	Synth     SynthParams
}

// DefaultOptions returns the default options for every stage.
func DefaultOptions() Options {
	return Options{
		Analysis:  chroma.DefaultCQTConfig(),
		Fit:       tonal.DefaultFitParams(),
		NoteNames: DefaultNoteNames(),
		Synth:     DefaultSynthParams(),
	}
}

// Result is everything a pipeline run produces.
type Result struct {
	Mixed    Track      // vocal plus piano at the vocal's sample rate
	Harmonic *mat.Dense // beat-synchronous chroma of the vocal
	Melody   *tonal.Melody
	Piano    *NaivePiano
}

// Pipeline runs analyze, fit, transform, synthesize and mix in order.
type Pipeline struct {
	options Options
	loader  SoundLoader
	logger  logging.Logger
}

// NewPipeline creates a pipeline that loads piano samples through loader.
func NewPipeline(options Options, loader SoundLoader) *Pipeline {
	return &Pipeline{
		options: options,
		loader:  loader,
		logger: logging.WithFields(logging.Fields{
			"component": "accompaniment_pipeline",
		}),
	}
}

// Options returns the pipeline's options.
func (p *Pipeline) Options() Options {
	return p.options
}

// Run accompanies the vocal track. The first failing stage aborts the run and
// its error is returned with the stage name.
func (p *Pipeline) Run(ctx context.Context, beat *temporal.Beat, vocal Track) (*Result, error) {
	if beat == nil {
		return nil, fmt.Errorf("%w: beat is required", ErrInvalidInput)
	}

	start := time.Now()
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":    "Run",
		"beat":        beat.String(),
		"sample_rate": vocal.SampleRate,
		"duration":    vocal.Duration,
	})

	harmonic, err := NewVocal(vocal, beat).Analyze(p.options.Analysis)
	if err != nil {
		logger.Error(err, "Vocal analysis failed")
		return nil, fmt.Errorf("analyze: %w", err)
	}

	melody := tonal.NewMelodyWithParams(p.options.Fit, tonal.DefaultScales())
	if err := melody.Fit(harmonic); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if err := melody.SimpleTransform(harmonic); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	logger.Info("Key fitted", logging.Fields{
		"key":       melody.Scale.Name(),
		"notations": len(melody.Notations),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sounds, err := LoadSounds(ctx, p.loader, p.options.NoteNames, p.options.Synth.SampleRate)
	if err != nil {
		logger.Error(err, "Loading piano samples failed")
		return nil, fmt.Errorf("load sounds: %w", err)
	}

	piano, err := NewNaivePiano(melody, beat, sounds, p.options.Synth)
	if err != nil {
		logger.Error(err, "Piano synthesis failed")
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	pianoSamples := piano.Track.Samples
	if piano.Track.SampleRate != vocal.SampleRate {
		pianoSamples, err = transcode.Resample(pianoSamples, piano.Track.SampleRate, vocal.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("resample piano: %w", err)
		}
	}

	mixed := vocal.Assemble(NewTrack(pianoSamples, vocal.SampleRate))

	peak := common.Peak(mixed.Samples)
	if peak > 1 {
		logger.Warn("Mixed track exceeds full scale and will clip on export", logging.Fields{
			"peak": peak,
		})
	}
	logger.Info("Accompaniment rendered", logging.Fields{
		"piano_samples": len(pianoSamples),
		"mixed_samples": mixed.Len(),
		"mixed_rms":     common.RMS(mixed.Samples),
		"peak":          peak,
		"elapsed":       time.Since(start).String(),
	})

	return &Result{
		Mixed:    mixed,
		Harmonic: harmonic,
		Melody:   melody,
		Piano:    piano,
	}, nil
}
