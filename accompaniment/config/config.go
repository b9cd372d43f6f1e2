// Package config loads the YAML configuration of the accompaniment pipeline.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/RyanBlaney/sonido-accompany/accompaniment"
	"github.com/RyanBlaney/sonido-accompany/algorithms/chroma"
	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the full configuration file.
type Config struct {
	Analysis chroma.CQTConfig        `yaml:"analysis"`
	Fit      tonal.FitParams         `yaml:"fit"`
	Piano    PianoConfig             `yaml:"piano"`
	Decoder  transcode.DecoderConfig `yaml:"decoder"`
	Storage  StorageConfig           `yaml:"storage"`
	Log      LogConfig               `yaml:"log"`
}

// PianoConfig describes the sample set and the rhythm pattern.
type PianoConfig struct {
	SampleDir  string   `yaml:"sample_dir"` // relative to the storage dir
	NoteNames  []string `yaml:"note_names"` // C through B
	SampleRate int      `yaml:"sample_rate"`
	Pattern    []int    `yaml:"pattern"`
	Measures   int      `yaml:"measures"` // 0 = as many as the melody covers
	Overrun    string   `yaml:"overrun"`  // error | clamp
}

// StorageConfig selects where samples and bundles live.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	synth := accompaniment.DefaultSynthParams()
	return &Config{
		Analysis: chroma.DefaultCQTConfig(),
		Fit:      tonal.DefaultFitParams(),
		Piano: PianoConfig{
			SampleDir:  "Sounds/PianoSamples",
			NoteNames:  accompaniment.DefaultNoteNames(),
			SampleRate: synth.SampleRate,
			Pattern:    synth.Pattern,
			Measures:   synth.Measures,
			Overrun:    synth.Overrun.String(),
		},
		Decoder: *transcode.DefaultDecoderConfig(),
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     ".",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	return LoadOver(Default(), path)
}

// LoadOver reads the YAML file at path over base. Keys absent from the file
// keep base's values. base is modified and returned.
func LoadOver(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseOver(base, data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	return ParseOver(Default(), data)
}

// ParseOver decodes data over base and validates the result.
func ParseOver(base *Config, data []byte) (*Config, error) {
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Decoder.SampleRate <= 0 {
		return fmt.Errorf("%w: decoder.sample_rate must be positive", ErrInvalid)
	}
	if err := c.Analysis.Validate(c.Decoder.SampleRate); err != nil {
		return fmt.Errorf("%w: analysis: %w", ErrInvalid, err)
	}
	if c.Fit.WeakThreshold > c.Fit.StrongThreshold {
		return fmt.Errorf("%w: fit.weak_threshold %v above fit.strong_threshold %v",
			ErrInvalid, c.Fit.WeakThreshold, c.Fit.StrongThreshold)
	}
	if len(c.Piano.NoteNames) != 12 {
		return fmt.Errorf("%w: piano.note_names needs 12 entries, got %d", ErrInvalid, len(c.Piano.NoteNames))
	}
	synth, err := c.synthParams()
	if err != nil {
		return fmt.Errorf("%w: piano: %w", ErrInvalid, err)
	}
	if err := synth.Validate(); err != nil {
		return fmt.Errorf("%w: piano: %w", ErrInvalid, err)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendBadger:
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalid, c.Storage.Backend)
	}
	return nil
}

func (c *Config) synthParams() (accompaniment.SynthParams, error) {
	overrun, err := accompaniment.ParseOverrunPolicy(c.Piano.Overrun)
	if err != nil {
		return accompaniment.SynthParams{}, err
	}
	return accompaniment.SynthParams{
		Pattern:    c.Piano.Pattern,
		Measures:   c.Piano.Measures,
		SampleRate: c.Piano.SampleRate,
		Overrun:    overrun,
	}, nil
}

// Options converts the configuration into pipeline options. It assumes
// Validate has passed.
func (c *Config) Options() accompaniment.Options {
	synth, _ := c.synthParams()
	return accompaniment.Options{
		Analysis:  c.Analysis,
		Fit:       c.Fit,
		NoteNames: c.Piano.NoteNames,
		Synth:     synth,
	}
}
