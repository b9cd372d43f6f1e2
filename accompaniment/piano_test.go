package accompaniment_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"testing"

	"github.com/RyanBlaney/sonido-accompany/accompaniment"
	"github.com/RyanBlaney/sonido-accompany/algorithms/temporal"
	"github.com/RyanBlaney/sonido-accompany/algorithms/tonal"
)

func mustBeat(t *testing.T, rhythm int, tempo float64) *temporal.Beat {
	t.Helper()
	b, err := temporal.NewBeat(rhythm, tempo)
	if err != nil {
		t.Fatalf("NewBeat(%d, %v): %v", rhythm, tempo, err)
	}
	return b
}

// constantSounds gives pitch class pc a sample of n copies of float64(pc).
func constantSounds(n int) *accompaniment.Sounds {
	var s accompaniment.Sounds
	for pc := range s {
		s[pc] = make([]float64, n)
		for i := range s[pc] {
			s[pc][i] = float64(pc)
		}
	}
	return &s
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i % 12
	}
	return out
}

// segments collapses runs of equal values into (value, length) pairs.
func segments(samples []float64) [][2]int {
	var out [][2]int
	for i, v := range samples {
		if i == 0 || samples[i-1] != v {
			out = append(out, [2]int{int(v), 0})
		}
		out[len(out)-1][1]++
	}
	return out
}

func testParams(measures int) accompaniment.SynthParams {
	p := accompaniment.DefaultSynthParams()
	p.Measures = measures
	p.SampleRate = 8
	return p
}

func TestStepLength(t *testing.T) {
	tests := []struct {
		rhythm     int
		tempo      float64
		inc        int
		sampleRate int
		want       int
	}{
		{4, 60, 1, 8, 2},
		{4, 60, 4, 8, 8},
		{3, 120, 1, 44100, 11025},
		{3, 120, 2, 44100, 22050},
		{4, 100, 1, 22050, 3307}, // 3307.5 floored
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d@%v/%d", tt.rhythm, tt.tempo, tt.inc), func(t *testing.T) {
			got := accompaniment.StepLength(mustBeat(t, tt.rhythm, tt.tempo), tt.inc, tt.sampleRate)
			if got != tt.want {
				t.Fatalf("StepLength = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSynthesizeOneMeasure(t *testing.T) {
	// interval 1s, fraction 4, 8 Hz: every beat of a step lasts 2 samples
	beat := mustBeat(t, 4, 60)
	out, err := accompaniment.Synthesize(sequence(16), beat, constantSounds(10), testParams(1))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	// cursor visits 0, 4, 8, 9, 10, 12, 14
	want := [][2]int{{0, 8}, {4, 8}, {8, 2}, {9, 2}, {10, 4}, {0, 4}, {2, 4}}
	if got := segments(out); !slices.Equal(got, want) {
		t.Fatalf("segments = %v, want %v", got, want)
	}
}

func TestSynthesizeShortSamples(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	out, err := accompaniment.Synthesize(sequence(16), beat, constantSounds(3), testParams(1))
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{0, 3}, {4, 3}, {8, 2}, {9, 2}, {10, 3}, {0, 3}, {2, 3}}
	if got := segments(out); !slices.Equal(got, want) {
		t.Fatalf("segments = %v, want %v", got, want)
	}
}

func TestSynthesizeCursorAdvance(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	p := testParams(1)
	if n := p.MeasureLength(); n != 16 {
		t.Fatalf("MeasureLength = %d, want 16", n)
	}

	// the last step reads index 14
	if _, err := accompaniment.Synthesize(sequence(15), beat, constantSounds(10), p); err != nil {
		t.Fatalf("15 notations: %v", err)
	}
	_, err := accompaniment.Synthesize(sequence(14), beat, constantSounds(10), p)
	if !errors.Is(err, accompaniment.ErrOutOfRange) {
		t.Fatalf("14 notations err = %v, want ErrOutOfRange", err)
	}
}

func TestSynthesizeOverrunClamp(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	p := testParams(1)
	p.Overrun = accompaniment.OverrunClamp

	notes := sequence(10) // last notation is 9
	out, err := accompaniment.Synthesize(notes, beat, constantSounds(10), p)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := [][2]int{{0, 8}, {4, 8}, {8, 2}, {9, 2 + 4 + 4 + 4}}
	if got := segments(out); !slices.Equal(got, want) {
		t.Fatalf("segments = %v, want %v", got, want)
	}

	if _, err := accompaniment.Synthesize(nil, beat, constantSounds(10), p); !errors.Is(err, accompaniment.ErrOutOfRange) {
		t.Fatalf("empty melody err = %v, want ErrOutOfRange", err)
	}
}

func TestSynthesizeAutoMeasures(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	out, err := accompaniment.Synthesize(sequence(35), beat, constantSounds(10), testParams(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2*32 {
		t.Fatalf("len = %d, want two measures of 32", len(out))
	}

	out, err = accompaniment.Synthesize(sequence(5), beat, constantSounds(10), testParams(0))
	if err != nil || len(out) != 0 {
		t.Fatalf("partial measure: len %d, err %v", len(out), err)
	}
}

func TestSynthesizeInvalid(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	sounds := constantSounds(10)

	bad := testParams(1)
	bad.Pattern = []int{2, 0}
	tests := map[string]struct {
		notes  []int
		beat   *temporal.Beat
		sounds *accompaniment.Sounds
		params accompaniment.SynthParams
	}{
		"nil beat":       {sequence(16), nil, sounds, testParams(1)},
		"nil sounds":     {sequence(16), beat, nil, testParams(1)},
		"zero step":      {sequence(16), beat, sounds, bad},
		"bad notation":   {append([]int{12}, sequence(15)...), beat, sounds, testParams(1)},
		"negative count": {sequence(16), beat, sounds, testParams(-1)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := accompaniment.Synthesize(tt.notes, tt.beat, tt.sounds, tt.params)
			if !errors.Is(err, accompaniment.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNewNaivePiano(t *testing.T) {
	beat := mustBeat(t, 4, 60)
	melody := &tonal.Melody{Notations: sequence(16)}

	piano, err := accompaniment.NewNaivePiano(melody, beat, constantSounds(10), testParams(1))
	if err != nil {
		t.Fatalf("NewNaivePiano: %v", err)
	}
	if piano.Track.SampleRate != 8 || piano.Track.Len() != 32 || piano.Track.Duration != 4 {
		t.Fatalf("Track = %+v", piano.Track)
	}
	if piano.Melody != melody || piano.Beat != beat {
		t.Fatal("piano should keep its melody and beat")
	}
}

func TestParseOverrunPolicy(t *testing.T) {
	for in, want := range map[string]accompaniment.OverrunPolicy{
		"":      accompaniment.OverrunError,
		"error": accompaniment.OverrunError,
		"Clamp": accompaniment.OverrunClamp,
	} {
		got, err := accompaniment.ParseOverrunPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseOverrunPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := accompaniment.ParseOverrunPolicy("wrap"); !errors.Is(err, accompaniment.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if s := accompaniment.OverrunClamp.String(); s != "clamp" {
		t.Fatalf("String = %q", s)
	}
}

// fakeLoader serves constant samples and reports names in missing as absent.
type fakeLoader struct {
	length  int
	missing string
	fail    error
	calls   []string
}

func (f *fakeLoader) LoadSample(_ context.Context, name string, sampleRate int) ([]float64, error) {
	f.calls = append(f.calls, name)
	if name == f.missing {
		return nil, fmt.Errorf("open %s.wav: %w", name, fs.ErrNotExist)
	}
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]float64, f.length)
	for i := range out {
		out[i] = float64(len(f.calls))
	}
	return out, nil
}

func TestLoadSounds(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{length: 5}

	sounds, err := accompaniment.LoadSounds(ctx, loader, accompaniment.DefaultNoteNames(), 44100)
	if err != nil {
		t.Fatalf("LoadSounds: %v", err)
	}
	if !slices.Equal(loader.calls, accompaniment.DefaultNoteNames()) {
		t.Fatalf("loaded %v", loader.calls)
	}
	if sounds[11][0] != 12 || len(sounds[0]) != 5 {
		t.Fatalf("B sample = %v", sounds[11])
	}
}

func TestLoadSoundsErrors(t *testing.T) {
	ctx := context.Background()

	_, err := accompaniment.LoadSounds(ctx, &fakeLoader{missing: "F5s"}, accompaniment.DefaultNoteNames(), 44100)
	if !errors.Is(err, accompaniment.ErrResourceNotFound) {
		t.Fatalf("missing sample err = %v, want ErrResourceNotFound", err)
	}

	boom := errors.New("disk on fire")
	_, err = accompaniment.LoadSounds(ctx, &fakeLoader{fail: boom}, accompaniment.DefaultNoteNames(), 44100)
	if !errors.Is(err, boom) || errors.Is(err, accompaniment.ErrResourceNotFound) {
		t.Fatalf("loader failure err = %v", err)
	}

	_, err = accompaniment.LoadSounds(ctx, &fakeLoader{}, []string{"C5"}, 44100)
	if !errors.Is(err, accompaniment.ErrInvalidInput) {
		t.Fatalf("short name table err = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = accompaniment.LoadSounds(cancelled, &fakeLoader{}, accompaniment.DefaultNoteNames(), 44100)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled err = %v", err)
	}
}
