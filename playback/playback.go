// Package playback plays tracks on the default audio device.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/RyanBlaney/sonido-accompany/logging"
	"github.com/RyanBlaney/sonido-accompany/transcode"
)

// ErrEmptyTrack is returned when there is nothing to play.
var ErrEmptyTrack = errors.New("playback: empty track")

// Options tunes playback.
type Options struct {
	// Volume is a linear gain; 1 plays unchanged, 0 is silent.
	Volume float64

	// BufferDuration is the speaker buffer length.
	BufferDuration time.Duration
}

// DefaultOptions returns unity gain and a 100 ms buffer.
func DefaultOptions() Options {
	return Options{Volume: 1, BufferDuration: 100 * time.Millisecond}
}

// The speaker is process-wide and can only be initialized for one rate at a
// time.
var (
	mu   sync.Mutex
	rate beep.SampleRate
)

func initSpeaker(sr beep.SampleRate, buffer time.Duration) error {
	if rate == sr {
		return nil
	}
	if rate != 0 {
		speaker.Close()
	}
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		rate = 0
		return err
	}
	rate = sr
	return nil
}

// Stream wraps samples in the volume effect used for playback.
func Stream(samples []float64, volume float64) beep.Streamer {
	if volume <= 0 {
		return &effects.Volume{Streamer: transcode.NewSliceStreamer(samples), Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: transcode.NewSliceStreamer(samples), Base: 2, Volume: math.Log2(volume)}
}

// Play plays samples at sampleRate and blocks until they finish or ctx is
// done. Only one Play runs at a time.
func Play(ctx context.Context, samples []float64, sampleRate int, opts Options) error {
	if len(samples) == 0 {
		return ErrEmptyTrack
	}
	if sampleRate <= 0 {
		return fmt.Errorf("playback: invalid sample rate %d", sampleRate)
	}
	if opts.BufferDuration <= 0 {
		opts.BufferDuration = DefaultOptions().BufferDuration
	}

	mu.Lock()
	defer mu.Unlock()

	if err := initSpeaker(beep.SampleRate(sampleRate), opts.BufferDuration); err != nil {
		return fmt.Errorf("playback: init speaker: %w", err)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "playback",
		"function":  "Play",
	})
	logger.Debug("Playing", logging.Fields{
		"samples":     len(samples),
		"sample_rate": sampleRate,
		"volume":      opts.Volume,
	})

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: Stream(samples, opts.Volume)}
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		speaker.Clear()
		logger.Debug("Playback cancelled")
		return ctx.Err()
	}
}
