package storage

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrNotFound is returned when a bundle does not exist in the store.
	ErrNotFound = errors.New("storage: bundle not found")

	// ErrInvalidName is returned for an empty bundle name.
	ErrInvalidName = errors.New("storage: invalid bundle name")
)

// Bundle is the persisted state of a track and its beat: the declared rhythm
// and tempo, the derived beat interval, and the mono sample buffer.
type Bundle struct {
	Rhythm     int       `msgpack:"rhythm"`
	Tempo      float64   `msgpack:"tempo"`
	Interval   float64   `msgpack:"interval"`
	Samples    []float64 `msgpack:"samples"`
	Duration   float64   `msgpack:"duration"`
	SampleRate int       `msgpack:"sample_rate"`
}

// Encode serializes the bundle with msgpack. Float64 values are stored at
// full precision so a decode returns identical values.
func (b *Bundle) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("storage: encode bundle: %w", err)
	}
	return data, nil
}

// DecodeBundle parses a msgpack-encoded bundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("storage: decode bundle: %w", err)
	}
	return &b, nil
}
