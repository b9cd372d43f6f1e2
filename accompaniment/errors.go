// Package accompaniment turns a vocal recording into a vocal-plus-piano mix:
// it analyzes the vocal's beat-synchronous chroma, fits a key, derives one
// note per step and renders a sampled piano part following a rhythm pattern.
package accompaniment

import "errors"

var (
	// ErrInvalidInput is returned for empty tracks and malformed parameters.
	ErrInvalidInput = errors.New("accompaniment: invalid input")

	// ErrResourceNotFound is returned when a piano sample is missing.
	ErrResourceNotFound = errors.New("accompaniment: resource not found")

	// ErrOutOfRange is returned when the rhythm pattern needs more notations
	// than the melody has.
	ErrOutOfRange = errors.New("accompaniment: melody cursor out of range")
)
