package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput rejects a start request without a file or with an
	// unknown display.
	ErrInvalidInput = errors.New("invalid playback request")
	// ErrSessionBusy rejects a start request while a session is running.
	ErrSessionBusy = errors.New("playback session already active")
	// ErrClosed rejects a start request after Close.
	ErrClosed = errors.New("playback controller closed")
)

// DecodeGraphError reports a decode graph that could not be built or
// started for a file.
type DecodeGraphError struct {
	File string
	Err  error
}

func (e *DecodeGraphError) Error() string {
	return fmt.Sprintf("decode graph for %s: %v", e.File, e.Err)
}

func (e *DecodeGraphError) Unwrap() error {
	return e.Err
}
