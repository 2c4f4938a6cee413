package playback

import (
	"github.com/google/uuid"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/fallback"
	"github.com/junsooki/vitrine/internal/pump"
)

// Request selects what to play and where.
type Request struct {
	File     string `json:"file"`
	Display  int    `json:"display"`
	Fallback string `json:"fallback,omitempty"`
}

// Status is a snapshot of the controller published to subscribers.
type Status struct {
	Active    bool
	SessionID string
	Request   Request
	// Set once a session has finished.
	Reason   pump.Reason
	Frames   int
	Fallback fallback.Result
	Err      error
}

// Session is one playback run. Its target display and fallback are frozen
// when it starts.
type Session struct {
	ID      string
	Request Request

	target display.Descriptor
	signal *pump.Signal
	done   chan struct{}
}

func newSession(req Request, target display.Descriptor) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Request: req,
		target:  target,
		signal:  pump.NewSignal(),
		done:    make(chan struct{}),
	}
}
