package pump

import "sync/atomic"

// Reason tells why a session ended.
type Reason int32

const (
	StopRequested Reason = iota + 1
	StopQuit
	EndOfStream
)

func (r Reason) String() string {
	switch r {
	case StopRequested:
		return "stop-requested"
	case StopQuit:
		return "quit"
	case EndOfStream:
		return "end-of-stream"
	default:
		return "none"
	}
}

// Signal is the stop flag shared by a controller and one pump. It flips
// exactly once; the first reason wins.
type Signal struct {
	reason atomic.Int32
	done   chan struct{}
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Raise sets the flag. It reports false when the flag was already set.
func (s *Signal) Raise(r Reason) bool {
	if !s.reason.CompareAndSwap(0, int32(r)) {
		return false
	}
	close(s.done)
	return true
}

func (s *Signal) Raised() bool {
	return s.reason.Load() != 0
}

// Reason is zero until the signal is raised.
func (s *Signal) Reason() Reason {
	return Reason(s.reason.Load())
}

// Done is closed when the signal is raised.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}
