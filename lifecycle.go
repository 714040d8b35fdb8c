package framebridge

import (
	"errors"
	"sync/atomic"
)

// PipelineState models the bridge's view of the external pipeline.
type PipelineState int32

const (
	StateIdle PipelineState = iota
	StatePlaying
	StateStopped
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var ErrAlreadyStarted = errors.New("pipeline already started")

// Lifecycle tracks the pipeline state machine and the done flag shared
// between the control-bus goroutine and the consumer. State moves
// Idle → Playing → Stopped; Stopped is terminal. The done flag transitions
// false → true exactly once, on the first MarkStopped.
type Lifecycle struct {
	state atomic.Int32
	done  atomic.Bool
}

// BeginPlaying transitions Idle → Playing. It fails when called more than
// once or after the run has stopped.
func (l *Lifecycle) BeginPlaying() error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StatePlaying)) {
		return ErrAlreadyStarted
	}
	return nil
}

// MarkStopped moves the state machine to Stopped and sets the done flag.
// It reports whether this call performed the transition; repeated calls are
// no-ops returning false.
func (l *Lifecycle) MarkStopped() bool {
	prev := l.state.Swap(int32(StateStopped))
	if PipelineState(prev) == StateStopped {
		return false
	}
	l.done.Store(true)
	return true
}

func (l *Lifecycle) State() PipelineState {
	return PipelineState(l.state.Load())
}

// Done reports whether the run has terminated, either by Stop, end of
// stream, or a pipeline error. Safe to call from any goroutine.
func (l *Lifecycle) Done() bool {
	return l.done.Load()
}
