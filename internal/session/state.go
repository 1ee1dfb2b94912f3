// Package session owns the request lifecycle: the Idle/Loading/Settled state
// machine, submission ids, and the mapping of every round trip into a
// single ask.Result.
package session

import (
	"strings"

	"github.com/csheth/askdb/internal/ask"
)

// Phase is the lifecycle stage of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// State is the whole session as seen by renderers.
type State struct {
	Phase Phase
	// Latest is the id of the most recent submission. Only its completion may
	// settle the state.
	Latest uint64
	// Result is the settled result. While loading it still holds the previous
	// result, which is replaced when the latest submission completes.
	Result ask.Result
}

// Loading reports whether a request for the latest submission is in flight.
func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

// Settled returns the result when the state is settled.
func (s State) Settled() (ask.Result, bool) {
	if s.Phase != PhaseSettled || s.Result == nil {
		return nil, false
	}
	return s.Result, true
}

// Event drives a transition.
type Event interface {
	isEvent()
}

// Submitted records that a new submission was dispatched.
type Submitted struct {
	ID uint64
}

// Completed records that a submission's round trip finished.
type Completed struct {
	ID     uint64
	Result ask.Result
}

func (Submitted) isEvent() {}
func (Completed) isEvent() {}

// Apply is the only transition function. The second return value reports
// whether the event changed the state; stale or out-of-order events do not.
func Apply(s State, e Event) (State, bool) {
	switch ev := e.(type) {
	case Submitted:
		if ev.ID <= s.Latest {
			return s, false
		}
		s.Phase = PhaseLoading
		s.Latest = ev.ID
		return s, true
	case Completed:
		if s.Phase != PhaseLoading || ev.ID != s.Latest {
			return s, false
		}
		result := ev.Result
		if result == nil {
			result = ask.Failure{Answer: ask.FallbackMessage}
		}
		s.Phase = PhaseSettled
		s.Result = result
		return s, true
	default:
		return s, false
	}
}

// Normalize trims question text and reports whether it may be submitted.
func Normalize(text string) (string, bool) {
	question := strings.TrimSpace(text)
	return question, question != ""
}
