// Package cursor defines the iterator protocol every dictionary exposes
// (spec.md §4.4): a status state machine shared by every implementation,
// plus the Cursor interface callers drive.
package cursor

import "github.com/Priyanshu23/FlashLogGo/types"

// Status is the cursor's position in the state machine:
//
//	uninitialized -> initialized -> active <-> active -> end_of_results
//	                     |              |
//	                  invalid        invalid
type Status int

const (
	Uninitialized Status = iota
	Initialized
	Active
	EndOfResults
	Invalid
)

// Cursor iterates records matching a predicate. Next advances the cursor
// and reports its new status; Destroy releases all resources and is legal
// in any state.
type Cursor interface {
	Next(out *types.Record) Status
	Status() Status
	Destroy() error
}

// StateMachine enforces the transition table of spec.md §4.4 and is
// embedded by every dictionary's cursor implementation so the transition
// logic is written once. It never transitions out of EndOfResults or
// Invalid (spec.md §8's cursor state monotonicity property).
type StateMachine struct {
	status Status
}

// NewStateMachine returns a machine seeded at Initialized if hasMatch is
// true (find found at least one candidate record), else EndOfResults —
// the two states Find may return a cursor in (spec.md §4.4).
func NewStateMachine(hasMatch bool) StateMachine {
	if hasMatch {
		return StateMachine{status: Initialized}
	}
	return StateMachine{status: EndOfResults}
}

// Status returns the current state.
func (s *StateMachine) Status() Status {
	return s.status
}

// Advance transitions the machine given whether a next record was found
// and whether advancing hit an I/O failure. It returns the resulting
// status; callers should stop yielding once it reports anything but
// Initialized or Active.
func (s *StateMachine) Advance(found bool, ioErr bool) Status {
	if s.status == EndOfResults || s.status == Invalid {
		return s.status
	}

	if ioErr {
		s.status = Invalid
		return s.status
	}

	if !found {
		s.status = EndOfResults
		return s.status
	}

	if s.status == Initialized {
		s.status = Active
	} else if s.status != Active {
		// Uninitialized Advance shouldn't happen in practice; treat the
		// first successful advance as entering Active regardless.
		s.status = Active
	}

	return s.status
}

// Invalidate forces the machine into the terminal Invalid state, used when
// a cursor observes an I/O failure outside of Advance (e.g. during
// construction).
func (s *StateMachine) Invalidate() {
	s.status = Invalid
}
