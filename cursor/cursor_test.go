package cursor

import "testing"

func TestNewStateMachineSeedsFromHasMatch(t *testing.T) {
	m := NewStateMachine(true)
	if m.Status() != Initialized {
		t.Fatalf("got %v, want Initialized", m.Status())
	}

	m2 := NewStateMachine(false)
	if m2.Status() != EndOfResults {
		t.Fatalf("got %v, want EndOfResults", m2.Status())
	}
}

func TestAdvanceInitializedToActiveToEndOfResults(t *testing.T) {
	m := NewStateMachine(true)

	if got := m.Advance(true, false); got != Active {
		t.Fatalf("first advance: got %v, want Active", got)
	}
	if got := m.Advance(true, false); got != Active {
		t.Fatalf("second advance: got %v, want Active", got)
	}
	if got := m.Advance(false, false); got != EndOfResults {
		t.Fatalf("exhausted advance: got %v, want EndOfResults", got)
	}
}

func TestAdvanceNeverLeavesEndOfResults(t *testing.T) {
	m := NewStateMachine(true)
	m.Advance(false, false)

	if got := m.Advance(true, false); got != EndOfResults {
		t.Fatalf("got %v, want EndOfResults to stick", got)
	}
}

func TestAdvanceOnIOErrorGoesInvalidAndSticks(t *testing.T) {
	m := NewStateMachine(true)

	if got := m.Advance(true, true); got != Invalid {
		t.Fatalf("got %v, want Invalid", got)
	}
	if got := m.Advance(true, false); got != Invalid {
		t.Fatalf("got %v, want Invalid to stick", got)
	}
}

func TestInvalidateForcesTerminalState(t *testing.T) {
	m := NewStateMachine(true)
	m.Invalidate()
	if m.Status() != Invalid {
		t.Fatalf("got %v, want Invalid", m.Status())
	}
}
