package session

import "github.com/mcdev12/buffet/go/internal/models"

// LowTimeThreshold is the remaining time under which the active screen warns
const LowTimeThreshold = 300

// Screen is the view the diner should be looking at
type Screen string

const (
	ScreenStart      Screen = "start"
	ScreenActive     Screen = "active"
	ScreenExpired    Screen = "expired"
	ScreenCheckedOut Screen = "checked_out"
)

// State is the local view of one ordering session.
type State struct {
	Order            *models.Order
	RemainingSeconds int
	LastError        string

	// Starting is set while a start request is outstanding.
	Starting bool

	issuedFetch  uint64
	appliedFetch uint64
	// reconcileSeq is the fetch issued when the countdown hit zero; 0 when none
	// is outstanding.
	reconcileSeq uint64
	// rejectFetch is the refetch issued after the server refused an item. Its
	// failure keeps the server's reason in LastError.
	rejectFetch uint64
}

// Screen applies the screen-selection policy. The order of the checks
// matters: checked-out wins over active.
func (s State) Screen() Screen {
	switch {
	case s.Order == nil:
		return ScreenStart
	case s.Order.IsCheckedOut:
		return ScreenCheckedOut
	case !s.Order.IsActive:
		return ScreenExpired
	default:
		return ScreenActive
	}
}

// LowTime reports whether the active screen should show the warning
func (s State) LowTime() bool {
	return s.Screen() == ScreenActive && s.RemainingSeconds < LowTimeThreshold
}

// Reconciling reports whether an expiry reconciliation is outstanding
func (s State) Reconciling() bool {
	return s.reconcileSeq != 0
}

// TimerActive reports whether the countdown should be ticking.
func (s State) TimerActive() bool {
	return s.Order.Open() && s.reconcileSeq == 0
}

// Clone returns a copy that shares nothing mutable with s
func (s State) Clone() State {
	s.Order = s.Order.Clone()
	return s
}

func (s *State) nextFetch() uint64 {
	s.issuedFetch++
	return s.issuedFetch
}
