package domain

import "time"

type SessionID int64

// Session is a bounded collection window with a target amount and a running
// total. At most one session is active at a time; Current only accumulates
// transactions finalized while the session is active.
type Session struct {
	ID        SessionID
	Target    int64
	Current   int64
	Active    bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Progress reports completion as a whole percentage, capped at 100. A zero
// target yields 0.
func (s Session) Progress() int {
	if s.Target <= 0 {
		return 0
	}
	progress := int(s.Current * 100 / s.Target)
	if progress > 100 {
		return 100
	}
	return progress
}
